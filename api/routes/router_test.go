package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/plateful/plateful-backend/pkg/config"
)

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.JWT = config.JWTConfig{Secret: "router-secret", Issuer: "plateful-test", ExpirationMinutes: 5}
	return NewRouter(Deps{Config: cfg})
}

func TestRouterHealthLive(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 but got %d", w.Code)
	}
	if got := w.Header().Get("X-Plateful-Env"); got != "test" {
		t.Fatalf("unexpected env header %q", got)
	}
}

func TestRouterProtectedRoutesRequireAuth(t *testing.T) {
	router := testRouter(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/orders"},
		{http.MethodGet, "/api/v1/restaurants/0c7bdc1e-7d06-4a3d-8f5b-111111111111/cart"},
		{http.MethodPost, "/api/v1/cart/0c7bdc1e-7d06-4a3d-8f5b-111111111111/checkout"},
	}
	for _, route := range paths {
		req := httptest.NewRequest(route.method, route.path, strings.NewReader("{}"))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401 but got %d", route.method, route.path, w.Code)
		}
	}
}

func TestRouterBankWebhookIsPublic(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/bank", strings.NewReader("{}"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// No ledger service wired, but the route itself must not demand auth.
	if w.Code == http.StatusUnauthorized || w.Code == http.StatusNotFound {
		t.Fatalf("webhook route unreachable, status %d", w.Code)
	}
}
