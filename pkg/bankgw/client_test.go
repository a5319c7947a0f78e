package bankgw

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/plateful/plateful-backend/pkg/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(context.Background(), config.BankGatewayConfig{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client, server
}

func TestRequestPayable_Success(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payables" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"reference":"DH42","qr_code":"data:image/png;base64,abc"}`))
	})

	ref, err := client.RequestPayable(context.Background(), 42, 5000)
	if err != nil {
		t.Fatalf("RequestPayable: %v", err)
	}
	if ref.Reference != "DH42" {
		t.Fatalf("unexpected reference %q", ref.Reference)
	}
	if ref.QRCode == "" {
		t.Fatal("expected qr code")
	}
}

func TestRequestPayable_RetriesOnce(t *testing.T) {
	attempts := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"reference":"DH7","qr_code":"qr"}`))
	})

	ref, err := client.RequestPayable(context.Background(), 7, 100)
	if err != nil {
		t.Fatalf("RequestPayable after retry: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
	if ref.Reference != "DH7" {
		t.Fatalf("unexpected reference %q", ref.Reference)
	}
}

func TestRequestPayable_FailsAfterRetry(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, err := client.RequestPayable(context.Background(), 7, 100); err == nil {
		t.Fatal("expected error after retries exhausted")
	}
}

func TestRequestPayable_RejectsBadInput(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("gateway should not be called for invalid input")
	})

	if _, err := client.RequestPayable(context.Background(), 0, 100); err == nil {
		t.Fatal("expected error for zero order number")
	}
	if _, err := client.RequestPayable(context.Background(), 5, 0); err == nil {
		t.Fatal("expected error for zero amount")
	}
}

func TestNewClient_Validation(t *testing.T) {
	if _, err := NewClient(context.Background(), config.BankGatewayConfig{APIKey: "k"}, nil); !errors.Is(err, errBaseURLRequired) {
		t.Fatalf("expected base url error, got %v", err)
	}
	if _, err := NewClient(context.Background(), config.BankGatewayConfig{BaseURL: "http://x"}, nil); !errors.Is(err, errAPIKeyRequired) {
		t.Fatalf("expected api key error, got %v", err)
	}
}
