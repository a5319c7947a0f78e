package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/plateful/plateful-backend/api/controllers"
	cartcontrollers "github.com/plateful/plateful-backend/api/controllers/cart"
	ordercontrollers "github.com/plateful/plateful-backend/api/controllers/orders"
	paymentcontrollers "github.com/plateful/plateful-backend/api/controllers/payments"
	webhookcontrollers "github.com/plateful/plateful-backend/api/controllers/webhooks"
	"github.com/plateful/plateful-backend/api/middleware"
	"github.com/plateful/plateful-backend/internal/cart"
	"github.com/plateful/plateful-backend/internal/ledger"
	"github.com/plateful/plateful-backend/internal/orders"
	"github.com/plateful/plateful-backend/internal/payments"
	"github.com/plateful/plateful-backend/pkg/config"
	"github.com/plateful/plateful-backend/pkg/db"
	"github.com/plateful/plateful-backend/pkg/enums"
	"github.com/plateful/plateful-backend/pkg/logger"
	"github.com/plateful/plateful-backend/pkg/redis"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           db.Pinger
	Redis        *redis.Client
	CartService  cart.Service
	OrderService orders.Service
	Payments     payments.Service
	Ledger       ledger.Service
	WebhookGuard *ledger.IdempotencyGuard
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/bank", webhookcontrollers.BankWebhook(deps.Ledger, deps.WebhookGuard, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/restaurants/{restaurantID}/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.Fetch(deps.CartService, logg))
			r.Post("/items", cartcontrollers.AddItem(deps.CartService, logg))
		})

		r.Route("/cart/{cartID}", func(r chi.Router) {
			r.Put("/items/{itemID}", cartcontrollers.UpdateItemQuantity(deps.CartService, logg))
			r.Delete("/items/{itemID}", cartcontrollers.RemoveItem(deps.CartService, logg))
			r.Delete("/items", cartcontrollers.Clear(deps.CartService, logg))
			r.Post("/checkout", cartcontrollers.Checkout(deps.CartService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.ListMine(deps.OrderService, logg))
			r.Get("/{orderID}", ordercontrollers.Detail(deps.OrderService, logg))
			r.Post("/{orderID}/cancel", ordercontrollers.Transition(deps.OrderService, logg, enums.OrderActionCancel))
			r.Put("/{orderID}/pickup-time", ordercontrollers.UpdatePickupTime(deps.OrderService, logg))

			r.Post("/{orderID}/payments", paymentcontrollers.Create(deps.Payments, deps.OrderService, logg))
			r.Get("/{orderID}/payments", paymentcontrollers.GetForOrder(deps.Payments, deps.OrderService, logg))
		})

		r.Route("/payments/{paymentID}", func(r chi.Router) {
			r.Post("/cancel", paymentcontrollers.Cancel(deps.Payments, logg))
		})

		// Kitchen and counter operations.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRoles(logg, enums.UserRoleStaff, enums.UserRoleOwner, enums.UserRoleAdmin))

			r.Get("/orders/pickup/{pickupCode}", ordercontrollers.PickupLookup(deps.OrderService, logg))
			r.Post("/orders/{orderID}/confirm", ordercontrollers.Transition(deps.OrderService, logg, enums.OrderActionConfirm))
			r.Post("/orders/{orderID}/start-preparing", ordercontrollers.Transition(deps.OrderService, logg, enums.OrderActionStartPrepare))
			r.Post("/orders/{orderID}/mark-ready", ordercontrollers.Transition(deps.OrderService, logg, enums.OrderActionMarkReady))
			r.Post("/orders/{orderID}/mark-picked-up", ordercontrollers.Transition(deps.OrderService, logg, enums.OrderActionMarkPickedUp))
			r.Post("/orders/{orderID}/complete", ordercontrollers.Transition(deps.OrderService, logg, enums.OrderActionComplete))

			r.Post("/payments/{paymentID}/confirm-cash", paymentcontrollers.ConfirmCash(deps.Payments, logg))
			r.Post("/payments/{paymentID}/refund", paymentcontrollers.Refund(deps.Payments, logg))
		})
	})

	return r
}
