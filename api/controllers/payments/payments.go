package payments

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/plateful/plateful-backend/api/middleware"
	"github.com/plateful/plateful-backend/api/responses"
	"github.com/plateful/plateful-backend/api/validators"
	internalorders "github.com/plateful/plateful-backend/internal/orders"
	internalpayments "github.com/plateful/plateful-backend/internal/payments"
	"github.com/plateful/plateful-backend/pkg/db/models"
	"github.com/plateful/plateful-backend/pkg/enums"
	pkgerrors "github.com/plateful/plateful-backend/pkg/errors"
	"github.com/plateful/plateful-backend/pkg/logger"
)

type paymentView struct {
	ID              uuid.UUID  `json:"id"`
	OrderID         uuid.UUID  `json:"order_id"`
	Method          string     `json:"method"`
	Status          string     `json:"status"`
	AmountCents     int        `json:"amount_cents"`
	TransactionCode string     `json:"transaction_code"`
	QRCode          *string    `json:"qr_code,omitempty"`
	FailureReason   *string    `json:"failure_reason,omitempty"`
	PaidAt          *time.Time `json:"paid_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func newPaymentView(record *models.Payment) paymentView {
	return paymentView{
		ID:              record.ID,
		OrderID:         record.OrderID,
		Method:          string(record.Method),
		Status:          string(record.Status),
		AmountCents:     record.AmountCents,
		TransactionCode: record.TransactionCode,
		QRCode:          record.QRCode,
		FailureReason:   record.FailureReason,
		PaidAt:          record.PaidAt,
		CreatedAt:       record.CreatedAt,
	}
}

type createPaymentRequest struct {
	Method string `json:"method" validate:"required"`
}

type cancelPaymentRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// Create opens a payment for an order. Bank transfers come back with the
// gateway QR payload; cash just records the obligation.
func Create(svc internalpayments.Service, orderSvc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := ensureOrderAccess(r, orderSvc, orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method, err := enums.ParsePaymentMethod(payload.Method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		record, err := svc.Create(r.Context(), orderID, method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newPaymentView(record))
	}
}

// GetForOrder returns the payment attached to an order.
func GetForOrder(svc internalpayments.Service, orderSvc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := ensureOrderAccess(r, orderSvc, orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.GetByOrderID(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newPaymentView(record))
	}
}

// ConfirmCash settles a cash payment at the counter and completes the order.
func ConfirmCash(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		paymentID, err := parsePaymentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.ConfirmCash(r.Context(), paymentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newPaymentView(record))
	}
}

// Cancel voids a pending payment.
func Cancel(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		paymentID, err := parsePaymentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cancelPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Cancel(r.Context(), paymentID, payload.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newPaymentView(record))
	}
}

// Refund reverses a settled payment.
func Refund(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		paymentID, err := parsePaymentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Refund(r.Context(), paymentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newPaymentView(record))
	}
}

func parseOrderID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id")
	}
	return id, nil
}

func parsePaymentID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "paymentID"))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment id")
	}
	return id, nil
}

// ensureOrderAccess hides other customers' orders behind a not-found.
func ensureOrderAccess(r *http.Request, orderSvc internalorders.Service, orderID uuid.UUID) error {
	if middleware.RoleFromContext(r.Context()) != enums.UserRoleCustomer {
		return nil
	}
	if orderSvc == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable")
	}
	record, err := orderSvc.GetByID(r.Context(), orderID)
	if err != nil {
		return err
	}
	if record.CustomerID != middleware.CustomerIDFromContext(r.Context()) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return nil
}
