package payments

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/plateful/plateful-backend/internal/orders"
	"github.com/plateful/plateful-backend/pkg/bankgw"
	"github.com/plateful/plateful-backend/pkg/db"
	"github.com/plateful/plateful-backend/pkg/db/models"
	"github.com/plateful/plateful-backend/pkg/enums"
	pkgerrors "github.com/plateful/plateful-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type notifier interface {
	PaymentReceived(ctx context.Context, payment *models.Payment)
}

// Service drives the payment lifecycle and mirrors transitions onto the
// owning order's payment-status column.
type Service interface {
	Create(ctx context.Context, orderID uuid.UUID, method enums.PaymentMethod) (*models.Payment, error)
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error)
	ConfirmCash(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error)
	MarkPaid(ctx context.Context, paymentID uuid.UUID, gatewayTxnID, gatewayResponse *string) (*models.Payment, error)
	MarkPaidTx(ctx context.Context, tx *gorm.DB, paymentID uuid.UUID, gatewayTxnID, gatewayResponse *string) (*models.Payment, error)
	MarkFailed(ctx context.Context, paymentID uuid.UUID, reason string) (*models.Payment, error)
	Cancel(ctx context.Context, paymentID uuid.UUID, reason string) (*models.Payment, error)
	Refund(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error)
}

type service struct {
	repo      Repository
	orderRepo orders.Repository
	tx        txRunner
	gateway   bankgw.PayableRequester
	notify    notifier
	now       func() time.Time
}

// NewService builds a payment service with the required dependencies.
func NewService(repo Repository, orderRepo orders.Repository, tx txRunner, gateway bankgw.PayableRequester, notify notifier) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("bank gateway required")
	}
	if notify == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &service{
		repo:      repo,
		orderRepo: orderRepo,
		tx:        tx,
		gateway:   gateway,
		notify:    notify,
		now:       time.Now,
	}, nil
}

// Create attaches a payment to an order that has none yet. The amount is
// always the order's current total. For bank transfers the gateway payable
// request runs before the insert so a gateway failure never leaves a
// half-created payment behind.
func (s *service) Create(ctx context.Context, orderID uuid.UUID, method enums.PaymentMethod) (*models.Payment, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported payment method")
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if !orders.CanBeModified(order.Status) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer accept a payment")
	}
	if _, err := s.repo.FindByOrderID(ctx, orderID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "payment already exists for this order")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}

	code, err := newTransactionCode(method)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate transaction code")
	}

	record := &models.Payment{
		OrderID:         order.ID,
		Method:          method,
		Status:          enums.PaymentStatusPending,
		AmountCents:     order.TotalCents,
		TransactionCode: code,
	}

	if method == enums.PaymentMethodBankTransfer {
		ref, err := s.gateway.RequestPayable(ctx, order.OrderNumber, order.TotalCents)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "request payable from gateway")
		}
		record.QRCode = &ref.QRCode
		record.GatewayResponse = &ref.Reference
	}

	created, err := s.repo.Create(ctx, record)
	if err != nil {
		if db.IsUniqueViolation(err, "uq_payments_order") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "payment already exists for this order")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist payment")
	}
	return created, nil
}

// GetByOrderID returns the payment attached to an order, or not-found.
func (s *service) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	record, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	return record, nil
}

// ConfirmCash settles a pending cash payment. Handing over cash is the
// terminal confirmation step, so the order jumps straight to COMPLETED
// regardless of its fulfillment state.
func (s *service) ConfirmCash(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error) {
	var updated *models.Payment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		payment, err := s.loadForTransition(ctx, txRepo, paymentID)
		if err != nil {
			return err
		}
		if payment.Method != enums.PaymentMethodCash {
			return pkgerrors.New(pkgerrors.CodeValidation, "payment method is not cash")
		}
		if payment.Status != enums.PaymentStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment is not pending")
		}

		now := s.now().UTC()
		if err := txRepo.UpdateFields(ctx, payment.ID, map[string]any{
			"status":  enums.PaymentStatusPaid,
			"paid_at": now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payment paid")
		}

		txOrders := s.orderRepo.WithTx(tx)
		if err := txOrders.UpdatePaymentStatus(ctx, payment.OrderID, enums.PaymentStatusPaid); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cascade payment status")
		}
		if err := txOrders.UpdateFields(ctx, payment.OrderID, map[string]any{
			"status": enums.OrderStatusCompleted,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete order")
		}

		updated, err = txRepo.FindByID(ctx, payment.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notify.PaymentReceived(ctx, updated)
	return updated, nil
}

// MarkPaid settles a pending payment and mirrors PAID onto the order.
func (s *service) MarkPaid(ctx context.Context, paymentID uuid.UUID, gatewayTxnID, gatewayResponse *string) (*models.Payment, error) {
	var updated *models.Payment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var inner error
		updated, inner = s.MarkPaidTx(ctx, tx, paymentID, gatewayTxnID, gatewayResponse)
		return inner
	})
	if err != nil {
		return nil, err
	}
	s.notify.PaymentReceived(ctx, updated)
	return updated, nil
}

// MarkPaidTx is the in-transaction variant used by webhook reconciliation so
// the ledger flip and the payment transition commit together. The pending
// check runs inside the transaction: two entries can never both settle the
// same payment.
func (s *service) MarkPaidTx(ctx context.Context, tx *gorm.DB, paymentID uuid.UUID, gatewayTxnID, gatewayResponse *string) (*models.Payment, error) {
	txRepo := s.repo.WithTx(tx)
	payment, err := s.loadForTransition(ctx, txRepo, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != enums.PaymentStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment is not pending")
	}

	fields := map[string]any{
		"status":  enums.PaymentStatusPaid,
		"paid_at": s.now().UTC(),
	}
	if gatewayTxnID != nil {
		fields["gateway_txn_id"] = *gatewayTxnID
	}
	if gatewayResponse != nil {
		fields["gateway_response"] = *gatewayResponse
	}
	if err := txRepo.UpdateFields(ctx, payment.ID, fields); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payment paid")
	}

	if err := s.orderRepo.WithTx(tx).UpdatePaymentStatus(ctx, payment.OrderID, enums.PaymentStatusPaid); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cascade payment status")
	}

	return txRepo.FindByID(ctx, payment.ID)
}

// MarkFailed fails a pending payment and mirrors FAILED onto the order.
func (s *service) MarkFailed(ctx context.Context, paymentID uuid.UUID, reason string) (*models.Payment, error) {
	return s.transition(ctx, paymentID, enums.PaymentStatusPending, enums.PaymentStatusFailed, map[string]any{
		"failure_reason": reason,
	})
}

// Cancel is the customer-facing failure path, legal only while pending.
func (s *service) Cancel(ctx context.Context, paymentID uuid.UUID, reason string) (*models.Payment, error) {
	if reason == "" {
		reason = "cancelled"
	}
	return s.MarkFailed(ctx, paymentID, reason)
}

// Refund moves a settled payment to REFUNDED and mirrors it onto the order.
func (s *service) Refund(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error) {
	return s.transition(ctx, paymentID, enums.PaymentStatusPaid, enums.PaymentStatusRefunded, nil)
}

func (s *service) transition(ctx context.Context, paymentID uuid.UUID, from, to enums.PaymentStatus, extra map[string]any) (*models.Payment, error) {
	var updated *models.Payment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		payment, err := s.loadForTransition(ctx, txRepo, paymentID)
		if err != nil {
			return err
		}
		if payment.Status != from {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("payment is %s, expected %s", payment.Status, from))
		}

		fields := map[string]any{"status": to}
		for k, v := range extra {
			fields[k] = v
		}
		if err := txRepo.UpdateFields(ctx, payment.ID, fields); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment status")
		}

		if err := s.orderRepo.WithTx(tx).UpdatePaymentStatus(ctx, payment.OrderID, to); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cascade payment status")
		}

		updated, err = txRepo.FindByID(ctx, payment.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) loadForTransition(ctx context.Context, txRepo Repository, paymentID uuid.UUID) (*models.Payment, error) {
	if paymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}
	payment, err := txRepo.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	return payment, nil
}

// newTransactionCode builds the method-tagged unique payment reference.
func newTransactionCode(method enums.PaymentMethod) (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	prefix := "TRF"
	if method == enums.PaymentMethodCash {
		prefix = "CASH"
	}
	return fmt.Sprintf("%s-%s", prefix, strings.ToUpper(hex.EncodeToString(buf))), nil
}
