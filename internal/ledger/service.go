package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/plateful/plateful-backend/pkg/db"
	"github.com/plateful/plateful-backend/pkg/db/models"
	"github.com/plateful/plateful-backend/pkg/enums"
	pkgerrors "github.com/plateful/plateful-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type orderResolver interface {
	FindByOrderNumber(ctx context.Context, number int64) (*models.Order, error)
}

type paymentSettler interface {
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error)
	MarkPaidTx(ctx context.Context, tx *gorm.DB, paymentID uuid.UUID, gatewayTxnID, gatewayResponse *string) (*models.Payment, error)
}

// IngestInput is one inbound bank-transfer notification.
type IngestInput struct {
	GatewayTxnID   string
	BankName       string
	TransactedAt   time.Time
	AccountNumber  string
	CounterAccount *string
	Direction      enums.TransferDirection
	AmountCents    int
	BalanceCents   *int
	Memo           string
	ReferenceCode  *string
	RawPayload     string
}

// ReconcileResult reports the reconciliation outcome without raising it as an
// error: the webhook path acknowledges the gateway no matter what.
type ReconcileResult struct {
	Processed bool
	Message   string
}

// Service ingests bank notifications idempotently and reconciles inbound
// transfers against pending payments.
type Service interface {
	Ingest(ctx context.Context, input IngestInput) (*models.BankTransaction, error)
	Reconcile(ctx context.Context, entry *models.BankTransaction) (ReconcileResult, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	orders   orderResolver
	payments paymentSettler
}

// NewService builds a ledger service with the required dependencies.
func NewService(repo Repository, tx txRunner, orderRepo orderResolver, paymentSvc paymentSettler) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("order resolver required")
	}
	if paymentSvc == nil {
		return nil, fmt.Errorf("payment settler required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		orders:   orderRepo,
		payments: paymentSvc,
	}, nil
}

// Ingest appends a ledger row for the notification. Re-delivery of an already
// seen gateway transaction id fails with a conflict; under concurrent
// deliveries the storage unique index decides the single winner.
func (s *service) Ingest(ctx context.Context, input IngestInput) (*models.BankTransaction, error) {
	if input.GatewayTxnID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway transaction id is required")
	}
	if !input.Direction.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid transfer direction")
	}
	if input.AmountCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transfer amount cannot be negative")
	}

	record := &models.BankTransaction{
		GatewayTxnID:   input.GatewayTxnID,
		BankName:       input.BankName,
		TransactedAt:   input.TransactedAt,
		AccountNumber:  input.AccountNumber,
		CounterAccount: input.CounterAccount,
		Direction:      input.Direction,
		AmountCents:    input.AmountCents,
		BalanceCents:   input.BalanceCents,
		Memo:           input.Memo,
		ReferenceCode:  input.ReferenceCode,
		RawPayload:     input.RawPayload,
		OrderNumber:    ExtractOrderNumber(input.Memo),
		Processed:      false,
	}

	created, err := s.repo.Insert(ctx, record)
	if err != nil {
		if db.IsUniqueViolation(err, "uq_bank_transactions_gateway_txn") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "duplicate transaction")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist ledger entry")
	}
	return created, nil
}

// Reconcile matches an inbound entry to its pending payment. Match failures
// are outcomes, not errors: the entry simply stays unprocessed for manual
// follow-up. The payment transition and the processed flip commit in one
// transaction, with the pending check re-run inside it.
func (s *service) Reconcile(ctx context.Context, entry *models.BankTransaction) (ReconcileResult, error) {
	if entry == nil {
		return ReconcileResult{}, pkgerrors.New(pkgerrors.CodeValidation, "ledger entry is required")
	}
	if entry.Direction != enums.TransferDirectionIn {
		return ReconcileResult{Message: "outbound transfer, nothing to reconcile"}, nil
	}
	if entry.Processed {
		return ReconcileResult{Processed: true, Message: "already processed"}, nil
	}
	if entry.OrderNumber == nil {
		return ReconcileResult{Message: "order reference not found in memo"}, nil
	}

	order, err := s.orders.FindByOrderNumber(ctx, *entry.OrderNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ReconcileResult{Message: fmt.Sprintf("no order with number %d", *entry.OrderNumber)}, nil
		}
		return ReconcileResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve order")
	}

	payment, err := s.payments.GetByOrderID(ctx, order.ID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return ReconcileResult{Message: "no payment for order"}, nil
		}
		return ReconcileResult{}, err
	}

	if payment.Method != enums.PaymentMethodBankTransfer {
		return ReconcileResult{Message: "wrong payment method"}, nil
	}
	if payment.Status != enums.PaymentStatusPending {
		return ReconcileResult{Message: "payment is not pending"}, nil
	}
	if payment.AmountCents != entry.AmountCents {
		return ReconcileResult{Message: "amount mismatch"}, nil
	}

	var raced bool
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.payments.MarkPaidTx(ctx, tx, payment.ID, &entry.GatewayTxnID, &entry.Memo); err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
				raced = true
				return err
			}
			return err
		}
		return s.repo.WithTx(tx).MarkProcessed(ctx, entry.ID)
	})
	if err != nil {
		if raced {
			return ReconcileResult{Message: "payment is not pending"}, nil
		}
		return ReconcileResult{}, err
	}

	entry.Processed = true
	return ReconcileResult{Processed: true, Message: "payment reconciled"}, nil
}
