package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/plateful/plateful-backend/pkg/db/models"
	"github.com/plateful/plateful-backend/pkg/enums"
	pkgerrors "github.com/plateful/plateful-backend/pkg/errors"
)

type memLedgerRepo struct {
	entries   map[string]*models.BankTransaction
	processed []uuid.UUID
}

func newMemLedgerRepo() *memLedgerRepo {
	return &memLedgerRepo{entries: map[string]*models.BankTransaction{}}
}

func (m *memLedgerRepo) WithTx(tx *gorm.DB) Repository { return m }

func (m *memLedgerRepo) Insert(_ context.Context, record *models.BankTransaction) (*models.BankTransaction, error) {
	if _, seen := m.entries[record.GatewayTxnID]; seen {
		return nil, errors.New(`duplicate key value violates unique constraint "uq_bank_transactions_gateway_txn"`)
	}
	record.ID = uuid.New()
	m.entries[record.GatewayTxnID] = record
	return record, nil
}

func (m *memLedgerRepo) FindByGatewayTxnID(_ context.Context, gatewayTxnID string) (*models.BankTransaction, error) {
	record, ok := m.entries[gatewayTxnID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return record, nil
}

func (m *memLedgerRepo) MarkProcessed(_ context.Context, id uuid.UUID) error {
	m.processed = append(m.processed, id)
	return nil
}

type fakeOrderResolver struct {
	order *models.Order
}

func (f *fakeOrderResolver) FindByOrderNumber(_ context.Context, number int64) (*models.Order, error) {
	if f.order == nil || f.order.OrderNumber != number {
		return nil, gorm.ErrRecordNotFound
	}
	return f.order, nil
}

type fakeSettler struct {
	payment      *models.Payment
	gotTxnID     *string
	gotResponse  *string
	settleErr    error
	settledCalls int
}

func (f *fakeSettler) GetByOrderID(_ context.Context, orderID uuid.UUID) (*models.Payment, error) {
	if f.payment == nil || f.payment.OrderID != orderID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}
	return f.payment, nil
}

func (f *fakeSettler) MarkPaidTx(_ context.Context, _ *gorm.DB, paymentID uuid.UUID, gatewayTxnID, gatewayResponse *string) (*models.Payment, error) {
	f.settledCalls++
	if f.settleErr != nil {
		return nil, f.settleErr
	}
	if f.payment == nil || f.payment.ID != paymentID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}
	if f.payment.Status != enums.PaymentStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment is not pending")
	}
	f.payment.Status = enums.PaymentStatusPaid
	f.gotTxnID = gatewayTxnID
	f.gotResponse = gatewayResponse
	return f.payment, nil
}

type noopTx struct{}

func (noopTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

type ledgerFixture struct {
	repo    *memLedgerRepo
	orders  *fakeOrderResolver
	settler *fakeSettler
	svc     Service
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()

	orderID := uuid.New()
	fx := &ledgerFixture{
		repo: newMemLedgerRepo(),
		orders: &fakeOrderResolver{order: &models.Order{
			ID:          orderID,
			OrderNumber: 42,
			TotalCents:  2800,
		}},
		settler: &fakeSettler{payment: &models.Payment{
			ID:          uuid.New(),
			OrderID:     orderID,
			Method:      enums.PaymentMethodBankTransfer,
			Status:      enums.PaymentStatusPending,
			AmountCents: 2800,
		}},
	}
	svc, err := NewService(fx.repo, noopTx{}, fx.orders, fx.settler)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fx.svc = svc
	return fx
}

func inboundInput(txnID, memo string, amount int) IngestInput {
	return IngestInput{
		GatewayTxnID:  txnID,
		BankName:      "acme bank",
		TransactedAt:  time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		AccountNumber: "555-123",
		Direction:     enums.TransferDirectionIn,
		AmountCents:   amount,
		Memo:          memo,
		RawPayload:    `{"transaction_id":"` + txnID + `"}`,
	}
}

func TestIngestPersistsEntry(t *testing.T) {
	t.Parallel()

	fx := newLedgerFixture(t)

	entry, err := fx.svc.Ingest(context.Background(), inboundInput("txn-1", "transfer for DH42 lunch", 2800))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.OrderNumber == nil || *entry.OrderNumber != 42 {
		t.Fatalf("order number = %v, want 42 from the memo", entry.OrderNumber)
	}
	if entry.Processed {
		t.Fatal("a fresh entry must start unprocessed")
	}
}

func TestIngestDuplicateConflicts(t *testing.T) {
	t.Parallel()

	fx := newLedgerFixture(t)
	ctx := context.Background()

	if _, err := fx.svc.Ingest(ctx, inboundInput("txn-1", "DH42", 2800)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := fx.svc.Ingest(ctx, inboundInput("txn-1", "DH42", 2800))
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestIngestValidation(t *testing.T) {
	t.Parallel()

	fx := newLedgerFixture(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input IngestInput
	}{
		{"missing txn id", inboundInput("", "DH42", 2800)},
		{"negative amount", inboundInput("txn-1", "DH42", -100)},
		{"bad direction", func() IngestInput {
			in := inboundInput("txn-1", "DH42", 2800)
			in.Direction = enums.TransferDirection("sideways")
			return in
		}()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := fx.svc.Ingest(ctx, tc.input); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestReconcileSettlesPendingPayment(t *testing.T) {
	t.Parallel()

	fx := newLedgerFixture(t)
	ctx := context.Background()

	entry, err := fx.svc.Ingest(ctx, inboundInput("txn-1", "payment for DH42", 2800))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := fx.svc.Reconcile(ctx, entry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Processed {
		t.Fatalf("result = %+v, want processed", result)
	}
	if fx.settler.payment.Status != enums.PaymentStatusPaid {
		t.Fatalf("payment status = %s, want paid", fx.settler.payment.Status)
	}
	if fx.settler.gotTxnID == nil || *fx.settler.gotTxnID != "txn-1" {
		t.Fatalf("gateway txn id = %v, want txn-1", fx.settler.gotTxnID)
	}
	if len(fx.repo.processed) != 1 || fx.repo.processed[0] != entry.ID {
		t.Fatal("entry must be flipped to processed in the same transaction")
	}
	if !entry.Processed {
		t.Fatal("entry flag must reflect the flip")
	}
}

func TestReconcileOutcomes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("outbound transfer", func(t *testing.T) {
		fx := newLedgerFixture(t)
		in := inboundInput("txn-1", "DH42", 2800)
		in.Direction = enums.TransferDirectionOut
		entry, err := fx.svc.Ingest(ctx, in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		result, err := fx.svc.Reconcile(ctx, entry)
		if err != nil || result.Processed {
			t.Fatalf("result = %+v err = %v, want a no-op", result, err)
		}
		if fx.settler.settledCalls != 0 {
			t.Fatal("outbound transfers must not settle anything")
		}
	})

	t.Run("no order reference in memo", func(t *testing.T) {
		fx := newLedgerFixture(t)
		entry, _ := fx.svc.Ingest(ctx, inboundInput("txn-1", "thanks for lunch", 2800))
		result, err := fx.svc.Reconcile(ctx, entry)
		if err != nil || result.Processed {
			t.Fatalf("result = %+v err = %v, want a no-op", result, err)
		}
	})

	t.Run("unknown order number", func(t *testing.T) {
		fx := newLedgerFixture(t)
		entry, _ := fx.svc.Ingest(ctx, inboundInput("txn-1", "DH777", 2800))
		result, err := fx.svc.Reconcile(ctx, entry)
		if err != nil || result.Processed {
			t.Fatalf("result = %+v err = %v, want a no-op", result, err)
		}
	})

	t.Run("no payment for order", func(t *testing.T) {
		fx := newLedgerFixture(t)
		fx.settler.payment = nil
		entry, _ := fx.svc.Ingest(ctx, inboundInput("txn-1", "DH42", 2800))
		result, err := fx.svc.Reconcile(ctx, entry)
		if err != nil || result.Processed {
			t.Fatalf("result = %+v err = %v, want a no-op", result, err)
		}
	})

	t.Run("cash payment", func(t *testing.T) {
		fx := newLedgerFixture(t)
		fx.settler.payment.Method = enums.PaymentMethodCash
		entry, _ := fx.svc.Ingest(ctx, inboundInput("txn-1", "DH42", 2800))
		result, err := fx.svc.Reconcile(ctx, entry)
		if err != nil || result.Processed {
			t.Fatalf("result = %+v err = %v, want a no-op", result, err)
		}
	})

	t.Run("amount mismatch", func(t *testing.T) {
		fx := newLedgerFixture(t)
		entry, _ := fx.svc.Ingest(ctx, inboundInput("txn-1", "DH42", 100))
		result, err := fx.svc.Reconcile(ctx, entry)
		if err != nil || result.Processed {
			t.Fatalf("result = %+v err = %v, want a no-op", result, err)
		}
		if fx.settler.payment.Status != enums.PaymentStatusPending {
			t.Fatal("a mismatched amount must leave the payment pending")
		}
	})

	t.Run("already processed entry", func(t *testing.T) {
		fx := newLedgerFixture(t)
		entry, _ := fx.svc.Ingest(ctx, inboundInput("txn-1", "DH42", 2800))
		entry.Processed = true
		result, err := fx.svc.Reconcile(ctx, entry)
		if err != nil || !result.Processed {
			t.Fatalf("result = %+v err = %v, want processed no-op", result, err)
		}
		if fx.settler.settledCalls != 0 {
			t.Fatal("a processed entry must not settle again")
		}
	})
}

func TestReconcileSettlementRaceIsAnOutcome(t *testing.T) {
	t.Parallel()

	fx := newLedgerFixture(t)
	ctx := context.Background()

	entry, err := fx.svc.Ingest(ctx, inboundInput("txn-1", "DH42", 2800))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Another reconciliation settled the payment between the read and the
	// transaction.
	fx.settler.settleErr = pkgerrors.New(pkgerrors.CodeStateConflict, "payment is not pending")

	result, err := fx.svc.Reconcile(ctx, entry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Processed {
		t.Fatalf("result = %+v, want unprocessed outcome", result)
	}
	if len(fx.repo.processed) != 0 {
		t.Fatal("a lost settlement race must not flip the entry")
	}
}
