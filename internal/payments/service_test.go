package payments

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/plateful/plateful-backend/internal/orders"
	"github.com/plateful/plateful-backend/pkg/bankgw"
	"github.com/plateful/plateful-backend/pkg/db/models"
	"github.com/plateful/plateful-backend/pkg/enums"
	pkgerrors "github.com/plateful/plateful-backend/pkg/errors"
	"github.com/plateful/plateful-backend/pkg/pagination"
)

type memPaymentRepo struct {
	payments map[uuid.UUID]*models.Payment
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{payments: map[uuid.UUID]*models.Payment{}}
}

func (m *memPaymentRepo) WithTx(tx *gorm.DB) Repository { return m }

func (m *memPaymentRepo) Create(_ context.Context, record *models.Payment) (*models.Payment, error) {
	for _, existing := range m.payments {
		if existing.OrderID == record.OrderID {
			return nil, errors.New(`duplicate key value violates unique constraint "uq_payments_order"`)
		}
	}
	record.ID = uuid.New()
	m.payments[record.ID] = record
	return record, nil
}

func (m *memPaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Payment, error) {
	record, ok := m.payments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return record, nil
}

func (m *memPaymentRepo) FindByOrderID(_ context.Context, orderID uuid.UUID) (*models.Payment, error) {
	for _, record := range m.payments {
		if record.OrderID == orderID {
			return record, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memPaymentRepo) ExpirePendingBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (m *memPaymentRepo) UpdateFields(_ context.Context, id uuid.UUID, fields map[string]any) error {
	record, ok := m.payments[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if status, ok := fields["status"].(enums.PaymentStatus); ok {
		record.Status = status
	}
	if at, ok := fields["paid_at"].(time.Time); ok {
		record.PaidAt = &at
	}
	if reason, ok := fields["failure_reason"].(string); ok {
		record.FailureReason = &reason
	}
	if txnID, ok := fields["gateway_txn_id"].(string); ok {
		record.GatewayTxnID = &txnID
	}
	if resp, ok := fields["gateway_response"].(string); ok {
		record.GatewayResponse = &resp
	}
	return nil
}

type memOrderRepo struct {
	order *models.Order
}

func (m *memOrderRepo) WithTx(tx *gorm.DB) orders.Repository { return m }

func (m *memOrderRepo) Create(_ context.Context, record *models.Order) (*models.Order, error) {
	return record, nil
}

func (m *memOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	if m.order == nil || m.order.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return m.order, nil
}

func (m *memOrderRepo) FindByOrderNumber(context.Context, int64) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}

func (m *memOrderRepo) FindByPickupCode(context.Context, string) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}

func (m *memOrderRepo) ListByCustomer(context.Context, uuid.UUID, pagination.Params, orders.ListFilters) ([]models.Order, *pagination.Cursor, error) {
	return nil, nil, nil
}

func (m *memOrderRepo) UpdateFields(_ context.Context, id uuid.UUID, fields map[string]any) error {
	if m.order == nil || m.order.ID != id {
		return gorm.ErrRecordNotFound
	}
	if status, ok := fields["status"].(enums.OrderStatus); ok {
		m.order.Status = status
	}
	return nil
}

func (m *memOrderRepo) UpdatePaymentStatus(_ context.Context, id uuid.UUID, status enums.PaymentStatus) error {
	if m.order == nil || m.order.ID != id {
		return gorm.ErrRecordNotFound
	}
	m.order.PaymentStatus = status
	return nil
}

type fakeGateway struct {
	calls int
	err   error
}

func (f *fakeGateway) RequestPayable(_ context.Context, orderNumber int64, _ int) (*bankgw.PayableRef, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &bankgw.PayableRef{Reference: "DH42", QRCode: "qr-payload"}, nil
}

type recordingNotifier struct {
	received []*models.Payment
}

func (r *recordingNotifier) PaymentReceived(_ context.Context, payment *models.Payment) {
	r.received = append(r.received, payment)
}

type noopTx struct{}

func (noopTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

type paymentFixture struct {
	repo      *memPaymentRepo
	orderRepo *memOrderRepo
	gateway   *fakeGateway
	notify    *recordingNotifier
	svc       Service
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	fx := &paymentFixture{
		repo: newMemPaymentRepo(),
		orderRepo: &memOrderRepo{order: &models.Order{
			ID:            uuid.New(),
			OrderNumber:   42,
			Status:        enums.OrderStatusPending,
			PaymentStatus: enums.PaymentStatusPending,
			TotalCents:    2800,
		}},
		gateway: &fakeGateway{},
		notify:  &recordingNotifier{},
	}
	svc, err := NewService(fx.repo, fx.orderRepo, noopTx{}, fx.gateway, fx.notify)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fx.svc = svc
	return fx
}

func TestCreateCashPayment(t *testing.T) {
	t.Parallel()

	fx := newPaymentFixture(t)

	payment, err := fx.svc.Create(context.Background(), fx.orderRepo.order.ID, enums.PaymentMethodCash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payment.Status != enums.PaymentStatusPending {
		t.Fatalf("status = %s, want pending", payment.Status)
	}
	if payment.AmountCents != 2800 {
		t.Fatalf("amount = %d, want the order total", payment.AmountCents)
	}
	if !strings.HasPrefix(payment.TransactionCode, "CASH-") {
		t.Fatalf("transaction code %q missing cash prefix", payment.TransactionCode)
	}
	if payment.QRCode != nil {
		t.Fatal("cash payments must not carry a QR code")
	}
	if fx.gateway.calls != 0 {
		t.Fatal("cash payments must not touch the bank gateway")
	}
}

func TestCreateBankTransferPayment(t *testing.T) {
	t.Parallel()

	fx := newPaymentFixture(t)

	payment, err := fx.svc.Create(context.Background(), fx.orderRepo.order.ID, enums.PaymentMethodBankTransfer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(payment.TransactionCode, "TRF-") {
		t.Fatalf("transaction code %q missing transfer prefix", payment.TransactionCode)
	}
	if payment.QRCode == nil || *payment.QRCode != "qr-payload" {
		t.Fatalf("qr code = %v, want the gateway payload", payment.QRCode)
	}
	if payment.GatewayResponse == nil || *payment.GatewayResponse != "DH42" {
		t.Fatalf("gateway response = %v, want the payable reference", payment.GatewayResponse)
	}
	if fx.gateway.calls != 1 {
		t.Fatalf("gateway calls = %d, want 1", fx.gateway.calls)
	}
}

func TestCreateSecondPaymentConflicts(t *testing.T) {
	t.Parallel()

	fx := newPaymentFixture(t)
	ctx := context.Background()

	if _, err := fx.svc.Create(ctx, fx.orderRepo.order.ID, enums.PaymentMethodCash); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := fx.svc.Create(ctx, fx.orderRepo.order.ID, enums.PaymentMethodBankTransfer)
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreateGatewayFailureLeavesNoPayment(t *testing.T) {
	t.Parallel()

	fx := newPaymentFixture(t)
	fx.gateway.err = errors.New("gateway unavailable")

	_, err := fx.svc.Create(context.Background(), fx.orderRepo.order.ID, enums.PaymentMethodBankTransfer)
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if len(fx.repo.payments) != 0 {
		t.Fatal("a gateway failure must not leave a payment row behind")
	}
}

func TestCreateRejectsLockedOrder(t *testing.T) {
	t.Parallel()

	fx := newPaymentFixture(t)
	fx.orderRepo.order.Status = enums.OrderStatusPreparing

	_, err := fx.svc.Create(context.Background(), fx.orderRepo.order.ID, enums.PaymentMethodCash)
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestConfirmCashCompletesOrder(t *testing.T) {
	t.Parallel()

	fx := newPaymentFixture(t)
	ctx := context.Background()

	payment, err := fx.svc.Create(ctx, fx.orderRepo.order.ID, enums.PaymentMethodCash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fixed := time.Date(2026, 3, 14, 13, 0, 0, 0, time.UTC)
	fx.svc.(*service).now = func() time.Time { return fixed }

	updated, err := fx.svc.ConfirmCash(ctx, payment.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != enums.PaymentStatusPaid {
		t.Fatalf("payment status = %s, want paid", updated.Status)
	}
	if updated.PaidAt == nil || !updated.PaidAt.Equal(fixed) {
		t.Fatalf("paid_at = %v, want %v", updated.PaidAt, fixed)
	}
	if fx.orderRepo.order.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("order payment status = %s, want paid", fx.orderRepo.order.PaymentStatus)
	}
	if fx.orderRepo.order.Status != enums.OrderStatusCompleted {
		t.Fatalf("order status = %s, want completed", fx.orderRepo.order.Status)
	}
	if len(fx.notify.received) != 1 {
		t.Fatalf("expected one payment notice, got %d", len(fx.notify.received))
	}
}

func TestConfirmCashRejectsBankTransfer(t *testing.T) {
	t.Parallel()

	fx := newPaymentFixture(t)
	ctx := context.Background()

	payment, err := fx.svc.Create(ctx, fx.orderRepo.order.ID, enums.PaymentMethodBankTransfer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = fx.svc.ConfirmCash(ctx, payment.ID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMarkPaidSettlesOnce(t *testing.T) {
	t.Parallel()

	fx := newPaymentFixture(t)
	ctx := context.Background()

	payment, err := fx.svc.Create(ctx, fx.orderRepo.order.ID, enums.PaymentMethodBankTransfer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	txnID := "bank-txn-9"
	updated, err := fx.svc.MarkPaid(ctx, payment.ID, &txnID, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != enums.PaymentStatusPaid {
		t.Fatalf("status = %s, want paid", updated.Status)
	}
	if updated.GatewayTxnID == nil || *updated.GatewayTxnID != txnID {
		t.Fatalf("gateway txn id = %v, want %s", updated.GatewayTxnID, txnID)
	}
	if fx.orderRepo.order.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("order payment status = %s, want paid", fx.orderRepo.order.PaymentStatus)
	}

	// The pending check makes settlement single-shot.
	_, err = fx.svc.MarkPaid(ctx, payment.ID, &txnID, nil)
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestCancelPendingPayment(t *testing.T) {
	t.Parallel()

	fx := newPaymentFixture(t)
	ctx := context.Background()

	payment, err := fx.svc.Create(ctx, fx.orderRepo.order.ID, enums.PaymentMethodBankTransfer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := fx.svc.Cancel(ctx, payment.ID, "changed my mind")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != enums.PaymentStatusFailed {
		t.Fatalf("status = %s, want failed", updated.Status)
	}
	if updated.FailureReason == nil || *updated.FailureReason != "changed my mind" {
		t.Fatalf("failure reason = %v", updated.FailureReason)
	}
	if fx.orderRepo.order.PaymentStatus != enums.PaymentStatusFailed {
		t.Fatalf("order payment status = %s, want failed", fx.orderRepo.order.PaymentStatus)
	}
}

func TestRefundRequiresPaidPayment(t *testing.T) {
	t.Parallel()

	fx := newPaymentFixture(t)
	ctx := context.Background()

	payment, err := fx.svc.Create(ctx, fx.orderRepo.order.ID, enums.PaymentMethodCash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := fx.svc.Refund(ctx, payment.ID); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}

	if _, err := fx.svc.ConfirmCash(ctx, payment.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	updated, err := fx.svc.Refund(ctx, payment.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != enums.PaymentStatusRefunded {
		t.Fatalf("status = %s, want refunded", updated.Status)
	}
	if fx.orderRepo.order.PaymentStatus != enums.PaymentStatusRefunded {
		t.Fatalf("order payment status = %s, want refunded", fx.orderRepo.order.PaymentStatus)
	}
}

func TestPaymentNotFound(t *testing.T) {
	t.Parallel()

	fx := newPaymentFixture(t)

	_, err := fx.svc.ConfirmCash(context.Background(), uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}
