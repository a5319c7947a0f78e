package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	internalledger "github.com/plateful/plateful-backend/internal/ledger"
	"github.com/plateful/plateful-backend/pkg/db/models"
	pkgerrors "github.com/plateful/plateful-backend/pkg/errors"
	"github.com/plateful/plateful-backend/pkg/types"
)

type fakeLedgerService struct {
	ingestInput  internalledger.IngestInput
	ingestErr    error
	reconcile    internalledger.ReconcileResult
	reconcileErr error
	ingested     bool
	reconciled   bool
}

func (f *fakeLedgerService) Ingest(_ context.Context, input internalledger.IngestInput) (*models.BankTransaction, error) {
	f.ingested = true
	f.ingestInput = input
	if f.ingestErr != nil {
		return nil, f.ingestErr
	}
	return &models.BankTransaction{
		GatewayTxnID: input.GatewayTxnID,
		Direction:    input.Direction,
		AmountCents:  input.AmountCents,
		Memo:         input.Memo,
	}, nil
}

func (f *fakeLedgerService) Reconcile(context.Context, *models.BankTransaction) (internalledger.ReconcileResult, error) {
	f.reconciled = true
	return f.reconcile, f.reconcileErr
}

type fakeGuard struct {
	seen    bool
	markErr error
	deleted []string
}

func (f *fakeGuard) CheckAndMark(context.Context, string) (bool, error) {
	return f.seen, f.markErr
}

func (f *fakeGuard) Delete(_ context.Context, txnID string) error {
	f.deleted = append(f.deleted, txnID)
	return nil
}

func validNotification() map[string]any {
	return map[string]any{
		"transaction_id": "gw-100",
		"bank_name":      "DemoBank",
		"transacted_at":  time.Now().UTC().Format(time.RFC3339),
		"account_number": "12345678",
		"direction":      "in",
		"amount_cents":   4200,
		"memo":           "ORDER17 dinner",
	}
}

func postNotification(t *testing.T, handler http.HandlerFunc, body any) (*httptest.ResponseRecorder, types.WebhookAck) {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/bank", bytes.NewReader(payload))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	var envelope struct {
		Data types.WebhookAck `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	return w, envelope.Data
}

func TestBankWebhookProcessesInboundTransfer(t *testing.T) {
	svc := &fakeLedgerService{reconcile: internalledger.ReconcileResult{Processed: true, Message: "payment settled"}}
	guard := &fakeGuard{}

	w, ackBody := postNotification(t, BankWebhook(svc, guard, nil), validNotification())

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 but got %d", w.Code)
	}
	if !ackBody.Success || !ackBody.Processed {
		t.Fatalf("unexpected ack %+v", ackBody)
	}
	if !svc.ingested || !svc.reconciled {
		t.Fatal("expected ingest and reconcile to run")
	}
	if svc.ingestInput.RawPayload == "" {
		t.Fatal("expected raw payload to be captured")
	}
}

func TestBankWebhookAcksDuplicateFromGuard(t *testing.T) {
	svc := &fakeLedgerService{}
	guard := &fakeGuard{seen: true}

	w, ackBody := postNotification(t, BankWebhook(svc, guard, nil), validNotification())

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 but got %d", w.Code)
	}
	if !ackBody.Success || ackBody.Processed {
		t.Fatalf("unexpected ack %+v", ackBody)
	}
	if svc.ingested {
		t.Fatal("duplicate must not reach the ledger")
	}
}

func TestBankWebhookAcksDuplicateFromLedger(t *testing.T) {
	svc := &fakeLedgerService{ingestErr: pkgerrors.New(pkgerrors.CodeConflict, "duplicate transaction")}
	guard := &fakeGuard{}

	w, ackBody := postNotification(t, BankWebhook(svc, guard, nil), validNotification())

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 but got %d", w.Code)
	}
	if !ackBody.Success {
		t.Fatalf("unexpected ack %+v", ackBody)
	}
	if svc.reconciled {
		t.Fatal("duplicate must not be reconciled")
	}
	if len(guard.deleted) != 0 {
		t.Fatal("duplicate conflict must keep the idempotency mark")
	}
}

func TestBankWebhookReleasesMarkOnIngestFailure(t *testing.T) {
	svc := &fakeLedgerService{ingestErr: errors.New("db down")}
	guard := &fakeGuard{}

	w, ackBody := postNotification(t, BankWebhook(svc, guard, nil), validNotification())

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 but got %d", w.Code)
	}
	if ackBody.Success {
		t.Fatalf("failed ingest must not report success: %+v", ackBody)
	}
	if len(guard.deleted) != 1 {
		t.Fatalf("expected released idempotency mark, got %v", guard.deleted)
	}
}

func TestBankWebhookRejectsBadDirection(t *testing.T) {
	notification := validNotification()
	notification["direction"] = "sideways"
	svc := &fakeLedgerService{}

	w, ackBody := postNotification(t, BankWebhook(svc, nil, nil), notification)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 but got %d", w.Code)
	}
	if ackBody.Success {
		t.Fatalf("unexpected ack %+v", ackBody)
	}
	if svc.ingested {
		t.Fatal("invalid payload must not reach the ledger")
	}
}

func TestBankWebhookSurvivesGuardFailure(t *testing.T) {
	svc := &fakeLedgerService{reconcile: internalledger.ReconcileResult{Processed: false, Message: "outbound transfer, nothing to reconcile"}}
	guard := &fakeGuard{markErr: errors.New("redis down")}

	w, ackBody := postNotification(t, BankWebhook(svc, guard, nil), validNotification())

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 but got %d", w.Code)
	}
	if !ackBody.Success {
		t.Fatalf("unexpected ack %+v", ackBody)
	}
	if !svc.ingested {
		t.Fatal("guard failure must not block ingestion")
	}
}
