package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/plateful/plateful-backend/api/responses"
	internalledger "github.com/plateful/plateful-backend/internal/ledger"
	"github.com/plateful/plateful-backend/pkg/db/models"
	"github.com/plateful/plateful-backend/pkg/enums"
	pkgerrors "github.com/plateful/plateful-backend/pkg/errors"
	"github.com/plateful/plateful-backend/pkg/logger"
	"github.com/plateful/plateful-backend/pkg/types"
)

// LedgerService is the slice of the ledger service the webhook needs.
type LedgerService interface {
	Ingest(ctx context.Context, input internalledger.IngestInput) (*models.BankTransaction, error)
	Reconcile(ctx context.Context, entry *models.BankTransaction) (internalledger.ReconcileResult, error)
}

type bankWebhookGuard interface {
	CheckAndMark(ctx context.Context, txnID string) (bool, error)
	Delete(ctx context.Context, txnID string) error
}

type bankNotification struct {
	TransactionID  string    `json:"transaction_id"`
	BankName       string    `json:"bank_name"`
	TransactedAt   time.Time `json:"transacted_at"`
	AccountNumber  string    `json:"account_number"`
	CounterAccount *string   `json:"counter_account"`
	Direction      string    `json:"direction"`
	AmountCents    int       `json:"amount_cents"`
	BalanceCents   *int      `json:"balance_cents"`
	Memo           string    `json:"memo"`
	ReferenceCode  *string   `json:"reference_code"`
}

// BankWebhook ingests bank-transfer notifications. The gateway retries on
// non-2xx, so every handled outcome acks with 200 and the real result goes
// in the body; only a failed ingest withholds success so the gateway
// re-delivers.
func BankWebhook(svc LedgerService, guard bankWebhookGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		var notification bankNotification
		if err := json.Unmarshal(payload, &notification); err != nil {
			ack(w, types.WebhookAck{Success: false, Message: "invalid payload"})
			return
		}
		if notification.TransactionID == "" {
			ack(w, types.WebhookAck{Success: false, Message: "transaction id is required"})
			return
		}

		direction, err := enums.ParseTransferDirection(notification.Direction)
		if err != nil {
			ack(w, types.WebhookAck{Success: false, Message: "invalid transfer direction"})
			return
		}

		if guard != nil {
			seen, guardErr := guard.CheckAndMark(ctx, notification.TransactionID)
			if guardErr != nil {
				// The unique index catches duplicates anyway; keep going.
				logWarn(ctx, logg, "bank webhook idempotency check failed", guardErr)
			} else if seen {
				ack(w, types.WebhookAck{Success: true, Message: "already received"})
				return
			}
		}

		entry, err := svc.Ingest(ctx, internalledger.IngestInput{
			GatewayTxnID:   notification.TransactionID,
			BankName:       notification.BankName,
			TransactedAt:   notification.TransactedAt,
			AccountNumber:  notification.AccountNumber,
			CounterAccount: notification.CounterAccount,
			Direction:      direction,
			AmountCents:    notification.AmountCents,
			BalanceCents:   notification.BalanceCents,
			Memo:           notification.Memo,
			ReferenceCode:  notification.ReferenceCode,
			RawPayload:     string(payload),
		})
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
				ack(w, types.WebhookAck{Success: true, Message: "already received"})
				return
			}
			if guard != nil {
				if delErr := guard.Delete(ctx, notification.TransactionID); delErr != nil {
					logWarn(ctx, logg, "release idempotency mark", delErr)
				}
			}
			if logg != nil {
				logg.Error(ctx, "bank webhook ingest failed", err)
			}
			ack(w, types.WebhookAck{Success: false, Message: "ingest failed"})
			return
		}

		result, err := svc.Reconcile(ctx, entry)
		if err != nil {
			if logg != nil {
				logg.Error(ctx, "bank webhook reconcile failed", err)
			}
			ack(w, types.WebhookAck{Success: true, Message: "reconciliation failed"})
			return
		}

		if logg != nil {
			ctx = logg.WithFields(ctx, map[string]any{
				"gateway_txn_id": entry.GatewayTxnID,
				"processed":      result.Processed,
				"outcome":        result.Message,
			})
			logg.Info(ctx, "bank webhook handled")
		}

		ack(w, types.WebhookAck{Success: true, Processed: result.Processed, Message: result.Message})
	}
}

func ack(w http.ResponseWriter, body types.WebhookAck) {
	responses.WriteSuccess(w, body)
}

func logWarn(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if logg == nil {
		return
	}
	logg.Warn(logg.WithField(ctx, "error", err.Error()), msg)
}
