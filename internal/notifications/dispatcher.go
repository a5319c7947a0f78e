package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/plateful/plateful-backend/pkg/db/models"
	"github.com/plateful/plateful-backend/pkg/logger"
)

// Sender delivers one message to a customer. Implementations may talk to an
// email or push provider; the dispatcher never waits on them.
type Sender interface {
	Send(ctx context.Context, recipientID uuid.UUID, subject, body string) error
}

// Dispatcher fans domain events out to customers without blocking the
// calling operation.
type Dispatcher struct {
	sender Sender
	logger *logger.Logger
}

// NewDispatcher builds a dispatcher over the provided sender.
func NewDispatcher(sender Sender, logg *logger.Logger) (*Dispatcher, error) {
	if sender == nil {
		return nil, fmt.Errorf("sender required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Dispatcher{sender: sender, logger: logg}, nil
}

// OrderConfirmed notifies the customer their order was accepted.
func (d *Dispatcher) OrderConfirmed(ctx context.Context, order *models.Order) {
	if order == nil {
		return
	}
	subject := "Your order is confirmed"
	body := fmt.Sprintf("Order %d is confirmed. Show pickup code %s at the counter.", order.OrderNumber, order.PickupCode)
	d.dispatch(ctx, order.CustomerID, subject, body)
}

// PaymentReceived notifies the customer their payment settled. The payment
// row carries no customer id, so the message is routed by order; the sender
// resolves the recipient.
func (d *Dispatcher) PaymentReceived(ctx context.Context, payment *models.Payment) {
	if payment == nil {
		return
	}
	subject := "Payment received"
	body := fmt.Sprintf("We received your payment %s.", payment.TransactionCode)
	d.dispatch(ctx, payment.OrderID, subject, body)
}

// dispatch sends on a detached context so a finished request cannot cancel an
// in-flight notification. Failures are logged, never surfaced.
func (d *Dispatcher) dispatch(ctx context.Context, recipientID uuid.UUID, subject, body string) {
	detached := context.WithoutCancel(ctx)
	go func() {
		if err := d.sender.Send(detached, recipientID, subject, body); err != nil {
			d.logger.Warn(d.logger.WithField(detached, "subject", subject), "notification send failed: "+err.Error())
		}
	}()
}

// LogSender is the default transport: it only records the message. Real
// providers plug in behind the same interface.
type LogSender struct {
	logger *logger.Logger
}

// NewLogSender builds a log-backed sender.
func NewLogSender(logg *logger.Logger) (*LogSender, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &LogSender{logger: logg}, nil
}

// Send records the outbound message.
func (s *LogSender) Send(ctx context.Context, recipientID uuid.UUID, subject, body string) error {
	ctx = s.logger.WithFields(ctx, map[string]any{
		"recipient_id": recipientID.String(),
		"subject":      subject,
	})
	s.logger.Info(ctx, "notification dispatched")
	return nil
}
