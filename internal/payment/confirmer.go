package payment

import (
	"context"
	"encoding/json"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/vanshkansal25/Ecommerce-Backend/internal/orders"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/postgres"
)

type PaidMarker interface {
	MarkPaid(ctx context.Context, q postgres.Querier, orderID, paymentRef string) (bool, error)
}

type EventPublisher interface {
	PublishEvent(eventType, producer, traceID, orderID string, payload any) error
}

// Confirmer applies asynchronous payment confirmations. The paid transition
// is a single conditional update gated on open states: when the expiration
// compensator has already cancelled the order, the confirmation affects
// nothing and is logged, never retried.
type Confirmer struct {
	DB      postgres.Querier
	Orders  PaidMarker
	Events  EventPublisher
	Service string
	Log     *slog.Logger
}

// HandleAuthorized is mounted on the payment.authorized consumer.
func (c *Confirmer) HandleAuthorized(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		c.Log.Error("payment event undecodable", "err", err)
		return nil // poison message
	}
	if env.EventType != orders.EventPaymentAuthorized {
		return nil
	}
	var p orders.PaymentAuthorizedPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		c.Log.Error("payment payload undecodable", "event_id", env.EventID, "err", err)
		return nil
	}

	paid, err := c.Orders.MarkPaid(ctx, c.DB, p.OrderID, p.PaymentRef)
	if err != nil {
		return err // redeliver
	}
	if !paid {
		c.Log.Warn("payment confirmation dropped, order not open", "order_id", p.OrderID)
		return nil
	}

	c.Log.Info("order paid", "order_id", p.OrderID, "payment_ref", p.PaymentRef)
	if c.Events != nil {
		err := c.Events.PublishEvent(orders.EventOrderPaid, c.Service, env.TraceID, p.OrderID,
			orders.OrderPaidPayload{OrderID: p.OrderID, PaymentRef: p.PaymentRef, AmountCents: p.AmountCents})
		if err != nil {
			c.Log.Warn("order paid event publish failed", "order_id", p.OrderID, "err", err)
		}
	}
	return nil
}
