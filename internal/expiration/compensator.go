package expiration

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/vanshkansal25/Ecommerce-Backend/internal/orders"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/postgres"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/queue"
)

const (
	ReasonExpired     = "EXPIRED"
	ReasonAdminCancel = "ADMIN_CANCEL"
)

type OrderStore interface {
	StatusForUpdate(ctx context.Context, q postgres.Querier, orderID string) (orders.Status, bool, error)
	Items(ctx context.Context, q postgres.Querier, orderID string) ([]orders.Item, error)
	Cancel(ctx context.Context, q postgres.Querier, orderID string) (bool, error)
}

type InventoryStore interface {
	Release(ctx context.Context, q postgres.Querier, variantID string, qty int) error
}

type EventPublisher interface {
	PublishEvent(eventType, producer, traceID, orderID string, payload any) error
}

// Compensator reverses the reservation of orders that were never paid. It is
// gated purely by observed order state, never by cancelling the scheduled
// job, so stale and duplicate deliveries degrade to no-ops.
type Compensator struct {
	Tx  postgres.TxRunner
	Ord OrderStore
	Inv InventoryStore

	Events  EventPublisher
	Service string
	Log     *slog.Logger
}

// Cancel runs the compensating transaction: lock and re-read the order,
// release every item, mark cancelled. The FOR UPDATE read is the linchpin of
// the race with payment confirmation — the loser observes the winner's
// committed status and backs off. Safe to re-run on redelivery.
func (c *Compensator) Cancel(ctx context.Context, orderID, reason string) (bool, error) {
	var cancelled bool
	err := c.Tx.InTx(ctx, func(ctx context.Context, q postgres.Querier) error {
		status, found, err := c.Ord.StatusForUpdate(ctx, q, orderID)
		if err != nil {
			return err
		}
		if !found || !status.Open() {
			// Already paid, already cancelled, or the creating
			// transaction rolled back: stale job, not an error.
			return nil
		}

		items, err := c.Ord.Items(ctx, q, orderID)
		if err != nil {
			return err
		}
		for _, it := range items {
			if err := c.Inv.Release(ctx, q, it.VariantID, it.Quantity); err != nil {
				return err
			}
		}

		cancelled, err = c.Ord.Cancel(ctx, q, orderID)
		return err
	})
	return cancelled, err
}

// HandleJob adapts Cancel to the delayed queue. Returning an error triggers
// the queue's redelivery with backoff.
func (c *Compensator) HandleJob(ctx context.Context, job queue.Job) error {
	var p orders.ExpirationJob
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		c.Log.Error("expiration job payload undecodable", "job_id", job.ID, "err", err)
		return nil // poison message, do not redeliver
	}

	cancelled, err := c.Cancel(ctx, p.OrderID, ReasonExpired)
	if err != nil {
		return err
	}
	if !cancelled {
		c.Log.Info("expiration no-op, order already settled", "order_id", p.OrderID)
		return nil
	}

	c.Log.Info("reservation released, order expired", "order_id", p.OrderID)
	if c.Events != nil {
		err := c.Events.PublishEvent(orders.EventOrderCancelled, c.Service, "", p.OrderID,
			orders.OrderCancelledPayload{OrderID: p.OrderID, UserID: p.UserID, Reason: ReasonExpired})
		if err != nil {
			c.Log.Warn("order cancelled event publish failed", "order_id", p.OrderID, "err", err)
		}
	}
	return nil
}
