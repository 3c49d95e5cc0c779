package expiration

import (
	"context"
	"log/slog"
	"time"

	"github.com/vanshkansal25/Ecommerce-Backend/internal/postgres"
)

type StaleOrderLister interface {
	ListStaleOpen(ctx context.Context, q postgres.Querier, cutoff time.Time, limit int) ([]string, error)
}

// Sweeper is the reconciliation pass over open orders older than the
// reservation window. It catches orders whose expiration job was lost
// (enqueue failure, exhausted retries) so nothing stays reserved forever.
type Sweeper struct {
	DB     postgres.Querier
	Orders StaleOrderLister
	Comp   *Compensator

	Window   time.Duration
	Grace    time.Duration // slack before the sweep competes with the queue
	Interval time.Duration
	Log      *slog.Logger
}

func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-s.Window - s.Grace)
	ids, err := s.Orders.ListStaleOpen(ctx, s.DB, cutoff, 100)
	if err != nil {
		s.Log.Error("stale order scan failed", "err", err)
		return
	}
	for _, id := range ids {
		cancelled, err := s.Comp.Cancel(ctx, id, ReasonExpired)
		if err != nil {
			s.Log.Error("sweep cancel failed", "order_id", id, "err", err)
			continue
		}
		if cancelled {
			s.Log.Warn("sweep expired an order the queue missed", "order_id", id)
		}
	}
}
