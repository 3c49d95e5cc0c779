package checkout

import (
	"context"
	"encoding/json"
	"time"

	"github.com/vanshkansal25/Ecommerce-Backend/internal/cart"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/idempotency"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/orders"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/postgres"
)

// Collaborator ports. The pg-backed stores satisfy these directly; tests
// substitute in-memory fakes.

type CartStore interface {
	GetWithItems(ctx context.Context, q postgres.Querier, userID string) (*cart.Cart, error)
	Delete(ctx context.Context, q postgres.Querier, userID string) error
}

type InventoryStore interface {
	Reserve(ctx context.Context, q postgres.Querier, variantID string, qty int) error
}

type OrderStore interface {
	Insert(ctx context.Context, q postgres.Querier, o *orders.Order) error
	SetExpirationJob(ctx context.Context, q postgres.Querier, orderID, jobID string) error
}

type IdempotencyStore interface {
	Lookup(ctx context.Context, q postgres.Querier, key string) (idempotency.State, json.RawMessage, error)
	Begin(ctx context.Context, q postgres.Querier, key string) (idempotency.State, json.RawMessage, error)
	Complete(ctx context.Context, q postgres.Querier, key string, result any) error
}

type Scheduler interface {
	Enqueue(ctx context.Context, topic string, payload any, delay time.Duration) (string, error)
}

type CacheInvalidator interface {
	Invalidate(ctx context.Context, userID string) error
}

type EventPublisher interface {
	PublishEvent(eventType, producer, traceID, orderID string, payload any) error
}
