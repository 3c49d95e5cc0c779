package payment

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/vanshkansal25/Ecommerce-Backend/internal/apperr"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/orders"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/postgres"
)

type OrderStore interface {
	Get(ctx context.Context, q postgres.Querier, orderID string) (*orders.Order, error)
	MarkPaymentPending(ctx context.Context, q postgres.Querier, orderID, paymentRef string) (bool, error)
}

// Bridge creates external payment intents for orders awaiting payment and
// moves them into payment_pending. The gateway call happens outside any
// transaction; the status change is one guarded statement.
type Bridge struct {
	DB       postgres.Querier
	Orders   OrderStore
	Gateway  Gateway
	Currency string
	Log      *slog.Logger
}

// DedupeToken derives the gateway idempotency key deterministically from the
// order id, so every retry for an order presents the same token.
func DedupeToken(orderID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("payment-intent:"+orderID)).String()
}

func (b *Bridge) CreateIntent(ctx context.Context, orderID, userID string) (*Intent, error) {
	o, err := b.Orders.Get(ctx, b.DB, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, apperr.Forbidden("order belongs to another user")
	}
	if !o.Status.Open() {
		return nil, apperr.Conflictf("order is %s; payment can no longer be initiated", o.Status)
	}

	intent, err := b.Gateway.CreateIntent(ctx, o.TotalCents, b.Currency,
		map[string]string{"order_id": o.ID, "user_id": o.UserID},
		DedupeToken(o.ID))
	if err != nil {
		return nil, err
	}

	ok, err := b.Orders.MarkPaymentPending(ctx, b.DB, o.ID, intent.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		// The compensator won the race between our read and this write.
		return nil, apperr.Conflictf("order settled while creating the payment intent")
	}
	b.Log.Info("payment intent created", "order_id", o.ID, "payment_ref", intent.ID)
	return intent, nil
}
