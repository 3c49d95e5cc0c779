package checkout

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vanshkansal25/Ecommerce-Backend/internal/apperr"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/idempotency"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/orders"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/postgres"
)

// Orchestrator runs the checkout workflow: idempotency claim, reservation,
// order creation, cart clear, expiration scheduling and result caching — all
// in one transaction. Stateless per request.
type Orchestrator struct {
	Tx   postgres.TxRunner
	DB   postgres.Querier // pool, for the pre-transaction fast path
	Cart CartStore
	Inv  InventoryStore
	Ord  OrderStore
	Idem IdempotencyStore

	Queue  Scheduler
	Cache  CacheInvalidator
	Events EventPublisher

	Window  time.Duration
	Service string
	Log     *slog.Logger
}

type Input struct {
	UserID         string
	IdempotencyKey string
	Address        orders.ShippingAddress
	TraceID        string
}

type Result struct {
	OrderID string `json:"order_id"`
}

// Checkout places an order from the user's cart. replayed reports that the
// result came from the idempotency ledger with zero side effects.
func (o *Orchestrator) Checkout(ctx context.Context, in Input) (Result, bool, error) {
	if in.UserID == "" {
		return Result{}, false, apperr.Unauthorized("unauthorized access")
	}
	if in.IdempotencyKey == "" || !in.Address.Valid() {
		return Result{}, false, apperr.Validationf("invalid input data")
	}

	// Fast path: a key completed by an earlier attempt replays without
	// opening the workflow transaction.
	state, cached, err := o.Idem.Lookup(ctx, o.DB, in.IdempotencyKey)
	if err != nil {
		return Result{}, false, err
	}
	if state == idempotency.StateCompleted {
		return decodeResult(cached)
	}

	var (
		res        Result
		createdAt  time.Time
		totalCents int64
		itemCount  int
		replayed   bool
	)
	err = o.Tx.InTx(ctx, func(ctx context.Context, q postgres.Querier) error {
		state, cached, err := o.Idem.Begin(ctx, q, in.IdempotencyKey)
		if err != nil {
			return err
		}
		switch state {
		case idempotency.StateCompleted:
			// Lost the insert race to an attempt that has since
			// finished: behave exactly like a retry.
			res, replayed, err = decodeResult(cached)
			return err
		case idempotency.StateInProgress:
			return apperr.New(apperr.CodeInProgress, "a checkout with this key is already in progress")
		}

		userCart, err := o.Cart.GetWithItems(ctx, q, in.UserID)
		if err != nil {
			return err
		}
		if userCart == nil || len(userCart.Items) == 0 {
			return apperr.Validationf("cart is empty")
		}

		// All-or-nothing: the first failed reservation aborts the
		// transaction and rolls the earlier ones back.
		var total int64
		items := make([]orders.Item, 0, len(userCart.Items))
		for _, it := range userCart.Items {
			if err := o.Inv.Reserve(ctx, q, it.VariantID, it.Quantity); err != nil {
				return err
			}
			total += it.PriceCents * int64(it.Quantity)
			items = append(items, orders.Item{
				VariantID:  it.VariantID,
				Quantity:   it.Quantity,
				PriceCents: it.PriceCents, // frozen at reservation time
			})
		}

		order := &orders.Order{
			ID:              uuid.NewString(),
			UserID:          in.UserID,
			Status:          orders.StatusCreated,
			TotalCents:      total,
			TaxCents:        0,
			ShippingAddress: in.Address,
			Items:           items,
		}
		if err := o.Ord.Insert(ctx, q, order); err != nil {
			return err
		}

		if err := o.Cart.Delete(ctx, q, in.UserID); err != nil {
			return err
		}

		jobID, err := o.Queue.Enqueue(ctx, orders.QueueExpiration,
			orders.ExpirationJob{OrderID: order.ID, UserID: in.UserID}, o.Window)
		if err != nil {
			return err
		}
		if err := o.Ord.SetExpirationJob(ctx, q, order.ID, jobID); err != nil {
			return err
		}

		res = Result{OrderID: order.ID}
		createdAt = time.Now().UTC()
		totalCents = total
		itemCount = len(items)

		// Last statement of the transaction: completion is atomic with
		// order creation.
		return o.Idem.Complete(ctx, q, in.IdempotencyKey, res)
	})
	if err != nil {
		return Result{}, false, err
	}
	if replayed {
		return res, true, nil
	}

	// Best-effort side effects outside the atomicity boundary: never block
	// or fail the response on them.
	if err := o.Cache.Invalidate(ctx, in.UserID); err != nil {
		o.Log.Warn("cart cache invalidation failed", "user_id", in.UserID, "err", err)
	}
	if o.Events != nil {
		err := o.Events.PublishEvent(orders.EventOrderCreated, o.Service, in.TraceID, res.OrderID,
			orders.OrderCreatedPayload{
				OrderID:    res.OrderID,
				UserID:     in.UserID,
				TotalCents: totalCents,
				ItemCount:  itemCount,
				ExpiresAt:  createdAt.Add(o.Window),
			})
		if err != nil {
			o.Log.Warn("order created event publish failed", "order_id", res.OrderID, "err", err)
		}
	}
	return res, false, nil
}

func decodeResult(cached json.RawMessage) (Result, bool, error) {
	var res Result
	if err := json.Unmarshal(cached, &res); err != nil {
		return Result{}, false, err
	}
	return res, true, nil
}
