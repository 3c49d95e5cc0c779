package orders

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vanshkansal25/Ecommerce-Backend/internal/apperr"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/postgres"
)

type Repo struct{}

func NewRepo() *Repo { return &Repo{} }

// Insert writes the order row and its item snapshots. Runs inside the
// checkout transaction; the caller owns commit/rollback.
func (r *Repo) Insert(ctx context.Context, q postgres.Querier, o *Order) error {
	addr, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, `
		INSERT INTO orders(id, user_id, status, total_cents, tax_cents, shipping_address)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		o.ID, o.UserID, o.Status, o.TotalCents, o.TaxCents, addr)
	if err != nil {
		return err
	}
	for i := range o.Items {
		it := &o.Items[i]
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		it.OrderID = o.ID
		_, err = q.Exec(ctx, `
			INSERT INTO order_items(id, order_id, variant_id, quantity, price_cents)
			VALUES ($1, $2, $3, $4, $5)`,
			it.ID, it.OrderID, it.VariantID, it.Quantity, it.PriceCents)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) SetExpirationJob(ctx context.Context, q postgres.Querier, orderID, jobID string) error {
	_, err := q.Exec(ctx, `UPDATE orders SET expiration_job_id=$2, updated_at=now() WHERE id=$1`, orderID, jobID)
	return err
}

// StatusForUpdate locks the order row and returns its status. The row lock
// serializes the compensator against a concurrent paid transition: whoever
// commits first wins, the loser re-reads the committed status.
func (r *Repo) StatusForUpdate(ctx context.Context, q postgres.Querier, orderID string) (Status, bool, error) {
	var s Status
	err := q.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 FOR UPDATE`, orderID).Scan(&s)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return s, true, nil
}

// Cancel moves an open order to cancelled. Zero rows affected means the
// order already left the open states; the caller treats that as a no-op.
func (r *Repo) Cancel(ctx context.Context, q postgres.Querier, orderID string) (bool, error) {
	ct, err := q.Exec(ctx, `
		UPDATE orders SET status='cancelled', updated_at=now()
		WHERE id=$1 AND status IN ('created', 'payment_pending')`, orderID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

// MarkPaid is the payment-confirmation transition. Guard and mutation are one
// statement, so it stays correct under read committed: if the compensator
// cancelled first, zero rows are affected and the confirmation is dropped.
func (r *Repo) MarkPaid(ctx context.Context, q postgres.Querier, orderID, paymentRef string) (bool, error) {
	ct, err := q.Exec(ctx, `
		UPDATE orders SET status='paid', payment_reference=$2, paid_at=now(), updated_at=now()
		WHERE id=$1 AND status IN ('created', 'payment_pending')`, orderID, paymentRef)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

// MarkPaymentPending records the gateway reference and moves the order into
// payment_pending. Re-running with the same reference is harmless.
func (r *Repo) MarkPaymentPending(ctx context.Context, q postgres.Querier, orderID, paymentRef string) (bool, error) {
	ct, err := q.Exec(ctx, `
		UPDATE orders SET status='payment_pending', payment_reference=$2, updated_at=now()
		WHERE id=$1 AND status IN ('created', 'payment_pending')`, orderID, paymentRef)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

func (r *Repo) Get(ctx context.Context, q postgres.Querier, orderID string) (*Order, error) {
	var (
		o    Order
		addr []byte
	)
	err := q.QueryRow(ctx, `
		SELECT id, user_id, status, total_cents, tax_cents, shipping_address,
		       COALESCE(payment_reference, ''), COALESCE(expiration_job_id, ''),
		       paid_at, created_at, updated_at
		FROM orders WHERE id=$1`, orderID).
		Scan(&o.ID, &o.UserID, &o.Status, &o.TotalCents, &o.TaxCents, &addr,
			&o.PaymentReference, &o.ExpirationJobID, &o.PaidAt, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("order not found")
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(addr, &o.ShippingAddress); err != nil {
		return nil, err
	}
	return &o, nil
}

// GetOwned fetches an order with its items, enforcing ownership.
func (r *Repo) GetOwned(ctx context.Context, q postgres.Querier, orderID, userID string) (*Order, error) {
	o, err := r.Get(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, apperr.Forbidden("order belongs to another user")
	}
	o.Items, err = r.Items(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *Repo) Items(ctx context.Context, q postgres.Querier, orderID string) ([]Item, error) {
	rows, err := q.Query(ctx, `
		SELECT id, order_id, variant_id, quantity, price_cents
		FROM order_items WHERE order_id=$1`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.VariantID, &it.Quantity, &it.PriceCents); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *Repo) ListByUser(ctx context.Context, q postgres.Querier, userID string) ([]Order, error) {
	rows, err := q.Query(ctx, `
		SELECT id, user_id, status, total_cents, tax_cents,
		       COALESCE(payment_reference, ''), paid_at, created_at, updated_at
		FROM orders WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.TotalCents, &o.TaxCents,
			&o.PaymentReference, &o.PaidAt, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// ListStaleOpen returns open orders created before the cutoff. The
// reconciliation sweep feeds these back through the compensator in case
// their expiration job was lost.
func (r *Repo) ListStaleOpen(ctx context.Context, q postgres.Querier, cutoff time.Time, limit int) ([]string, error) {
	rows, err := q.Query(ctx, `
		SELECT id FROM orders
		WHERE status IN ('created', 'payment_pending') AND created_at < $1
		ORDER BY created_at LIMIT $2`, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
