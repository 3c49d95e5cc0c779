package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vanshkansal25/Ecommerce-Backend/internal/apperr"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/postgres"
)

// Ledger mutates per-variant stock counters with single conditional updates.
// Guard and mutation share one statement, so concurrent reservations on the
// same variant never lose updates: the loser simply affects zero rows.
type Ledger struct{}

func NewLedger() *Ledger { return &Ledger{} }

type Record struct {
	VariantID         string    `json:"variant_id"`
	StockQuantity     int       `json:"stock_quantity"`
	ReservedQuantity  int       `json:"reserved_quantity"`
	LowStockThreshold int       `json:"low_stock_threshold"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Reserve moves qty from sellable stock to reserved. Never read-then-write.
// Zero rows affected means the remaining stock cannot cover qty (or the
// variant has no inventory row); the caller must abort the whole order.
func (l *Ledger) Reserve(ctx context.Context, q postgres.Querier, variantID string, qty int) error {
	if qty <= 0 {
		return apperr.Validationf("reserve quantity must be positive, got %d", qty)
	}
	ct, err := q.Exec(ctx, `
		UPDATE product_inventory
		SET stock_quantity = stock_quantity - $2,
		    reserved_quantity = reserved_quantity + $2,
		    updated_at = now()
		WHERE variant_id = $1 AND stock_quantity >= $2`, variantID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return apperr.Conflictf("insufficient stock for variant %s", variantID)
	}
	return nil
}

// Release reverses a reservation. Guarded by reserved >= qty: releasing more
// than is reserved signals a bug or a duplicate release and must not
// silently succeed.
func (l *Ledger) Release(ctx context.Context, q postgres.Querier, variantID string, qty int) error {
	if qty <= 0 {
		return apperr.Validationf("release quantity must be positive, got %d", qty)
	}
	ct, err := q.Exec(ctx, `
		UPDATE product_inventory
		SET stock_quantity = stock_quantity + $2,
		    reserved_quantity = reserved_quantity - $2,
		    updated_at = now()
		WHERE variant_id = $1 AND reserved_quantity >= $2`, variantID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return apperr.Conflictf("over-release for variant %s: nothing (or less) reserved", variantID)
	}
	return nil
}

// AddStock is the privileged restock path: an unconditional increment.
func (l *Ledger) AddStock(ctx context.Context, q postgres.Querier, variantID string, qty int) error {
	if qty <= 0 {
		return apperr.Validationf("restock quantity must be positive, got %d", qty)
	}
	ct, err := q.Exec(ctx, `
		UPDATE product_inventory
		SET stock_quantity = stock_quantity + $2, updated_at = now()
		WHERE variant_id = $1`, variantID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return apperr.NotFound("no inventory row for variant " + variantID)
	}
	return nil
}

func (l *Ledger) Get(ctx context.Context, q postgres.Querier, variantID string) (*Record, error) {
	var rec Record
	err := q.QueryRow(ctx, `
		SELECT variant_id, stock_quantity, reserved_quantity, low_stock_threshold, updated_at
		FROM product_inventory WHERE variant_id=$1`, variantID).
		Scan(&rec.VariantID, &rec.StockQuantity, &rec.ReservedQuantity, &rec.LowStockThreshold, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("no inventory row for variant " + variantID)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
