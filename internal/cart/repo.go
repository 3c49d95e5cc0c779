package cart

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vanshkansal25/Ecommerce-Backend/internal/apperr"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/postgres"
)

type Repo struct{}

func NewRepo() *Repo { return &Repo{} }

// AddItem finds or creates the user's cart and upserts the line item: a
// second add of the same variant increments the quantity instead of adding
// a duplicate row.
func (r *Repo) AddItem(ctx context.Context, q postgres.Querier, userID, variantID string, qty int) (*Item, error) {
	if qty <= 0 {
		return nil, apperr.Validationf("quantity must be positive, got %d", qty)
	}
	var cartID string
	err := q.QueryRow(ctx, `SELECT id FROM carts WHERE user_id=$1`, userID).Scan(&cartID)
	if errors.Is(err, pgx.ErrNoRows) {
		cartID = uuid.NewString()
		if _, err := q.Exec(ctx, `INSERT INTO carts(id, user_id) VALUES ($1, $2)`, cartID, userID); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	it := Item{ID: uuid.NewString(), CartID: cartID, VariantID: variantID}
	err = q.QueryRow(ctx, `
		INSERT INTO cart_items(id, cart_id, variant_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cart_id, variant_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING id, quantity`, it.ID, cartID, variantID, qty).
		Scan(&it.ID, &it.Quantity)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// SetQuantity sets the absolute quantity of an existing line item.
func (r *Repo) SetQuantity(ctx context.Context, q postgres.Querier, userID, variantID string, qty int) error {
	if qty < 1 {
		return apperr.Validationf("quantity must be at least 1; use remove to delete the item")
	}
	ct, err := q.Exec(ctx, `
		UPDATE cart_items SET quantity=$3
		WHERE variant_id=$2 AND cart_id = (SELECT id FROM carts WHERE user_id=$1)`,
		userID, variantID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return apperr.NotFound("item not found in cart")
	}
	return nil
}

func (r *Repo) RemoveItem(ctx context.Context, q postgres.Querier, userID, variantID string) error {
	ct, err := q.Exec(ctx, `
		DELETE FROM cart_items
		WHERE variant_id=$2 AND cart_id = (SELECT id FROM carts WHERE user_id=$1)`,
		userID, variantID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return apperr.NotFound("item not found in cart")
	}
	return nil
}

// GetWithItems loads the cart and joins each line with its variant so the
// checkout orchestrator can freeze prices. Returns nil when the user has no
// cart.
func (r *Repo) GetWithItems(ctx context.Context, q postgres.Querier, userID string) (*Cart, error) {
	var c Cart
	err := q.QueryRow(ctx, `SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id=$1`, userID).
		Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
		SELECT ci.id, ci.cart_id, ci.variant_id, ci.quantity, v.sku, v.price_cents, v.attributes
		FROM cart_items ci
		JOIN product_variants v ON v.id = ci.variant_id
		WHERE ci.cart_id=$1
		ORDER BY ci.created_at`, c.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			it    Item
			attrs []byte
		)
		if err := rows.Scan(&it.ID, &it.CartID, &it.VariantID, &it.Quantity, &it.SKU, &it.PriceCents, &attrs); err != nil {
			return nil, err
		}
		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &it.Attributes); err != nil {
				return nil, err
			}
		}
		c.Items = append(c.Items, it)
	}
	return &c, rows.Err()
}

// Delete removes the cart row; cart_items cascade. Part of the checkout
// transaction, so a failed checkout keeps the cart intact.
func (r *Repo) Delete(ctx context.Context, q postgres.Querier, userID string) error {
	_, err := q.Exec(ctx, `DELETE FROM carts WHERE user_id=$1`, userID)
	return err
}
