package cart

import "time"

type Cart struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Items     []Item    `json:"items"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Item struct {
	ID        string `json:"id"`
	CartID    string `json:"cart_id"`
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`

	// Variant read model joined in for display and for the price snapshot
	// taken at checkout. Attributes is a free-form bag ({"size": "XL"}).
	SKU        string         `json:"sku"`
	PriceCents int64          `json:"price_cents"`
	Attributes map[string]any `json:"attributes,omitempty"`
}
