package orders

import "time"

// ShippingAddress is frozen onto the order as a JSON snapshot; later profile
// edits never touch placed orders.
type ShippingAddress struct {
	FullName   string `json:"full_name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

func (a ShippingAddress) Valid() bool {
	return a.FullName != "" && a.Line1 != "" && a.City != "" &&
		a.State != "" && a.PostalCode != "" && a.Country != "" && a.Phone != ""
}

type Order struct {
	ID               string          `json:"id"`
	UserID           string          `json:"user_id"`
	Status           Status          `json:"status"`
	TotalCents       int64           `json:"total_cents"`
	TaxCents         int64           `json:"tax_cents"`
	ShippingAddress  ShippingAddress `json:"shipping_address"`
	PaymentReference string          `json:"payment_reference,omitempty"`
	ExpirationJobID  string          `json:"expiration_job_id,omitempty"`
	PaidAt           *time.Time      `json:"paid_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	Items            []Item          `json:"items,omitempty"`
}

// Item snapshots the price at reservation time. Catalog price changes must
// never retroactively affect an existing order.
type Item struct {
	ID         string `json:"id"`
	OrderID    string `json:"order_id"`
	VariantID  string `json:"variant_id"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"price_cents"`
}
