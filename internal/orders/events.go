package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated      = "OrderCreated"
	EventOrderCancelled    = "OrderCancelled"
	EventOrderPaid         = "OrderPaid"
	EventPaymentAuthorized = "PaymentAuthorized"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

type OrderCreatedPayload struct {
	OrderID    string `json:"order_id"`
	UserID     string `json:"user_id"`
	TotalCents int64  `json:"total_cents"`
	ItemCount  int    `json:"item_count"`
	// ExpiresAt tells downstream consumers when the reservation lapses.
	ExpiresAt time.Time `json:"expires_at"`
}

type OrderCancelledPayload struct {
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id"`
	Reason  string `json:"reason"` // EXPIRED | ADMIN_CANCEL
}

type OrderPaidPayload struct {
	OrderID     string `json:"order_id"`
	PaymentRef  string `json:"payment_ref"`
	AmountCents int64  `json:"amount_cents"`
}

type PaymentAuthorizedPayload struct {
	OrderID     string `json:"order_id"`
	PaymentRef  string `json:"payment_ref"`
	AmountCents int64  `json:"amount_cents"`
}

// ExpirationJob is the delayed-queue payload scheduled at checkout and
// consumed by the expiration compensator.
type ExpirationJob struct {
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id"`
}
