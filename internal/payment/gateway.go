package payment

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/vanshkansal25/Ecommerce-Backend/internal/apperr"
)

type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

type Gateway interface {
	CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string, dedupeToken string) (*Intent, error)
}

// RestyGateway talks to the external payment provider. The dedupe token goes
// out as the provider's idempotency key, so retried calls can never mint two
// intents for one order.
type RestyGateway struct {
	client *resty.Client
}

func NewGateway(baseURL, apiKey string) *RestyGateway {
	c := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetRetryCount(2)
	return &RestyGateway{client: c}
}

func (g *RestyGateway) CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string, dedupeToken string) (*Intent, error) {
	var intent Intent
	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("Idempotency-Key", dedupeToken).
		SetBody(map[string]any{
			"amount":   amountCents,
			"currency": currency,
			"metadata": metadata,
		}).
		SetResult(&intent).
		Post("/v1/payment_intents")
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeTransient, "payment gateway unreachable", err)
	}
	if resp.IsError() {
		return nil, apperr.New(apperr.CodeTransient,
			fmt.Sprintf("payment gateway returned %d", resp.StatusCode()))
	}
	if intent.ID == "" {
		return nil, apperr.New(apperr.CodeTransient, "payment gateway returned no intent id")
	}
	return &intent, nil
}
