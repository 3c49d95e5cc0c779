package payment

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshkansal25/Ecommerce-Backend/internal/apperr"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/orders"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/postgres"
)

type fakeOrders struct {
	order   *orders.Order
	pending bool // MarkPaymentPending result

	markedRef string
}

func (f *fakeOrders) Get(_ context.Context, _ postgres.Querier, orderID string) (*orders.Order, error) {
	if f.order == nil || f.order.ID != orderID {
		return nil, apperr.NotFound("order not found")
	}
	cp := *f.order
	return &cp, nil
}

func (f *fakeOrders) MarkPaymentPending(_ context.Context, _ postgres.Querier, _, paymentRef string) (bool, error) {
	if !f.pending {
		return false, nil
	}
	f.markedRef = paymentRef
	f.order.Status = orders.StatusPaymentPending
	f.order.PaymentReference = paymentRef
	return true, nil
}

type gatewayCall struct {
	amountCents int64
	currency    string
	metadata    map[string]string
	dedupeToken string
}

type fakeGateway struct {
	calls  []gatewayCall
	intent *Intent
	err    error
}

func (g *fakeGateway) CreateIntent(_ context.Context, amountCents int64, currency string, metadata map[string]string, dedupeToken string) (*Intent, error) {
	g.calls = append(g.calls, gatewayCall{amountCents, currency, metadata, dedupeToken})
	if g.err != nil {
		return nil, g.err
	}
	return g.intent, nil
}

const (
	bridgeOrder = "22222222-0000-0000-0000-000000000001"
	bridgeUser  = "2a3b4c5d-0000-0000-0000-000000000001"
)

func newBridge(f *fakeOrders, g *fakeGateway) *Bridge {
	return &Bridge{Orders: f, Gateway: g, Currency: "USD", Log: slog.Default()}
}

func TestDedupeTokenDeterministic(t *testing.T) {
	a := DedupeToken(bridgeOrder)
	b := DedupeToken(bridgeOrder)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, DedupeToken("22222222-0000-0000-0000-000000000002"))
}

func TestCreateIntent(t *testing.T) {
	f := &fakeOrders{
		order:   &orders.Order{ID: bridgeOrder, UserID: bridgeUser, Status: orders.StatusCreated, TotalCents: 3500},
		pending: true,
	}
	g := &fakeGateway{intent: &Intent{ID: "pi_123", ClientSecret: "cs_abc"}}

	intent, err := newBridge(f, g).CreateIntent(context.Background(), bridgeOrder, bridgeUser)
	require.NoError(t, err)
	assert.Equal(t, "pi_123", intent.ID)
	assert.Equal(t, "pi_123", f.markedRef)

	require.Len(t, g.calls, 1)
	assert.Equal(t, int64(3500), g.calls[0].amountCents)
	assert.Equal(t, "USD", g.calls[0].currency)
	assert.Equal(t, bridgeOrder, g.calls[0].metadata["order_id"])
	assert.Equal(t, DedupeToken(bridgeOrder), g.calls[0].dedupeToken)
}

func TestCreateIntentWrongUser(t *testing.T) {
	f := &fakeOrders{
		order:   &orders.Order{ID: bridgeOrder, UserID: bridgeUser, Status: orders.StatusCreated},
		pending: true,
	}
	g := &fakeGateway{intent: &Intent{ID: "pi_123"}}

	_, err := newBridge(f, g).CreateIntent(context.Background(), bridgeOrder, "2a3b4c5d-0000-0000-0000-000000000099")
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))
	assert.Empty(t, g.calls, "gateway must not be called for foreign orders")
}

func TestCreateIntentSettledOrder(t *testing.T) {
	for _, status := range []orders.Status{orders.StatusPaid, orders.StatusCancelled} {
		f := &fakeOrders{order: &orders.Order{ID: bridgeOrder, UserID: bridgeUser, Status: status}}
		g := &fakeGateway{intent: &Intent{ID: "pi_123"}}

		_, err := newBridge(f, g).CreateIntent(context.Background(), bridgeOrder, bridgeUser)
		assert.Equalf(t, apperr.CodeConflict, apperr.CodeOf(err), "status %s", status)
		assert.Empty(t, g.calls)
	}
}

func TestCreateIntentUnknownOrder(t *testing.T) {
	f := &fakeOrders{}
	g := &fakeGateway{intent: &Intent{ID: "pi_123"}}

	_, err := newBridge(f, g).CreateIntent(context.Background(), bridgeOrder, bridgeUser)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestCreateIntentLosesRaceToCompensator(t *testing.T) {
	f := &fakeOrders{
		order:   &orders.Order{ID: bridgeOrder, UserID: bridgeUser, Status: orders.StatusCreated, TotalCents: 3500},
		pending: false, // guarded update finds the order no longer open
	}
	g := &fakeGateway{intent: &Intent{ID: "pi_123"}}

	_, err := newBridge(f, g).CreateIntent(context.Background(), bridgeOrder, bridgeUser)
	assert.Equal(t, apperr.CodeConflict, apperr.CodeOf(err))
}

func TestCreateIntentGatewayDown(t *testing.T) {
	f := &fakeOrders{
		order:   &orders.Order{ID: bridgeOrder, UserID: bridgeUser, Status: orders.StatusCreated, TotalCents: 3500},
		pending: true,
	}
	g := &fakeGateway{err: apperr.New(apperr.CodeTransient, "payment gateway unreachable")}

	_, err := newBridge(f, g).CreateIntent(context.Background(), bridgeOrder, bridgeUser)
	assert.Equal(t, apperr.CodeTransient, apperr.CodeOf(err))
	assert.Empty(t, f.markedRef, "order must stay untouched when the gateway fails")
}
