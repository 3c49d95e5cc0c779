package payment

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshkansal25/Ecommerce-Backend/internal/orders"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/postgres"
)

type fakePaidMarker struct {
	paid bool
	err  error

	calls []string // orderID:paymentRef
}

func (f *fakePaidMarker) MarkPaid(_ context.Context, _ postgres.Querier, orderID, paymentRef string) (bool, error) {
	f.calls = append(f.calls, orderID+":"+paymentRef)
	return f.paid, f.err
}

type recorder struct{ published []string }

func (r *recorder) PublishEvent(eventType, _, _, orderID string, _ any) error {
	r.published = append(r.published, eventType+":"+orderID)
	return nil
}

func authorizedMessage(t *testing.T, orderID, ref string) kafkago.Message {
	t.Helper()
	payload, err := json.Marshal(orders.PaymentAuthorizedPayload{OrderID: orderID, PaymentRef: ref, AmountCents: 3500})
	require.NoError(t, err)
	env, err := json.Marshal(orders.Envelope{
		EventID:       "ev-1",
		EventType:     orders.EventPaymentAuthorized,
		EventVersion:  1,
		CorrelationID: orderID,
		Payload:       payload,
	})
	require.NoError(t, err)
	return kafkago.Message{Key: []byte(orderID), Value: env}
}

func TestHandleAuthorizedMarksPaid(t *testing.T) {
	marker := &fakePaidMarker{paid: true}
	rec := &recorder{}
	c := &Confirmer{Orders: marker, Events: rec, Service: "test-worker", Log: slog.Default()}

	err := c.HandleAuthorized(context.Background(), authorizedMessage(t, bridgeOrder, "pi_123"))
	require.NoError(t, err)
	assert.Equal(t, []string{bridgeOrder + ":pi_123"}, marker.calls)
	assert.Equal(t, []string{orders.EventOrderPaid + ":" + bridgeOrder}, rec.published)
}

func TestHandleAuthorizedDropsWhenOrderSettled(t *testing.T) {
	// the expiration compensator already cancelled the order
	marker := &fakePaidMarker{paid: false}
	rec := &recorder{}
	c := &Confirmer{Orders: marker, Events: rec, Service: "test-worker", Log: slog.Default()}

	err := c.HandleAuthorized(context.Background(), authorizedMessage(t, bridgeOrder, "pi_123"))
	require.NoError(t, err, "a lost race is terminal, not retryable")
	assert.Len(t, marker.calls, 1)
	assert.Empty(t, rec.published)
}

func TestHandleAuthorizedRedeliversOnStoreError(t *testing.T) {
	marker := &fakePaidMarker{err: errors.New("connection reset")}
	c := &Confirmer{Orders: marker, Log: slog.Default()}

	err := c.HandleAuthorized(context.Background(), authorizedMessage(t, bridgeOrder, "pi_123"))
	assert.Error(t, err)
}

func TestHandleAuthorizedIgnoresOtherEventTypes(t *testing.T) {
	marker := &fakePaidMarker{paid: true}
	c := &Confirmer{Orders: marker, Log: slog.Default()}

	env, err := json.Marshal(orders.Envelope{EventID: "ev-2", EventType: orders.EventOrderCreated})
	require.NoError(t, err)
	require.NoError(t, c.HandleAuthorized(context.Background(), kafkago.Message{Value: env}))
	assert.Empty(t, marker.calls)
}

func TestHandleAuthorizedPoisonMessage(t *testing.T) {
	marker := &fakePaidMarker{paid: true}
	c := &Confirmer{Orders: marker, Log: slog.Default()}

	err := c.HandleAuthorized(context.Background(), kafkago.Message{Value: []byte("{not json")})
	require.NoError(t, err, "undecodable messages must not loop forever")
	assert.Empty(t, marker.calls)
}
