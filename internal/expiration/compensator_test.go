package expiration

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshkansal25/Ecommerce-Backend/internal/apperr"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/orders"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/postgres"
	"github.com/vanshkansal25/Ecommerce-Backend/internal/queue"
)

type stockRec struct{ stock, reserved int }

type world struct {
	status map[string]orders.Status
	items  map[string][]orders.Item
	stock  map[string]*stockRec
}

func newWorld() *world {
	return &world{
		status: map[string]orders.Status{},
		items:  map[string][]orders.Item{},
		stock:  map[string]*stockRec{},
	}
}

func (w *world) clone() *world {
	c := newWorld()
	for k, v := range w.status {
		c.status[k] = v
	}
	for k, v := range w.items {
		c.items[k] = append([]orders.Item(nil), v...)
	}
	for k, v := range w.stock {
		cp := *v
		c.stock[k] = &cp
	}
	return c
}

type env struct{ w *world }

func (e *env) InTx(ctx context.Context, fn func(ctx context.Context, q postgres.Querier) error) error {
	snap := e.w.clone()
	if err := fn(ctx, nil); err != nil {
		e.w = snap
		return err
	}
	return nil
}

func (e *env) StatusForUpdate(_ context.Context, _ postgres.Querier, orderID string) (orders.Status, bool, error) {
	s, ok := e.w.status[orderID]
	return s, ok, nil
}

func (e *env) Items(_ context.Context, _ postgres.Querier, orderID string) ([]orders.Item, error) {
	return e.w.items[orderID], nil
}

func (e *env) Cancel(_ context.Context, _ postgres.Querier, orderID string) (bool, error) {
	s, ok := e.w.status[orderID]
	if !ok || !s.Open() {
		return false, nil
	}
	e.w.status[orderID] = orders.StatusCancelled
	return true, nil
}

func (e *env) Release(_ context.Context, _ postgres.Querier, variantID string, qty int) error {
	rec := e.w.stock[variantID]
	if rec == nil || rec.reserved < qty {
		return apperr.Conflictf("release of %d exceeds reserved quantity for variant %s", qty, variantID)
	}
	rec.reserved -= qty
	rec.stock += qty
	return nil
}

type eventSink struct{ published []string }

func (s *eventSink) PublishEvent(eventType, _, _, orderID string, _ any) error {
	s.published = append(s.published, eventType+":"+orderID)
	return nil
}

func newCompensator(e *env) (*Compensator, *eventSink) {
	sink := &eventSink{}
	return &Compensator{
		Tx: e, Ord: e, Inv: e,
		Events: sink, Service: "test-worker", Log: slog.Default(),
	}, sink
}

const orderA = "11111111-0000-0000-0000-000000000001"

func TestCancelReleasesReservation(t *testing.T) {
	e := &env{w: newWorld()}
	e.w.status[orderA] = orders.StatusCreated
	e.w.items[orderA] = []orders.Item{
		{OrderID: orderA, VariantID: "vx", Quantity: 2},
		{OrderID: orderA, VariantID: "vy", Quantity: 1},
	}
	e.w.stock["vx"] = &stockRec{stock: 8, reserved: 2}
	e.w.stock["vy"] = &stockRec{stock: 0, reserved: 1}
	comp, _ := newCompensator(e)

	cancelled, err := comp.Cancel(context.Background(), orderA, ReasonExpired)
	require.NoError(t, err)
	assert.True(t, cancelled)

	assert.Equal(t, orders.StatusCancelled, e.w.status[orderA])
	assert.Equal(t, 10, e.w.stock["vx"].stock)
	assert.Equal(t, 0, e.w.stock["vx"].reserved)
	assert.Equal(t, 1, e.w.stock["vy"].stock)
	assert.Equal(t, 0, e.w.stock["vy"].reserved)
}

func TestCancelNoOpWhenPaid(t *testing.T) {
	e := &env{w: newWorld()}
	e.w.status[orderA] = orders.StatusPaid
	e.w.items[orderA] = []orders.Item{{OrderID: orderA, VariantID: "vx", Quantity: 2}}
	e.w.stock["vx"] = &stockRec{stock: 8, reserved: 2}
	comp, _ := newCompensator(e)

	cancelled, err := comp.Cancel(context.Background(), orderA, ReasonExpired)
	require.NoError(t, err)
	assert.False(t, cancelled)

	// nothing touched: paid orders keep their stock movement
	assert.Equal(t, orders.StatusPaid, e.w.status[orderA])
	assert.Equal(t, 2, e.w.stock["vx"].reserved)
}

func TestCancelNoOpWhenMissing(t *testing.T) {
	e := &env{w: newWorld()}
	comp, _ := newCompensator(e)

	cancelled, err := comp.Cancel(context.Background(), orderA, ReasonExpired)
	require.NoError(t, err)
	assert.False(t, cancelled)
}

func TestCancelRedeliveryIsIdempotent(t *testing.T) {
	e := &env{w: newWorld()}
	e.w.status[orderA] = orders.StatusCreated
	e.w.items[orderA] = []orders.Item{{OrderID: orderA, VariantID: "vx", Quantity: 2}}
	e.w.stock["vx"] = &stockRec{stock: 8, reserved: 2}
	comp, _ := newCompensator(e)

	first, err := comp.Cancel(context.Background(), orderA, ReasonExpired)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := comp.Cancel(context.Background(), orderA, ReasonExpired)
	require.NoError(t, err)
	assert.False(t, second)

	// released exactly once
	assert.Equal(t, 10, e.w.stock["vx"].stock)
	assert.Equal(t, 0, e.w.stock["vx"].reserved)
}

func TestCancelRollsBackOnReleaseFailure(t *testing.T) {
	e := &env{w: newWorld()}
	e.w.status[orderA] = orders.StatusCreated
	e.w.items[orderA] = []orders.Item{
		{OrderID: orderA, VariantID: "vx", Quantity: 2},
		{OrderID: orderA, VariantID: "vy", Quantity: 5}, // reserved is only 1
	}
	e.w.stock["vx"] = &stockRec{stock: 8, reserved: 2}
	e.w.stock["vy"] = &stockRec{stock: 0, reserved: 1}
	comp, _ := newCompensator(e)

	_, err := comp.Cancel(context.Background(), orderA, ReasonExpired)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeConflict, apperr.CodeOf(err))

	// the first release rolled back with the transaction
	assert.Equal(t, orders.StatusCreated, e.w.status[orderA])
	assert.Equal(t, 8, e.w.stock["vx"].stock)
	assert.Equal(t, 2, e.w.stock["vx"].reserved)
}

func TestHandleJobPublishesCancelledEvent(t *testing.T) {
	e := &env{w: newWorld()}
	e.w.status[orderA] = orders.StatusCreated
	e.w.items[orderA] = []orders.Item{{OrderID: orderA, VariantID: "vx", Quantity: 1}}
	e.w.stock["vx"] = &stockRec{stock: 9, reserved: 1}
	comp, sink := newCompensator(e)

	payload, _ := json.Marshal(orders.ExpirationJob{OrderID: orderA, UserID: "u1"})
	err := comp.HandleJob(context.Background(), queue.Job{ID: "j1", Payload: payload})
	require.NoError(t, err)

	require.Len(t, sink.published, 1)
	assert.Equal(t, orders.EventOrderCancelled+":"+orderA, sink.published[0])
}

func TestHandleJobStaleDeliveryPublishesNothing(t *testing.T) {
	e := &env{w: newWorld()}
	e.w.status[orderA] = orders.StatusPaid
	comp, sink := newCompensator(e)

	payload, _ := json.Marshal(orders.ExpirationJob{OrderID: orderA, UserID: "u1"})
	err := comp.HandleJob(context.Background(), queue.Job{ID: "j1", Payload: payload})
	require.NoError(t, err)
	assert.Empty(t, sink.published)
}

func TestHandleJobPoisonPayloadNotRetried(t *testing.T) {
	e := &env{w: newWorld()}
	comp, sink := newCompensator(e)

	err := comp.HandleJob(context.Background(), queue.Job{ID: "j1", Payload: []byte("{not json")})
	require.NoError(t, err)
	assert.Empty(t, sink.published)
}
