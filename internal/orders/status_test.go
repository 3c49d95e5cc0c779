package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusCreated, StatusPaymentPending, true},
		{StatusCreated, StatusPaid, true},
		{StatusCreated, StatusCancelled, true},
		{StatusPaymentPending, StatusPaid, true},
		{StatusPaymentPending, StatusCancelled, true},
		{StatusPaid, StatusShipped, true},
		{StatusShipped, StatusDelivered, true},

		// terminal and settled states never go backwards
		{StatusPaid, StatusCreated, false},
		{StatusPaid, StatusCancelled, false},
		{StatusShipped, StatusCancelled, false},
		{StatusDelivered, StatusShipped, false},
		{StatusCancelled, StatusCreated, false},
		{StatusCancelled, StatusPaid, false},
		{StatusCreated, StatusShipped, false},
		{StatusCreated, StatusDelivered, false},
		{StatusPaymentPending, StatusCreated, false},
	}
	for _, c := range cases {
		assert.Equalf(t, c.ok, CanTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

func TestStatusOpen(t *testing.T) {
	assert.True(t, StatusCreated.Open())
	assert.True(t, StatusPaymentPending.Open())
	assert.False(t, StatusPaid.Open())
	assert.False(t, StatusShipped.Open())
	assert.False(t, StatusDelivered.Open())
	assert.False(t, StatusCancelled.Open())
}

func TestShippingAddressValid(t *testing.T) {
	addr := ShippingAddress{
		FullName: "Jane Doe", Line1: "1 Main St", City: "Springfield",
		State: "IL", PostalCode: "62701", Country: "US", Phone: "555-0100",
	}
	assert.True(t, addr.Valid())

	missing := addr
	missing.PostalCode = ""
	assert.False(t, missing.Valid())
	assert.False(t, ShippingAddress{}.Valid())
}
