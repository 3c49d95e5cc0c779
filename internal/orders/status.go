package orders

type Status string

const (
	StatusCreated        Status = "created"
	StatusPaymentPending Status = "payment_pending"
	StatusPaid           Status = "paid"
	StatusShipped        Status = "shipped"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

// Only the payment confirmation path may move an order to paid; only the
// expiration compensator or an explicit admin cancel may move it to
// cancelled. Paid, shipped, delivered and cancelled never go backwards.
var validNext = map[Status]map[Status]bool{
	StatusCreated:        {StatusPaymentPending: true, StatusPaid: true, StatusCancelled: true},
	StatusPaymentPending: {StatusPaid: true, StatusCancelled: true},
	StatusPaid:           {StatusShipped: true},
	StatusShipped:        {StatusDelivered: true},
	StatusDelivered:      {},
	StatusCancelled:      {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// Open reports whether the order is still waiting on a payment outcome,
// i.e. the compensator may still cancel it.
func (s Status) Open() bool {
	return s == StatusCreated || s == StatusPaymentPending
}
