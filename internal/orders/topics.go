package orders

const (
	TopicOrderCreated      = "order.created"
	TopicOrderCancelled    = "order.cancelled"
	TopicOrderPaid         = "order.paid"
	TopicPaymentAuthorized = "order.payment.authorized"
)

// QueueExpiration is the delayed-queue topic the compensator consumes.
const QueueExpiration = "inventory-cleanup"

// Partition key = order_id so all events of one order keep their order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
