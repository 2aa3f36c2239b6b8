package enums

// OrderStatus tracks the payment lifecycle of an order. Both states are
// terminal for their phase: a PENDING order only ever moves to COMPLETE.
type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "PENDING"
	OrderStatusComplete OrderStatus = "COMPLETE"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusComplete:
		return true
	default:
		return false
	}
}
