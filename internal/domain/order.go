package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is a single-product purchase moving through the saga.
// Status only ever moves pending -> completed or pending -> cancelled.
type Order struct {
	ID        string
	ProductID string
	Quantity  int
	Price     int64
	Status    OrderStatus
	CreatedAt time.Time
}

// TotalAmount is derived, never stored.
func (o Order) TotalAmount() int64 {
	return o.Price * int64(o.Quantity)
}

// Finalized reports whether the order reached a terminal state.
func (o Order) Finalized() bool {
	return o.Status == OrderStatusCompleted || o.Status == OrderStatusCancelled
}

func (o *Order) Complete() error {
	if o.Finalized() {
		return ErrOrderFinalized
	}
	o.Status = OrderStatusCompleted
	return nil
}

func (o *Order) Cancel() error {
	if o.Finalized() {
		return ErrOrderFinalized
	}
	o.Status = OrderStatusCancelled
	return nil
}
