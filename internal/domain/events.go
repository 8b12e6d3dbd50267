package domain

import (
	"encoding/json"
	"fmt"
)

// DeductionMap records how much was taken from each batch for one order.
// It travels on the success event and, if payment later fails, on the
// failure event so compensation can restore the exact amounts.
type DeductionMap map[string]int

// Event is a fact published on the choreography bus.
type Event interface {
	EventName() string
	Key() string
}

const (
	EventOrderPlaced         = "order.placed"
	EventAllocationSucceeded = "inventory.allocation_succeeded"
	EventAllocationFailed    = "inventory.allocation_failed"
	EventPaymentSucceeded    = "payment.succeeded"
	EventPaymentFailed       = "payment.failed"
)

type OrderPlaced struct {
	OrderID     string `json:"order_id"`
	ProductID   string `json:"product_id"`
	Quantity    int    `json:"quantity"`
	TotalAmount int64  `json:"total_amount"`
}

func (OrderPlaced) EventName() string { return EventOrderPlaced }
func (e OrderPlaced) Key() string     { return e.OrderID }

type AllocationSucceeded struct {
	OrderID     string       `json:"order_id"`
	TotalAmount int64        `json:"total_amount"`
	ProductID   string       `json:"product_id"`
	Quantity    int          `json:"quantity"`
	Deductions  DeductionMap `json:"deductions"`
}

func (AllocationSucceeded) EventName() string { return EventAllocationSucceeded }
func (e AllocationSucceeded) Key() string     { return e.OrderID }

type AllocationFailed struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason"`
}

func (AllocationFailed) EventName() string { return EventAllocationFailed }
func (e AllocationFailed) Key() string     { return e.OrderID }

type PaymentSucceeded struct {
	OrderID string `json:"order_id"`
}

func (PaymentSucceeded) EventName() string { return EventPaymentSucceeded }
func (e PaymentSucceeded) Key() string     { return e.OrderID }

type PaymentFailed struct {
	OrderID    string       `json:"order_id"`
	Reason     string       `json:"reason"`
	ProductID  string       `json:"product_id"`
	Quantity   int          `json:"quantity"`
	Deductions DeductionMap `json:"deductions"`
}

func (PaymentFailed) EventName() string { return EventPaymentFailed }
func (e PaymentFailed) Key() string     { return e.OrderID }

// DecodeEvent rebuilds a typed event from its name and JSON payload.
// Used by transports that carry events as name+payload envelopes.
// Always returns a value type so handlers can assert uniformly.
func DecodeEvent(name string, payload []byte) (Event, error) {
	decode := func(dst any) error {
		if err := json.Unmarshal(payload, dst); err != nil {
			return fmt.Errorf("decode %s: %w", name, err)
		}
		return nil
	}

	switch name {
	case EventOrderPlaced:
		var e OrderPlaced
		return e, decode(&e)
	case EventAllocationSucceeded:
		var e AllocationSucceeded
		return e, decode(&e)
	case EventAllocationFailed:
		var e AllocationFailed
		return e, decode(&e)
	case EventPaymentSucceeded:
		var e PaymentSucceeded
		return e, decode(&e)
	case EventPaymentFailed:
		var e PaymentFailed
		return e, decode(&e)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, name)
	}
}
