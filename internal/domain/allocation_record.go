package domain

import "time"

// AllocationRecord marks an order whose allocation attempt has been
// durably processed, success or failure. Its presence is the sole
// idempotency signal for redelivered order-placed events.
type AllocationRecord struct {
	OrderID     string
	ProcessedAt time.Time
}
