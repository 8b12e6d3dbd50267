package domain

import "time"

// Batch is one lot of stock for a product with its own expiration.
// A batch at quantity 0 is exhausted but kept for the audit trail.
type Batch struct {
	ID        string
	ProductID string
	Quantity  int
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the batch is invisible to allocation at now.
func (b Batch) Expired(now time.Time) bool {
	return b.ExpiresAt.Before(now)
}

// Deduct takes up to amount from the batch and returns how much was taken.
func (b *Batch) Deduct(amount int) int {
	taken := min(b.Quantity, amount)
	b.Quantity -= taken
	return taken
}

// Restore puts amount back onto the batch.
func (b *Batch) Restore(amount int) {
	b.Quantity += amount
}
