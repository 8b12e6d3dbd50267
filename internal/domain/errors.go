package domain

import "errors"

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrBatchNotFound     = errors.New("batch not found")
	ErrProductRequired   = errors.New("product id required")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrInvalidPrice      = errors.New("invalid price")
	ErrInvalidExpiry     = errors.New("invalid expiration timestamp")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrAlreadyProcessed  = errors.New("order already processed")
	ErrOrderFinalized    = errors.New("order already in a terminal state")
	ErrInvalidID         = errors.New("invalid id")
	ErrUnknownEvent      = errors.New("unknown event name")

	// ErrConflict marks a transient write-write conflict on batch rows.
	// Callers may retry the whole unit of work.
	ErrConflict = errors.New("write conflict")
)
