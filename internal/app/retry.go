package app

import (
	"context"
	"errors"
	"time"

	"github.com/freshmart/ordersaga/internal/domain"
)

const (
	conflictRetryAttempts = 3
	conflictRetryBaseWait = 100 * time.Millisecond
)

// retryOnConflict runs fn, retrying only transient write-write conflicts
// (domain.ErrConflict) with exponential backoff. Business failures and
// everything else pass straight through. Exhausting the attempts returns
// the last conflict so the delivery substrate can redeliver later.
func retryOnConflict(ctx context.Context, fn func() error) error {
	wait := conflictRetryBaseWait
	var err error
	for attempt := 0; attempt < conflictRetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
			wait *= 2
		}
		if err = fn(); !errors.Is(err, domain.ErrConflict) {
			return err
		}
	}
	return err
}
