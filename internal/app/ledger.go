package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/freshmart/ordersaga/internal/domain"
)

// BatchRepository is the storage the ledger needs. ListEligibleForUpdate
// must lock every returned row until the surrounding transaction ends
// and must order by ascending expiration.
type BatchRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	ListEligibleForUpdate(ctx context.Context, productID string) ([]domain.Batch, error)
	GetByID(ctx context.Context, batchID string) (*domain.Batch, error)
	UpdateQuantity(ctx context.Context, batchID string, quantity int) error
	Create(ctx context.Context, batch domain.Batch) error
}

// Ledger owns stock batches and performs FIFO-by-expiry deduction and
// restoration. Allocate assumes the caller runs it inside a transaction
// that holds the per-product row locks (see AllocationHandler).
type Ledger struct {
	batches BatchRepository
	logger  *zap.Logger
}

func NewLedger(batches BatchRepository, logger *zap.Logger) *Ledger {
	return &Ledger{batches: batches, logger: logger}
}

// Allocate deducts quantity from the product's batches, earliest expiry
// first. Batches expiring strictly before now are invisible. Fails with
// domain.ErrInsufficientStock before any mutation when the eligible sum
// is short; a request is never partially fulfilled.
func (l *Ledger) Allocate(ctx context.Context, productID string, quantity int, now time.Time) (domain.DeductionMap, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	batches, err := l.batches.ListEligibleForUpdate(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}

	available := 0
	for _, b := range batches {
		if b.Expired(now) {
			continue
		}
		available += b.Quantity
	}
	if available < quantity {
		l.logger.Info("insufficient stock",
			zap.String("product_id", productID),
			zap.Int("requested", quantity),
			zap.Int("available", available),
		)
		return nil, fmt.Errorf("%w: requested %d, available %d", domain.ErrInsufficientStock, quantity, available)
	}

	deductions := make(domain.DeductionMap)
	remaining := quantity
	for i := range batches {
		b := &batches[i]
		if b.Expired(now) {
			continue
		}
		taken := b.Deduct(remaining)
		if taken == 0 {
			continue
		}
		if err := l.batches.UpdateQuantity(ctx, b.ID, b.Quantity); err != nil {
			return nil, fmt.Errorf("save batch %s: %w", b.ID, err)
		}
		deductions[b.ID] = taken
		remaining -= taken
		if remaining == 0 {
			break
		}
	}

	l.logger.Info("stock deducted",
		zap.String("product_id", productID),
		zap.Int("quantity", quantity),
		zap.Int("batches_touched", len(deductions)),
	)
	return deductions, nil
}

// Restore adds the deducted quantities back onto their batches. Unknown
// batch ids are skipped (the batch may have been archived). Not
// de-duplicated here: the caller invokes it at most once per map.
func (l *Ledger) Restore(ctx context.Context, deductions domain.DeductionMap) error {
	for _, qty := range deductions {
		if qty < 0 {
			return domain.ErrInvalidQuantity
		}
	}

	return l.batches.WithTx(ctx, func(txCtx context.Context) error {
		for batchID, qty := range deductions {
			batch, err := l.batches.GetByID(txCtx, batchID)
			if err != nil {
				return fmt.Errorf("load batch %s: %w", batchID, err)
			}
			if batch == nil {
				l.logger.Warn("restore skipped missing batch", zap.String("batch_id", batchID))
				continue
			}
			batch.Restore(qty)
			if err := l.batches.UpdateQuantity(txCtx, batch.ID, batch.Quantity); err != nil {
				return fmt.Errorf("save batch %s: %w", batch.ID, err)
			}
		}
		return nil
	})
}
