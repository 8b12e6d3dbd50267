package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/freshmart/ordersaga/internal/clock"
	"github.com/freshmart/ordersaga/internal/domain"
)

// ReplenishService creates stock batches. Replenishment is external to
// the saga; this is its front door.
type ReplenishService struct {
	batches BatchRepository
	clock   clock.Clock
	logger  *zap.Logger
}

func NewReplenishService(batches BatchRepository, clk clock.Clock, logger *zap.Logger) *ReplenishService {
	return &ReplenishService{batches: batches, clock: clk, logger: logger}
}

type CreateBatchInput struct {
	ProductID string
	Quantity  int
	ExpiresAt time.Time
}

func (s *ReplenishService) CreateBatch(ctx context.Context, in CreateBatchInput) (domain.Batch, error) {
	if in.ProductID == "" {
		return domain.Batch{}, domain.ErrProductRequired
	}
	if in.Quantity <= 0 {
		return domain.Batch{}, domain.ErrInvalidQuantity
	}
	if in.ExpiresAt.IsZero() {
		return domain.Batch{}, domain.ErrInvalidExpiry
	}

	batch := domain.Batch{
		ID:        newID(),
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
		ExpiresAt: in.ExpiresAt.UTC(),
		CreatedAt: s.clock.Now(),
	}
	if err := s.batches.Create(ctx, batch); err != nil {
		return domain.Batch{}, err
	}

	s.logger.Info("batch replenished",
		zap.String("batch_id", batch.ID),
		zap.String("product_id", batch.ProductID),
		zap.Int("quantity", batch.Quantity),
		zap.Time("expires_at", batch.ExpiresAt),
	)
	return batch, nil
}
