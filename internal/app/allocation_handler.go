package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/freshmart/ordersaga/internal/clock"
	"github.com/freshmart/ordersaga/internal/domain"
)

// AllocationRecordRepository is the idempotency guard's store. Create
// must fail with domain.ErrAlreadyProcessed when a record for the same
// order already exists. MarkRestored claims the order's restoration,
// reporting false once another attempt already holds the claim.
type AllocationRecordRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	Exists(ctx context.Context, orderID string) (bool, error)
	Create(ctx context.Context, record domain.AllocationRecord) error
	MarkRestored(ctx context.Context, orderID string, at time.Time) (bool, error)
}

// Publisher is the choreography bus contract the handlers rely on:
// durable, at-least-once, delivered asynchronously after the publishing
// unit of work has committed.
type Publisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// AllocationHandler consumes OrderPlaced events, deducts stock through
// the ledger and emits the allocation outcome. It also consumes
// PaymentFailed events to restore deducted batches (compensation).
type AllocationHandler struct {
	ledger  *Ledger
	records AllocationRecordRepository
	events  Publisher
	clock   clock.Clock
	logger  *zap.Logger
}

func NewAllocationHandler(ledger *Ledger, records AllocationRecordRepository, events Publisher, clk clock.Clock, logger *zap.Logger) *AllocationHandler {
	return &AllocationHandler{
		ledger:  ledger,
		records: records,
		events:  events,
		clock:   clk,
		logger:  logger,
	}
}

// HandleOrderPlaced runs the allocate-and-mark unit of work. The
// idempotency record commits in the same transaction as the batch
// mutation, so a redelivered event is a no-op. Transient write
// conflicts retry the whole unit; insufficient stock is a business
// outcome and is never retried.
func (h *AllocationHandler) HandleOrderPlaced(ctx context.Context, evt domain.OrderPlaced) error {
	var outcome domain.Event

	err := retryOnConflict(ctx, func() error {
		outcome = nil
		return h.records.WithTx(ctx, func(txCtx context.Context) error {
			processed, err := h.records.Exists(txCtx, evt.OrderID)
			if err != nil {
				return fmt.Errorf("idempotency check: %w", err)
			}
			if processed {
				h.logger.Info("order already processed, skipping redelivery",
					zap.String("order_id", evt.OrderID))
				return nil
			}

			now := h.clock.Now()
			deductions, err := h.ledger.Allocate(txCtx, evt.ProductID, evt.Quantity, now)
			if err != nil && !errors.Is(err, domain.ErrInsufficientStock) {
				return err
			}

			record := domain.AllocationRecord{OrderID: evt.OrderID, ProcessedAt: now}
			if recErr := h.records.Create(txCtx, record); recErr != nil {
				if errors.Is(recErr, domain.ErrAlreadyProcessed) {
					// Concurrent delivery of the same event won the race.
					h.logger.Info("concurrent delivery already recorded order",
						zap.String("order_id", evt.OrderID))
					return recErr
				}
				return fmt.Errorf("record allocation: %w", recErr)
			}

			if err != nil {
				outcome = domain.AllocationFailed{OrderID: evt.OrderID, Reason: err.Error()}
				return nil
			}
			outcome = domain.AllocationSucceeded{
				OrderID:     evt.OrderID,
				TotalAmount: evt.TotalAmount,
				ProductID:   evt.ProductID,
				Quantity:    evt.Quantity,
				Deductions:  deductions,
			}
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyProcessed) {
			return nil
		}
		return err
	}
	if outcome == nil {
		return nil
	}
	return h.events.Publish(ctx, outcome)
}

// HandlePaymentFailed restores the batches deducted for the failed
// order. The restoration claim commits in the same transaction as the
// batch updates: substrates that redeliver a message to every consumer
// when one of them fails can replay this handler after a successful
// restore, and the claim turns that replay into a no-op.
func (h *AllocationHandler) HandlePaymentFailed(ctx context.Context, evt domain.PaymentFailed) error {
	return retryOnConflict(ctx, func() error {
		return h.records.WithTx(ctx, func(txCtx context.Context) error {
			claimed, err := h.records.MarkRestored(txCtx, evt.OrderID, h.clock.Now())
			if err != nil {
				return fmt.Errorf("claim restoration: %w", err)
			}
			if !claimed {
				h.logger.Info("stock already restored, skipping redelivery",
					zap.String("order_id", evt.OrderID))
				return nil
			}

			h.logger.Info("restoring stock after payment failure",
				zap.String("order_id", evt.OrderID),
				zap.String("reason", evt.Reason),
				zap.Int("batches", len(evt.Deductions)),
			)
			return h.ledger.Restore(txCtx, evt.Deductions)
		})
	})
}
