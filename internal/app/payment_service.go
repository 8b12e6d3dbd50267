package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/freshmart/ordersaga/internal/domain"
)

// defaultFailureAmount is the sentinel total that makes the stand-in
// payment decision fail, so the compensating path stays exercisable.
const defaultFailureAmount int64 = 9999

// PaymentService decides payment outcomes for allocated orders. It is a
// deterministic stand-in: payment fails iff the order total equals the
// configured sentinel amount. A real implementation would call an
// external settlement service and map its outcomes onto the same two
// event shapes.
type PaymentService struct {
	events        Publisher
	failureAmount int64
	logger        *zap.Logger
}

type PaymentServiceOption func(*PaymentService)

// WithFailureAmount overrides the sentinel total that triggers a
// payment failure.
func WithFailureAmount(amount int64) PaymentServiceOption {
	return func(s *PaymentService) {
		s.failureAmount = amount
	}
}

func NewPaymentService(events Publisher, logger *zap.Logger, opts ...PaymentServiceOption) *PaymentService {
	svc := &PaymentService{
		events:        events,
		failureAmount: defaultFailureAmount,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// HandleAllocationSucceeded settles payment for the order and publishes
// the outcome. PaymentFailed carries the deduction map forward so the
// inventory module can compensate.
func (s *PaymentService) HandleAllocationSucceeded(ctx context.Context, evt domain.AllocationSucceeded) error {
	if evt.TotalAmount == s.failureAmount {
		s.logger.Info("payment rejected",
			zap.String("order_id", evt.OrderID),
			zap.Int64("total_amount", evt.TotalAmount),
		)
		return s.events.Publish(ctx, domain.PaymentFailed{
			OrderID:    evt.OrderID,
			Reason:     fmt.Sprintf("payment rejected for amount %d", evt.TotalAmount),
			ProductID:  evt.ProductID,
			Quantity:   evt.Quantity,
			Deductions: evt.Deductions,
		})
	}

	s.logger.Info("payment settled", zap.String("order_id", evt.OrderID))
	return s.events.Publish(ctx, domain.PaymentSucceeded{OrderID: evt.OrderID})
}
