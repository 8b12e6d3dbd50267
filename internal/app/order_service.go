package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/freshmart/ordersaga/internal/clock"
	"github.com/freshmart/ordersaga/internal/domain"
)

type OrderRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	Create(ctx context.Context, order domain.Order) error
	GetByID(ctx context.Context, orderID string) (*domain.Order, error)
	GetByIDForUpdate(ctx context.Context, orderID string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) error
}

// OrderService owns the order lifecycle: placement plus the terminal
// transitions driven by allocation and payment outcomes.
type OrderService struct {
	orders OrderRepository
	events Publisher
	clock  clock.Clock
	logger *zap.Logger
}

func NewOrderService(orders OrderRepository, events Publisher, clk clock.Clock, logger *zap.Logger) *OrderService {
	return &OrderService{
		orders: orders,
		events: events,
		clock:  clk,
		logger: logger,
	}
}

type PlaceOrderInput struct {
	ProductID string
	Quantity  int
	Price     int64
}

// PlaceOrder persists a PENDING order and publishes OrderPlaced once
// the row is committed, kicking off the saga.
func (s *OrderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (domain.Order, error) {
	if in.ProductID == "" {
		return domain.Order{}, domain.ErrProductRequired
	}
	if in.Quantity <= 0 {
		return domain.Order{}, domain.ErrInvalidQuantity
	}
	if in.Price < 0 {
		return domain.Order{}, domain.ErrInvalidPrice
	}

	order := domain.Order{
		ID:        newID(),
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
		Price:     in.Price,
		Status:    domain.OrderStatusPending,
		CreatedAt: s.clock.Now(),
	}

	err := s.orders.WithTx(ctx, func(txCtx context.Context) error {
		return s.orders.Create(txCtx, order)
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}

	if err := s.events.Publish(ctx, domain.OrderPlaced{
		OrderID:     order.ID,
		ProductID:   order.ProductID,
		Quantity:    order.Quantity,
		TotalAmount: order.TotalAmount(),
	}); err != nil {
		return domain.Order{}, fmt.Errorf("publish order placed: %w", err)
	}

	s.logger.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("product_id", order.ProductID),
		zap.Int("quantity", order.Quantity),
	)
	return order, nil
}

// GetOrder returns the order; its status is the externally observable
// saga outcome.
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if order == nil {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return *order, nil
}

// HandlePaymentSucceeded completes the order.
func (s *OrderService) HandlePaymentSucceeded(ctx context.Context, evt domain.PaymentSucceeded) error {
	return s.transition(ctx, evt.OrderID, domain.OrderStatusCompleted)
}

// HandleAllocationFailed cancels the order; no stock was deducted.
func (s *OrderService) HandleAllocationFailed(ctx context.Context, evt domain.AllocationFailed) error {
	s.logger.Info("cancelling order on allocation failure",
		zap.String("order_id", evt.OrderID),
		zap.String("reason", evt.Reason),
	)
	return s.transition(ctx, evt.OrderID, domain.OrderStatusCancelled)
}

// HandlePaymentFailed cancels the order; the inventory module restores
// the deducted batches from the same event.
func (s *OrderService) HandlePaymentFailed(ctx context.Context, evt domain.PaymentFailed) error {
	s.logger.Info("cancelling order on payment failure",
		zap.String("order_id", evt.OrderID),
		zap.String("reason", evt.Reason),
	)
	return s.transition(ctx, evt.OrderID, domain.OrderStatusCancelled)
}

// transition applies a terminal status under a row lock. Duplicate
// outcome deliveries find the order already terminal and mutate
// nothing; an unknown order id is a logged anomaly, not a failure.
func (s *OrderService) transition(ctx context.Context, orderID string, status domain.OrderStatus) error {
	return s.orders.WithTx(ctx, func(txCtx context.Context) error {
		order, err := s.orders.GetByIDForUpdate(txCtx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			s.logger.Warn("outcome event for unknown order",
				zap.String("order_id", orderID),
				zap.String("target_status", string(status)),
			)
			return nil
		}

		var applyErr error
		switch status {
		case domain.OrderStatusCompleted:
			applyErr = order.Complete()
		case domain.OrderStatusCancelled:
			applyErr = order.Cancel()
		default:
			return fmt.Errorf("unsupported transition to %s", status)
		}
		if errors.Is(applyErr, domain.ErrOrderFinalized) {
			s.logger.Info("duplicate outcome for finalized order",
				zap.String("order_id", orderID),
				zap.String("status", string(order.Status)),
			)
			return nil
		}
		if applyErr != nil {
			return applyErr
		}

		if err := s.orders.UpdateStatus(txCtx, order.ID, order.Status); err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		s.logger.Info("order transitioned",
			zap.String("order_id", order.ID),
			zap.String("status", string(order.Status)),
		)
		return nil
	})
}
