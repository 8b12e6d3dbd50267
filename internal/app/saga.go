package app

import (
	"context"
	"fmt"

	"github.com/freshmart/ordersaga/internal/bus"
	"github.com/freshmart/ordersaga/internal/domain"
)

// Subscriber registers interest in events by name.
type Subscriber interface {
	Subscribe(eventName string, h bus.Handler)
}

// RegisterSagaHandlers wires the choreography: order placement feeds
// allocation, allocation success feeds payment, and every outcome feeds
// the order state machine. PaymentFailed additionally triggers the
// inventory compensation.
func RegisterSagaHandlers(sub Subscriber, alloc *AllocationHandler, payments *PaymentService, orders *OrderService) {
	sub.Subscribe(domain.EventOrderPlaced, func(ctx context.Context, evt domain.Event) error {
		e, ok := evt.(domain.OrderPlaced)
		if !ok {
			return fmt.Errorf("unexpected event type %T for %s", evt, domain.EventOrderPlaced)
		}
		return alloc.HandleOrderPlaced(ctx, e)
	})

	sub.Subscribe(domain.EventAllocationSucceeded, func(ctx context.Context, evt domain.Event) error {
		e, ok := evt.(domain.AllocationSucceeded)
		if !ok {
			return fmt.Errorf("unexpected event type %T for %s", evt, domain.EventAllocationSucceeded)
		}
		return payments.HandleAllocationSucceeded(ctx, e)
	})

	sub.Subscribe(domain.EventAllocationFailed, func(ctx context.Context, evt domain.Event) error {
		e, ok := evt.(domain.AllocationFailed)
		if !ok {
			return fmt.Errorf("unexpected event type %T for %s", evt, domain.EventAllocationFailed)
		}
		return orders.HandleAllocationFailed(ctx, e)
	})

	sub.Subscribe(domain.EventPaymentSucceeded, func(ctx context.Context, evt domain.Event) error {
		e, ok := evt.(domain.PaymentSucceeded)
		if !ok {
			return fmt.Errorf("unexpected event type %T for %s", evt, domain.EventPaymentSucceeded)
		}
		return orders.HandlePaymentSucceeded(ctx, e)
	})

	// Both PaymentFailed consumers fail and retry independently. The
	// restore path additionally claims the allocation record, so
	// substrates that redeliver one message to every consumer cannot
	// restore stock twice.
	sub.Subscribe(domain.EventPaymentFailed, func(ctx context.Context, evt domain.Event) error {
		e, ok := evt.(domain.PaymentFailed)
		if !ok {
			return fmt.Errorf("unexpected event type %T for %s", evt, domain.EventPaymentFailed)
		}
		return alloc.HandlePaymentFailed(ctx, e)
	})

	sub.Subscribe(domain.EventPaymentFailed, func(ctx context.Context, evt domain.Event) error {
		e, ok := evt.(domain.PaymentFailed)
		if !ok {
			return fmt.Errorf("unexpected event type %T for %s", evt, domain.EventPaymentFailed)
		}
		return orders.HandlePaymentFailed(ctx, e)
	})
}
