// Package bus delivers domain events to registered handlers. The core
// only relies on the publish/deliver contract: durable, at-least-once,
// asynchronous delivery after the publishing unit of work commits. The
// in-process implementation here models that contract for single-node
// runs and tests; kafka.go adapts the same registry to Kafka.
package bus

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/freshmart/ordersaga/internal/domain"
)

// Handler consumes one delivered event. A non-nil error fails the
// delivery; the substrate may redeliver it later.
type Handler func(ctx context.Context, evt domain.Event) error

// Registry maps event names to their interested handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string][]Handler)}
}

func (r *Registry) Subscribe(eventName string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[eventName] = append(r.handlers[eventName], h)
}

func (r *Registry) handlersFor(eventName string) []Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handlers[eventName]
}

// Dispatch delivers evt to every registered handler, joining errors.
func (r *Registry) Dispatch(ctx context.Context, evt domain.Event) error {
	var errs []error
	for _, h := range r.handlersFor(evt.EventName()) {
		if err := h(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

const (
	defaultDeliveryAttempts = 3
	defaultRedeliveryWait   = 50 * time.Millisecond
)

// InProcess is an asynchronous in-memory bus: each delivery runs in its
// own goroutine, failed deliveries are redelivered a bounded number of
// times, and deliveries that exhaust their budget are logged and
// abandoned (no dead-letter store).
type InProcess struct {
	registry *Registry
	logger   *zap.Logger

	attempts int
	wait     time.Duration
	wg       sync.WaitGroup
}

type InProcessOption func(*InProcess)

// WithRedelivery overrides the delivery attempt budget and the wait
// between redeliveries.
func WithRedelivery(attempts int, wait time.Duration) InProcessOption {
	return func(b *InProcess) {
		if attempts > 0 {
			b.attempts = attempts
		}
		if wait >= 0 {
			b.wait = wait
		}
	}
}

func NewInProcess(registry *Registry, logger *zap.Logger, opts ...InProcessOption) *InProcess {
	b := &InProcess{
		registry: registry,
		logger:   logger,
		attempts: defaultDeliveryAttempts,
		wait:     defaultRedeliveryWait,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish hands evt to every interested handler asynchronously and
// returns immediately. Deliveries are detached from the caller's
// context so an HTTP request finishing does not cancel the saga.
func (b *InProcess) Publish(ctx context.Context, evt domain.Event) error {
	deliveryCtx := context.WithoutCancel(ctx)
	for _, h := range b.registry.handlersFor(evt.EventName()) {
		b.wg.Add(1)
		go b.deliver(deliveryCtx, h, evt)
	}
	return nil
}

func (b *InProcess) deliver(ctx context.Context, h Handler, evt domain.Event) {
	defer b.wg.Done()

	var err error
	for attempt := 1; attempt <= b.attempts; attempt++ {
		if err = h(ctx, evt); err == nil {
			return
		}
		b.logger.Warn("event delivery failed",
			zap.String("event", evt.EventName()),
			zap.String("key", evt.Key()),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt < b.attempts {
			time.Sleep(b.wait)
		}
	}
	b.logger.Error("event delivery abandoned",
		zap.String("event", evt.EventName()),
		zap.String("key", evt.Key()),
		zap.Error(err),
	)
}

// Wait blocks until all in-flight deliveries (including any they
// published in turn) have finished. Primarily for tests and shutdown.
func (b *InProcess) Wait() {
	b.wg.Wait()
}
