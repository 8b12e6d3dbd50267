package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/freshmart/ordersaga/internal/domain"
)

type fakeBatchRepo struct {
	mu      sync.Mutex
	batches map[string]*domain.Batch

	// conflictsLeft makes the next N eligible-list calls fail with a
	// transient conflict, simulating row contention.
	conflictsLeft int
}

func newFakeBatchRepo(batches ...domain.Batch) *fakeBatchRepo {
	repo := &fakeBatchRepo{batches: make(map[string]*domain.Batch)}
	for _, b := range batches {
		copied := b
		repo.batches[b.ID] = &copied
	}
	return repo
}

func (f *fakeBatchRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeBatchRepo) ListEligibleForUpdate(_ context.Context, productID string) ([]domain.Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conflictsLeft > 0 {
		f.conflictsLeft--
		return nil, domain.ErrConflict
	}

	var out []domain.Batch
	for _, b := range f.batches {
		if b.ProductID == productID && b.Quantity > 0 {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ExpiresAt.Before(out[j].ExpiresAt)
	})
	return out, nil
}

func (f *fakeBatchRepo) GetByID(_ context.Context, batchID string) (*domain.Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.batches[batchID]
	if !ok {
		return nil, nil
	}
	copied := *b
	return &copied, nil
}

func (f *fakeBatchRepo) UpdateQuantity(_ context.Context, batchID string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.batches[batchID]
	if !ok {
		return domain.ErrBatchNotFound
	}
	b.Quantity = quantity
	return nil
}

func (f *fakeBatchRepo) Create(_ context.Context, batch domain.Batch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := batch
	f.batches[batch.ID] = &copied
	return nil
}

func (f *fakeBatchRepo) quantity(batchID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.batches[batchID]; ok {
		return b.Quantity
	}
	return -1
}

func (f *fakeBatchRepo) totalStock(productID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, b := range f.batches {
		if b.ProductID == productID {
			total += b.Quantity
		}
	}
	return total
}

type fakeRecordRepo struct {
	mu       sync.Mutex
	records  map[string]domain.AllocationRecord
	restored map[string]time.Time
}

func newFakeRecordRepo() *fakeRecordRepo {
	return &fakeRecordRepo{
		records:  make(map[string]domain.AllocationRecord),
		restored: make(map[string]time.Time),
	}
}

func (f *fakeRecordRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeRecordRepo) Exists(_ context.Context, orderID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.records[orderID]
	return ok, nil
}

func (f *fakeRecordRepo) Create(_ context.Context, record domain.AllocationRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[record.OrderID]; ok {
		return domain.ErrAlreadyProcessed
	}
	f.records[record.OrderID] = record
	return nil
}

func (f *fakeRecordRepo) MarkRestored(_ context.Context, orderID string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[orderID]; !ok {
		return false, nil
	}
	if _, done := f.restored[orderID]; done {
		return false, nil
	}
	f.restored[orderID] = at
	return true, nil
}

func (f *fakeRecordRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]domain.Order
}

func newFakeOrderRepo(orders ...domain.Order) *fakeOrderRepo {
	repo := &fakeOrderRepo{orders: make(map[string]domain.Order)}
	for _, o := range orders {
		repo.orders[o.ID] = o
	}
	return repo
}

func (f *fakeOrderRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeOrderRepo) Create(_ context.Context, order domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders[order.ID] = order
	return nil
}

func (f *fakeOrderRepo) GetByID(_ context.Context, orderID string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (f *fakeOrderRepo) GetByIDForUpdate(ctx context.Context, orderID string) (*domain.Order, error) {
	return f.GetByID(ctx, orderID)
}

func (f *fakeOrderRepo) UpdateStatus(_ context.Context, orderID string, status domain.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.Status = status
	f.orders[orderID] = o
	return nil
}

func (f *fakeOrderRepo) status(orderID string) domain.OrderStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orders[orderID].Status
}

// capturePublisher records published events instead of delivering them.
type capturePublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *capturePublisher) Publish(_ context.Context, evt domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *capturePublisher) published() []domain.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Event{}, p.events...)
}
