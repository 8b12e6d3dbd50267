package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/freshmart/ordersaga/internal/domain"
)

// AllocationRecordRepository stores the idempotency markers for
// processed order-placed events. The order id is the primary key, so a
// duplicate insert surfaces as domain.ErrAlreadyProcessed. The record
// also carries the restoration claim (restored_at) taken by the
// compensation path.
type AllocationRecordRepository struct {
	pool *pgxpool.Pool
}

func NewAllocationRecordRepository(pool *pgxpool.Pool) *AllocationRecordRepository {
	return &AllocationRecordRepository{pool: pool}
}

func (r *AllocationRecordRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	err := withTx(ctx, r.pool, fn)
	if err != nil && isTransientConflict(err) {
		return fmt.Errorf("%w: %v", domain.ErrConflict, err)
	}
	return err
}

func (r *AllocationRecordRepository) Exists(ctx context.Context, orderID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM allocation_records WHERE order_id = $1)`

	var exists bool
	if err := r.queryRow(ctx, query, orderID).Scan(&exists); err != nil {
		if isInvalidUUID(err) {
			return false, domain.ErrInvalidID
		}
		return false, fmt.Errorf("allocation record exists: %w", err)
	}
	return exists, nil
}

func (r *AllocationRecordRepository) Create(ctx context.Context, record domain.AllocationRecord) error {
	const stmt = `INSERT INTO allocation_records (order_id, processed_at) VALUES ($1, $2)`

	_, err := r.exec(ctx, stmt, record.OrderID, record.ProcessedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyProcessed
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create allocation record: %w", err)
	}
	return nil
}

// MarkRestored claims the order's restoration exactly once: the update
// only matches an unclaimed record, so concurrent or redelivered
// compensation attempts see claimed=false and skip.
func (r *AllocationRecordRepository) MarkRestored(ctx context.Context, orderID string, at time.Time) (bool, error) {
	const stmt = `
UPDATE allocation_records
SET restored_at = $2
WHERE order_id = $1 AND restored_at IS NULL`

	tag, err := r.exec(ctx, stmt, orderID, at)
	if err != nil {
		if isInvalidUUID(err) {
			return false, domain.ErrInvalidID
		}
		return false, fmt.Errorf("mark restoration: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *AllocationRecordRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *AllocationRecordRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
