package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/freshmart/ordersaga/internal/domain"
)

type BatchRepository struct {
	pool *pgxpool.Pool
}

func NewBatchRepository(pool *pgxpool.Pool) *BatchRepository {
	return &BatchRepository{pool: pool}
}

func (r *BatchRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	err := withTx(ctx, r.pool, fn)
	if err != nil && isTransientConflict(err) {
		return fmt.Errorf("%w: %v", domain.ErrConflict, err)
	}
	return err
}

// ListEligibleForUpdate returns the product's non-exhausted batches in
// ascending expiration order, locking every row until the transaction
// ends. The lock scope covers the whole product so a concurrent
// allocation cannot invalidate the availability check.
func (r *BatchRepository) ListEligibleForUpdate(ctx context.Context, productID string) ([]domain.Batch, error) {
	const query = `
SELECT id, product_id, quantity, expires_at, created_at
FROM inventory_batches
WHERE product_id = $1 AND quantity > 0
ORDER BY expires_at ASC
FOR UPDATE`

	rows, err := r.query(ctx, query, productID)
	if err != nil {
		return nil, r.mapErr("list batches", err)
	}
	defer rows.Close()

	var batches []domain.Batch
	for rows.Next() {
		var b domain.Batch
		if err := rows.Scan(&b.ID, &b.ProductID, &b.Quantity, &b.ExpiresAt, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapErr("list batches", err)
	}
	return batches, nil
}

func (r *BatchRepository) GetByID(ctx context.Context, batchID string) (*domain.Batch, error) {
	const query = `
SELECT id, product_id, quantity, expires_at, created_at
FROM inventory_batches
WHERE id = $1
FOR UPDATE`

	var b domain.Batch
	err := r.queryRow(ctx, query, batchID).
		Scan(&b.ID, &b.ProductID, &b.Quantity, &b.ExpiresAt, &b.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) || err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, r.mapErr("get batch", err)
	}
	return &b, nil
}

func (r *BatchRepository) UpdateQuantity(ctx context.Context, batchID string, quantity int) error {
	const stmt = `UPDATE inventory_batches SET quantity = $2 WHERE id = $1`

	tag, err := r.exec(ctx, stmt, batchID, quantity)
	if err != nil {
		return r.mapErr("update batch quantity", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBatchNotFound
	}
	return nil
}

func (r *BatchRepository) Create(ctx context.Context, batch domain.Batch) error {
	const stmt = `
INSERT INTO inventory_batches (id, product_id, quantity, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5)`

	_, err := r.exec(ctx, stmt,
		batch.ID,
		batch.ProductID,
		batch.Quantity,
		batch.ExpiresAt,
		batch.CreatedAt,
	)
	if err != nil {
		return r.mapErr("create batch", err)
	}
	return nil
}

func (r *BatchRepository) mapErr(op string, err error) error {
	if isInvalidUUID(err) {
		return domain.ErrInvalidID
	}
	if isTransientConflict(err) {
		return fmt.Errorf("%w: %s: %v", domain.ErrConflict, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (r *BatchRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *BatchRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *BatchRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
