package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/freshmart/ordersaga/internal/domain"
)

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *OrderRepository) Create(ctx context.Context, order domain.Order) error {
	const stmt = `
INSERT INTO orders (id, product_id, quantity, price, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.exec(ctx, stmt,
		order.ID,
		order.ProductID,
		order.Quantity,
		order.Price,
		order.Status,
		order.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, orderID string) (*domain.Order, error) {
	const query = `
SELECT id, product_id, quantity, price, status, created_at
FROM orders
WHERE id = $1`

	return r.scanOrder(r.queryRow(ctx, query, orderID))
}

// GetByIDForUpdate locks the order row so duplicate outcome deliveries
// serialize their terminal-state check.
func (r *OrderRepository) GetByIDForUpdate(ctx context.Context, orderID string) (*domain.Order, error) {
	const query = `
SELECT id, product_id, quantity, price, status, created_at
FROM orders
WHERE id = $1
FOR UPDATE`

	return r.scanOrder(r.queryRow(ctx, query, orderID))
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	const stmt = `UPDATE orders SET status = $2 WHERE id = $1`

	tag, err := r.exec(ctx, stmt, orderID, status)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.ProductID, &o.Quantity, &o.Price, &o.Status, &o.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return &o, nil
}

func (r *OrderRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *OrderRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
