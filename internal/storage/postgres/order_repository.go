package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tacck/line-api-use-case-smart-retail/internal/domain"
)

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) GetByOrderID(ctx context.Context, orderID string) (domain.Order, error) {
	const query = `
SELECT order_id, user_id, amount, currency, transaction_id, settled_at, expires_at, created_at
FROM orders
WHERE order_id = $1`

	var o domain.Order
	err := r.pool.QueryRow(ctx, query, orderID).
		Scan(&o.OrderID, &o.UserID, &o.Amount, &o.Currency, &o.TransactionID, &o.SettledAt, &o.ExpiresAt, &o.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// UpdateSettlement records the transaction reference and settlement time and
// refreshes the retention window. Single-key, unconditional write: repeated
// confirmations rewrite the same fields.
func (r *OrderRepository) UpdateSettlement(ctx context.Context, orderID string, transactionID int64, settledAt, expiresAt time.Time) error {
	const stmt = `
UPDATE orders
SET transaction_id = $2, settled_at = $3, expires_at = $4
WHERE order_id = $1`

	tag, err := r.pool.Exec(ctx, stmt, orderID, transactionID, settledAt, expiresAt)
	if err != nil {
		return fmt.Errorf("update settlement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// CreateOrder inserts a fresh unsettled order. The order-placement flow lives
// upstream; this is used by seeding and tests.
func (r *OrderRepository) CreateOrder(ctx context.Context, order domain.Order) error {
	const stmt = `
INSERT INTO orders (order_id, user_id, amount, currency, transaction_id, settled_at, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, stmt,
		order.OrderID, order.UserID, order.Amount, order.Currency,
		order.TransactionID, order.SettledAt, order.ExpiresAt, order.CreatedAt)
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}
