package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopzen/storefront/internal/domain"
)

type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) (*domain.Order, error)
	MarkPaid(ctx context.Context, id int64, paymentIntentID string) error
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Order, error)
}

type orderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &orderRepository{pool: pool}
}

const orderCols = `id, user_id, items, amount_cents, currency, status, COALESCE(payment_intent_id, ''), created_at`

func (r *orderRepository) Create(ctx context.Context, o *domain.Order) (*domain.Order, error) {
	const q = `
		INSERT INTO orders (user_id, items, amount_cents, currency, status, payment_intent_id)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
		RETURNING ` + orderCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var created domain.Order
	err := r.pool.QueryRow(ctx, q, o.UserID, o.Items, o.AmountCents, o.Currency, o.Status, o.PaymentIntentID).Scan(
		&created.ID, &created.UserID, &created.Items, &created.AmountCents, &created.Currency, &created.Status, &created.PaymentIntentID, &created.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *orderRepository) MarkPaid(ctx context.Context, id int64, paymentIntentID string) error {
	const q = `UPDATE orders SET status = $2, payment_intent_id = $3 WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id, domain.OrderPaid, paymentIntentID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	const q = `
		SELECT ` + orderCols + `
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(
			&o.ID, &o.UserID, &o.Items, &o.AmountCents, &o.Currency, &o.Status, &o.PaymentIntentID, &o.CreatedAt,
		); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, rows.Err()
}
