package order

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

type postgresRepo struct {
	pool   repository.PgxPool
	logger *log.Logger
	now    func() time.Time
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool repository.PgxPool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger, now: time.Now}
}

func (r *postgresRepo) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order required")
	}
	prepare(order, uuid.NewString, r.now)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Printf("order repo: begin tx error=%v", err)
		return nil, err
	}
	defer tx.Rollback(ctx)

	const insertOrder = `
INSERT INTO orders (id, order_number, subtotal, total, status, payment_method, estimated_time, created_at)
VALUES ($1, $2, $3::numeric, $4::numeric, $5, $6, $7, $8)
`
	if _, err := tx.Exec(ctx, insertOrder,
		order.ID,
		order.OrderNumber,
		order.Subtotal.String(),
		order.Total.String(),
		string(order.Status),
		string(order.PaymentMethod),
		order.EstimatedTime,
		order.CreatedAt,
	); err != nil {
		if repository.IsUniqueViolation(err) {
			r.logger.Printf("order repo: create order_number=%s already exists", order.OrderNumber)
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Printf("order repo: create id=%s error=%v", order.ID, err)
		return nil, err
	}

	const insertItem = `
INSERT INTO order_items (id, order_id, position, product_id, product_name, quantity, price, subtotal, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8::numeric, $9)
`
	for i, item := range order.Items {
		if _, err := tx.Exec(ctx, insertItem,
			item.ID,
			order.ID,
			i,
			item.ProductID,
			item.ProductName,
			item.Quantity,
			item.Price.String(),
			item.Subtotal.String(),
			item.Notes,
		); err != nil {
			r.logger.Printf("order repo: create item order_id=%s product_id=%s error=%v", order.ID, item.ProductID, err)
			return nil, fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Printf("order repo: commit id=%s error=%v", order.ID, err)
		return nil, err
	}
	r.logger.Printf("order repo: created id=%s order_number=%s items=%d", order.ID, order.OrderNumber, len(order.Items))
	return order, nil
}

const selectOrder = `
SELECT id, order_number, subtotal::text, total::text, status, payment_method, estimated_time, created_at
FROM orders
`

const selectItems = `
SELECT id, order_id, product_id, product_name, quantity, price::text, subtotal::text, notes
FROM order_items
`

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, selectOrder+`WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Printf("order repo: get id=%s not found", id)
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("order repo: get id=%s error=%v", id, err)
		return nil, err
	}

	items, err := r.items(ctx, []string{o.ID})
	if err != nil {
		r.logger.Printf("order repo: get items id=%s error=%v", id, err)
		return nil, err
	}
	o.Items = items[o.ID]
	if o.Items == nil {
		o.Items = []domain.OrderItem{}
	}
	return &o, nil
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, selectOrder+`ORDER BY created_at DESC, id DESC`)
	if err != nil {
		r.logger.Printf("order repo: list error=%v", err)
		return nil, err
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("order repo: list rows error=%v", err)
		return nil, err
	}
	rows.Close()

	if len(orders) == 0 {
		return orders, nil
	}
	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	items, err := r.items(ctx, ids)
	if err != nil {
		r.logger.Printf("order repo: list items error=%v", err)
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
		if orders[i].Items == nil {
			orders[i].Items = []domain.OrderItem{}
		}
	}
	r.logger.Printf("order repo: list count=%d", len(orders))
	return orders, nil
}

func (r *postgresRepo) items(ctx context.Context, orderIDs []string) (map[string][]domain.OrderItem, error) {
	rows, err := r.pool.Query(ctx, selectItems+`WHERE order_id = ANY($1) ORDER BY order_id, position`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byOrder := make(map[string][]domain.OrderItem, len(orderIDs))
	for rows.Next() {
		var (
			item            domain.OrderItem
			price, subtotal string
		)
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Quantity, &price, &subtotal, &item.Notes); err != nil {
			return nil, err
		}
		if item.Price, err = repository.ParseDecimal(price); err != nil {
			return nil, err
		}
		if item.Subtotal, err = repository.ParseDecimal(subtotal); err != nil {
			return nil, err
		}
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}
	return byOrder, rows.Err()
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var (
		o               domain.Order
		subtotal, total string
		status, payment string
	)
	if err := row.Scan(&o.ID, &o.OrderNumber, &subtotal, &total, &status, &payment, &o.EstimatedTime, &o.CreatedAt); err != nil {
		return domain.Order{}, err
	}
	var err error
	if o.Subtotal, err = repository.ParseDecimal(subtotal); err != nil {
		return domain.Order{}, err
	}
	if o.Total, err = repository.ParseDecimal(total); err != nil {
		return domain.Order{}, err
	}
	o.Status = domain.OrderStatus(status)
	o.PaymentMethod = domain.PaymentMethod(payment)
	return o, nil
}
