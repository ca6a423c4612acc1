package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

type sqliteRepo struct {
	db     *sql.DB
	logger *log.Logger
	now    func() time.Time
}

// NewSQLite returns a Repository backed by SQLite.
func NewSQLite(db *sql.DB, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &sqliteRepo{db: db, logger: logger, now: time.Now}
}

func (r *sqliteRepo) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order required")
	}
	prepare(order, uuid.NewString, r.now)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Printf("order repo: begin tx error=%v", err)
		return nil, err
	}
	defer tx.Rollback()

	const insertOrder = `
INSERT INTO orders (id, order_number, subtotal, total, status, payment_method, estimated_time, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`
	if _, err := tx.ExecContext(ctx, insertOrder,
		order.ID,
		order.OrderNumber,
		order.Subtotal.String(),
		order.Total.String(),
		string(order.Status),
		string(order.PaymentMethod),
		order.EstimatedTime,
		repository.FormatTime(order.CreatedAt),
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
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`
	for i, item := range order.Items {
		if _, err := tx.ExecContext(ctx, insertItem,
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

	if err := tx.Commit(); err != nil {
		r.logger.Printf("order repo: commit id=%s error=%v", order.ID, err)
		return nil, err
	}
	r.logger.Printf("order repo: created id=%s order_number=%s items=%d", order.ID, order.OrderNumber, len(order.Items))
	return order, nil
}

const selectSQLiteOrder = `
SELECT id, order_number, subtotal, total, status, payment_method, estimated_time, created_at
FROM orders
`

const selectSQLiteItems = `
SELECT id, order_id, product_id, product_name, quantity, price, subtotal, notes
FROM order_items
`

func (r *sqliteRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	o, err := scanSQLiteOrder(r.db.QueryRowContext(ctx, selectSQLiteOrder+`WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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

func (r *sqliteRepo) List(ctx context.Context) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, selectSQLiteOrder+`ORDER BY created_at DESC, id DESC`)
	if err != nil {
		r.logger.Printf("order repo: list error=%v", err)
		return nil, err
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanSQLiteOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("order repo: list rows error=%v", err)
		return nil, err
	}
	// Release the single connection before the items query.
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

func (r *sqliteRepo) items(ctx context.Context, orderIDs []string) (map[string][]domain.OrderItem, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(orderIDs)), ",")
	args := make([]any, len(orderIDs))
	for i, id := range orderIDs {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx, selectSQLiteItems+`WHERE order_id IN (`+placeholders+`) ORDER BY order_id, position`, args...)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteOrder(row rowScanner) (domain.Order, error) {
	var (
		o                          domain.Order
		subtotal, total, createdAt string
		status, payment            string
	)
	if err := row.Scan(&o.ID, &o.OrderNumber, &subtotal, &total, &status, &payment, &o.EstimatedTime, &createdAt); err != nil {
		return domain.Order{}, err
	}
	var err error
	if o.Subtotal, err = repository.ParseDecimal(subtotal); err != nil {
		return domain.Order{}, err
	}
	if o.Total, err = repository.ParseDecimal(total); err != nil {
		return domain.Order{}, err
	}
	if o.CreatedAt, err = repository.ParseTime(createdAt); err != nil {
		return domain.Order{}, err
	}
	o.Status = domain.OrderStatus(status)
	o.PaymentMethod = domain.PaymentMethod(payment)
	return o, nil
}
