package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-agua/internal/common"
	"github.com/noah-isme/backend-agua/internal/pricing"
)

// Item is one committed order line as stored.
type Item struct {
	ID             int64         `json:"id"`
	OrderID        int64         `json:"order_id"`
	ProductID      int64         `json:"product_id"`
	ProductName    string        `json:"product_name"`
	Quantity       int64         `json:"quantity"`
	UnitPrice      pricing.Money `json:"unit_price"`
	ReturnedBottle bool          `json:"returned_bottle"`
}

// Order is a committed sale.
type Order struct {
	ID           int64         `json:"id"`
	CustomerID   *int64        `json:"customer_id,omitempty"`
	CustomerName string        `json:"customer_name,omitempty"`
	UserID       *int64        `json:"user_id,omitempty"`
	Total        pricing.Money `json:"total"`
	CreatedAt    time.Time     `json:"created_at"`
	Items        []Item        `json:"items,omitempty"`
}

// ListParams captures order listing filters.
type ListParams struct {
	CustomerID *int64
	From       *time.Time
	To         *time.Time
	Page       int
	PerPage    int
}

// Store abstracts order persistence for reads and admin mutations.
type Store interface {
	List(ctx context.Context, params ListParams) ([]Order, int64, error)
	Get(ctx context.Context, id int64) (Order, error)
	UpdateCreatedAt(ctx context.Context, id int64, createdAt time.Time) error
	Delete(ctx context.Context, id int64) error
}

// PGStore implements Store on PostgreSQL.
type PGStore struct {
	Pool *pgxpool.Pool
}

var _ Store = (*PGStore)(nil)

func (s *PGStore) List(ctx context.Context, params ListParams) ([]Order, int64, error) {
	where := " WHERE 1=1"
	var args []any
	if params.CustomerID != nil {
		args = append(args, *params.CustomerID)
		where += fmt.Sprintf(" AND o.customer_id = $%d", len(args))
	}
	if params.From != nil {
		args = append(args, *params.From)
		where += fmt.Sprintf(" AND o.created_at >= $%d", len(args))
	}
	if params.To != nil {
		args = append(args, *params.To)
		where += fmt.Sprintf(" AND o.created_at < $%d", len(args))
	}

	var total int64
	if err := s.Pool.QueryRow(ctx, "SELECT count(*) FROM orders o"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	limit := params.PerPage
	if limit < 1 {
		limit = 20
	}
	offset := (params.Page - 1) * limit
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT o.id, o.customer_id, coalesce(c.name, ''), o.user_id, o.total, o.created_at
		FROM orders o LEFT JOIN customers c ON c.id = o.customer_id
		%s ORDER BY o.created_at DESC, o.id DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args))

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]Order, 0, limit)
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.CustomerName, &o.UserID, &o.Total, &o.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, total, rows.Err()
}

func (s *PGStore) Get(ctx context.Context, id int64) (Order, error) {
	var o Order
	err := s.Pool.QueryRow(ctx, `
		SELECT o.id, o.customer_id, coalesce(c.name, ''), o.user_id, o.total, o.created_at
		FROM orders o LEFT JOIN customers c ON c.id = o.customer_id
		WHERE o.id = $1`, id,
	).Scan(&o.ID, &o.CustomerID, &o.CustomerName, &o.UserID, &o.Total, &o.CreatedAt)
	if err != nil {
		return Order{}, err
	}

	rows, err := s.Pool.Query(ctx, `
		SELECT id, order_id, product_id, product_name, quantity, unit_price, returned_bottle
		FROM order_items WHERE order_id = $1 ORDER BY id ASC`, id)
	if err != nil {
		return Order{}, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.Quantity, &item.UnitPrice, &item.ReturnedBottle); err != nil {
			return Order{}, fmt.Errorf("scan order item: %w", err)
		}
		o.Items = append(o.Items, item)
	}
	return o, rows.Err()
}

func (s *PGStore) UpdateCreatedAt(ctx context.Context, id int64, createdAt time.Time) error {
	tag, err := s.Pool.Exec(ctx, "UPDATE orders SET created_at = $2 WHERE id = $1", id, createdAt)
	if err != nil {
		return fmt.Errorf("update order date: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *PGStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.Pool.Exec(ctx, "DELETE FROM orders WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Service orchestrates order reads and admin corrections.
type Service struct {
	Store Store
}

func (s *Service) List(ctx context.Context, params ListParams) ([]Order, int64, error) {
	return s.Store.List(ctx, params)
}

func (s *Service) Get(ctx context.Context, id int64) (Order, error) {
	o, err := s.Store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, common.NotFoundError("order")
		}
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// UpdateCreatedAt backdates an order. Used to correct sales recorded on the
// wrong day; admin only.
func (s *Service) UpdateCreatedAt(ctx context.Context, id int64, createdAt time.Time) (Order, error) {
	if createdAt.After(time.Now().Add(time.Minute)) {
		return Order{}, common.ValidationError("created_at", "must not be in the future")
	}
	if err := s.Store.UpdateCreatedAt(ctx, id, createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, common.NotFoundError("order")
		}
		return Order{}, fmt.Errorf("update order date: %w", err)
	}
	return s.Get(ctx, id)
}

// Delete removes an order and its items. Stock is not restored; admin only.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.Store.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.NotFoundError("order")
		}
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}
