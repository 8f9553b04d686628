package customer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-agua/internal/common"
)

// Customer is a buyer record used for receipts and order history.
type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Input carries create/update payloads after decoding.
type Input struct {
	Name    string `json:"name" validate:"required,min=1,max=200"`
	Phone   string `json:"phone" validate:"max=40"`
	Address string `json:"address" validate:"max=500"`
}

// ListParams captures listing filters.
type ListParams struct {
	Query   string
	Page    int
	PerPage int
}

// Store abstracts customer persistence.
type Store interface {
	List(ctx context.Context, params ListParams) ([]Customer, int64, error)
	Get(ctx context.Context, id int64) (Customer, error)
	Create(ctx context.Context, c *Customer) error
	Update(ctx context.Context, c *Customer) error
	Delete(ctx context.Context, id int64) error
}

// PGStore implements Store on PostgreSQL.
type PGStore struct {
	Pool *pgxpool.Pool
}

var _ Store = (*PGStore)(nil)

const customerColumns = "id, name, phone, address, created_at, updated_at"

func (s *PGStore) List(ctx context.Context, params ListParams) ([]Customer, int64, error) {
	var (
		where string
		args  []any
	)
	if q := strings.TrimSpace(params.Query); q != "" {
		// Matches either name or phone so operators can look up by whatever
		// the caller gives them on the phone.
		where = " WHERE name ILIKE $1 OR phone LIKE $1"
		args = append(args, "%"+q+"%")
	}

	var total int64
	if err := s.Pool.QueryRow(ctx, "SELECT count(*) FROM customers"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
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
	query := fmt.Sprintf("SELECT %s FROM customers%s ORDER BY name ASC LIMIT $%d OFFSET $%d",
		customerColumns, where, len(args)-1, len(args))

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	customers := make([]Customer, 0)
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate customers: %w", err)
	}
	return customers, total, nil
}

func (s *PGStore) Get(ctx context.Context, id int64) (Customer, error) {
	var c Customer
	err := s.Pool.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM customers WHERE id = $1", customerColumns), id,
	).Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (s *PGStore) Create(ctx context.Context, c *Customer) error {
	return s.Pool.QueryRow(ctx, `
		INSERT INTO customers (name, phone, address)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`,
		c.Name, c.Phone, c.Address,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (s *PGStore) Update(ctx context.Context, c *Customer) error {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE customers SET name = $2, phone = $3, address = $4, updated_at = now()
		WHERE id = $1`,
		c.ID, c.Name, c.Phone, c.Address)
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *PGStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.Pool.Exec(ctx, "DELETE FROM customers WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Service orchestrates customer lookups and mutations.
type Service struct {
	Store Store
}

func (s *Service) List(ctx context.Context, params ListParams) ([]Customer, int64, error) {
	return s.Store.List(ctx, params)
}

func (s *Service) Get(ctx context.Context, id int64) (Customer, error) {
	c, err := s.Store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, common.NotFoundError("customer")
		}
		return Customer{}, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

func (s *Service) Create(ctx context.Context, in Input) (Customer, error) {
	c := Customer{
		Name:    strings.TrimSpace(in.Name),
		Phone:   strings.TrimSpace(in.Phone),
		Address: strings.TrimSpace(in.Address),
	}
	if err := s.Store.Create(ctx, &c); err != nil {
		return Customer{}, fmt.Errorf("create customer: %w", err)
	}
	return c, nil
}

func (s *Service) Update(ctx context.Context, id int64, in Input) (Customer, error) {
	c := Customer{
		ID:      id,
		Name:    strings.TrimSpace(in.Name),
		Phone:   strings.TrimSpace(in.Phone),
		Address: strings.TrimSpace(in.Address),
	}
	if err := s.Store.Update(ctx, &c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, common.NotFoundError("customer")
		}
		return Customer{}, fmt.Errorf("update customer: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.Store.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.NotFoundError("customer")
		}
		return fmt.Errorf("delete customer: %w", err)
	}
	return nil
}
