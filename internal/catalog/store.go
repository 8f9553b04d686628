package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ListParams captures product listing filters.
type ListParams struct {
	Query   string
	Type    ProductType
	Page    int
	PerPage int
}

// Store abstracts product persistence.
type Store interface {
	List(ctx context.Context, params ListParams) ([]Product, int64, error)
	Get(ctx context.Context, id int64) (Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) error
	ListCritical(ctx context.Context, threshold int64) ([]Product, error)
}

// PGStore implements Store on PostgreSQL.
type PGStore struct {
	Pool *pgxpool.Pool
}

var _ Store = (*PGStore)(nil)

const productColumns = `id, name, description, type, price_refill, price_full,
	stock_full, stock_empty, expiry_month, expiry_year, created_at, updated_at`

func (s *PGStore) List(ctx context.Context, params ListParams) ([]Product, int64, error) {
	var (
		conds []string
		args  []any
	)
	if q := strings.TrimSpace(params.Query); q != "" {
		args = append(args, "%"+q+"%")
		conds = append(conds, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if params.Type != "" {
		args = append(args, string(params.Type))
		conds = append(conds, fmt.Sprintf("type = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := s.Pool.QueryRow(ctx, "SELECT count(*) FROM products"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
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
	query := fmt.Sprintf("SELECT %s FROM products%s ORDER BY name ASC LIMIT $%d OFFSET $%d",
		productColumns, where, len(args)-1, len(args))

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products, err := scanProducts(rows)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (s *PGStore) Get(ctx context.Context, id int64) (Product, error) {
	row := s.Pool.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM products WHERE id = $1", productColumns), id)
	return scanProduct(row)
}

func (s *PGStore) Create(ctx context.Context, p *Product) error {
	return s.Pool.QueryRow(ctx, `
		INSERT INTO products (name, description, type, price_refill, price_full,
			stock_full, stock_empty, expiry_month, expiry_year)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`,
		p.Name, p.Description, string(p.Type), p.PriceRefill, p.PriceFull,
		p.StockFull, p.StockEmpty, p.ExpiryMonth, p.ExpiryYear,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (s *PGStore) Update(ctx context.Context, p *Product) error {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE products SET name = $2, description = $3, type = $4,
			price_refill = $5, price_full = $6, stock_full = $7, stock_empty = $8,
			expiry_month = $9, expiry_year = $10, updated_at = now()
		WHERE id = $1`,
		p.ID, p.Name, p.Description, string(p.Type), p.PriceRefill, p.PriceFull,
		p.StockFull, p.StockEmpty, p.ExpiryMonth, p.ExpiryYear)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *PGStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.Pool.Exec(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *PGStore) ListCritical(ctx context.Context, threshold int64) ([]Product, error) {
	rows, err := s.Pool.Query(ctx,
		fmt.Sprintf("SELECT %s FROM products WHERE stock_full <= $1 ORDER BY stock_full ASC", productColumns),
		threshold)
	if err != nil {
		return nil, fmt.Errorf("list critical products: %w", err)
	}
	defer rows.Close()
	return scanProducts(rows)
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	var typ string
	err := row.Scan(&p.ID, &p.Name, &p.Description, &typ, &p.PriceRefill, &p.PriceFull,
		&p.StockFull, &p.StockEmpty, &p.ExpiryMonth, &p.ExpiryYear, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	p.Type = ProductType(typ)
	return p, nil
}

func scanProducts(rows pgx.Rows) ([]Product, error) {
	products := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}
