package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore applies stock mutations on PostgreSQL, one transaction per call.
type PGStore struct {
	Pool *pgxpool.Pool
}

var _ Store = (*PGStore)(nil)

func (s *PGStore) In(ctx context.Context, productID, quantity int64, note string, userID *int64) (Level, error) {
	return s.mutate(ctx, productID, func(level *Level) (string, int64, error) {
		level.StockFull += quantity
		return TypeIn, quantity, nil
	}, note, userID)
}

func (s *PGStore) Out(ctx context.Context, productID, quantity int64, note string, userID *int64) (Level, error) {
	return s.mutate(ctx, productID, func(level *Level) (string, int64, error) {
		if level.StockFull < quantity {
			return "", 0, &InsufficientError{Requested: quantity, Available: level.StockFull}
		}
		level.StockFull -= quantity
		return TypeOut, quantity, nil
	}, note, userID)
}

func (s *PGStore) Adjust(ctx context.Context, productID, delta int64, note string, userID *int64) (Level, error) {
	return s.mutate(ctx, productID, func(level *Level) (string, int64, error) {
		if level.StockFull+delta < 0 {
			return "", 0, &InsufficientError{Requested: -delta, Available: level.StockFull}
		}
		level.StockFull += delta
		return TypeAdjust, delta, nil
	}, note, userID)
}

// mutate locks the product row, lets apply rewrite the counters, then writes
// the counters and the ledger row in the same transaction.
func (s *PGStore) mutate(ctx context.Context, productID int64, apply func(*Level) (string, int64, error), note string, userID *int64) (Level, error) {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Level{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var level Level
	level.ProductID = productID
	err = tx.QueryRow(ctx,
		"SELECT name, stock_full, stock_empty FROM products WHERE id = $1 FOR UPDATE",
		productID,
	).Scan(&level.Name, &level.StockFull, &level.StockEmpty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Level{}, ErrProductNotFound
		}
		return Level{}, fmt.Errorf("lock product: %w", err)
	}

	movementType, quantity, err := apply(&level)
	if err != nil {
		return Level{}, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE products SET stock_full = $2, stock_empty = $3, updated_at = now()
		WHERE id = $1`,
		productID, level.StockFull, level.StockEmpty)
	if err != nil {
		return Level{}, fmt.Errorf("update counters: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO stock_movements (product_id, type, quantity, note, user_id)
		VALUES ($1, $2, $3, $4, $5)`,
		productID, movementType, quantity, note, userID)
	if err != nil {
		return Level{}, fmt.Errorf("insert movement: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Level{}, fmt.Errorf("commit tx: %w", err)
	}
	return level, nil
}

func (s *PGStore) Movements(ctx context.Context, productID int64, page, perPage int) ([]Movement, int64, error) {
	where := ""
	args := []any{}
	if productID > 0 {
		where = "WHERE m.product_id = $1"
		args = append(args, productID)
	}

	var total int64
	if err := s.Pool.QueryRow(ctx,
		"SELECT count(*) FROM stock_movements m "+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count movements: %w", err)
	}

	limit := perPage
	if limit < 1 {
		limit = 20
	}
	offset := (page - 1) * limit
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`
		SELECT m.id, m.product_id, coalesce(p.name, ''), m.type, m.quantity, m.note, m.order_id, m.user_id, m.created_at
		FROM stock_movements m LEFT JOIN products p ON p.id = m.product_id
		%s ORDER BY m.created_at DESC, m.id DESC LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)
	rows, err := s.Pool.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	movements := make([]Movement, 0, limit)
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.ProductName, &m.Type, &m.Quantity, &m.Note, &m.OrderID, &m.UserID, &m.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan movement: %w", err)
		}
		movements = append(movements, m)
	}
	return movements, total, rows.Err()
}
