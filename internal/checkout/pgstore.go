package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore commits orders on PostgreSQL inside a single transaction.
type PGStore struct {
	Pool *pgxpool.Pool
}

var _ Store = (*PGStore)(nil)

// CreateOrder locks each product row, re-validates stock, writes the order
// with its items and movements, and adjusts the counters. Any failure rolls
// the whole transaction back.
func (s *PGStore) CreateOrder(ctx context.Context, draft Draft) (Result, error) {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Result{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Aggregate by product first. The cart keeps one line per product but
	// the draft is validated here regardless of what the caller built.
	requested := make(map[int64]int64, len(draft.Items))
	order := make([]int64, 0, len(draft.Items))
	for _, item := range draft.Items {
		if _, seen := requested[item.ProductID]; !seen {
			order = append(order, item.ProductID)
		}
		requested[item.ProductID] += item.Quantity
	}

	// Lock every row first so the snapshot is stable, then validate the
	// whole draft at once and report every shortfall together.
	snapshot := make(map[int64]ProductStock, len(order))
	for _, productID := range order {
		var name string
		var stockFull int64
		err := tx.QueryRow(ctx,
			"SELECT name, stock_full FROM products WHERE id = $1 FOR UPDATE",
			productID,
		).Scan(&name, &stockFull)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			return Result{}, fmt.Errorf("lock product %d: %w", productID, err)
		}
		snapshot[productID] = ProductStock{ProductID: productID, Name: name, StockFull: stockFull}
	}
	if shortage := ValidateStock(draft.Items, snapshot); shortage != nil {
		return Result{}, shortage
	}

	var res Result
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (customer_id, user_id, total)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		draft.CustomerID, draft.UserID, draft.Total,
	).Scan(&res.OrderID, &res.CreatedAt)
	if err != nil {
		return Result{}, fmt.Errorf("insert order: %w", err)
	}
	res.Total = draft.Total

	for _, item := range draft.Items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price, returned_bottle)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			res.OrderID, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice, item.ReturnedBottle)
		if err != nil {
			return Result{}, fmt.Errorf("insert order item: %w", err)
		}

		returnedQty := int64(0)
		if item.ReturnedBottle {
			returnedQty = item.Quantity
		}
		var remaining int64
		err = tx.QueryRow(ctx, `
			UPDATE products
			SET stock_full = stock_full - $2, stock_empty = stock_empty + $3, updated_at = now()
			WHERE id = $1
			RETURNING stock_full`,
			item.ProductID, item.Quantity, returnedQty,
		).Scan(&remaining)
		if err != nil {
			return Result{}, fmt.Errorf("decrement stock: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO stock_movements (product_id, type, quantity, note, order_id, user_id)
			VALUES ($1, 'OUT', $2, $3, $4, $5)`,
			item.ProductID, item.Quantity, fmt.Sprintf("order #%d", res.OrderID), res.OrderID, draft.UserID)
		if err != nil {
			return Result{}, fmt.Errorf("insert movement: %w", err)
		}

		res.Remaining = append(res.Remaining, ProductStock{
			ProductID: item.ProductID,
			Name:      snapshot[item.ProductID].Name,
			StockFull: remaining,
		})
	}

	if err := tx.Commit(ctx); err != nil {
		return Result{}, fmt.Errorf("commit tx: %w", err)
	}
	return res, nil
}
