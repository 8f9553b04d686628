package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-agua/internal/cart"
	"github.com/noah-isme/backend-agua/internal/common"
	"github.com/noah-isme/backend-agua/internal/events"
	"github.com/noah-isme/backend-agua/internal/obs"
	"github.com/noah-isme/backend-agua/internal/pricing"
)

// DraftItem is one committed order line.
type DraftItem struct {
	ProductID      int64
	ProductName    string
	Quantity       int64
	UnitPrice      pricing.Money
	ReturnedBottle bool
}

// Draft is the order about to be committed.
type Draft struct {
	CustomerID *int64
	UserID     *int64
	Total      pricing.Money
	Items      []DraftItem
}

// ProductStock reports a product's full stock after commit.
type ProductStock struct {
	ProductID int64
	Name      string
	StockFull int64
}

// Result is the outcome of a committed checkout.
type Result struct {
	OrderID   int64          `json:"order_id"`
	Total     pricing.Money  `json:"total"`
	CreatedAt time.Time      `json:"created_at"`
	Remaining []ProductStock `json:"-"`
}

// StockShortage reports one product whose requested quantity exceeds its
// available full stock.
type StockShortage struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"product"`
	Requested int64  `json:"requested"`
	Available int64  `json:"available"`
}

// InsufficientStockError collects every shortage found in a draft, so the
// operator can correct all offending lines in one pass.
type InsufficientStockError struct {
	Shortages []StockShortage
}

func (e *InsufficientStockError) Error() string {
	if len(e.Shortages) == 1 {
		s := e.Shortages[0]
		return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d",
			s.ProductID, s.Requested, s.Available)
	}
	return fmt.Sprintf("insufficient stock for %d products", len(e.Shortages))
}

// ValidateStock compares the draft's requested quantities against a stock
// snapshot. Requesting exactly the available stock passes; products missing
// from the snapshot count as shortages with zero availability. Returns nil
// when every line fits.
func ValidateStock(items []DraftItem, snapshot map[int64]ProductStock) *InsufficientStockError {
	requested := make(map[int64]int64, len(items))
	order := make([]int64, 0, len(items))
	for _, item := range items {
		if _, seen := requested[item.ProductID]; !seen {
			order = append(order, item.ProductID)
		}
		requested[item.ProductID] += item.Quantity
	}

	var shortages []StockShortage
	for _, productID := range order {
		stock, ok := snapshot[productID]
		if ok && stock.StockFull >= requested[productID] {
			continue
		}
		shortages = append(shortages, StockShortage{
			ProductID: productID,
			Name:      stock.Name,
			Requested: requested[productID],
			Available: stock.StockFull,
		})
	}
	if len(shortages) > 0 {
		return &InsufficientStockError{Shortages: shortages}
	}
	return nil
}

// Store commits order drafts atomically. Implementations must either apply
// the whole draft (order, items, stock decrements, movements) or nothing.
type Store interface {
	CreateOrder(ctx context.Context, draft Draft) (Result, error)
}

// Service coordinates cart validation, atomic commit and post-commit effects.
type Service struct {
	Store             Store
	Bus               *events.Bus
	LowStockThreshold int64
	Log               zerolog.Logger
}

// Checkout validates the cart against current stock, commits it as an order
// and clears the cart. The cart is left untouched when the commit fails so
// the operator can adjust quantities and retry.
func (s *Service) Checkout(ctx context.Context, c *cart.Cart, customerID, userID *int64) (Result, error) {
	draft, err := buildDraft(c, customerID, userID)
	if err != nil {
		return Result{}, err
	}

	res, err := s.Store.CreateOrder(ctx, draft)
	if err != nil {
		var insufficient *InsufficientStockError
		if errors.As(err, &insufficient) {
			obs.CheckoutInsufficientTotal.Inc()
			return Result{}, common.BusinessError("INSUFFICIENT_STOCK", insufficient.Error(), map[string]any{
				"insufficient": insufficient.Shortages,
			})
		}
		return Result{}, fmt.Errorf("commit order: %w", err)
	}

	c.Clear()
	obs.OrdersCreatedTotal.Inc()
	obs.OrderTotalCentavos.Observe(float64(res.Total))
	for range draft.Items {
		obs.StockMovementsTotal.WithLabelValues("OUT").Inc()
	}

	if s.Bus != nil {
		s.Bus.Publish(ctx, events.TopicOrderCreated, map[string]any{
			"order_id": res.OrderID,
			"total":    res.Total,
		})
		for _, remaining := range res.Remaining {
			if remaining.StockFull <= s.LowStockThreshold {
				s.Bus.Publish(ctx, events.TopicStockLow, map[string]any{
					"product_id": remaining.ProductID,
					"product":    remaining.Name,
					"stock_full": remaining.StockFull,
				})
			}
		}
	}
	s.Log.Info().Int64("order_id", res.OrderID).Int64("total", res.Total).Msg("order committed")
	return res, nil
}

// buildDraft snapshots the cart into an immutable order draft. Placeholder
// lines without a product are dropped; an effectively empty cart is refused.
func buildDraft(c *cart.Cart, customerID, userID *int64) (Draft, error) {
	items := c.Items()
	draft := Draft{CustomerID: customerID, UserID: userID}
	for _, item := range items {
		if item.Product.ID <= 0 {
			continue
		}
		unit := cart.ItemPrice(item)
		draft.Items = append(draft.Items, DraftItem{
			ProductID:      item.Product.ID,
			ProductName:    item.Product.Name,
			Quantity:       item.Quantity,
			UnitPrice:      unit,
			ReturnedBottle: item.ReturnedBottle,
		})
		draft.Total += unit * pricing.Money(item.Quantity)
	}
	if len(draft.Items) == 0 {
		return Draft{}, common.ValidationError("cart", "cart has no sellable items")
	}
	return draft, nil
}
