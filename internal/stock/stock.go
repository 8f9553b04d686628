package stock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-agua/internal/common"
	"github.com/noah-isme/backend-agua/internal/events"
	"github.com/noah-isme/backend-agua/internal/obs"
)

// Movement types recorded in the ledger.
const (
	TypeIn     = "IN"
	TypeOut    = "OUT"
	TypeAdjust = "ADJUST"
)

// Movement is one row of the stock ledger.
type Movement struct {
	ID          int64     `json:"id"`
	ProductID   int64     `json:"product_id"`
	ProductName string    `json:"product_name"`
	Type        string    `json:"type"`
	Quantity    int64     `json:"quantity"`
	Note        string    `json:"note"`
	OrderID     *int64    `json:"order_id,omitempty"`
	UserID      *int64    `json:"user_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Level reports a product's counters after a mutation.
type Level struct {
	ProductID  int64  `json:"product_id"`
	Name       string `json:"name"`
	StockFull  int64  `json:"stock_full"`
	StockEmpty int64  `json:"stock_empty"`
}

// ErrInsufficient is returned when an outbound quantity exceeds full stock.
var ErrInsufficient = errors.New("insufficient stock")

// ErrProductNotFound is returned when the product row does not exist.
var ErrProductNotFound = errors.New("product not found")

// Store applies stock mutations atomically: one counter update plus one
// ledger row per call, or nothing.
type Store interface {
	In(ctx context.Context, productID, quantity int64, note string, userID *int64) (Level, error)
	Out(ctx context.Context, productID, quantity int64, note string, userID *int64) (Level, error)
	Adjust(ctx context.Context, productID, delta int64, note string, userID *int64) (Level, error)
	Movements(ctx context.Context, productID int64, page, perPage int) ([]Movement, int64, error)
}

// Service coordinates stock mutations and their side effects.
type Service struct {
	Store             Store
	Bus               *events.Bus
	LowStockThreshold int64
	Log               zerolog.Logger
}

// In receives quantity units of full stock.
func (s *Service) In(ctx context.Context, productID, quantity int64, note string, userID *int64) (Level, error) {
	if quantity <= 0 {
		return Level{}, common.ValidationError("quantity", "must be a positive integer")
	}
	level, err := s.Store.In(ctx, productID, quantity, note, userID)
	if err != nil {
		return Level{}, s.mapErr(err, productID, quantity, 0)
	}
	obs.StockMovementsTotal.WithLabelValues(TypeIn).Inc()
	return level, nil
}

// Out removes quantity units of full stock. Taking exactly the remaining
// stock is allowed; the counter bottoms out at zero, never below.
func (s *Service) Out(ctx context.Context, productID, quantity int64, note string, userID *int64) (Level, error) {
	if quantity <= 0 {
		return Level{}, common.ValidationError("quantity", "must be a positive integer")
	}
	level, err := s.Store.Out(ctx, productID, quantity, note, userID)
	if err != nil {
		return Level{}, s.mapErr(err, productID, quantity, 0)
	}
	obs.StockMovementsTotal.WithLabelValues(TypeOut).Inc()
	s.alertIfLow(ctx, level)
	return level, nil
}

// Adjust applies a signed correction to full stock and records the delta in
// the ledger. A correction that would drive the counter negative is refused.
func (s *Service) Adjust(ctx context.Context, productID, delta int64, note string, userID *int64) (Level, error) {
	if delta == 0 {
		return Level{}, common.ValidationError("quantity", "must not be zero")
	}
	level, err := s.Store.Adjust(ctx, productID, delta, note, userID)
	if err != nil {
		return Level{}, s.mapErr(err, productID, delta, 0)
	}
	obs.StockMovementsTotal.WithLabelValues(TypeAdjust).Inc()
	s.alertIfLow(ctx, level)
	return level, nil
}

// Movements returns the ledger newest first, optionally scoped to one
// product. A productID of zero lists movements across all products.
func (s *Service) Movements(ctx context.Context, productID int64, page, perPage int) ([]Movement, int64, error) {
	return s.Store.Movements(ctx, productID, page, perPage)
}

func (s *Service) mapErr(err error, productID, requested, available int64) error {
	switch {
	case errors.Is(err, ErrProductNotFound):
		return common.NotFoundError("product")
	case errors.Is(err, ErrInsufficient):
		var ie *InsufficientError
		if errors.As(err, &ie) {
			requested, available = ie.Requested, ie.Available
		}
		return common.BusinessError("INSUFFICIENT_STOCK",
			fmt.Sprintf("insufficient stock for product %d", productID),
			map[string]any{"product_id": productID, "requested": requested, "available": available})
	default:
		return fmt.Errorf("stock mutation: %w", err)
	}
}

func (s *Service) alertIfLow(ctx context.Context, level Level) {
	if s.Bus == nil || level.StockFull > s.LowStockThreshold {
		return
	}
	s.Bus.Publish(ctx, events.TopicStockLow, map[string]any{
		"product_id": level.ProductID,
		"product":    level.Name,
		"stock_full": level.StockFull,
	})
}

// InsufficientError carries the quantities behind an ErrInsufficient.
type InsufficientError struct {
	Requested int64
	Available int64
}

func (e *InsufficientError) Error() string {
	return fmt.Sprintf("insufficient stock: requested %d, available %d", e.Requested, e.Available)
}

func (e *InsufficientError) Is(target error) bool { return target == ErrInsufficient }
