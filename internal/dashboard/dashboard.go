package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-agua/internal/common"
	"github.com/noah-isme/backend-agua/internal/pricing"
)

const statsCacheKey = "dashboard:stats"

// TopProduct is one row of the 30-day bestseller list.
type TopProduct struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
}

// CriticalProduct is a product at or below the low-stock threshold.
type CriticalProduct struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	StockFull int64  `json:"stock_full"`
}

// Stats is the dashboard aggregate payload.
type Stats struct {
	SalesToday      pricing.Money     `json:"sales_today"`
	SalesMonth      pricing.Money     `json:"sales_month"`
	OrdersToday     int64             `json:"orders_today"`
	ActiveCustomers int64             `json:"active_customers"`
	CriticalStock   []CriticalProduct `json:"critical_stock"`
	TopProducts     []TopProduct      `json:"top_products"`
	GeneratedAt     time.Time         `json:"generated_at"`
}

// Store computes dashboard aggregates.
type Store interface {
	Stats(ctx context.Context, threshold int64, now time.Time) (Stats, error)
}

// PGStore implements Store on PostgreSQL.
type PGStore struct {
	Pool *pgxpool.Pool
}

var _ Store = (*PGStore)(nil)

func (s *PGStore) Stats(ctx context.Context, threshold int64, now time.Time) (Stats, error) {
	var stats Stats
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	err := s.Pool.QueryRow(ctx, `
		SELECT coalesce(sum(total) FILTER (WHERE created_at >= $1), 0),
		       coalesce(sum(total) FILTER (WHERE created_at >= $2), 0),
		       count(*) FILTER (WHERE created_at >= $1)
		FROM orders`, dayStart, monthStart,
	).Scan(&stats.SalesToday, &stats.SalesMonth, &stats.OrdersToday)
	if err != nil {
		return Stats{}, fmt.Errorf("sales aggregates: %w", err)
	}

	err = s.Pool.QueryRow(ctx, `
		SELECT count(DISTINCT customer_id) FROM orders
		WHERE customer_id IS NOT NULL AND created_at >= $1`,
		now.AddDate(0, 0, -30),
	).Scan(&stats.ActiveCustomers)
	if err != nil {
		return Stats{}, fmt.Errorf("active customers: %w", err)
	}

	rows, err := s.Pool.Query(ctx, `
		SELECT id, name, stock_full FROM products
		WHERE stock_full <= $1 ORDER BY stock_full ASC LIMIT 20`, threshold)
	if err != nil {
		return Stats{}, fmt.Errorf("critical stock: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p CriticalProduct
		if err := rows.Scan(&p.ProductID, &p.Name, &p.StockFull); err != nil {
			return Stats{}, fmt.Errorf("scan critical product: %w", err)
		}
		stats.CriticalStock = append(stats.CriticalStock, p)
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}

	topRows, err := s.Pool.Query(ctx, `
		SELECT oi.product_id, oi.product_name, sum(oi.quantity)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.created_at >= $1
		GROUP BY oi.product_id, oi.product_name
		ORDER BY sum(oi.quantity) DESC LIMIT 10`,
		now.AddDate(0, 0, -30))
	if err != nil {
		return Stats{}, fmt.Errorf("top products: %w", err)
	}
	defer topRows.Close()
	for topRows.Next() {
		var p TopProduct
		if err := topRows.Scan(&p.ProductID, &p.Name, &p.Quantity); err != nil {
			return Stats{}, fmt.Errorf("scan top product: %w", err)
		}
		stats.TopProducts = append(stats.TopProducts, p)
	}
	if err := topRows.Err(); err != nil {
		return Stats{}, err
	}

	stats.GeneratedAt = now
	return stats, nil
}

// Service serves dashboard aggregates through a short-lived cache. Cache
// errors fall back to the database, never to the caller.
type Service struct {
	Store             Store
	Cache             *Cache
	LowStockThreshold int64
	Log               zerolog.Logger
}

// Stats returns cached aggregates when fresh, recomputing otherwise.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	if s.Cache != nil {
		var cached Stats
		ok, err := s.Cache.GetJSON(ctx, statsCacheKey, &cached)
		if err != nil {
			s.Log.Warn().Err(err).Msg("dashboard cache read failed")
		} else if ok {
			return cached, nil
		}
	}

	stats, err := s.Store.Stats(ctx, s.LowStockThreshold, time.Now())
	if err != nil {
		return Stats{}, err
	}
	if s.Cache != nil {
		if err := s.Cache.SetJSON(ctx, statsCacheKey, stats); err != nil {
			s.Log.Warn().Err(err).Msg("dashboard cache write failed")
		}
	}
	return stats, nil
}

// Handler exposes the dashboard endpoint.
type Handler struct {
	Service *Service
}

// Mount registers the dashboard route on the router.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/dashboard/stats", h.Stats)
}

// Stats handles GET /api/v1/dashboard/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats(r.Context())
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, stats)
}
