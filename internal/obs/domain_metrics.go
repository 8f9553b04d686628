package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// OrdersCreatedTotal counts committed checkout transactions.
	OrdersCreatedTotal prometheus.Counter
	// OrderTotalCentavos observes committed order totals in minor units.
	OrderTotalCentavos prometheus.Histogram
	// CheckoutInsufficientTotal counts checkouts refused for lack of stock.
	CheckoutInsufficientTotal prometheus.Counter
	// StockMovementsTotal counts stock movements by type (IN, OUT, ADJUST).
	StockMovementsTotal *prometheus.CounterVec
	// LowStockAlertsTotal counts low-stock alert tasks enqueued.
	LowStockAlertsTotal prometheus.Counter
	// ReceiptsRenderedTotal counts generated receipt documents.
	ReceiptsRenderedTotal prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		OrdersCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Count of orders committed through checkout.",
		})
		OrderTotalCentavos = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_total_centavos",
			Help:      "Distribution of committed order totals in minor units.",
			Buckets:   []float64{500, 1000, 2500, 5000, 10000, 25000, 50000, 100000},
		})
		CheckoutInsufficientTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_insufficient_stock_total",
			Help:      "Count of checkouts refused because requested quantity exceeded stock.",
		})
		StockMovementsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_movements_total",
			Help:      "Count of recorded stock movements by type.",
		}, []string{"type"})
		LowStockAlertsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "low_stock_alerts_total",
			Help:      "Count of low-stock alert tasks enqueued.",
		})
		ReceiptsRenderedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipts_rendered_total",
			Help:      "Count of receipt documents generated.",
		})

		registerCollector(reg, OrdersCreatedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				OrdersCreatedTotal = v
			}
		})
		registerCollector(reg, OrderTotalCentavos, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				OrderTotalCentavos = v
			}
		})
		registerCollector(reg, CheckoutInsufficientTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				CheckoutInsufficientTotal = v
			}
		})
		registerCollector(reg, StockMovementsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				StockMovementsTotal = v
			}
		})
		registerCollector(reg, LowStockAlertsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				LowStockAlertsTotal = v
			}
		})
		registerCollector(reg, ReceiptsRenderedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				ReceiptsRenderedTotal = v
			}
		})
	})
}

func registerCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
