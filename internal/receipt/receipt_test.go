package receipt

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-agua/internal/obs"
	"github.com/noah-isme/backend-agua/internal/order"
)

func TestMain(m *testing.M) {
	obs.MustRegisterDomainMetrics("agua_receipt_test", prometheus.NewRegistry())
	os.Exit(m.Run())
}

type oneOrderStore struct {
	order order.Order
}

func (s *oneOrderStore) List(context.Context, order.ListParams) ([]order.Order, int64, error) {
	return nil, 0, nil
}

func (s *oneOrderStore) Get(_ context.Context, id int64) (order.Order, error) {
	if id != s.order.ID {
		return order.Order{}, pgx.ErrNoRows
	}
	return s.order, nil
}

func (s *oneOrderStore) UpdateCreatedAt(context.Context, int64, time.Time) error { return nil }
func (s *oneOrderStore) Delete(context.Context, int64) error                     { return nil }

func TestRenderReceipt(t *testing.T) {
	store := &oneOrderStore{order: order.Order{
		ID:           9,
		CustomerName: "Maria Silva",
		Total:        7000,
		CreatedAt:    time.Date(2026, 8, 30, 14, 30, 0, 0, time.UTC),
		Items: []order.Item{
			{ProductName: "Agua 20L", Quantity: 2, UnitPrice: 500, ReturnedBottle: true},
			{ProductName: "Gas 13kg", Quantity: 1, UnitPrice: 6000},
		},
	}}
	renderer, err := NewRenderer(&order.Service{Store: store}, "Agua Boa", "BRL")
	require.NoError(t, err)

	html, err := renderer.Render(context.Background(), 9)
	require.NoError(t, err)

	out := string(html)
	require.Contains(t, out, "Agua Boa")
	require.Contains(t, out, "Recibo #9")
	require.Contains(t, out, "Maria Silva")
	require.Contains(t, out, "Agua 20L (vasilhame)")
	require.Contains(t, out, "BRL 70.00")
	require.Contains(t, out, "BRL 10.00")
}

func TestRenderReceiptNotFound(t *testing.T) {
	renderer, err := NewRenderer(&order.Service{Store: &oneOrderStore{}}, "", "BRL")
	require.NoError(t, err)

	_, err = renderer.Render(context.Background(), 5)
	require.Error(t, err)
}

func TestFormatMoney(t *testing.T) {
	require.Equal(t, "BRL 12.05", FormatMoney(1205, "BRL"))
	require.Equal(t, "BRL 0.00", FormatMoney(0, "BRL"))
	require.Equal(t, "BRL -3.50", FormatMoney(-350, "BRL"))
}
