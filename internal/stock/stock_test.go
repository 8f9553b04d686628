package stock

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-agua/internal/common"
	"github.com/noah-isme/backend-agua/internal/events"
	"github.com/noah-isme/backend-agua/internal/obs"
)

func TestMain(m *testing.M) {
	obs.MustRegisterDomainMetrics("agua_stock_test", prometheus.NewRegistry())
	os.Exit(m.Run())
}

type memLevel struct {
	name  string
	full  int64
	empty int64
}

type memStore struct {
	levels    map[int64]*memLevel
	movements []Movement
}

func newMemStore() *memStore {
	return &memStore{levels: map[int64]*memLevel{}}
}

func (s *memStore) level(productID int64) (*memLevel, error) {
	l, ok := s.levels[productID]
	if !ok {
		return nil, ErrProductNotFound
	}
	return l, nil
}

func (s *memStore) record(productID int64, typ string, qty int64) Level {
	l := s.levels[productID]
	s.movements = append(s.movements, Movement{ProductID: productID, ProductName: l.name, Type: typ, Quantity: qty})
	return Level{ProductID: productID, Name: l.name, StockFull: l.full, StockEmpty: l.empty}
}

func (s *memStore) In(_ context.Context, productID, quantity int64, _ string, _ *int64) (Level, error) {
	l, err := s.level(productID)
	if err != nil {
		return Level{}, err
	}
	l.full += quantity
	return s.record(productID, TypeIn, quantity), nil
}

func (s *memStore) Out(_ context.Context, productID, quantity int64, _ string, _ *int64) (Level, error) {
	l, err := s.level(productID)
	if err != nil {
		return Level{}, err
	}
	if l.full < quantity {
		return Level{}, &InsufficientError{Requested: quantity, Available: l.full}
	}
	l.full -= quantity
	return s.record(productID, TypeOut, quantity), nil
}

func (s *memStore) Adjust(_ context.Context, productID, delta int64, _ string, _ *int64) (Level, error) {
	l, err := s.level(productID)
	if err != nil {
		return Level{}, err
	}
	if l.full+delta < 0 {
		return Level{}, &InsufficientError{Requested: -delta, Available: l.full}
	}
	l.full += delta
	return s.record(productID, TypeAdjust, delta), nil
}

func (s *memStore) Movements(_ context.Context, productID int64, _, _ int) ([]Movement, int64, error) {
	var out []Movement
	for _, m := range s.movements {
		if productID > 0 && m.ProductID != productID {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

type memEventStore struct {
	topics []string
}

func (m *memEventStore) Append(_ context.Context, topic string, _ []byte) error {
	m.topics = append(m.topics, topic)
	return nil
}

func (m *memEventStore) ListByTopic(context.Context, string, int) ([]events.Event, error) {
	return nil, nil
}

func newService(store Store, evStore events.EventStore) *Service {
	svc := &Service{Store: store, LowStockThreshold: 10, Log: zerolog.Nop()}
	if evStore != nil {
		svc.Bus = &events.Bus{Store: evStore, Log: zerolog.Nop()}
	}
	return svc
}

func TestStockInIncrementsAndRecords(t *testing.T) {
	store := newMemStore()
	store.levels[1] = &memLevel{name: "Agua 20L", full: 5}
	svc := newService(store, nil)

	level, err := svc.In(context.Background(), 1, 10, "delivery", nil)
	require.NoError(t, err)
	require.Equal(t, int64(15), level.StockFull)
	require.Len(t, store.movements, 1)
	require.Equal(t, TypeIn, store.movements[0].Type)
}

func TestStockInRejectsNonPositiveQuantity(t *testing.T) {
	svc := newService(newMemStore(), nil)

	_, err := svc.In(context.Background(), 1, 0, "", nil)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, 400, appErr.HTTPStatus)
}

func TestStockOutExactBoundaryAllowed(t *testing.T) {
	store := newMemStore()
	store.levels[1] = &memLevel{name: "Agua 20L", full: 7}
	svc := newService(store, nil)

	level, err := svc.Out(context.Background(), 1, 7, "", nil)
	require.NoError(t, err)
	require.Zero(t, level.StockFull)
}

func TestStockOutInsufficientLeavesCountersUntouched(t *testing.T) {
	store := newMemStore()
	store.levels[1] = &memLevel{name: "Agua 20L", full: 3}
	svc := newService(store, nil)

	_, err := svc.Out(context.Background(), 1, 4, "", nil)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "INSUFFICIENT_STOCK", appErr.Code)
	require.Equal(t, 422, appErr.HTTPStatus)
	require.Equal(t, int64(3), store.levels[1].full)
	require.Empty(t, store.movements)
}

func TestStockAdjustRecordsSignedDelta(t *testing.T) {
	store := newMemStore()
	store.levels[1] = &memLevel{name: "Gas 13kg", full: 20, empty: 5}
	svc := newService(store, nil)

	level, err := svc.Adjust(context.Background(), 1, -8, "inventory count", nil)
	require.NoError(t, err)
	require.Equal(t, int64(12), level.StockFull)
	require.Equal(t, int64(-8), store.movements[0].Quantity)
	require.Equal(t, TypeAdjust, store.movements[0].Type)
}

func TestStockAdjustRefusesNegativeResult(t *testing.T) {
	store := newMemStore()
	store.levels[1] = &memLevel{name: "Gas 13kg", full: 3}
	svc := newService(store, nil)

	_, err := svc.Adjust(context.Background(), 1, -4, "", nil)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "INSUFFICIENT_STOCK", appErr.Code)
	require.Equal(t, int64(3), store.levels[1].full)
	require.Empty(t, store.movements)
}

func TestStockAdjustRejectsZeroDelta(t *testing.T) {
	svc := newService(newMemStore(), nil)

	_, err := svc.Adjust(context.Background(), 1, 0, "", nil)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, 400, appErr.HTTPStatus)
}

func TestStockOutBelowThresholdPublishesAlert(t *testing.T) {
	store := newMemStore()
	store.levels[1] = &memLevel{name: "Agua 20L", full: 12}
	evStore := &memEventStore{}
	svc := newService(store, evStore)

	_, err := svc.Out(context.Background(), 1, 5, "", nil)
	require.NoError(t, err)
	require.Equal(t, []string{events.TopicStockLow}, evStore.topics)
}

func TestMovementsListsAllProductsByDefault(t *testing.T) {
	store := newMemStore()
	store.levels[1] = &memLevel{name: "Agua 20L", full: 5}
	store.levels[2] = &memLevel{name: "Gas 13kg", full: 20}
	svc := newService(store, nil)

	_, err := svc.In(context.Background(), 1, 10, "", nil)
	require.NoError(t, err)
	_, err = svc.Out(context.Background(), 2, 3, "", nil)
	require.NoError(t, err)

	movements, total, err := svc.Movements(context.Background(), 0, 1, 20)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, movements, 2)
	require.Equal(t, "Agua 20L", movements[0].ProductName)
	require.Equal(t, "Gas 13kg", movements[1].ProductName)

	scoped, _, err := svc.Movements(context.Background(), 2, 1, 20)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	require.Equal(t, TypeOut, scoped[0].Type)
}

func TestMovementsHandlerWithoutProductFilter(t *testing.T) {
	store := newMemStore()
	store.levels[1] = &memLevel{name: "Agua 20L", full: 5}
	svc := newService(store, nil)
	_, err := svc.In(context.Background(), 1, 4, "", nil)
	require.NoError(t, err)

	h := NewHandler(HandlerConfig{Service: svc})
	r := chi.NewRouter()
	h.Mount(r)

	req := httptest.NewRequest(http.MethodGet, "/stock/movements", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Agua 20L")
}

func TestStockUnknownProduct(t *testing.T) {
	svc := newService(newMemStore(), nil)

	_, err := svc.In(context.Background(), 99, 1, "", nil)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, 404, appErr.HTTPStatus)
}
