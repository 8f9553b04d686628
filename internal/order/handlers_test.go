package order

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	orders map[int64]Order
}

func (s *fakeStore) List(_ context.Context, params ListParams) ([]Order, int64, error) {
	var out []Order
	for _, o := range s.orders {
		if params.CustomerID != nil && (o.CustomerID == nil || *o.CustomerID != *params.CustomerID) {
			continue
		}
		out = append(out, o)
	}
	return out, int64(len(out)), nil
}

func (s *fakeStore) Get(_ context.Context, id int64) (Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (s *fakeStore) UpdateCreatedAt(_ context.Context, id int64, createdAt time.Time) error {
	o, ok := s.orders[id]
	if !ok {
		return pgx.ErrNoRows
	}
	o.CreatedAt = createdAt
	s.orders[id] = o
	return nil
}

func (s *fakeStore) Delete(_ context.Context, id int64) error {
	if _, ok := s.orders[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(s.orders, id)
	return nil
}

func newTestRouter(store Store) chi.Router {
	h := NewHandler(HandlerConfig{Service: &Service{Store: store}})
	r := chi.NewRouter()
	h.Mount(r)
	h.MountAdmin(r)
	return r
}

func seedStore() *fakeStore {
	cust := int64(4)
	return &fakeStore{orders: map[int64]Order{
		1: {ID: 1, Total: 7000, CreatedAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)},
		2: {ID: 2, CustomerID: &cust, Total: 1500, CreatedAt: time.Date(2026, 8, 2, 11, 0, 0, 0, time.UTC)},
	}}
}

func TestListOrdersFiltersByCustomer(t *testing.T) {
	router := newTestRouter(seedStore())

	req := httptest.NewRequest(http.MethodGet, "/orders?customer_id=4", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data []Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	require.Equal(t, int64(2), resp.Data[0].ID)
}

func TestGetOrderNotFound(t *testing.T) {
	router := newTestRouter(seedStore())

	req := httptest.NewRequest(http.MethodGet, "/orders/99", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPatchOrderBackdates(t *testing.T) {
	store := seedStore()
	router := newTestRouter(store)

	body := `{"created_at":"2026-07-15T09:00:00Z"}`
	req := httptest.NewRequest(http.MethodPatch, "/orders/1", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, time.Date(2026, 7, 15, 9, 0, 0, 0, time.UTC), store.orders[1].CreatedAt)
}

func TestPatchOrderRejectsFutureDate(t *testing.T) {
	router := newTestRouter(seedStore())

	future := time.Now().Add(48 * time.Hour).Format(time.RFC3339)
	req := httptest.NewRequest(http.MethodPatch, "/orders/1", strings.NewReader(`{"created_at":"`+future+`"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteOrder(t *testing.T) {
	store := seedStore()
	router := newTestRouter(store)

	req := httptest.NewRequest(http.MethodDelete, "/orders/2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotContains(t, store.orders, int64(2))
}
