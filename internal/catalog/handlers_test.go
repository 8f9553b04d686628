package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	products map[int64]Product
	nextID   int64
}

func newFakeStore(seed ...Product) *fakeStore {
	s := &fakeStore{products: map[int64]Product{}, nextID: 1}
	for _, p := range seed {
		if p.ID >= s.nextID {
			s.nextID = p.ID + 1
		}
		s.products[p.ID] = p
	}
	return s
}

func (s *fakeStore) List(_ context.Context, params ListParams) ([]Product, int64, error) {
	var out []Product
	for _, p := range s.products {
		if params.Type != "" && p.Type != params.Type {
			continue
		}
		if params.Query != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(params.Query)) {
			continue
		}
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

func (s *fakeStore) Get(_ context.Context, id int64) (Product, error) {
	p, ok := s.products[id]
	if !ok {
		return Product{}, pgx.ErrNoRows
	}
	return p, nil
}

func (s *fakeStore) Create(_ context.Context, p *Product) error {
	p.ID = s.nextID
	s.nextID++
	s.products[p.ID] = *p
	return nil
}

func (s *fakeStore) Update(_ context.Context, p *Product) error {
	if _, ok := s.products[p.ID]; !ok {
		return pgx.ErrNoRows
	}
	s.products[p.ID] = *p
	return nil
}

func (s *fakeStore) Delete(_ context.Context, id int64) error {
	if _, ok := s.products[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(s.products, id)
	return nil
}

func (s *fakeStore) ListCritical(_ context.Context, threshold int64) ([]Product, error) {
	var out []Product
	for _, p := range s.products {
		if p.StockFull <= threshold {
			out = append(out, p)
		}
	}
	return out, nil
}

func newTestRouter(store Store) chi.Router {
	h := NewHandler(HandlerConfig{Service: &Service{Store: store}})
	r := chi.NewRouter()
	h.Mount(r)
	h.MountAdmin(r)
	return r
}

func TestCreateAndGetProduct(t *testing.T) {
	router := newTestRouter(newFakeStore())

	body := `{"name":"Galao 20L","type":"water","price_refill":500,"price_full":1000,"stock_full":30}`
	req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Data Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotZero(t, created.Data.ID)
	require.Equal(t, TypeWater, created.Data.Type)
	require.Equal(t, int64(500), created.Data.PriceRefill)

	req = httptest.NewRequest(http.MethodGet, "/products/1", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateProductRejectsUnknownType(t *testing.T) {
	router := newTestRouter(newFakeStore())

	body := `{"name":"Mystery","type":"plasma","price_refill":1,"price_full":2}`
	req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "VALIDATION")
}

func TestCreateProductRejectsNegativePrice(t *testing.T) {
	router := newTestRouter(newFakeStore())

	body := `{"name":"Gas 13kg","type":"gas","price_refill":-1,"price_full":2}`
	req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetProductNotFound(t *testing.T) {
	router := newTestRouter(newFakeStore())

	req := httptest.NewRequest(http.MethodGet, "/products/42", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestUpdateProduct(t *testing.T) {
	store := newFakeStore(Product{ID: 7, Name: "Gas 13kg", Type: TypeGas, PriceRefill: 5000, PriceFull: 6000})
	router := newTestRouter(store)

	body := `{"name":"Gas 13kg","type":"gas","price_refill":5500,"price_full":6500}`
	req := httptest.NewRequest(http.MethodPut, "/products/7", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int64(5500), store.products[7].PriceRefill)
}

func TestDeleteProduct(t *testing.T) {
	store := newFakeStore(Product{ID: 3, Name: "Agua 20L", Type: TypeWater})
	router := newTestRouter(store)

	req := httptest.NewRequest(http.MethodDelete, "/products/3", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/products/3", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListCriticalProducts(t *testing.T) {
	store := newFakeStore(
		Product{ID: 1, Name: "Agua 20L", Type: TypeWater, StockFull: 3},
		Product{ID: 2, Name: "Gas 13kg", Type: TypeGas, StockFull: 50},
	)
	router := newTestRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/products/critical", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data []Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	require.Equal(t, "Agua 20L", resp.Data[0].Name)
}

func TestListProductsFiltersByType(t *testing.T) {
	store := newFakeStore(
		Product{ID: 1, Name: "Agua 20L", Type: TypeWater},
		Product{ID: 2, Name: "Gas 13kg", Type: TypeGas},
	)
	router := newTestRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/products?type=gas", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data []Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	require.Equal(t, "Gas 13kg", resp.Data[0].Name)
}
