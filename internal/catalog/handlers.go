package catalog

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-agua/internal/common"
)

// Handler exposes product endpoints.
type Handler struct {
	service   *Service
	validate  *validator.Validate
	threshold int64
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service           *Service
	Validate          *validator.Validate
	LowStockThreshold int64
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	v := cfg.Validate
	if v == nil {
		v = validator.New()
	}
	threshold := cfg.LowStockThreshold
	if threshold <= 0 {
		threshold = 10
	}
	return &Handler{service: cfg.Service, validate: v, threshold: threshold}
}

// Mount registers product read routes on the router.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/products", h.List)
	r.Get("/products/critical", h.Critical)
	r.Get("/products/{id}", h.Get)
}

// MountAdmin registers product write routes on the router.
func (h *Handler) MountAdmin(r chi.Router) {
	r.Post("/products", h.Create)
	r.Put("/products/{id}", h.Update)
	r.Delete("/products/{id}", h.Delete)
}

// List handles GET /api/v1/products.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := common.ParsePagination(r, 20)
	params := ListParams{
		Query:   strings.TrimSpace(r.URL.Query().Get("q")),
		Type:    ProductType(strings.TrimSpace(r.URL.Query().Get("type"))),
		Page:    page.Page,
		PerPage: page.PerPage,
	}
	products, total, err := h.service.List(r.Context(), params)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       products,
		"pagination": common.Pagination{Page: page.Page, PerPage: page.PerPage, TotalItems: int(total)},
	})
}

// Critical handles GET /api/v1/products/critical. It lists products at or
// below the low-stock threshold, lowest first.
func (h *Handler) Critical(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.Critical(r.Context(), h.threshold)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, products)
}

// Get handles GET /api/v1/products/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, product)
}

// Create handles POST /api/v1/products.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	product, err := h.service.Create(r.Context(), in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, product)
}

// Update handles PUT /api/v1/products/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	product, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, product)
}

// Delete handles DELETE /api/v1/products/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		common.RenderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodeInput(w http.ResponseWriter, r *http.Request) (ProductInput, bool) {
	var in ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return in, false
	}
	if err := h.validate.Struct(in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid product payload", common.ValidationDetails(err))
		return in, false
	}
	return in, true
}
