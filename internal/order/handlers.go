package order

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-agua/internal/common"
)

// Handler exposes order read endpoints.
type Handler struct {
	service *Service
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service}
}

// Mount registers order read routes on the router.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/orders", h.List)
	r.Get("/orders/{id}", h.Get)
}

// MountAdmin registers admin-only order mutations.
func (h *Handler) MountAdmin(r chi.Router) {
	r.Patch("/orders/{id}", h.UpdateCreatedAt)
	r.Delete("/orders/{id}", h.Delete)
}

// List handles GET /api/v1/orders with optional customer_id, from and to
// filters. Date bounds use YYYY-MM-DD; to is exclusive.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := common.ParsePagination(r, 20)
	params := ListParams{Page: page.Page, PerPage: page.PerPage}

	if raw := strings.TrimSpace(r.URL.Query().Get("customer_id")); raw != "" {
		id, err := common.ParseID(raw)
		if err != nil {
			common.RenderError(w, err)
			return
		}
		params.CustomerID = &id
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		ts, err := time.Parse("2006-01-02", raw)
		if err != nil {
			common.RenderError(w, common.ValidationError("from", "must be YYYY-MM-DD"))
			return
		}
		params.From = &ts
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("to")); raw != "" {
		ts, err := time.Parse("2006-01-02", raw)
		if err != nil {
			common.RenderError(w, common.ValidationError("to", "must be YYYY-MM-DD"))
			return
		}
		params.To = &ts
	}

	orders, total, err := h.service.List(r.Context(), params)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       orders,
		"pagination": common.Pagination{Page: page.Page, PerPage: page.PerPage, TotalItems: int(total)},
	})
}

// Get handles GET /api/v1/orders/{id} including items.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	o, err := h.service.Get(r.Context(), id)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, o)
}

type updateInput struct {
	CreatedAt time.Time `json:"created_at"`
}

// UpdateCreatedAt handles PATCH /api/v1/orders/{id}.
func (h *Handler) UpdateCreatedAt(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	var in updateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.CreatedAt.IsZero() {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "created_at is required", nil)
		return
	}
	o, err := h.service.UpdateCreatedAt(r.Context(), id, in.CreatedAt)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, o)
}

// Delete handles DELETE /api/v1/orders/{id}.
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
