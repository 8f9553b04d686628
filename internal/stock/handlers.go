package stock

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-agua/internal/common"
)

// Handler exposes stock mutation and ledger endpoints.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service  *Service
	Validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	v := cfg.Validate
	if v == nil {
		v = validator.New()
	}
	return &Handler{service: cfg.Service, validate: v}
}

// Mount registers stock routes on the router.
func (h *Handler) Mount(r chi.Router) {
	r.Post("/stock/in", h.In)
	r.Post("/stock/out", h.Out)
	r.Post("/stock/adjust", h.Adjust)
	r.Get("/stock/movements", h.Movements)
}

type moveInput struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Quantity  int64  `json:"quantity" validate:"required,gt=0"`
	Note      string `json:"note" validate:"max=500"`
}

// adjustInput carries a signed correction; validator required rejects zero.
type adjustInput struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Quantity  int64  `json:"quantity" validate:"required"`
	Note      string `json:"note" validate:"max=500"`
}

// In handles POST /api/v1/stock/in.
func (h *Handler) In(w http.ResponseWriter, r *http.Request) {
	var in moveInput
	if !h.decode(w, r, &in) {
		return
	}
	level, err := h.service.In(r.Context(), in.ProductID, in.Quantity, in.Note, userIDFrom(r))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, level)
}

// Out handles POST /api/v1/stock/out.
func (h *Handler) Out(w http.ResponseWriter, r *http.Request) {
	var in moveInput
	if !h.decode(w, r, &in) {
		return
	}
	level, err := h.service.Out(r.Context(), in.ProductID, in.Quantity, in.Note, userIDFrom(r))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, level)
}

// Adjust handles POST /api/v1/stock/adjust.
func (h *Handler) Adjust(w http.ResponseWriter, r *http.Request) {
	var in adjustInput
	if !h.decode(w, r, &in) {
		return
	}
	level, err := h.service.Adjust(r.Context(), in.ProductID, in.Quantity, in.Note, userIDFrom(r))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, level)
}

// Movements handles GET /api/v1/stock/movements. The product_id query
// parameter is an optional filter; without it the whole ledger is listed.
func (h *Handler) Movements(w http.ResponseWriter, r *http.Request) {
	var productID int64
	if raw := strings.TrimSpace(r.URL.Query().Get("product_id")); raw != "" {
		id, err := common.ParseID(raw)
		if err != nil {
			common.RenderError(w, common.ValidationError("product_id", "must be a positive integer"))
			return
		}
		productID = id
	}
	page := common.ParsePagination(r, 20)
	movements, total, err := h.service.Movements(r.Context(), productID, page.Page, page.PerPage)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       movements,
		"pagination": common.Pagination{Page: page.Page, PerPage: page.PerPage, TotalItems: int(total)},
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid stock payload", common.ValidationDetails(err))
		return false
	}
	return true
}

func userIDFrom(r *http.Request) *int64 {
	if id, ok := common.UserID(r.Context()); ok {
		return &id
	}
	return nil
}
