package checkout

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-agua/internal/cart"
	"github.com/noah-isme/backend-agua/internal/common"
)

// Handler exposes the checkout endpoint.
type Handler struct {
	registry *cart.Registry
	service  *Service
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Registry *cart.Registry
	Service  *Service
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{registry: cfg.Registry, service: cfg.Service}
}

// Mount registers the checkout route on the router.
func (h *Handler) Mount(r chi.Router) {
	r.Post("/pos/carts/{cartID}/checkout", h.Checkout)
}

type checkoutInput struct {
	CustomerID *int64 `json:"customer_id"`
}

// Checkout handles POST /api/v1/pos/carts/{cartID}/checkout. On success the
// cart is cleared and dropped from the registry; on failure it is preserved
// unchanged so the operator can adjust and retry.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	cartID, err := uuid.Parse(chi.URLParam(r, "cartID"))
	if err != nil {
		common.RenderError(w, common.ValidationError("cart_id", "must be a valid uuid"))
		return
	}
	c, err := h.registry.Get(cartID)
	if err != nil {
		common.RenderError(w, common.NotFoundError("cart"))
		return
	}

	var in checkoutInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return
	}

	var userID *int64
	if id, ok := common.UserID(r.Context()); ok {
		userID = &id
	}

	res, err := h.service.Checkout(r.Context(), c, in.CustomerID, userID)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	h.registry.Drop(cartID)
	common.JSONData(w, http.StatusCreated, res)
}
