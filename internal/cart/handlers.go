package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-agua/internal/common"
	"github.com/noah-isme/backend-agua/internal/pricing"
)

// ProductSource resolves a product into the snapshot a cart line carries.
type ProductSource interface {
	Snapshot(ctx context.Context, id int64) (Product, error)
}

// Handler exposes the POS cart endpoints.
type Handler struct {
	registry *Registry
	products ProductSource
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Registry *Registry
	Products ProductSource
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{registry: cfg.Registry, products: cfg.Products}
}

// Mount registers cart routes on the router.
func (h *Handler) Mount(r chi.Router) {
	r.Post("/pos/carts", h.Create)
	r.Get("/pos/carts/{cartID}", h.Get)
	r.Delete("/pos/carts/{cartID}", h.Drop)
	r.Post("/pos/carts/{cartID}/items", h.AddItem)
	r.Patch("/pos/carts/{cartID}/items/{productID}", h.UpdateItem)
	r.Delete("/pos/carts/{cartID}/items/{productID}", h.RemoveItem)
}

type itemView struct {
	ProductID      int64          `json:"product_id"`
	Name           string         `json:"name"`
	Quantity       int64          `json:"quantity"`
	ReturnedBottle bool           `json:"returned_bottle"`
	CustomPrice    *pricing.Money `json:"custom_price,omitempty"`
	UnitPrice      pricing.Money  `json:"unit_price"`
	Subtotal       pricing.Money  `json:"subtotal"`
}

type cartView struct {
	ID    uuid.UUID     `json:"id"`
	Items []itemView    `json:"items"`
	Total pricing.Money `json:"total"`
}

func viewOf(c *Cart) cartView {
	items := c.Items()
	view := cartView{ID: c.ID(), Items: make([]itemView, 0, len(items))}
	for _, item := range items {
		unit := ItemPrice(item)
		iv := itemView{
			ProductID:      item.Product.ID,
			Name:           item.Product.Name,
			Quantity:       item.Quantity,
			ReturnedBottle: item.ReturnedBottle,
			CustomPrice:    item.CustomPrice,
			UnitPrice:      unit,
		}
		if item.Product.ID > 0 {
			iv.Subtotal = unit * pricing.Money(item.Quantity)
		}
		view.Items = append(view.Items, iv)
	}
	view.Total = c.Total()
	return view
}

// Create handles POST /api/v1/pos/carts.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	c := h.registry.Create()
	common.JSONData(w, http.StatusCreated, viewOf(c))
}

// Get handles GET /api/v1/pos/carts/{cartID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookup(w, r)
	if !ok {
		return
	}
	common.JSONData(w, http.StatusOK, viewOf(c))
}

// Drop handles DELETE /api/v1/pos/carts/{cartID}.
func (h *Handler) Drop(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "cartID"))
	if err != nil {
		common.RenderError(w, common.ValidationError("cart_id", "must be a valid uuid"))
		return
	}
	h.registry.Drop(id)
	w.WriteHeader(http.StatusNoContent)
}

type addItemInput struct {
	ProductID      int64 `json:"product_id"`
	Quantity       int64 `json:"quantity"`
	ReturnedBottle bool  `json:"returned_bottle"`
}

// AddItem handles POST /api/v1/pos/carts/{cartID}/items. Adding a product
// already in the cart merges quantities instead of duplicating the line.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var in addItemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return
	}
	if in.ProductID <= 0 {
		common.RenderError(w, common.ValidationError("product_id", "must be a positive integer"))
		return
	}
	product, err := h.products.Snapshot(r.Context(), in.ProductID)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	c.AddItem(product, in.Quantity, in.ReturnedBottle)
	common.JSONData(w, http.StatusOK, viewOf(c))
}

type updateItemInput struct {
	Quantity       *int64         `json:"quantity"`
	ReturnedBottle *bool          `json:"returned_bottle"`
	CustomPrice    *pricing.Money `json:"custom_price"`
	ClearCustom    bool           `json:"clear_custom_price"`
}

// UpdateItem handles PATCH /api/v1/pos/carts/{cartID}/items/{productID}.
// A quantity of zero or less removes the line.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookup(w, r)
	if !ok {
		return
	}
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		common.RenderError(w, common.ValidationError("product_id", "must be an integer"))
		return
	}
	var in updateItemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return
	}
	if in.Quantity != nil {
		c.UpdateQuantity(productID, *in.Quantity)
	}
	if in.ReturnedBottle != nil {
		c.SetReturnedBottle(productID, *in.ReturnedBottle)
	}
	if in.ClearCustom {
		c.UpdateCustomPrice(productID, nil)
	} else if in.CustomPrice != nil {
		c.UpdateCustomPrice(productID, in.CustomPrice)
	}
	common.JSONData(w, http.StatusOK, viewOf(c))
}

// RemoveItem handles DELETE /api/v1/pos/carts/{cartID}/items/{productID}.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookup(w, r)
	if !ok {
		return
	}
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		common.RenderError(w, common.ValidationError("product_id", "must be an integer"))
		return
	}
	c.RemoveItem(productID)
	common.JSONData(w, http.StatusOK, viewOf(c))
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*Cart, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "cartID"))
	if err != nil {
		common.RenderError(w, common.ValidationError("cart_id", "must be a valid uuid"))
		return nil, false
	}
	c, err := h.registry.Get(id)
	if err != nil {
		common.RenderError(w, common.NotFoundError("cart"))
		return nil, false
	}
	return c, true
}
