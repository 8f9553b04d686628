package cart

import (
	"sync"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-agua/internal/pricing"
)

// Product is the snapshot of catalog data a cart line needs for price
// resolution. It is captured when the line is added; checkout re-reads live
// stock from the database before committing.
type Product struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	PriceFull   pricing.Money `json:"price_full"`
	PriceRefill pricing.Money `json:"price_refill"`
}

// Item is one line of an in-progress sale.
type Item struct {
	Product        Product        `json:"product"`
	Quantity       int64          `json:"quantity"`
	ReturnedBottle bool           `json:"returned_bottle"`
	CustomPrice    *pricing.Money `json:"custom_price,omitempty"`
}

// Cart holds the ordered line items of a single checkout session. All
// mutations take the cart lock, so each call is one atomic state transition.
// A Cart is owned by exactly one POS session; it is never shared.
type Cart struct {
	mu    sync.Mutex
	id    uuid.UUID
	items []Item
}

// New constructs an empty cart with a fresh session identifier.
func New() *Cart {
	return &Cart{id: uuid.New()}
}

// ID returns the session identifier of the cart.
func (c *Cart) ID() uuid.UUID {
	return c.id
}

// AddItem appends a line for the product or, when a line for the same product
// already exists, increments its quantity. Carts never hold two rows for the
// same product.
func (c *Cart) AddItem(p Product, quantity int64, returnedBottle bool) {
	if quantity <= 0 {
		quantity = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].Product.ID == p.ID {
			c.items[i].Quantity += quantity
			return
		}
	}
	c.items = append(c.items, Item{Product: p, Quantity: quantity, ReturnedBottle: returnedBottle})
}

// RemoveItem drops the line for the product. Removing an absent product is a
// no-op, not an error.
func (c *Cart) RemoveItem(productID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(productID)
}

func (c *Cart) removeLocked(productID int64) {
	for i := range c.items {
		if c.items[i].Product.ID == productID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

// UpdateQuantity sets the quantity for the product's line. A quantity of zero
// or less removes the line entirely; negative quantities never persist.
func (c *Cart) UpdateQuantity(productID int64, quantity int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if quantity <= 0 {
		c.removeLocked(productID)
		return
	}
	for i := range c.items {
		if c.items[i].Product.ID == productID {
			c.items[i].Quantity = quantity
			return
		}
	}
}

// UpdateCustomPrice sets or clears the per-line price override. Passing nil
// clears the override and reverts the line to rule-based pricing.
func (c *Cart) UpdateCustomPrice(productID int64, price *pricing.Money) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].Product.ID == productID {
			if price == nil {
				c.items[i].CustomPrice = nil
			} else {
				v := *price
				c.items[i].CustomPrice = &v
			}
			return
		}
	}
}

// SetReturnedBottle sets the returned-bottle flag for the product's line.
func (c *Cart) SetReturnedBottle(productID int64, returned bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].Product.ID == productID {
			c.items[i].ReturnedBottle = returned
			return
		}
	}
}

// ToggleReturnedBottle flips the returned-bottle flag for the product's line.
// The flag drives price resolution unless a custom price masks it.
func (c *Cart) ToggleReturnedBottle(productID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].Product.ID == productID {
			c.items[i].ReturnedBottle = !c.items[i].ReturnedBottle
			return
		}
	}
}

// Clear empties the cart. Called after a successful checkout or an explicit
// reset; never called on a failed commit so the operator can retry.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}

// Items returns a copy of the current lines in insertion order.
func (c *Cart) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Len reports the number of lines currently in the cart.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// ItemPrice resolves the effective unit price for a line.
func ItemPrice(item Item) pricing.Money {
	return pricing.UnitPrice(toLine(item))
}

// Total recomputes the cart total from current state. Totals are never cached.
func (c *Cart) Total() pricing.Money {
	c.mu.Lock()
	defer c.mu.Unlock()
	lines := make([]pricing.Line, 0, len(c.items))
	for _, item := range c.items {
		lines = append(lines, toLine(item))
	}
	return pricing.Total(lines)
}

// Lines converts the cart content into pricing lines for checkout.
func (c *Cart) Lines() []pricing.Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	lines := make([]pricing.Line, 0, len(c.items))
	for _, item := range c.items {
		lines = append(lines, toLine(item))
	}
	return lines
}

func toLine(item Item) pricing.Line {
	return pricing.Line{
		ProductID:      item.Product.ID,
		Qty:            item.Quantity,
		ReturnedBottle: item.ReturnedBottle,
		CustomPrice:    item.CustomPrice,
		PriceFull:      item.Product.PriceFull,
		PriceRefill:    item.Product.PriceRefill,
	}
}
