package catalog

import (
	"time"

	"github.com/noah-isme/backend-agua/internal/pricing"
)

// ProductType classifies what a product dispenses.
type ProductType string

const (
	TypeWater ProductType = "water"
	TypeGas   ProductType = "gas"
	TypeCoal  ProductType = "coal"
	TypeOther ProductType = "other"
)

// Valid reports whether the type is one of the known classifications.
func (t ProductType) Valid() bool {
	switch t {
	case TypeWater, TypeGas, TypeCoal, TypeOther:
		return true
	}
	return false
}

// Product is a sellable item with dual pricing and dual stock counters.
// PriceRefill applies when the customer hands back an empty container,
// PriceFull when they keep it. StockFull tracks sellable units, StockEmpty
// the returned containers awaiting refill.
type Product struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Type        ProductType   `json:"type"`
	PriceRefill pricing.Money `json:"price_refill"`
	PriceFull   pricing.Money `json:"price_full"`
	StockFull   int64         `json:"stock_full"`
	StockEmpty  int64         `json:"stock_empty"`
	ExpiryMonth *int16        `json:"expiry_month,omitempty"`
	ExpiryYear  *int16        `json:"expiry_year,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
