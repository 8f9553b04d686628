package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-agua/internal/common"
)

// Service orchestrates product lookups and mutations.
type Service struct {
	Store Store
}

// ProductInput carries create/update payloads after decoding.
type ProductInput struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Type        string `json:"type" validate:"required,oneof=water gas coal other"`
	PriceRefill int64  `json:"price_refill" validate:"gte=0"`
	PriceFull   int64  `json:"price_full" validate:"gte=0"`
	StockFull   int64  `json:"stock_full" validate:"gte=0"`
	StockEmpty  int64  `json:"stock_empty" validate:"gte=0"`
	ExpiryMonth *int16 `json:"expiry_month" validate:"omitempty,gte=1,lte=12"`
	ExpiryYear  *int16 `json:"expiry_year" validate:"omitempty,gte=2000"`
}

// List returns products matching the filters plus the unpaginated total.
func (s *Service) List(ctx context.Context, params ListParams) ([]Product, int64, error) {
	if params.Type != "" && !params.Type.Valid() {
		return nil, 0, common.ValidationError("type", "unknown product type")
	}
	return s.Store.List(ctx, params)
}

// Get returns a single product by id.
func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	p, err := s.Store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, common.NotFoundError("product")
		}
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// Create persists a new product.
func (s *Service) Create(ctx context.Context, in ProductInput) (Product, error) {
	p := productFromInput(in)
	if err := s.Store.Create(ctx, &p); err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

// Update overwrites an existing product.
func (s *Service) Update(ctx context.Context, id int64, in ProductInput) (Product, error) {
	p := productFromInput(in)
	p.ID = id
	if err := s.Store.Update(ctx, &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, common.NotFoundError("product")
		}
		return Product{}, fmt.Errorf("update product: %w", err)
	}
	return s.Get(ctx, id)
}

// Delete removes a product.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.Store.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.NotFoundError("product")
		}
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

// Critical returns products whose full stock is at or below the threshold.
func (s *Service) Critical(ctx context.Context, threshold int64) ([]Product, error) {
	return s.Store.ListCritical(ctx, threshold)
}

func productFromInput(in ProductInput) Product {
	return Product{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Type:        ProductType(in.Type),
		PriceRefill: in.PriceRefill,
		PriceFull:   in.PriceFull,
		StockFull:   in.StockFull,
		StockEmpty:  in.StockEmpty,
		ExpiryMonth: in.ExpiryMonth,
		ExpiryYear:  in.ExpiryYear,
	}
}
