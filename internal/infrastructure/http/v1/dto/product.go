package dto

import (
	"github.com/shopspring/decimal"

	"planbook/internal/domain/product"
)

// CreateProductRequest is the request body for creating a product.
type CreateProductRequest struct {
	Name         string          `json:"name" binding:"required"`
	Price        decimal.Decimal `json:"price"`
	CurrencyCode string          `json:"currencyCode"`
	Category     string          `json:"category"`
	SKU          string          `json:"sku"`
	Stock        int64           `json:"stock"`
	Unit         string          `json:"unit"`
	ImageURL     string          `json:"imageUrl"`
}

// ToEntity converts the DTO to a domain entity.
func (r *CreateProductRequest) ToEntity() *product.Product {
	return &product.Product{
		Name:         r.Name,
		Price:        r.Price,
		CurrencyCode: r.CurrencyCode,
		Category:     r.Category,
		SKU:          r.SKU,
		Stock:        r.Stock,
		Unit:         r.Unit,
		ImageURL:     r.ImageURL,
	}
}

// UpdateProductRequest is the request body for updating a product.
type UpdateProductRequest struct {
	Name         string          `json:"name" binding:"required"`
	Price        decimal.Decimal `json:"price"`
	CurrencyCode string          `json:"currencyCode"`
	Category     string          `json:"category"`
	SKU          string          `json:"sku"`
	Stock        int64           `json:"stock"`
	Unit         string          `json:"unit"`
	ImageURL     string          `json:"imageUrl"`
}

// ToEntity converts the DTO to a domain entity with the given ID.
func (r *UpdateProductRequest) ToEntity(productID int64) *product.Product {
	return &product.Product{
		ID:           productID,
		Name:         r.Name,
		Price:        r.Price,
		CurrencyCode: r.CurrencyCode,
		Category:     r.Category,
		SKU:          r.SKU,
		Stock:        r.Stock,
		Unit:         r.Unit,
		ImageURL:     r.ImageURL,
	}
}
