// Package product provides the product catalog. Products are referenced,
// never owned, by sales plan items.
package product

import (
	"context"

	"github.com/shopspring/decimal"

	"planbook/internal/core/apperror"
	"planbook/internal/domain"
)

// Product is one catalog entry.
type Product struct {
	ID           int64           `db:"id" json:"id"`
	Name         string          `db:"name" json:"name"`
	Price        decimal.Decimal `db:"price" json:"price"`
	CurrencyCode string          `db:"currency_code" json:"currencyCode"`
	Category     string          `db:"category" json:"category,omitempty"`
	SKU          string          `db:"sku" json:"sku,omitempty"`
	Stock        int64           `db:"stock" json:"stock"`
	Unit         string          `db:"unit" json:"unit,omitempty"`
	ImageURL     string          `db:"image_url" json:"imageUrl,omitempty"`
}

// Validate checks product invariants.
func (p *Product) Validate() error {
	if p.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	if p.Price.IsNegative() {
		return apperror.NewValidation("price must not be negative").
			WithDetail("field", "price").
			WithDetail("value", p.Price.String())
	}
	if p.Stock < 0 {
		return apperror.NewValidation("stock must not be negative").
			WithDetail("field", "stock")
	}
	return nil
}

// Repository defines product persistence.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, productID int64) (*Product, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, productID int64) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Product], error)
	Exists(ctx context.Context, productID int64) (bool, error)

	// CountPlanItemRefs returns how many plan items reference the product.
	// A referenced product cannot be deleted.
	CountPlanItemRefs(ctx context.Context, productID int64) (int64, error)
}
