package plan

import (
	"github.com/shopspring/decimal"

	"planbook/internal/core/apperror"
)

// Item is a line item of a sales plan. It references a product but does
// not own it; the owning plan cannot be deleted while items exist.
type Item struct {
	ID          int64           `db:"id" json:"id"`
	SalesPlanID int64           `db:"sales_plan_id" json:"salesPlanId"`
	ProductID   int64           `db:"product_id" json:"productId"`
	Quantity    int64           `db:"quantity" json:"quantity"`
	TargetPrice decimal.Decimal `db:"target_price" json:"targetPrice"`
	Discount    decimal.Decimal `db:"discount" json:"discount"`
	Notes       string          `db:"notes" json:"notes,omitempty"`
}

var hundred = decimal.NewFromInt(100)

// Validate checks line item invariants.
func (it *Item) Validate() error {
	if it.SalesPlanID == 0 {
		return apperror.NewValidation("sales plan reference is required").
			WithDetail("field", "salesPlanId")
	}

	if it.ProductID == 0 {
		return apperror.NewValidation("product reference is required").
			WithDetail("field", "productId")
	}

	if it.Quantity <= 0 {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity").
			WithDetail("value", it.Quantity)
	}

	if it.TargetPrice.IsNegative() {
		return apperror.NewValidation("target price must not be negative").
			WithDetail("field", "targetPrice").
			WithDetail("value", it.TargetPrice.String())
	}

	if it.Discount.IsNegative() || it.Discount.GreaterThan(hundred) {
		return apperror.NewValidation("discount must be between 0 and 100").
			WithDetail("field", "discount").
			WithDetail("value", it.Discount.String())
	}

	return nil
}
