package plan

import (
	"context"

	"planbook/internal/domain"
	"planbook/internal/domain/access"
)

// Repository defines persistence for sales plans. Implementations obtain
// the active transaction from context.
type Repository interface {
	// Create inserts the plan and assigns its generated ID.
	Create(ctx context.Context, p *SalesPlan) error

	// GetByID retrieves a plan, or a NotFound error.
	GetByID(ctx context.Context, planID int64) (*SalesPlan, error)

	// Update overwrites the stored plan. Last writer wins.
	Update(ctx context.Context, p *SalesPlan) error

	// Delete physically removes the plan.
	Delete(ctx context.Context, planID int64) error

	// List retrieves plans visible within scope, narrowed by filter.
	// The scope predicate is combined with the caller's filter via AND.
	List(ctx context.Context, scope access.Scope, filter domain.ListFilter) (domain.ListResult[*SalesPlan], error)

	// Exists checks if a plan exists.
	Exists(ctx context.Context, planID int64) (bool, error)
}

// ItemRepository defines persistence for plan line items.
type ItemRepository interface {
	// Create inserts the item and assigns its generated ID.
	Create(ctx context.Context, it *Item) error

	// GetByID retrieves an item, or a NotFound error.
	GetByID(ctx context.Context, itemID int64) (*Item, error)

	// Update overwrites the stored item.
	Update(ctx context.Context, it *Item) error

	// Delete physically removes the item.
	Delete(ctx context.Context, itemID int64) error

	// ListByPlan returns all items owned by a plan.
	ListByPlan(ctx context.Context, planID int64) ([]*Item, error)

	// CountByPlan returns the number of items owned by a plan.
	// Drives the plan delete precondition.
	CountByPlan(ctx context.Context, planID int64) (int64, error)
}

// ProductChecker reports whether a product exists. Satisfied by the
// product repository.
type ProductChecker interface {
	Exists(ctx context.Context, productID int64) (bool, error)
}
