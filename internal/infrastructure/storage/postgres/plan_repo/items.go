package plan_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"planbook/internal/core/apperror"
	"planbook/internal/domain/plan"
	"planbook/internal/infrastructure/storage/postgres"
)

const itemTable = "sales_plan_items"

var itemCols = []string{
	"id", "sales_plan_id", "product_id", "quantity",
	"target_price", "discount", "notes",
}

var _ plan.ItemRepository = (*ItemRepo)(nil)

// ItemRepo is the PostgreSQL sales-plan item repository.
type ItemRepo struct {
	txManager *postgres.TxManager
}

// NewItemRepo creates the repository.
func NewItemRepo(txManager *postgres.TxManager) *ItemRepo {
	return &ItemRepo{txManager: txManager}
}

// Create inserts a new item and fills in the generated ID.
func (r *ItemRepo) Create(ctx context.Context, it *plan.Item) error {
	q := builder().
		Insert(itemTable).
		Columns(itemCols[1:]...).
		Values(
			it.SalesPlanID, it.ProductID, it.Quantity,
			it.TargetPrice, it.Discount, it.Notes,
		).
		Suffix("RETURNING id")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&it.ID); err != nil {
		return fmt.Errorf("insert %s: %w", itemTable, err)
	}
	return nil
}

// GetByID retrieves one item.
func (r *ItemRepo) GetByID(ctx context.Context, itemID int64) (*plan.Item, error) {
	q := builder().
		Select(itemCols...).
		From(itemTable).
		Where(squirrel.Eq{"id": itemID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var it plan.Item
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &it, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("plan item", itemID)
		}
		return nil, fmt.Errorf("get item by id: %w", err)
	}
	return &it, nil
}

// Update overwrites an item's mutable columns. The owning plan is
// never changed here.
func (r *ItemRepo) Update(ctx context.Context, it *plan.Item) error {
	q := builder().
		Update(itemTable).
		SetMap(map[string]any{
			"product_id":   it.ProductID,
			"quantity":     it.Quantity,
			"target_price": it.TargetPrice,
			"discount":     it.Discount,
			"notes":        it.Notes,
		}).
		Where(squirrel.Eq{"id": it.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", itemTable, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("plan item", it.ID)
	}
	return nil
}

// Delete physically removes an item.
func (r *ItemRepo) Delete(ctx context.Context, itemID int64) error {
	q := builder().
		Delete(itemTable).
		Where(squirrel.Eq{"id": itemID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", itemTable, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("plan item", itemID)
	}
	return nil
}

// ListByPlan returns all items of one plan.
func (r *ItemRepo) ListByPlan(ctx context.Context, planID int64) ([]*plan.Item, error) {
	q := builder().
		Select(itemCols...).
		From(itemTable).
		Where(squirrel.Eq{"sales_plan_id": planID}).
		OrderBy("id ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*plan.Item
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// CountByPlan returns the number of items of one plan.
func (r *ItemRepo) CountByPlan(ctx context.Context, planID int64) (int64, error) {
	q := builder().
		Select("COUNT(*)").
		From(itemTable).
		Where(squirrel.Eq{"sales_plan_id": planID})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var count int64
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return count, nil
}
