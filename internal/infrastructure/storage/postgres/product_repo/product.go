// Package product_repo provides the PostgreSQL implementation of the
// product catalog repository.
package product_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"planbook/internal/core/apperror"
	"planbook/internal/domain"
	"planbook/internal/domain/product"
	"planbook/internal/infrastructure/storage/postgres"
)

const productTable = "products"

var productCols = []string{
	"id", "name", "price", "currency_code", "category",
	"sku", "stock", "unit", "image_url",
}

var _ product.Repository = (*ProductRepo)(nil)

// ProductRepo is the PostgreSQL product repository.
type ProductRepo struct {
	txManager *postgres.TxManager
}

// NewProductRepo creates the repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{txManager: txManager}
}

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Create inserts a new product and fills in the generated ID.
func (r *ProductRepo) Create(ctx context.Context, p *product.Product) error {
	q := builder().
		Insert(productTable).
		Columns(productCols[1:]...).
		Values(
			p.Name, p.Price, p.CurrencyCode, p.Category,
			p.SKU, p.Stock, p.Unit, p.ImageURL,
		).
		Suffix("RETURNING id")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&p.ID); err != nil {
		return fmt.Errorf("insert %s: %w", productTable, err)
	}
	return nil
}

// GetByID retrieves one product.
func (r *ProductRepo) GetByID(ctx context.Context, productID int64) (*product.Product, error) {
	q := builder().
		Select(productCols...).
		From(productTable).
		Where(squirrel.Eq{"id": productID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p product.Product
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", productID)
		}
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	return &p, nil
}

// Update overwrites a product's columns.
func (r *ProductRepo) Update(ctx context.Context, p *product.Product) error {
	q := builder().
		Update(productTable).
		SetMap(map[string]any{
			"name":          p.Name,
			"price":         p.Price,
			"currency_code": p.CurrencyCode,
			"category":      p.Category,
			"sku":           p.SKU,
			"stock":         p.Stock,
			"unit":          p.Unit,
			"image_url":     p.ImageURL,
		}).
		Where(squirrel.Eq{"id": p.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", productTable, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("product", p.ID)
	}
	return nil
}

// Delete physically removes a product.
func (r *ProductRepo) Delete(ctx context.Context, productID int64) error {
	q := builder().
		Delete(productTable).
		Where(squirrel.Eq{"id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", productTable, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("product", productID)
	}
	return nil
}

// List retrieves products with filtering and pagination.
func (r *ProductRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*product.Product], error) {
	result := domain.ListResult[*product.Product]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := builder().
		Select(productCols...).
		From(productTable)

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"sku": pattern},
		})
	}
	if len(filter.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": filter.IDs})
	}

	countQ := builder().
		Select("COUNT(*)").
		FromSelect(q, "sub")

	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count products: %w", err)
	}

	q = q.OrderBy("name ASC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list products: %w", err)
	}

	return result, nil
}

// Exists checks whether a product row exists.
func (r *ProductRepo) Exists(ctx context.Context, productID int64) (bool, error) {
	q := builder().
		Select("1").
		From(productTable).
		Where(squirrel.Eq{"id": productID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var exists int
	err = r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&exists)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("product exists: %w", err)
	}
	return true, nil
}

// CountPlanItemRefs returns how many plan items reference the product.
func (r *ProductRepo) CountPlanItemRefs(ctx context.Context, productID int64) (int64, error) {
	q := builder().
		Select("COUNT(*)").
		From("sales_plan_items").
		Where(squirrel.Eq{"product_id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var count int64
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count item refs: %w", err)
	}
	return count, nil
}
