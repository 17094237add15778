// Package plan_repo provides the PostgreSQL implementation of the
// sales-plan repositories. Visibility scoping is translated to SQL here,
// so list queries return only rows the caller may see.
package plan_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"planbook/internal/core/apperror"
	"planbook/internal/domain"
	"planbook/internal/domain/access"
	"planbook/internal/domain/plan"
	"planbook/internal/infrastructure/storage/postgres"
)

const planTable = "sales_plans"

var planCols = []string{
	"id", "title", "description", "start_date", "end_date",
	"target_amount", "unit", "status", "responsible_person",
	"region", "department", "remarks",
	"created_at", "updated_at", "created_by", "updated_by",
}

// Compile-time check against the domain interface.
var _ plan.Repository = (*PlanRepo)(nil)

// PlanRepo is the PostgreSQL sales-plan repository.
type PlanRepo struct {
	txManager *postgres.TxManager
}

// NewPlanRepo creates the repository.
func NewPlanRepo(txManager *postgres.TxManager) *PlanRepo {
	return &PlanRepo{txManager: txManager}
}

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// scopePredicate translates a visibility scope into a WHERE predicate.
// Unrestricted means no predicate at all; an empty scope matches nothing.
// Otherwise the channels are OR-ed: region match, department match,
// explicit grants.
func scopePredicate(scope access.Scope) squirrel.Sqlizer {
	if scope.Unrestricted {
		return nil
	}
	if scope.Empty() {
		return squirrel.Expr("FALSE")
	}

	or := squirrel.Or{}
	if scope.Region != "" {
		or = append(or, squirrel.Eq{"region": scope.Region})
	}
	if scope.Department != "" {
		or = append(or, squirrel.Eq{"department": scope.Department})
	}
	if len(scope.PlanIDs) > 0 {
		or = append(or, squirrel.Eq{"id": scope.PlanIDs})
	}
	return or
}

// Create inserts a new plan and fills in the generated ID.
func (r *PlanRepo) Create(ctx context.Context, p *plan.SalesPlan) error {
	q := builder().
		Insert(planTable).
		Columns(planCols[1:]...).
		Values(
			p.Title, p.Description, p.StartDate, p.EndDate,
			p.TargetAmount, p.Unit, p.Status, p.ResponsiblePerson,
			p.Region, p.Department, p.Remarks,
			p.CreatedAt, p.UpdatedAt, p.CreatedBy, p.UpdatedBy,
		).
		Suffix("RETURNING id")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&p.ID); err != nil {
		return fmt.Errorf("insert %s: %w", planTable, err)
	}
	return nil
}

// GetByID retrieves one plan without visibility checks; callers apply
// the scope to the returned attributes.
func (r *PlanRepo) GetByID(ctx context.Context, planID int64) (*plan.SalesPlan, error) {
	q := builder().
		Select(planCols...).
		From(planTable).
		Where(squirrel.Eq{"id": planID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p plan.SalesPlan
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("sales plan", planID)
		}
		return nil, fmt.Errorf("get plan by id: %w", err)
	}
	return &p, nil
}

// Update overwrites all mutable columns of a plan.
func (r *PlanRepo) Update(ctx context.Context, p *plan.SalesPlan) error {
	q := builder().
		Update(planTable).
		SetMap(map[string]any{
			"title":              p.Title,
			"description":        p.Description,
			"start_date":         p.StartDate,
			"end_date":           p.EndDate,
			"target_amount":      p.TargetAmount,
			"unit":               p.Unit,
			"status":             p.Status,
			"responsible_person": p.ResponsiblePerson,
			"region":             p.Region,
			"department":         p.Department,
			"remarks":            p.Remarks,
			"updated_at":         p.UpdatedAt,
			"updated_by":         p.UpdatedBy,
		}).
		Where(squirrel.Eq{"id": p.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", planTable, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("sales plan", p.ID)
	}
	return nil
}

// Delete physically removes a plan.
func (r *PlanRepo) Delete(ctx context.Context, planID int64) error {
	q := builder().
		Delete(planTable).
		Where(squirrel.Eq{"id": planID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", planTable, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("sales plan", planID)
	}
	return nil
}

// List retrieves plans within the caller's scope, with filtering
// and pagination. TotalCount reflects the scoped, filtered set.
func (r *PlanRepo) List(ctx context.Context, scope access.Scope, filter domain.ListFilter) (domain.ListResult[*plan.SalesPlan], error) {
	result := domain.ListResult[*plan.SalesPlan]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := builder().
		Select(planCols...).
		From(planTable)

	if pred := scopePredicate(scope); pred != nil {
		q = q.Where(pred)
	}

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"title": pattern},
			squirrel.ILike{"description": pattern},
		})
	}
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"status": filter.Status})
	}
	if len(filter.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": filter.IDs})
	}

	// Count total before pagination
	countQ := builder().
		Select("COUNT(*)").
		FromSelect(q, "sub")

	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count plans: %w", err)
	}

	orderBy, err := parseOrderBy(filter.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy)

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
		return result, fmt.Errorf("list plans: %w", err)
	}

	return result, nil
}

// Exists checks whether a plan row exists.
func (r *PlanRepo) Exists(ctx context.Context, planID int64) (bool, error) {
	q := builder().
		Select("1").
		From(planTable).
		Where(squirrel.Eq{"id": planID}).
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
		return false, fmt.Errorf("plan exists: %w", err)
	}
	return true, nil
}

// parseOrderBy whitelists sort columns. "-field" sorts descending.
func parseOrderBy(orderBy string) (string, error) {
	allowed := map[string]struct{}{
		"id": {}, "title": {}, "start_date": {}, "end_date": {},
		"target_amount": {}, "status": {}, "region": {}, "department": {},
		"created_at": {}, "updated_at": {},
	}

	if orderBy == "" {
		return "created_at DESC", nil
	}

	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}

	field = strings.TrimSpace(field)
	if _, ok := allowed[field]; !ok {
		return "", apperror.NewValidation("invalid orderBy").
			WithDetail("orderBy", orderBy).
			WithDetail("field", field)
	}

	return field + " " + direction, nil
}
