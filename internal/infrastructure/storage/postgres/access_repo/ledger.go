// Package access_repo provides the PostgreSQL implementation of the
// access-grant ledger. One row per (user, plan); grants upsert on
// conflict and revokes delete the row.
package access_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"planbook/internal/domain/access"
	"planbook/internal/infrastructure/storage/postgres"
)

const grantTable = "user_plan_access"

var grantCols = []string{
	"user_id", "sales_plan_id", "access_level", "granted_by", "granted_at",
}

var _ access.Ledger = (*LedgerRepo)(nil)

// LedgerRepo is the PostgreSQL grant ledger.
type LedgerRepo struct {
	txManager *postgres.TxManager
}

// NewLedgerRepo creates the ledger repository.
func NewLedgerRepo(txManager *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{txManager: txManager}
}

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// ListByUser returns all grants held by a user.
func (r *LedgerRepo) ListByUser(ctx context.Context, userID string) ([]access.Grant, error) {
	q := builder().
		Select(grantCols...).
		From(grantTable).
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("granted_at DESC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var grants []access.Grant
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &grants, sql, args...); err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}
	return grants, nil
}

// Get returns the grant for (userID, planID), or nil if absent.
func (r *LedgerRepo) Get(ctx context.Context, userID string, planID int64) (*access.Grant, error) {
	q := builder().
		Select(grantCols...).
		From(grantTable).
		Where(squirrel.Eq{"user_id": userID}).
		Where(squirrel.Eq{"sales_plan_id": planID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var g access.Grant
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &g, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get grant: %w", err)
	}
	return &g, nil
}

// Upsert inserts the grant or updates the level of an existing one.
// Last writer wins on concurrent grants for the same (user, plan).
func (r *LedgerRepo) Upsert(ctx context.Context, grant *access.Grant) error {
	q := builder().
		Insert(grantTable).
		Columns(grantCols...).
		Values(grant.UserID, grant.SalesPlanID, grant.Level, grant.GrantedBy, grant.GrantedAt).
		Suffix(`ON CONFLICT (user_id, sales_plan_id)
			DO UPDATE SET access_level = EXCLUDED.access_level,
			              granted_by = EXCLUDED.granted_by,
			              granted_at = EXCLUDED.granted_at`)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert grant: %w", err)
	}
	return nil
}

// Delete removes the grant. Deleting an absent grant is a no-op.
func (r *LedgerRepo) Delete(ctx context.Context, userID string, planID int64) error {
	q := builder().
		Delete(grantTable).
		Where(squirrel.Eq{"user_id": userID}).
		Where(squirrel.Eq{"sales_plan_id": planID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete grant: %w", err)
	}
	return nil
}

// DeleteByPlan removes every grant referencing a plan.
func (r *LedgerRepo) DeleteByPlan(ctx context.Context, planID int64) error {
	q := builder().
		Delete(grantTable).
		Where(squirrel.Eq{"sales_plan_id": planID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete grants for plan: %w", err)
	}
	return nil
}
