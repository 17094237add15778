// Package auth_repo provides the PostgreSQL implementation of account
// storage used by login.
package auth_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"planbook/internal/core/apperror"
	"planbook/internal/domain/auth"
	"planbook/internal/infrastructure/storage/postgres"
)

const userTable = "users"

var userCols = []string{
	"id", "display_name", "password_hash", "roles",
	"region", "department", "tenant", "locale",
}

var _ auth.UserRepository = (*UserRepo)(nil)

// UserRepo is the PostgreSQL user repository.
type UserRepo struct {
	txManager *postgres.TxManager
}

// NewUserRepo creates the repository.
func NewUserRepo(txManager *postgres.TxManager) *UserRepo {
	return &UserRepo{txManager: txManager}
}

// GetByID retrieves one account. Roles are stored as a text array.
func (r *UserRepo) GetByID(ctx context.Context, userID string) (*auth.User, error) {
	q := squirrel.StatementBuilder.
		PlaceholderFormat(squirrel.Dollar).
		Select(userCols...).
		From(userTable).
		Where(squirrel.Eq{"id": userID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var u auth.User
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &u, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("user", userID)
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return &u, nil
}
