// Package access provides the plan authorization core: the access-grant
// ledger and the policy deciding, per principal and per operation, whether
// a sales plan may be read, created, modified or deleted.
package access

import (
	"context"
	"time"

	"planbook/internal/core/apperror"
)

// Level is the access level recorded in a grant.
type Level string

const (
	LevelViewer Level = "viewer"
	LevelEditor Level = "editor"
	LevelOwner  Level = "owner"
)

// IsValid reports whether l is a defined access level.
func (l Level) IsValid() bool {
	switch l {
	case LevelViewer, LevelEditor, LevelOwner:
		return true
	}
	return false
}

// Grant is one ledger entry: (user, plan) -> access level.
// Unique per (UserID, SalesPlanID); upsert on grant, hard delete on revoke.
type Grant struct {
	UserID      string    `db:"user_id" json:"userId"`
	SalesPlanID int64     `db:"sales_plan_id" json:"salesPlanId"`
	Level       Level     `db:"access_level" json:"accessLevel"`
	GrantedBy   string    `db:"granted_by" json:"grantedBy,omitempty"`
	GrantedAt   time.Time `db:"granted_at" json:"grantedAt"`
}

// Validate checks grant invariants.
func (g *Grant) Validate() error {
	if g.UserID == "" {
		return apperror.NewValidation("user id is required").
			WithDetail("field", "userId")
	}
	if g.SalesPlanID == 0 {
		return apperror.NewValidation("sales plan reference is required").
			WithDetail("field", "salesPlanId")
	}
	if !g.Level.IsValid() {
		return apperror.NewValidation("invalid access level").
			WithDetail("field", "accessLevel").
			WithDetail("value", string(g.Level))
	}
	return nil
}

// Ledger is the persistent grant store. All operations run against the
// caller-supplied transaction from context, so a grant and the action
// that triggered it commit atomically.
type Ledger interface {
	// ListByUser returns all grants held by a user.
	ListByUser(ctx context.Context, userID string) ([]Grant, error)

	// Get returns the grant for (userID, planID), or nil if absent.
	Get(ctx context.Context, userID string, planID int64) (*Grant, error)

	// Upsert inserts the grant or updates the level of an existing one.
	Upsert(ctx context.Context, grant *Grant) error

	// Delete removes the grant. Deleting an absent grant is a no-op.
	Delete(ctx context.Context, userID string, planID int64) error

	// DeleteByPlan removes every grant referencing a plan.
	// Called when the plan itself is deleted.
	DeleteByPlan(ctx context.Context, planID int64) error
}
