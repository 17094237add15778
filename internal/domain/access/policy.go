package access

import (
	"context"
	"fmt"

	"planbook/internal/core/apperror"
	"planbook/internal/core/principal"
)

// Scope is the read-time visibility predicate computed for one principal.
// Visibility is additive across three independent channels: region match,
// department match, and explicit grants. A principal with none of them
// sees nothing (empty result set, not an error).
type Scope struct {
	// Unrestricted is set for admins: no filter at all.
	Unrestricted bool

	// Region limits visibility to plans in this region, when non-empty.
	Region string

	// Department limits visibility to plans in this department, when non-empty.
	Department string

	// PlanIDs are the plans explicitly granted to the principal.
	PlanIDs []int64
}

// Empty reports whether no visibility channel applies.
// Repositories translate an empty scope to a match-nothing predicate.
func (s Scope) Empty() bool {
	return !s.Unrestricted && s.Region == "" && s.Department == "" && len(s.PlanIDs) == 0
}

// AllowsPlan evaluates the scope against one plan's attributes.
// Used for single-record reads; list queries apply the same predicate in SQL.
func (s Scope) AllowsPlan(planID int64, region, department *string) bool {
	if s.Unrestricted {
		return true
	}
	if s.Region != "" && region != nil && *region == s.Region {
		return true
	}
	if s.Department != "" && department != nil && *department == s.Department {
		return true
	}
	for _, id := range s.PlanIDs {
		if id == planID {
			return true
		}
	}
	return false
}

// Policy is the authorization decision engine for sales plans.
// It consumes the principal, the grant ledger and plan attributes; it never
// mutates anything itself. Role-derived bypass (admin) is always checked
// first and short-circuits further evaluation.
type Policy struct {
	ledger Ledger
}

// NewPolicy creates a policy backed by the given ledger.
func NewPolicy(ledger Ledger) *Policy {
	return &Policy{ledger: ledger}
}

// ReadScope computes the visibility predicate for list and single reads.
func (p *Policy) ReadScope(ctx context.Context, pr *principal.Principal) (Scope, error) {
	if pr.IsAdmin() {
		return Scope{Unrestricted: true}, nil
	}

	scope := Scope{
		Region:     pr.Region,
		Department: pr.Department,
	}

	grants, err := p.ledger.ListByUser(ctx, pr.ID)
	if err != nil {
		return Scope{}, apperror.NewInternal(fmt.Errorf("list grants for %s: %w", pr.ID, err))
	}
	for _, g := range grants {
		scope.PlanIDs = append(scope.PlanIDs, g.SalesPlanID)
	}

	return scope, nil
}

// AuthorizeCreate decides CREATE: the caller must be authenticated and
// carry the editor role; admin bypasses the role check.
func (p *Policy) AuthorizeCreate(ctx context.Context, pr *principal.Principal) error {
	if pr.IsAnonymous() {
		return apperror.NewUnauthenticated("authentication required")
	}
	if pr.IsAdmin() {
		return nil
	}
	if !pr.HasRole(principal.RoleEditor) {
		return apperror.NewForbidden("creating sales plans requires the editor role")
	}
	return nil
}

// OwnerAttributes returns the region/department a newly created plan is
// stamped with. A caller cannot assign a plan to another org unit at
// creation time; nil means the attribute stays unset.
func (p *Policy) OwnerAttributes(pr *principal.Principal) (region, department *string) {
	if pr.HasRegion() {
		r := pr.Region
		region = &r
	}
	if pr.HasDepartment() {
		d := pr.Department
		department = &d
	}
	return region, department
}

// AuthorizeUpdate decides UPDATE of a single plan: admin bypasses all
// checks; otherwise the caller needs an explicit grant or an org-unit
// match (region or department) with the target plan.
func (p *Policy) AuthorizeUpdate(ctx context.Context, pr *principal.Principal, planID int64, region, department *string) error {
	if pr.IsAnonymous() {
		return apperror.NewUnauthenticated("authentication required")
	}
	if pr.IsAdmin() {
		return nil
	}
	return p.requireChannel(ctx, pr, planID, region, department, "modify")
}

// AuthorizeDelete decides DELETE: admin role is required regardless of
// ledger or org-unit match. A non-admin editor can update but never delete.
func (p *Policy) AuthorizeDelete(ctx context.Context, pr *principal.Principal) error {
	if pr.IsAnonymous() {
		return apperror.NewUnauthenticated("authentication required")
	}
	if !pr.IsAdmin() {
		return apperror.NewForbidden("deleting sales plans requires the admin role")
	}
	return nil
}

// AuthorizeGrantChange decides grant/revoke actions, the only writers of
// the ledger: admin only.
func (p *Policy) AuthorizeGrantChange(pr *principal.Principal) error {
	if pr.IsAnonymous() {
		return apperror.NewUnauthenticated("authentication required")
	}
	if !pr.IsAdmin() {
		return apperror.NewForbidden("managing plan access requires the admin role")
	}
	return nil
}

// requireChannel checks the three non-admin access channels in order:
// explicit grant, region match, department match.
func (p *Policy) requireChannel(ctx context.Context, pr *principal.Principal, planID int64, region, department *string, verb string) error {
	grant, err := p.ledger.Get(ctx, pr.ID, planID)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("lookup grant (%s, %d): %w", pr.ID, planID, err))
	}
	if grant != nil {
		return nil
	}

	if pr.HasRegion() && region != nil && *region == pr.Region {
		return nil
	}
	if pr.HasDepartment() && department != nil && *department == pr.Department {
		return nil
	}

	return apperror.NewForbidden(fmt.Sprintf("you may not %s this sales plan", verb)).
		WithDetail("plan_id", planID)
}
