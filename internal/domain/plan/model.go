// Package plan provides the SalesPlan aggregate: structural validation,
// the status lifecycle, and the plan service orchestrating authorization,
// validation and persistence around each operation.
package plan

import (
	"time"

	"github.com/shopspring/decimal"

	"planbook/internal/core/apperror"
)

// Status is the lifecycle state of a sales plan.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusInProgress Status = "inProgress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// IsValid reports whether s is a defined status value.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether s permits no further transition.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// SalesPlan is a sales target for a period, owned by an org unit
// (region/department) and optionally shared through access grants.
type SalesPlan struct {
	ID                int64           `db:"id" json:"id"`
	Title             string          `db:"title" json:"title"`
	Description       string          `db:"description" json:"description,omitempty"`
	StartDate         time.Time       `db:"start_date" json:"startDate"`
	EndDate           time.Time       `db:"end_date" json:"endDate"`
	TargetAmount      decimal.Decimal `db:"target_amount" json:"targetAmount"`
	Unit              string          `db:"unit" json:"unit,omitempty"`
	Status            Status          `db:"status" json:"status"`
	ResponsiblePerson string          `db:"responsible_person" json:"responsiblePerson,omitempty"`
	Region            *string         `db:"region" json:"region,omitempty"`
	Department        *string         `db:"department" json:"department,omitempty"`
	Remarks           string          `db:"remarks" json:"remarks,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy,omitempty"`
}

// New creates a SalesPlan in draft status with timestamps set.
func New(title string) *SalesPlan {
	now := time.Now().UTC()
	return &SalesPlan{
		Title:     title,
		Status:    StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks structural invariants. These apply to every caller,
// including admin: role bypass never skips an invalid-data rejection.
func (p *SalesPlan) Validate() error {
	if p.Title == "" {
		return apperror.NewValidation("title is required").
			WithDetail("field", "title")
	}

	if p.StartDate.IsZero() || p.EndDate.IsZero() {
		return apperror.NewValidation("start and end dates are required").
			WithDetail("field", "startDate")
	}

	if p.StartDate.After(p.EndDate) {
		return apperror.NewValidation("start date must not be after end date").
			WithDetail("startDate", p.StartDate.Format("2006-01-02")).
			WithDetail("endDate", p.EndDate.Format("2006-01-02"))
	}

	if !p.TargetAmount.IsPositive() {
		return apperror.NewValidation("target amount must be positive").
			WithDetail("field", "targetAmount").
			WithDetail("value", p.TargetAmount.String())
	}

	if !p.Status.IsValid() {
		return apperror.NewValidation("invalid status").
			WithDetail("field", "status").
			WithDetail("value", string(p.Status))
	}

	return nil
}

// Touch updates the UpdatedAt timestamp.
func (p *SalesPlan) Touch() {
	p.UpdatedAt = time.Now().UTC()
}

// TransitionTo moves the plan to target. Rejects a redundant transition
// (already in target) and any transition out of a terminal state.
func (p *SalesPlan) TransitionTo(target Status) error {
	if p.Status == target {
		return apperror.NewValidation("plan is already "+string(target)).
			WithDetail("status", string(p.Status))
	}
	if p.Status.IsTerminal() {
		return apperror.NewValidation("plan is "+string(p.Status)+" and cannot change status").
			WithDetail("status", string(p.Status)).
			WithDetail("requested", string(target))
	}
	p.Status = target
	p.Touch()
	return nil
}
