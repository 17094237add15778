package plan

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planbook/internal/core/apperror"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func validPlan() *SalesPlan {
	p := New("Q3 targets")
	p.StartDate = date(2025, 1, 1)
	p.EndDate = date(2025, 12, 31)
	p.TargetAmount = decimal.NewFromInt(100)
	return p
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SalesPlan)
		wantErr bool
	}{
		{
			name:   "valid plan",
			mutate: func(p *SalesPlan) {},
		},
		{
			name:    "missing title",
			mutate:  func(p *SalesPlan) { p.Title = "" },
			wantErr: true,
		},
		{
			name:    "end before start",
			mutate:  func(p *SalesPlan) { p.StartDate = date(2025, 6, 1); p.EndDate = date(2025, 5, 1) },
			wantErr: true,
		},
		{
			name:   "same day period",
			mutate: func(p *SalesPlan) { p.StartDate = date(2025, 6, 1); p.EndDate = date(2025, 6, 1) },
		},
		{
			name:    "zero target amount",
			mutate:  func(p *SalesPlan) { p.TargetAmount = decimal.Zero },
			wantErr: true,
		},
		{
			name:    "negative target amount",
			mutate:  func(p *SalesPlan) { p.TargetAmount = decimal.NewFromInt(-5) },
			wantErr: true,
		},
		{
			name:    "unknown status",
			mutate:  func(p *SalesPlan) { p.Status = Status("archived") },
			wantErr: true,
		},
		{
			name:   "caller supplied valid status",
			mutate: func(p *SalesPlan) { p.Status = StatusInProgress },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPlan()
			tt.mutate(p)

			err := p.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperror.IsValidation(err), "expected validation error, got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		wantErr bool
	}{
		{name: "draft to completed", from: StatusDraft, to: StatusCompleted},
		{name: "inProgress to completed", from: StatusInProgress, to: StatusCompleted},
		{name: "draft to cancelled", from: StatusDraft, to: StatusCancelled},
		{name: "inProgress to cancelled", from: StatusInProgress, to: StatusCancelled},
		{name: "already completed", from: StatusCompleted, to: StatusCompleted, wantErr: true},
		{name: "already cancelled", from: StatusCancelled, to: StatusCancelled, wantErr: true},
		{name: "completed is terminal", from: StatusCompleted, to: StatusCancelled, wantErr: true},
		{name: "cancelled is terminal", from: StatusCancelled, to: StatusCompleted, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPlan()
			p.Status = tt.from

			err := p.TransitionTo(tt.to)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperror.IsValidation(err))
				assert.Equal(t, tt.from, p.Status, "status must not change on rejection")
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.to, p.Status)
			}
		})
	}
}

func TestItemValidate(t *testing.T) {
	valid := func() *Item {
		return &Item{
			SalesPlanID: 1,
			ProductID:   2,
			Quantity:    10,
			TargetPrice: decimal.NewFromInt(99),
			Discount:    decimal.NewFromInt(15),
		}
	}

	t.Run("valid item", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("zero quantity", func(t *testing.T) {
		it := valid()
		it.Quantity = 0
		assert.True(t, apperror.IsValidation(it.Validate()))
	})

	t.Run("discount above 100", func(t *testing.T) {
		it := valid()
		it.Discount = decimal.NewFromInt(101)
		assert.True(t, apperror.IsValidation(it.Validate()))
	})

	t.Run("negative discount", func(t *testing.T) {
		it := valid()
		it.Discount = decimal.NewFromInt(-1)
		assert.True(t, apperror.IsValidation(it.Validate()))
	})

	t.Run("boundary discounts", func(t *testing.T) {
		it := valid()
		it.Discount = decimal.Zero
		assert.NoError(t, it.Validate())
		it.Discount = decimal.NewFromInt(100)
		assert.NoError(t, it.Validate())
	})

	t.Run("missing product", func(t *testing.T) {
		it := valid()
		it.ProductID = 0
		assert.True(t, apperror.IsValidation(it.Validate()))
	})
}
