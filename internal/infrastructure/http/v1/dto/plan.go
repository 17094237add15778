package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"planbook/internal/domain/plan"
)

// --- Request DTOs ---

// CreatePlanRequest is the request body for creating a sales plan.
type CreatePlanRequest struct {
	Title             string          `json:"title" binding:"required"`
	Description       string          `json:"description"`
	StartDate         time.Time       `json:"startDate" binding:"required"`
	EndDate           time.Time       `json:"endDate" binding:"required"`
	TargetAmount      decimal.Decimal `json:"targetAmount"`
	Unit              string          `json:"unit"`
	ResponsiblePerson string          `json:"responsiblePerson"`
	Remarks           string          `json:"remarks"`
}

// ToEntity converts the DTO to a domain entity. Status, region and
// department are assigned by the service, not the caller.
func (r *CreatePlanRequest) ToEntity() *plan.SalesPlan {
	p := plan.New(r.Title)
	p.Description = r.Description
	p.StartDate = r.StartDate
	p.EndDate = r.EndDate
	p.TargetAmount = r.TargetAmount
	p.Unit = r.Unit
	p.ResponsiblePerson = r.ResponsiblePerson
	p.Remarks = r.Remarks
	return p
}

// UpdatePlanRequest is the request body for updating a sales plan.
type UpdatePlanRequest struct {
	Title             string          `json:"title" binding:"required"`
	Description       string          `json:"description"`
	StartDate         time.Time       `json:"startDate" binding:"required"`
	EndDate           time.Time       `json:"endDate" binding:"required"`
	TargetAmount      decimal.Decimal `json:"targetAmount"`
	Unit              string          `json:"unit"`
	ResponsiblePerson string          `json:"responsiblePerson"`
	Region            *string         `json:"region"`
	Department        *string         `json:"department"`
	Remarks           string          `json:"remarks"`
}

// ToEntity converts the DTO to a domain entity with the given ID.
func (r *UpdatePlanRequest) ToEntity(planID int64) *plan.SalesPlan {
	return &plan.SalesPlan{
		ID:                planID,
		Title:             r.Title,
		Description:       r.Description,
		StartDate:         r.StartDate,
		EndDate:           r.EndDate,
		TargetAmount:      r.TargetAmount,
		Unit:              r.Unit,
		ResponsiblePerson: r.ResponsiblePerson,
		Region:            r.Region,
		Department:        r.Department,
		Remarks:           r.Remarks,
	}
}

// --- Item DTOs ---

// CreateItemRequest is the request body for adding a plan item.
type CreateItemRequest struct {
	ProductID   int64           `json:"productId" binding:"required"`
	Quantity    int64           `json:"quantity" binding:"required"`
	TargetPrice decimal.Decimal `json:"targetPrice"`
	Discount    decimal.Decimal `json:"discount"`
	Notes       string          `json:"notes"`
}

// ToEntity converts the DTO to a domain entity owned by planID.
func (r *CreateItemRequest) ToEntity(planID int64) *plan.Item {
	return &plan.Item{
		SalesPlanID: planID,
		ProductID:   r.ProductID,
		Quantity:    r.Quantity,
		TargetPrice: r.TargetPrice,
		Discount:    r.Discount,
		Notes:       r.Notes,
	}
}

// UpdateItemRequest is the request body for updating a plan item.
type UpdateItemRequest struct {
	ProductID   int64           `json:"productId" binding:"required"`
	Quantity    int64           `json:"quantity" binding:"required"`
	TargetPrice decimal.Decimal `json:"targetPrice"`
	Discount    decimal.Decimal `json:"discount"`
	Notes       string          `json:"notes"`
}

// ToEntity converts the DTO to a domain entity with the given IDs.
func (r *UpdateItemRequest) ToEntity(itemID, planID int64) *plan.Item {
	return &plan.Item{
		ID:          itemID,
		SalesPlanID: planID,
		ProductID:   r.ProductID,
		Quantity:    r.Quantity,
		TargetPrice: r.TargetPrice,
		Discount:    r.Discount,
		Notes:       r.Notes,
	}
}
