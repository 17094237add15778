package handlers

import (
	"github.com/gin-gonic/gin"

	"planbook/internal/domain/plan"
	"planbook/internal/infrastructure/http/v1/dto"
)

// PlanHandler serves sales-plan endpoints.
type PlanHandler struct {
	base    *BaseHandler
	service *plan.Service
}

// NewPlanHandler creates the handler.
func NewPlanHandler(base *BaseHandler, service *plan.Service) *PlanHandler {
	return &PlanHandler{base: base, service: service}
}

// RegisterRoutes registers plan routes on the group.
func (h *PlanHandler) RegisterRoutes(rg *gin.RouterGroup) {
	plans := rg.Group("/plans")
	{
		plans.GET("", h.List)
		plans.POST("", h.Create)
		plans.GET("/:id", h.Get)
		plans.PUT("/:id", h.Update)
		plans.DELETE("/:id", h.Delete)
		plans.POST("/:id/complete", h.Complete)
		plans.POST("/:id/cancel", h.Cancel)

		plans.GET("/:id/items", h.ListItems)
		plans.POST("/:id/items", h.CreateItem)
		plans.PUT("/:id/items/:itemId", h.UpdateItem)
		plans.DELETE("/:id/items/:itemId", h.DeleteItem)
	}
}

// List handles GET /plans.
func (h *PlanHandler) List(c *gin.Context) {
	var query dto.ListQuery
	if !h.base.BindQuery(c, &query) {
		return
	}

	result, err := h.service.List(c.Request.Context(), query.ToFilter())
	if err != nil {
		h.base.Error(c, err)
		return
	}

	h.base.OK(c, dto.NewListResponse(result))
}

// Get handles GET /plans/:id.
func (h *PlanHandler) Get(c *gin.Context) {
	planID, ok := h.base.ParseIDParam(c, "id")
	if !ok {
		return
	}

	p, err := h.service.Get(c.Request.Context(), planID)
	if err != nil {
		h.base.Error(c, err)
		return
	}

	h.base.OK(c, p)
}

// Create handles POST /plans.
func (h *PlanHandler) Create(c *gin.Context) {
	var req dto.CreatePlanRequest
	if !h.base.BindJSON(c, &req) {
		return
	}

	p := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), p); err != nil {
		h.base.Error(c, err)
		return
	}

	h.base.Created(c, p.ID)
}

// Update handles PUT /plans/:id.
func (h *PlanHandler) Update(c *gin.Context) {
	planID, ok := h.base.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdatePlanRequest
	if !h.base.BindJSON(c, &req) {
		return
	}

	updated, err := h.service.Update(c.Request.Context(), req.ToEntity(planID))
	if err != nil {
		h.base.Error(c, err)
		return
	}

	h.base.OK(c, updated)
}

// Delete handles DELETE /plans/:id.
func (h *PlanHandler) Delete(c *gin.Context) {
	planID, ok := h.base.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), planID); err != nil {
		h.base.Error(c, err)
		return
	}

	h.base.NoContent(c)
}

// Complete handles POST /plans/:id/complete.
func (h *PlanHandler) Complete(c *gin.Context) {
	planID, ok := h.base.ParseIDParam(c, "id")
	if !ok {
		return
	}

	p, err := h.service.Complete(c.Request.Context(), planID)
	if err != nil {
		h.base.Error(c, err)
		return
	}

	h.base.OK(c, p)
}

// Cancel handles POST /plans/:id/cancel.
func (h *PlanHandler) Cancel(c *gin.Context) {
	planID, ok := h.base.ParseIDParam(c, "id")
	if !ok {
		return
	}

	p, err := h.service.Cancel(c.Request.Context(), planID)
	if err != nil {
		h.base.Error(c, err)
		return
	}

	h.base.OK(c, p)
}

// --- Items ---

// ListItems handles GET /plans/:id/items.
func (h *PlanHandler) ListItems(c *gin.Context) {
	planID, ok := h.base.ParseIDParam(c, "id")
	if !ok {
		return
	}

	items, err := h.service.ListItems(c.Request.Context(), planID)
	if err != nil {
		h.base.Error(c, err)
		return
	}
	if items == nil {
		items = []*plan.Item{}
	}

	h.base.OK(c, items)
}

// CreateItem handles POST /plans/:id/items.
func (h *PlanHandler) CreateItem(c *gin.Context) {
	planID, ok := h.base.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.CreateItemRequest
	if !h.base.BindJSON(c, &req) {
		return
	}

	it := req.ToEntity(planID)
	if err := h.service.CreateItem(c.Request.Context(), it); err != nil {
		h.base.Error(c, err)
		return
	}

	h.base.Created(c, it.ID)
}

// UpdateItem handles PUT /plans/:id/items/:itemId.
func (h *PlanHandler) UpdateItem(c *gin.Context) {
	planID, ok := h.base.ParseIDParam(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.base.ParseIDParam(c, "itemId")
	if !ok {
		return
	}

	var req dto.UpdateItemRequest
	if !h.base.BindJSON(c, &req) {
		return
	}

	updated, err := h.service.UpdateItem(c.Request.Context(), req.ToEntity(itemID, planID))
	if err != nil {
		h.base.Error(c, err)
		return
	}

	h.base.OK(c, updated)
}

// DeleteItem handles DELETE /plans/:id/items/:itemId.
func (h *PlanHandler) DeleteItem(c *gin.Context) {
	if _, ok := h.base.ParseIDParam(c, "id"); !ok {
		return
	}
	itemID, ok := h.base.ParseIDParam(c, "itemId")
	if !ok {
		return
	}

	if err := h.service.DeleteItem(c.Request.Context(), itemID); err != nil {
		h.base.Error(c, err)
		return
	}

	h.base.NoContent(c)
}
