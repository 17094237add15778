package handlers

import (
	"github.com/gin-gonic/gin"

	"planbook/internal/domain/product"
	"planbook/internal/infrastructure/http/v1/dto"
)

// ProductHandler serves product catalog endpoints.
type ProductHandler struct {
	base    *BaseHandler
	service *product.Service
}

// NewProductHandler creates the handler.
func NewProductHandler(base *BaseHandler, service *product.Service) *ProductHandler {
	return &ProductHandler{base: base, service: service}
}

// RegisterRoutes registers product routes on the group.
func (h *ProductHandler) RegisterRoutes(rg *gin.RouterGroup) {
	products := rg.Group("/products")
	{
		products.GET("", h.List)
		products.POST("", h.Create)
		products.GET("/:id", h.Get)
		products.PUT("/:id", h.Update)
		products.DELETE("/:id", h.Delete)
	}
}

// List handles GET /products.
func (h *ProductHandler) List(c *gin.Context) {
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

// Get handles GET /products/:id.
func (h *ProductHandler) Get(c *gin.Context) {
	productID, ok := h.base.ParseIDParam(c, "id")
	if !ok {
		return
	}

	p, err := h.service.Get(c.Request.Context(), productID)
	if err != nil {
		h.base.Error(c, err)
		return
	}

	h.base.OK(c, p)
}

// Create handles POST /products.
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
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

// Update handles PUT /products/:id.
func (h *ProductHandler) Update(c *gin.Context) {
	productID, ok := h.base.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateProductRequest
	if !h.base.BindJSON(c, &req) {
		return
	}

	updated, err := h.service.Update(c.Request.Context(), req.ToEntity(productID))
	if err != nil {
		h.base.Error(c, err)
		return
	}

	h.base.OK(c, updated)
}

// Delete handles DELETE /products/:id.
func (h *ProductHandler) Delete(c *gin.Context) {
	productID, ok := h.base.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), productID); err != nil {
		h.base.Error(c, err)
		return
	}

	h.base.NoContent(c)
}
