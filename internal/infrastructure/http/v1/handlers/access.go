package handlers

import (
	"github.com/gin-gonic/gin"

	"planbook/internal/domain/access"
	"planbook/internal/infrastructure/http/v1/dto"
)

// AccessHandler serves grant management endpoints.
type AccessHandler struct {
	base    *BaseHandler
	service *access.Service
}

// NewAccessHandler creates the handler.
func NewAccessHandler(base *BaseHandler, service *access.Service) *AccessHandler {
	return &AccessHandler{base: base, service: service}
}

// RegisterRoutes registers access routes. Grants are managed per plan;
// a user's grant list is exposed for administration.
func (h *AccessHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/plans/:id/access", h.Grant)
	rg.DELETE("/plans/:id/access/:userId", h.Revoke)
	rg.GET("/users/:userId/access", h.ListForUser)
}

// Grant handles POST /plans/:id/access.
func (h *AccessHandler) Grant(c *gin.Context) {
	planID, ok := h.base.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.GrantRequest
	if !h.base.BindJSON(c, &req) {
		return
	}

	if err := h.service.Grant(c.Request.Context(), req.UserID, planID, req.Level); err != nil {
		h.base.Error(c, err)
		return
	}

	h.base.Success(c, "access granted")
}

// Revoke handles DELETE /plans/:id/access/:userId.
func (h *AccessHandler) Revoke(c *gin.Context) {
	planID, ok := h.base.ParseIDParam(c, "id")
	if !ok {
		return
	}
	userID := c.Param("userId")

	if err := h.service.Revoke(c.Request.Context(), userID, planID); err != nil {
		h.base.Error(c, err)
		return
	}

	h.base.NoContent(c)
}

// ListForUser handles GET /users/:userId/access.
func (h *AccessHandler) ListForUser(c *gin.Context) {
	userID := c.Param("userId")

	grants, err := h.service.ListForUser(c.Request.Context(), userID)
	if err != nil {
		h.base.Error(c, err)
		return
	}
	if grants == nil {
		grants = []access.Grant{}
	}

	h.base.OK(c, grants)
}
