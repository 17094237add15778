package handlers

import (
	"github.com/gin-gonic/gin"

	"planbook/internal/core/principal"
	"planbook/internal/domain/auth"
	"planbook/internal/infrastructure/http/v1/dto"
)

// AuthHandler serves login and identity endpoints.
type AuthHandler struct {
	base    *BaseHandler
	service *auth.Service
}

// NewAuthHandler creates the handler.
func NewAuthHandler(base *BaseHandler, service *auth.Service) *AuthHandler {
	return &AuthHandler{base: base, service: service}
}

// RegisterRoutes registers auth routes. Login is public; identity
// endpoints require an authenticated caller.
func (h *AuthHandler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.POST("/login", h.Login)
	protected.GET("/me", h.Me)
	protected.POST("/logout", h.Logout)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.base.BindJSON(c, &req) {
		return
	}

	result, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.base.Error(c, err)
		return
	}

	h.base.OK(c, result)
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	h.base.OK(c, principal.Current(c.Request.Context()))
}

// Logout handles POST /auth/logout. Tokens are stateless, so logout is
// the client discarding its token; the endpoint exists for symmetry.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.base.Success(c, "logged out")
}
