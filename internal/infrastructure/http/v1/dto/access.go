package dto

import (
	"planbook/internal/domain/access"
)

// GrantRequest is the request body for granting plan access.
type GrantRequest struct {
	UserID string       `json:"userId" binding:"required"`
	Level  access.Level `json:"accessLevel" binding:"required"`
}

// RevokeRequest is the request body for revoking plan access.
type RevokeRequest struct {
	UserID string `json:"userId" binding:"required"`
}
