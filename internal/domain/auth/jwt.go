// Package auth provides authentication: credential login and the JWT
// tokens from which each request's principal is resolved.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"planbook/internal/core/principal"
)

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret         string
	Issuer         string
	AccessTokenTTL time.Duration
}

// DefaultJWTConfig returns default JWT configuration.
func DefaultJWTConfig(secret string) JWTConfig {
	return JWTConfig{
		Secret:         secret,
		Issuer:         "planbook",
		AccessTokenTTL: 8 * time.Hour,
	}
}

// Claims represents JWT claims carried for a principal.
type Claims struct {
	jwt.RegisteredClaims
	UserID      string   `json:"uid"`
	DisplayName string   `json:"name"`
	Roles       []string `json:"roles"`
	Region      string   `json:"region,omitempty"`
	Department  string   `json:"dept,omitempty"`
	Tenant      string   `json:"tenant"`
	Locale      string   `json:"locale,omitempty"`
}

// JWTService signs and validates access tokens.
type JWTService struct {
	config JWTConfig
}

// NewJWTService creates a new JWT service.
func NewJWTService(config JWTConfig) *JWTService {
	return &JWTService{config: config}
}

// GenerateAccessToken signs a token for the given principal.
func (s *JWTService) GenerateAccessToken(p *principal.Principal) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.config.AccessTokenTTL)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID:      p.ID,
		DisplayName: p.DisplayName,
		Roles:       p.Roles,
		Region:      p.Region,
		Department:  p.Department,
		Tenant:      p.Tenant,
		Locale:      p.Locale,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// ValidateToken validates a token and reconstructs the principal.
func (s *JWTService) ValidateToken(tokenString string) (*principal.Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return &principal.Principal{
		ID:          claims.UserID,
		DisplayName: claims.DisplayName,
		Roles:       claims.Roles,
		Region:      claims.Region,
		Department:  claims.Department,
		Tenant:      claims.Tenant,
		Locale:      claims.Locale,
	}, nil
}
