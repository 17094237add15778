package auth

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"planbook/internal/core/apperror"
	"planbook/internal/core/principal"
	"planbook/pkg/logger"
)

// User is a stored account.
type User struct {
	ID           string  `db:"id" json:"id"`
	DisplayName  string  `db:"display_name" json:"displayName"`
	PasswordHash string  `db:"password_hash" json:"-"`
	Roles        []string `db:"roles" json:"roles"`
	Region       *string `db:"region" json:"region,omitempty"`
	Department   *string `db:"department" json:"department,omitempty"`
	Tenant       string  `db:"tenant" json:"tenant"`
	Locale       string  `db:"locale" json:"locale"`
}

// Principal converts the stored user to a request principal.
func (u *User) Principal() *principal.Principal {
	p := &principal.Principal{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Roles:       u.Roles,
		Tenant:      u.Tenant,
		Locale:      u.Locale,
	}
	if u.Region != nil {
		p.Region = *u.Region
	}
	if u.Department != nil {
		p.Department = *u.Department
	}
	return p
}

// UserRepository defines account persistence.
type UserRepository interface {
	GetByID(ctx context.Context, userID string) (*User, error)
}

// Service handles credential login.
type Service struct {
	users UserRepository
	jwt   *JWTService
}

// NewService creates the auth service.
func NewService(users UserRepository, jwt *JWTService) *Service {
	return &Service{users: users, jwt: jwt}
}

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	Token     string                `json:"token"`
	ExpiresAt time.Time             `json:"expiresAt"`
	User      *principal.Principal  `json:"user"`
}

// Login verifies credentials and issues an access token. A wrong user id
// and a wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, userID, password string) (*LoginResult, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthenticated("invalid username or password")
		}
		return nil, apperror.NewInternal(fmt.Errorf("load user %s: %w", userID, err))
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperror.NewUnauthenticated("invalid username or password")
	}

	p := user.Principal()
	token, expiresAt, err := s.jwt.GenerateAccessToken(p)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("issue token: %w", err))
	}

	logger.Info(ctx, "user logged in", "user_id", user.ID)
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: p}, nil
}
