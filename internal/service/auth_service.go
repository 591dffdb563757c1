// Package service holds the business rules behind the HTTP handlers.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/babbageLabs/insta-lite/internal/cache"
	"github.com/babbageLabs/insta-lite/internal/middleware"
	"github.com/babbageLabs/insta-lite/internal/models"
	"github.com/babbageLabs/insta-lite/internal/repository"
	"github.com/babbageLabs/insta-lite/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// SignupInput is the signup request body.
type SignupInput struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,password"`
	Username string `json:"username" validate:"required,username"`
}

// LoginInput is the login request body.
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is returned by signup and login.
type AuthResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// TokenRevoker blacklists and checks token ids.
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type redisRevoker struct{}

func (redisRevoker) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	return cache.Revoke(ctx, jti, ttl)
}

func (redisRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return cache.IsRevoked(ctx, jti)
}

// AuthService registers users and manages access tokens.
type AuthService struct {
	userRepo   repository.UserRepository
	tokens     *middleware.TokenManager
	revoker    TokenRevoker
	bcryptCost int
}

// NewAuthService returns an AuthService that revokes tokens through Redis.
func NewAuthService(userRepo repository.UserRepository, tokens *middleware.TokenManager) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		tokens:     tokens,
		revoker:    redisRevoker{},
		bcryptCost: bcrypt.DefaultCost,
	}
}

// Signup creates the user and its profile together and returns a token.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	if err := validation.Struct(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{Email: in.Email, Password: string(hashed)}
	profile := &models.Profile{Username: in.Username}
	if err := s.userRepo.CreateWithProfile(ctx, user, profile); err != nil {
		return nil, err
	}
	user.Profile = profile

	return s.issue(user)
}

// Login checks credentials and returns a fresh token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if err := validation.Struct(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}

	return s.issue(user)
}

// Logout blacklists the token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, claims *middleware.AccessClaims) error {
	if claims == nil || claims.JTI == "" {
		return models.NewUnauthorizedError("Missing token")
	}
	ttl := time.Until(claims.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.revoker.Revoke(ctx, claims.JTI, ttl); err != nil {
		if errors.Is(err, cache.ErrUnavailable) {
			middleware.Logger.WarnContext(ctx, "logout without redis, token stays valid until expiry",
				slog.Uint64("user_id", uint64(claims.UserID)))
			return nil
		}
		return models.NewInternalError(err)
	}
	return nil
}

// Authenticate verifies a raw token and rejects blacklisted ones.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (*middleware.AccessClaims, error) {
	claims, err := s.tokens.Parse(raw)
	if err != nil {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}
	revoked, err := s.revoker.IsRevoked(ctx, claims.JTI)
	if err != nil {
		// Fail open on Redis errors.
		middleware.Logger.WarnContext(ctx, "token blacklist lookup failed", slog.String("error", err.Error()))
	}
	if revoked {
		return nil, models.NewUnauthorizedError("Token has been revoked")
	}
	return claims, nil
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, claims, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &AuthResult{Token: token, ExpiresAt: claims.ExpiresAt, User: user}, nil
}
