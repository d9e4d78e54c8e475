// Package auth writes the persisted auth session: login, signup and logout.
package auth

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"resumetracker/internal/api"
	"resumetracker/internal/errors"
	"resumetracker/internal/session"
	"resumetracker/internal/types"
)

// Backend is the subset of the API client used for authentication
type Backend interface {
	Login(ctx context.Context, username, password string) api.Result[types.LoginResponse]
	Signup(ctx context.Context, req types.SignupRequest) api.Result[types.SignupResponse]
}

// Claims are the token claims shown to the user. They are decoded without
// verification; the backend remains the authority on validity.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry in the past
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// Service manages the auth session
type Service struct {
	backend Backend
	store   session.CredentialStore
	logger  *errors.Logger
	now     func() time.Time
}

// NewService creates an auth service
func NewService(backend Backend, store session.CredentialStore, logger *errors.Logger) *Service {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	return &Service{backend: backend, store: store, logger: logger, now: time.Now}
}

// Login exchanges credentials for a token and persists the session
func (s *Service) Login(ctx context.Context, username, password string) (types.AuthSession, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return types.AuthSession{}, errors.NewValidationError(errors.ErrCodeInvalidRequest, "Username and password are required", nil)
	}

	result := s.backend.Login(ctx, username, password)
	if !result.OK {
		return types.AuthSession{}, result.Err
	}

	current := types.AuthSession{Token: result.Value.Token, User: types.UserData{Username: username}}
	if err := s.store.Set(current); err != nil {
		return types.AuthSession{}, errors.NewIOError(errors.ErrCodeCredentialStore, "Failed to store session", err)
	}

	s.logger.Info("Logged in", "username", username)
	return current, nil
}

// Signup registers an account; it does not log in
func (s *Service) Signup(ctx context.Context, username, email, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", errors.NewValidationError(errors.ErrCodeInvalidRequest, "Username and password are required", nil)
	}

	result := s.backend.Signup(ctx, types.SignupRequest{
		Username: username,
		Email:    strings.TrimSpace(email),
		Password: password,
	})
	if !result.OK {
		return "", result.Err
	}
	return result.Value.Message, nil
}

// Logout clears token and user together. The backend keeps no session.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.store.Clear(); err != nil {
		return errors.NewIOError(errors.ErrCodeCredentialStore, "Failed to clear session", err)
	}
	s.logger.Debug("Logged out")
	return nil
}

// Current returns the stored session
func (s *Service) Current() (types.AuthSession, error) {
	current, err := s.store.Get()
	if err != nil {
		return types.AuthSession{}, errors.NewIOError(errors.ErrCodeCredentialStore, "Failed to read session", err)
	}
	return current, nil
}

// IsAuthenticated reports whether a usable token is stored
func (s *Service) IsAuthenticated() bool {
	current, err := s.Current()
	if err != nil || !current.IsAuthenticated() {
		return false
	}
	claims, err := ParseClaims(current.Token)
	if err != nil {
		// opaque tokens are accepted as-is
		return true
	}
	return !claims.Expired(s.now())
}

// ParseClaims decodes the registered claims of a JWT without verifying it
func ParseClaims(token string) (Claims, error) {
	var registered jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &registered); err != nil {
		return Claims{}, errors.NewValidationError(errors.ErrCodeInvalidFormat, "Token is not a JWT", err)
	}

	claims := Claims{Subject: registered.Subject}
	if registered.IssuedAt != nil {
		claims.IssuedAt = registered.IssuedAt.Time
	}
	if registered.ExpiresAt != nil {
		claims.ExpiresAt = registered.ExpiresAt.Time
	}
	return claims, nil
}
