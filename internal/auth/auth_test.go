package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumetracker/internal/api"
	"resumetracker/internal/errors"
	"resumetracker/internal/session"
	"resumetracker/internal/types"
)

type fakeBackend struct {
	login  api.Result[types.LoginResponse]
	signup api.Result[types.SignupResponse]
	calls  int
}

func (f *fakeBackend) Login(ctx context.Context, username, password string) api.Result[types.LoginResponse] {
	f.calls++
	return f.login
}

func (f *fakeBackend) Signup(ctx context.Context, req types.SignupRequest) api.Result[types.SignupResponse] {
	f.calls++
	return f.signup
}

func signToken(t *testing.T, subject string, expires time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(expires.Add(-time.Hour)),
		ExpiresAt: jwt.NewNumericDate(expires),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestLoginStoresTokenAndUser(t *testing.T) {
	backend := &fakeBackend{login: api.Result[types.LoginResponse]{OK: true, Value: types.LoginResponse{Token: "tok"}}}
	store := session.NewMemoryStore(types.AuthSession{})
	svc := NewService(backend, store, nil)

	current, err := svc.Login(context.Background(), " ana ", "pw")
	require.NoError(t, err)
	assert.Equal(t, types.AuthSession{Token: "tok", User: types.UserData{Username: "ana"}}, current)

	stored, _ := store.Get()
	assert.Equal(t, current, stored)
}

func TestLoginFailureLeavesStoreUntouched(t *testing.T) {
	previous := types.AuthSession{Token: "old", User: types.UserData{Username: "bob"}}
	backend := &fakeBackend{login: api.Result[types.LoginResponse]{
		Err: errors.NewAuthError(errors.ErrCodeUnauthorized, errors.MsgLoginFailed, nil),
	}}
	store := session.NewMemoryStore(previous)
	svc := NewService(backend, store, nil)

	_, err := svc.Login(context.Background(), "ana", "wrong")
	require.Error(t, err)
	assert.Equal(t, errors.MsgLoginFailed, errors.Message(err))

	stored, _ := store.Get()
	assert.Equal(t, previous, stored)
}

func TestLoginRequiresCredentials(t *testing.T) {
	backend := &fakeBackend{}
	svc := NewService(backend, session.NewMemoryStore(types.AuthSession{}), nil)

	_, err := svc.Login(context.Background(), "  ", "pw")
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	_, err = svc.Login(context.Background(), "ana", "")
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	assert.Equal(t, 0, backend.calls)
}

func TestSignup(t *testing.T) {
	backend := &fakeBackend{signup: api.Result[types.SignupResponse]{OK: true, Value: types.SignupResponse{Message: "User registered successfully"}}}
	store := session.NewMemoryStore(types.AuthSession{})
	svc := NewService(backend, store, nil)

	message, err := svc.Signup(context.Background(), "ana", "ana@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "User registered successfully", message)

	stored, _ := store.Get()
	assert.False(t, stored.IsAuthenticated(), "signup does not log in")
}

func TestLogoutClearsTogether(t *testing.T) {
	store := session.NewMemoryStore(types.AuthSession{Token: "tok", User: types.UserData{Username: "ana"}})
	svc := NewService(&fakeBackend{}, store, nil)

	require.NoError(t, svc.Logout(context.Background()))

	stored, _ := store.Get()
	assert.Equal(t, types.AuthSession{}, stored)
	assert.False(t, svc.IsAuthenticated())
}

func TestIsAuthenticated(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		token    string
		expected bool
	}{
		{"no token", "", false},
		{"opaque token", "not-a-jwt", true},
		{"valid jwt", signToken(t, "ana", now.Add(time.Hour)), true},
		{"expired jwt", signToken(t, "ana", now.Add(-time.Minute)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := session.NewMemoryStore(types.AuthSession{Token: tt.token, User: types.UserData{Username: "ana"}})
			svc := NewService(&fakeBackend{}, store, nil)
			svc.now = func() time.Time { return now }
			assert.Equal(t, tt.expected, svc.IsAuthenticated())
		})
	}
}

func TestParseClaims(t *testing.T) {
	expires := time.Now().Add(time.Hour).Truncate(time.Second)
	claims, err := ParseClaims(signToken(t, "ana", expires))
	require.NoError(t, err)
	assert.Equal(t, "ana", claims.Subject)
	assert.True(t, claims.ExpiresAt.Equal(expires))
	assert.False(t, claims.Expired(time.Now()))

	_, err = ParseClaims("garbage")
	assert.Error(t, err)
}
