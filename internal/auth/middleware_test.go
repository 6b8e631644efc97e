package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PhunnMoc/multiple-choice-quizzes-BE/internal/auth/jwt"
)

// claimsCapture records what the wrapped handler saw.
type claimsCapture struct {
	called bool
	claims *jwt.Claims
}

func (c *claimsCapture) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.called = true
		c.claims = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddlewareAnonymousPassThrough(t *testing.T) {
	svc, _ := newTestService()
	capture := &claimsCapture{}
	handler := Middleware(svc, zerolog.Nop())(capture.handler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, capture.called)
	assert.Nil(t, capture.claims)
}

func TestMiddlewareAttachesClaims(t *testing.T) {
	svc, _ := newTestService()
	user, tokens, err := svc.CreateGuest(context.Background(), GuestRequest{DisplayName: "Middle"})
	require.NoError(t, err)

	capture := &claimsCapture{}
	handler := Middleware(svc, zerolog.Nop())(capture.handler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, capture.claims)
	assert.Equal(t, user.ID, capture.claims.UserID)
	assert.True(t, capture.claims.IsGuest)
}

func TestMiddlewareRejectsBadToken(t *testing.T) {
	svc, _ := newTestService()
	capture := &claimsCapture{}
	handler := Middleware(svc, zerolog.Nop())(capture.handler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, capture.called)
	assert.Contains(t, rec.Body.String(), "invalid_token")
}

func TestMiddlewareRejectsNonBearerHeader(t *testing.T) {
	svc, _ := newTestService()
	capture := &claimsCapture{}
	handler := Middleware(svc, zerolog.Nop())(capture.handler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, capture.called)
}

func TestRequireAuth(t *testing.T) {
	svc, _ := newTestService()
	_, tokens, err := svc.CreateGuest(context.Background(), GuestRequest{})
	require.NoError(t, err)

	capture := &claimsCapture{}
	handler := Middleware(svc, zerolog.Nop())(RequireAuth(capture.handler()))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, capture.called)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, capture.called)
}

func TestRequireRegistered(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, guestTokens, err := svc.CreateGuest(ctx, GuestRequest{})
	require.NoError(t, err)
	_, userTokens, err := svc.Register(ctx, RegisterRequest{
		Email:       "gate@example.com",
		Password:    "superbsecret",
		DisplayName: "Gate",
	})
	require.NoError(t, err)

	capture := &claimsCapture{}
	handler := Middleware(svc, zerolog.Nop())(RequireRegistered(capture.handler()))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+guestTokens.AccessToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, capture.called)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+userTokens.AccessToken)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, capture.called)
}
