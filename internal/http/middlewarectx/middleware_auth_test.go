package middlewarectx_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/freight-access/internal/http/middlewarectx"
	"github.com/magabrotheeeer/freight-access/internal/models"
)

type ResolverMock struct {
	mock.Mock
}

func (m *ResolverMock) Resolve(ctx context.Context, token string) (*models.Identity, error) {
	args := m.Called(ctx, token)
	identity, _ := args.Get(0).(*models.Identity)
	return identity, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestIdentityMiddleware(t *testing.T) {
	driver := &models.Identity{UserID: "driver-1", Role: models.RoleDriver}

	tests := []struct {
		name         string
		authHeader   string
		setupMock    func(*ResolverMock)
		wantIdentity *models.Identity
		wantStatus   int
	}{
		{
			name:       "missing Authorization header",
			authHeader: "",
			setupMock:  func(_ *ResolverMock) {},
		},
		{
			name:       "invalid Authorization header prefix",
			authHeader: "Basic sometoken",
			setupMock:  func(_ *ResolverMock) {},
		},
		{
			name:       "token rejected",
			authHeader: "Bearer bad",
			setupMock: func(m *ResolverMock) {
				m.On("Resolve", mock.Anything, "bad").Return(nil, models.ErrUnauthenticated)
			},
		},
		{
			name:       "profile lookup error",
			authHeader: "Bearer token",
			setupMock: func(m *ResolverMock) {
				m.On("Resolve", mock.Anything, "token").
					Return(nil, fmt.Errorf("identity.Resolve: %w: %w", models.ErrLookupFailed, errors.New("db down")))
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "valid token",
			authHeader: "Bearer validtoken",
			setupMock: func(m *ResolverMock) {
				m.On("Resolve", mock.Anything, "validtoken").Return(driver, nil)
			},
			wantIdentity: driver,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := new(ResolverMock)
			tt.setupMock(resolver)

			var (
				called bool
				got    *models.Identity
			)
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				got, _ = middlewarectx.IdentityFrom(r.Context())
				w.WriteHeader(http.StatusOK)
			})
			handler := middlewarectx.IdentityMiddleware(resolver, newNoopLogger())(next)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/check-access", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if tt.wantStatus == http.StatusInternalServerError {
				assert.False(t, called, "lookup failure must not reach the handler as anonymous")
				assert.Equal(t, http.StatusInternalServerError, w.Code)
				assert.Contains(t, w.Body.String(), "could not resolve identity")
				assert.NotContains(t, w.Body.String(), "db down")
			} else {
				assert.True(t, called, "rejected or missing token continues as anonymous")
				assert.Equal(t, http.StatusOK, w.Code)
			}
			assert.Equal(t, tt.wantIdentity, got)
			resolver.AssertExpectations(t)
		})
	}
}

func TestRequireIdentity(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := middlewarectx.RequireIdentity(newNoopLogger())(next)

	t.Run("without identity", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/record-contact-view", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "missing or invalid authorization header")
	})

	t.Run("with identity", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/record-contact-view", nil)
		req = req.WithContext(middlewarectx.WithIdentity(req.Context(),
			&models.Identity{UserID: "driver-1", Role: models.RoleDriver}))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := middlewarectx.NewRateLimiter(0.001, 2)
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := middlewarectx.RateLimitMiddleware(limiter, newNoopLogger())(next)

	send := func(userID string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil)
		if userID != "" {
			req = req.WithContext(middlewarectx.WithIdentity(req.Context(),
				&models.Identity{UserID: userID, Role: models.RoleDriver}))
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("a"))
	assert.Equal(t, http.StatusOK, send("a"))
	assert.Equal(t, http.StatusTooManyRequests, send("a"))
	assert.Equal(t, http.StatusOK, send("b"), "limits are tracked per user")
	assert.Equal(t, http.StatusOK, send(""), "anonymous requests are keyed by address")
}
