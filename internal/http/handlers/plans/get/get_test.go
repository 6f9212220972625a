package get

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/freight-access/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) GetPlan(ctx context.Context, slug string) (*models.Plan, error) {
	args := m.Called(ctx, slug)
	if p := args.Get(0); p != nil {
		return p.(*models.Plan), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestGetHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		slug           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "план найден",
			slug: "company-trial",
			setupMock: func(m *MockService) {
				m.On("GetPlan", mock.Anything, "company-trial").
					Return(&models.Plan{Slug: "company-trial", IsTrialPlan: true}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"is_trial_plan":true`,
		},
		{
			name: "план не найден",
			slug: "missing",
			setupMock: func(m *MockService) {
				m.On("GetPlan", mock.Anything, "missing").Return(nil, models.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `plan not found`,
		},
		{
			name: "ошибка каталога",
			slug: "driver-pro",
			setupMock: func(m *MockService) {
				m.On("GetPlan", mock.Anything, "driver-pro").Return(nil, errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `could not get plan`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)
			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/plans/"+tt.slug, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("slug", tt.slug)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())
			mockService.AssertExpectations(t)
		})
	}
}
