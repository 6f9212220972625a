package usage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/freight-access/internal/http/middlewarectx"
	"github.com/magabrotheeeer/freight-access/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Usage(ctx context.Context, driverID string) (models.ContactViewUsage, error) {
	args := m.Called(ctx, driverID)
	return args.Get(0).(models.ContactViewUsage), args.Error(1)
}

func TestUsageHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		identity       *models.Identity
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:     "водитель",
			identity: &models.Identity{UserID: "d1", Role: models.RoleDriver},
			setupMock: func(m *MockService) {
				m.On("Usage", mock.Anything, "d1").
					Return(models.ContactViewUsage{
						MonthKey: "2024-05", Used: 3, Limit: 5, Remaining: 2,
						PeriodStart: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
						PeriodEnd:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
					}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"data":{"monthKey":"2024-05","used":3,"limit":5,"remaining":2,"periodStart":"2024-05-01T00:00:00Z","periodEnd":"2024-06-01T00:00:00Z"}`,
		},
		{
			name:           "компания",
			identity:       &models.Identity{UserID: "c1", Role: models.RoleCompany},
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `drivers only`,
		},
		{
			name:           "без аутентификации",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `unauthorized`,
		},
		{
			name:     "ошибка сервиса",
			identity: &models.Identity{UserID: "d1", Role: models.RoleDriver},
			setupMock: func(m *MockService) {
				m.On("Usage", mock.Anything, "d1").Return(models.ContactViewUsage{}, errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `could not get contact view usage`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)
			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/contact-views/usage", nil)
			if tt.identity != nil {
				req = req.WithContext(middlewarectx.WithIdentity(req.Context(), tt.identity))
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())
			mockService.AssertExpectations(t)
		})
	}
}
