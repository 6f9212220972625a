package record

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/freight-access/internal/http/middlewarectx"
	"github.com/magabrotheeeer/freight-access/internal/models"
)

// MockService реализует интерфейс record.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Record(ctx context.Context, driverID, freightID string) (models.RecordResult, error) {
	args := m.Called(ctx, driverID, freightID)
	return args.Get(0).(models.RecordResult), args.Error(1)
}

func TestRecordHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	driver := &models.Identity{UserID: "driver-1", Role: models.RoleDriver}
	company := &models.Identity{UserID: "company-1", Role: models.RoleCompany}

	tests := []struct {
		name           string
		body           string
		identity       *models.Identity
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:     "первый просмотр",
			body:     `{"freightId":"f1"}`,
			identity: driver,
			setupMock: func(m *MockService) {
				m.On("Record", mock.Anything, "driver-1", "f1").Return(models.RecordResult{Recorded: true}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"success":true,"alreadyViewed":false}`,
		},
		{
			name:     "повторный просмотр",
			body:     `{"freightId":"f1"}`,
			identity: driver,
			setupMock: func(m *MockService) {
				m.On("Record", mock.Anything, "driver-1", "f1").Return(models.RecordResult{AlreadyViewed: true}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"success":true,"alreadyViewed":true}`,
		},
		{
			name:     "лимит исчерпан",
			body:     `{"freightId":"f2"}`,
			identity: driver,
			setupMock: func(m *MockService) {
				m.On("Record", mock.Anything, "driver-1", "f2").
					Return(models.RecordResult{}, fmt.Errorf("contactview.Record: %w", models.ErrLimitExceeded))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `upgrade your plan`,
		},
		{
			name:     "груз не найден",
			body:     `{"freightId":"missing"}`,
			identity: driver,
			setupMock: func(m *MockService) {
				m.On("Record", mock.Anything, "driver-1", "missing").
					Return(models.RecordResult{}, fmt.Errorf("storage.GetFreightOwner: %w", models.ErrNotFound))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"driver or freight not found"}`,
		},
		{
			name:     "внутренняя ошибка не раскрывается",
			body:     `{"freightId":"f1"}`,
			identity: driver,
			setupMock: func(m *MockService) {
				m.On("Record", mock.Anything, "driver-1", "f1").
					Return(models.RecordResult{}, errors.New("pq: connection refused"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"could not record contact view"}`,
		},
		{
			name:           "запрос от компании",
			body:           `{"freightId":"f1"}`,
			identity:       company,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `driver or freight not found`,
		},
		{
			name:           "без аутентификации",
			body:           `{"freightId":"f1"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `unauthorized`,
		},
		{
			name:           "нет freightId",
			body:           `{}`,
			identity:       driver,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field FreightID is a required field`,
		},
		{
			name:           "некорректный JSON",
			body:           `freight`,
			identity:       driver,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `invalid request body`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)
			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/record-contact-view", strings.NewReader(tt.body))
			if tt.identity != nil {
				req = req.WithContext(middlewarectx.WithIdentity(req.Context(), tt.identity))
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())
			assert.NotContains(t, w.Body.String(), "pq:")

			mockService.AssertExpectations(t)
		})
	}
}
