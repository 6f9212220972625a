package middlewarectx

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/freight-access/internal/models"
)

func newNoopLoggerLimit() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func okHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("success")); err != nil {
			t.Errorf("failed to write response: %v", err)
		}
	})
}

func requestFrom(remoteAddr, userID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil)
	req.RemoteAddr = remoteAddr
	if userID != "" {
		req = req.WithContext(WithIdentity(req.Context(), &models.Identity{UserID: userID, Role: models.RoleDriver}))
	}
	return req
}

func TestRateLimitMiddleware(t *testing.T) {
	logger := newNoopLoggerLimit()

	t.Run("пропускает запросы в пределах лимита", func(t *testing.T) {
		handler := RateLimitMiddleware(NewRateLimiter(10, 10), logger)(okHandler(t))
		for range 10 {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, requestFrom("10.0.0.1:1234", ""))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "success", w.Body.String())
		}
	})

	t.Run("блокирует запросы сверх лимита", func(t *testing.T) {
		handler := RateLimitMiddleware(NewRateLimiter(1, 1), logger)(okHandler(t))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestFrom("10.0.0.1:1234", ""))
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		handler.ServeHTTP(w, requestFrom("10.0.0.1:5555", ""))
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.JSONEq(t, `{"status":"Error","error":"too many requests"}`, w.Body.String())
	})

	t.Run("лимит восстанавливается со временем", func(t *testing.T) {
		handler := RateLimitMiddleware(NewRateLimiter(20, 1), logger)(okHandler(t))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestFrom("10.0.0.1:1234", ""))
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		handler.ServeHTTP(w, requestFrom("10.0.0.1:1234", ""))
		assert.Equal(t, http.StatusTooManyRequests, w.Code)

		time.Sleep(100 * time.Millisecond)

		w = httptest.NewRecorder()
		handler.ServeHTTP(w, requestFrom("10.0.0.1:1234", ""))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRateLimitMiddleware_SeparateKeys(t *testing.T) {
	logger := newNoopLoggerLimit()
	handler := RateLimitMiddleware(NewRateLimiter(1, 1), logger)(okHandler(t))

	tests := []struct {
		name   string
		req    *http.Request
		status int
	}{
		{name: "первый пользователь", req: requestFrom("10.0.0.1:1", "driver-1"), status: http.StatusOK},
		{name: "первый пользователь повторно", req: requestFrom("10.0.0.2:1", "driver-1"), status: http.StatusTooManyRequests},
		{name: "второй пользователь с того же IP", req: requestFrom("10.0.0.1:1", "driver-2"), status: http.StatusOK},
		{name: "анонимный запрос с того же IP", req: requestFrom("10.0.0.1:2", ""), status: http.StatusOK},
		{name: "анонимный запрос повторно", req: requestFrom("10.0.0.1:3", ""), status: http.StatusTooManyRequests},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, tt.req)
		assert.Equal(t, tt.status, w.Code, tt.name)
	}
}

func TestRateLimitMiddleware_ConcurrentRequests(t *testing.T) {
	handler := RateLimitMiddleware(NewRateLimiter(0.001, 5), newNoopLoggerLimit())(okHandler(t))

	results := make(chan int, 10)
	for range 10 {
		go func() {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, requestFrom("10.0.0.9:1", ""))
			results <- w.Code
		}()
	}

	successCount, limitedCount := 0, 0
	for range 10 {
		select {
		case code := <-results:
			switch code {
			case http.StatusOK:
				successCount++
			case http.StatusTooManyRequests:
				limitedCount++
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for concurrent requests")
		}
	}
	assert.Equal(t, 5, successCount)
	assert.Equal(t, 5, limitedCount)
}

func (l *RateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

func TestRateLimiter_EvictsIdleKeys(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(1, 1)
	limiter.now = func() time.Time { return now }
	limiter.lastSweep = now

	for i := range 10_000 {
		limiter.Allow(fmt.Sprintf("ip:10.0.%d.%d", i/256, i%256))
	}
	assert.Equal(t, 10_000, limiter.size())

	now = now.Add(time.Minute)
	assert.True(t, limiter.Allow("user:driver-1"))
	assert.Equal(t, 10_001, limiter.size(), "keys younger than the idle ttl are kept")

	now = now.Add(limiterIdleTTL - time.Second)
	assert.True(t, limiter.Allow("ip:10.9.9.9"))
	assert.Equal(t, 2, limiter.size(), "idle keys are evicted, recently seen ones stay")

	assert.False(t, limiter.Allow("ip:10.9.9.9"), "a kept key keeps its bucket")
}
