// Package middlewarectx содержит HTTP middleware идентификации и ограничения
// частоты запросов.
//
// IdentityMiddleware разбирает заголовок Authorization и, если токен удаётся
// разрешить в пользователя, кладёт его в контекст запроса. Запрос без
// пользователя пропускается дальше: check-access сам отвечает NO_AUTH.
// Ошибка хранилища при разрешении токена даёт HTTP 500, а не анонимный запрос.
// RequireIdentity отклоняет такие запросы с HTTP 401.
package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/freight-access/internal/http/response"
	"github.com/magabrotheeeer/freight-access/internal/lib/sl"
	"github.com/magabrotheeeer/freight-access/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// IdentityKey: ключ аутентифицированного пользователя в контексте.
const IdentityKey Key = "identity"

// Resolver разрешает bearer-токен в пользователя.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*models.Identity, error)
}

// WithIdentity возвращает контекст с пользователем.
func WithIdentity(ctx context.Context, identity *models.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

// IdentityFrom извлекает пользователя из контекста.
func IdentityFrom(ctx context.Context) (*models.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(*models.Identity)
	return identity, ok && identity != nil
}

// IdentityMiddleware возвращает middleware, который разрешает токен из
// заголовка Authorization. Недействительный токен не прерывает запрос,
// любая другая ошибка завершает его с HTTP 500.
func IdentityMiddleware(resolver Resolver, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.IdentityMiddleware"

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				next.ServeHTTP(w, r)
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			identity, err := resolver.Resolve(r.Context(), tokenStr)
			if err != nil {
				log := log.With(
					slog.String("op", op),
					slog.String("request_id", middleware.GetReqID(r.Context())),
				)
				if errors.Is(err, models.ErrUnauthenticated) {
					log.Info("bearer token rejected", sl.Err(err))
					next.ServeHTTP(w, r)
					return
				}
				log.Error("failed to resolve identity", sl.Err(err))
				w.WriteHeader(http.StatusInternalServerError)
				render.JSON(w, r, response.Error("could not resolve identity"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireIdentity отвечает 401, если в контексте нет пользователя.
func RequireIdentity(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := IdentityFrom(r.Context()); !ok {
				log.Info("unauthenticated request rejected",
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("path", r.URL.Path))
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
