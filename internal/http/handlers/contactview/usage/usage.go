// Package usage реализует HTTP-обработчик использования месячной квоты водителя.
package usage

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/freight-access/internal/http/middlewarectx"
	"github.com/magabrotheeeer/freight-access/internal/http/response"
	"github.com/magabrotheeeer/freight-access/internal/lib/sl"
	"github.com/magabrotheeeer/freight-access/internal/models"
)

// Service возвращает использование квоты водителя.
type Service interface {
	Usage(ctx context.Context, driverID string) (models.ContactViewUsage, error)
}

// Handler обрабатывает GET /api/v1/contact-views/usage.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Использование квоты просмотров
// @Description Возвращает число просмотров контактов за текущий месяц, лимит и остаток (-1 означает без лимита).
// @Tags ContactViews
// @Produce  json
// @Success 200 {object} response.Response{data=models.ContactViewUsage} "Использование квоты"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Квота есть только у водителей"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /contact-views/usage [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.contactview.usage"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	identity, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		log.Error("identity not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}
	if identity.Role != models.RoleDriver {
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("contact view quota applies to drivers only"))
		return
	}

	usage, err := h.service.Usage(r.Context(), identity.UserID)
	if err != nil {
		log.Error("failed to get usage", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not get contact view usage"))
		return
	}

	render.JSON(w, r, response.OKWithData(usage))
}
