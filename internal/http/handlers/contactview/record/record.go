// Package record реализует HTTP-обработчик записи просмотра контакта.
//
// Handler списывает просмотр контакта груза у аутентифицированного водителя.
// Повторный просмотр того же груза в текущем месяце не списывается повторно.
package record

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/freight-access/internal/http/middlewarectx"
	"github.com/magabrotheeeer/freight-access/internal/http/response"
	"github.com/magabrotheeeer/freight-access/internal/lib/sl"
	"github.com/magabrotheeeer/freight-access/internal/models"
)

// Сообщения об ошибках для клиента.
const (
	msgNotFound      = "driver or freight not found"
	msgLimitExceeded = "monthly contact view limit reached, upgrade your plan to view more contacts"
	msgInternal      = "could not record contact view"
)

// Handler обрабатывает POST /api/v1/record-contact-view.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler с переданными логгером и сервисом записи просмотров.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// Response: тело успешного ответа.
type Response struct {
	Success       bool `json:"success"`
	AlreadyViewed bool `json:"alreadyViewed"`
}

// ServeHTTP godoc
// @Summary Записать просмотр контакта
// @Description Списывает просмотр контакта груза из месячной квоты водителя.
// @Description Повторный просмотр того же груза в текущем месяце возвращает alreadyViewed=true.
// @Tags ContactViews
// @Accept  json
// @Produce  json
// @Param request body models.DummyRecordContactView true "Груз"
// @Success 200 {object} Response "Просмотр записан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Водитель или груз не найден, либо лимит исчерпан"
// @Security BearerAuth
// @Router /record-contact-view [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.contactview.record"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyRecordContactView
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	identity, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		log.Error("identity not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}
	if identity.Role != models.RoleDriver {
		log.Warn("contact view requested by non-driver", slog.String("role", string(identity.Role)))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error(msgNotFound))
		return
	}

	result, err := h.service.Record(r.Context(), identity.UserID, req.FreightID)
	if err != nil {
		msg := msgInternal
		switch {
		case errors.Is(err, models.ErrLimitExceeded):
			msg = msgLimitExceeded
			log.Info("contact view limit exceeded", slog.String("driver_id", identity.UserID))
		case errors.Is(err, models.ErrNotFound):
			msg = msgNotFound
			log.Warn("driver or freight not found", sl.Err(err))
		default:
			log.Error("failed to record contact view", sl.Err(err))
		}
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error(msg))
		return
	}

	render.JSON(w, r, Response{
		Success:       true,
		AlreadyViewed: result.AlreadyViewed,
	})
}
