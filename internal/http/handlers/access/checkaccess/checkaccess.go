// Package checkaccess реализует HTTP-обработчик проверки доступа к действию.
//
// Handler принимает действие, берёт пользователя из контекста и возвращает
// решение движка доступа. Неаутентифицированный вызов не является ошибкой
// HTTP: ответ 200 с причиной NO_AUTH.
package checkaccess

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/freight-access/internal/http/middlewarectx"
	"github.com/magabrotheeeer/freight-access/internal/http/response"
	"github.com/magabrotheeeer/freight-access/internal/lib/sl"
	"github.com/magabrotheeeer/freight-access/internal/models"
)

// Handler обрабатывает POST /api/v1/check-access.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler с переданными логгером и движком доступа.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// SubscriptionView: подписка, на основании которой принято решение.
type SubscriptionView struct {
	Plan        string     `json:"plan" example:"company-trial"`
	Status      string     `json:"status" example:"trialing"`
	TrialEndsAt *time.Time `json:"trialEndsAt,omitempty"`
}

// Response: тело ответа check-access.
type Response struct {
	CanAccess      bool              `json:"canAccess"`
	Reason         string            `json:"reason" example:"OK"`
	RemainingLimit int               `json:"remainingLimit" example:"4"`
	Subscription   *SubscriptionView `json:"subscription"`
}

func newResponse(d models.AccessDecision) Response {
	resp := Response{
		CanAccess:      d.CanAccess,
		Reason:         string(d.Reason),
		RemainingLimit: d.RemainingViews,
	}
	if d.Subscription != nil {
		resp.Subscription = &SubscriptionView{
			Plan:        d.Subscription.Plan.Slug,
			Status:      string(d.Subscription.Status),
			TrialEndsAt: d.Subscription.TrialEndsAt,
		}
	}
	return resp
}

// ServeHTTP godoc
// @Summary Проверить доступ к действию
// @Description Возвращает решение о доступе: create_freight для компании, view_contact для водителя.
// @Description remainingLimit равен -1 для безлимитного плана.
// @Tags Access
// @Accept  json
// @Produce  json
// @Param request body models.DummyCheckAccess true "Проверяемое действие"
// @Success 200 {object} Response "Решение о доступе"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при проверке доступа"
// @Security BearerAuth
// @Router /check-access [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.access.checkaccess"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyCheckAccess
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

	identity, _ := middlewarectx.IdentityFrom(r.Context())
	if identity != nil && req.UserRole != "" && models.Role(req.UserRole) != identity.Role {
		log.Warn("client role differs from profile role, profile role is used",
			slog.String("user_id", identity.UserID),
			slog.String("client_role", req.UserRole),
			slog.String("profile_role", string(identity.Role)))
	}

	decision, err := h.service.Evaluate(r.Context(), identity, models.Action(req.Action))
	if err != nil {
		log.Error("failed to evaluate access", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not check access"))
		return
	}

	log.Debug("access evaluated",
		slog.String("action", req.Action),
		slog.Bool("can_access", decision.CanAccess),
		slog.String("reason", string(decision.Reason)))
	render.JSON(w, r, newResponse(decision))
}
