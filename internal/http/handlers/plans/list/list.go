// Package list реализует HTTP-обработчик получения каталога тарифных планов.
//
// Handler читает параметры role и active из строки запроса и возвращает
// список планов. Используется страницей тарифов маркетплейса.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/freight-access/internal/http/response"
	"github.com/magabrotheeeer/freight-access/internal/lib/sl"
	"github.com/magabrotheeeer/freight-access/internal/models"
)

// Service описывает каталог планов.
type Service interface {
	ListPlans(ctx context.Context, role models.Role, activeOnly bool) ([]models.Plan, error)
}

// Handler обрабатывает GET /api/v1/plans.
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
// @Summary Список тарифных планов
// @Description Возвращает планы для роли. По умолчанию только активные.
// @Tags Plans
// @Produce  json
// @Param role query string false "Целевая роль" Enums(driver, company)
// @Param active query bool false "Только активные планы" default(true)
// @Success 200 {object} response.Response{data=[]models.Plan} "Список планов"
// @Failure 400 {object} response.ErrorResponse "Некорректные параметры"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /plans [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plans.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	role := models.Role(r.URL.Query().Get("role"))
	if role != "" && role != models.RoleDriver && role != models.RoleCompany {
		log.Info("invalid role filter", slog.String("role", string(role)))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("role must be driver or company"))
		return
	}

	activeOnly := true
	if raw := r.URL.Query().Get("active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			log.Info("invalid active filter", slog.String("active", raw))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("active must be a boolean"))
			return
		}
		activeOnly = v
	}

	plans, err := h.service.ListPlans(r.Context(), role, activeOnly)
	if err != nil {
		log.Error("failed to list plans", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list plans"))
		return
	}

	render.JSON(w, r, response.OKWithData(plans))
}
