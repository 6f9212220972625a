package freightaccess

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/freight-access/internal/config"
	"github.com/magabrotheeeer/freight-access/internal/http/handlers/access/checkaccess"
	"github.com/magabrotheeeer/freight-access/internal/http/handlers/contactview/record"
	"github.com/magabrotheeeer/freight-access/internal/http/handlers/contactview/usage"
	"github.com/magabrotheeeer/freight-access/internal/http/handlers/health"
	"github.com/magabrotheeeer/freight-access/internal/http/handlers/plans/get"
	"github.com/magabrotheeeer/freight-access/internal/http/handlers/plans/list"
	"github.com/magabrotheeeer/freight-access/internal/http/middlewarectx"
)

// Catalog объединяет операции каталога, нужные маршрутам.
type Catalog interface {
	get.Service
	list.Service
}

// Engine объединяет решение о доступе и подсчёт использования квоты.
type Engine interface {
	checkaccess.Service
	usage.Service
}

// Services набор зависимостей HTTP-слоя.
type Services struct {
	Identity middlewarectx.Resolver
	Access   Engine
	Recorder record.Service
	Catalog  Catalog
	Health   health.Pinger
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s Services, limits config.RateLimit) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
	)

	limiter := middlewarectx.NewRateLimiter(limits.RPS, limits.Burst)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.IdentityMiddleware(s.Identity, logger))
		r.Use(middlewarectx.RateLimitMiddleware(limiter, logger))

		// Анонимный вызов получает отказ NO_AUTH, а не 401
		r.Post("/check-access", checkaccess.New(logger, s.Access).ServeHTTP)
		r.Get("/plans", list.New(logger, s.Catalog).ServeHTTP)
		r.Get("/plans/{slug}", get.New(logger, s.Catalog).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RequireIdentity(logger))
			r.Post("/record-contact-view", record.New(logger, s.Recorder).ServeHTTP)
			r.Get("/contact-views/usage", usage.New(logger, s.Access).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger, s.Health).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
