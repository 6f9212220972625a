// Package freightaccess собирает HTTP-сервис контроля доступа:
// хранилище, кеш каталога, публикацию событий, сервисы и маршруты.
package freightaccess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/freight-access/internal/cache"
	"github.com/magabrotheeeer/freight-access/internal/config"
	"github.com/magabrotheeeer/freight-access/internal/lib/jwt"
	"github.com/magabrotheeeer/freight-access/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/freight-access/internal/lib/sl"
	"github.com/magabrotheeeer/freight-access/internal/metrics"
	"github.com/magabrotheeeer/freight-access/internal/migrations"
	"github.com/magabrotheeeer/freight-access/internal/services/access"
	"github.com/magabrotheeeer/freight-access/internal/services/catalog"
	"github.com/magabrotheeeer/freight-access/internal/services/contactview"
	"github.com/magabrotheeeer/freight-access/internal/services/identity"
	"github.com/magabrotheeeer/freight-access/internal/storage/repository"
)

// App представляет HTTP-приложение сервиса доступа.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New создает приложение: подключает зависимости, применяет миграции
// и регистрирует маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	app := &App{
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}

	recorderOpts := []contactview.Option{}
	if cfg.RabbitMQ.URL != "" {
		app.conn, app.ch, err = connectEvents(cfg.RabbitMQ)
		if err != nil {
			app.close()
			return nil, err
		}
		recorderOpts = append(recorderOpts, contactview.WithPublisher(rabbitmq.NewPublisher(app.ch, cfg.RabbitMQ.Exchange)))
	} else {
		logger.Warn("rabbitmq url is empty, domain events are disabled")
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	recorderOpts = append(recorderOpts, contactview.WithMetrics(m))

	catalogService := catalog.New(db, cacheRedis, cfg.PlanCacheTTL, logger)
	services := Services{
		Identity: identity.New(jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL, cfg.Issuer), db),
		Access:   access.New(catalogService, db, cfg.DefaultContactViewLimit, logger, access.WithMetrics(m)),
		Recorder: contactview.New(db, db, catalogService, cfg.DefaultContactViewLimit, logger, recorderOpts...),
		Catalog:  catalogService,
		Health:   db,
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, services, cfg.RateLimit)

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

func connectEvents(cfg config.RabbitMQ) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := rabbitmq.Connect(cfg.URL, cfg.ConnectRetries, cfg.RetryDelay)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	ch, err := rabbitmq.SetupChannel(conn, cfg.Exchange, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}
	return conn, ch, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close cache", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
