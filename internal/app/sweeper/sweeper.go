// Package sweeper содержит приложение фонового закрытия просроченных пробных подписок.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/freight-access/internal/config"
	"github.com/magabrotheeeer/freight-access/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/freight-access/internal/lib/sl"
	"github.com/magabrotheeeer/freight-access/internal/metrics"
	sweeperservice "github.com/magabrotheeeer/freight-access/internal/services/sweeper"
	"github.com/magabrotheeeer/freight-access/internal/storage/repository"
)

// App представляет приложение sweeper.
type App struct {
	service       *sweeperservice.Service
	interval      time.Duration
	metricsServer *http.Server
	db            *repository.Storage
	conn          *amqp.Connection
	ch            *amqp.Channel
	logger        *slog.Logger
}

func waitForDB(ctx context.Context, db *repository.Storage) error {
	for range 10 {
		err := repository.CheckDatabaseReady(ctx, db)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(3 * time.Second):
		}
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает новый экземпляр приложения sweeper.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err := waitForDB(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	app := &App{
		interval: cfg.Interval,
		db:       db,
		logger:   logger,
	}

	var publisher sweeperservice.Publisher
	if cfg.RabbitMQ.URL != "" {
		app.conn, err = rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.ConnectRetries, cfg.RetryDelay)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
		}
		app.ch, err = rabbitmq.SetupChannel(app.conn, cfg.Exchange, rabbitmq.GetNotificationQueues())
		if err != nil {
			app.close()
			return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
		}
		publisher = rabbitmq.NewPublisher(app.ch, cfg.Exchange)
	} else {
		logger.Warn("rabbitmq url is empty, trial.expired events are disabled")
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	app.service = sweeperservice.New(db, publisher, m, cfg.BatchSize, logger)

	router := chi.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	app.metricsServer = &http.Server{
		Addr:              cfg.MetricsAddress,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return app, nil
}

// Run запускает проходы sweeper до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	go func() {
		a.logger.Info("metrics server starting on", slog.String("address", a.metricsServer.Addr))
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server stopped", sl.Err(err))
		}
	}()

	a.service.Run(ctx, a.interval)

	a.logger.Info("shutting down sweeper")
	timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := a.metricsServer.Shutdown(timeoutCtx)
	a.close()
	return err
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
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
