// Package sweeper переводит просроченные пробные подписки в статус expired
// и публикует событие trial.expired. Движок доступа от него не зависит:
// окно пробного периода всегда проверяется по часам.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/freight-access/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/freight-access/internal/lib/sl"
	"github.com/magabrotheeeer/freight-access/internal/models"
)

// Repository переводит просроченные пробные подписки в expired.
type Repository interface {
	ExpireTrials(ctx context.Context, now time.Time, limit int) ([]models.Subscription, error)
}

// Publisher публикует доменные события.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, msg any) error
}

// Metrics учитывает переведённые подписки.
type Metrics interface {
	TrialsExpired(n int)
}

// TrialExpiredEvent: тело события trial.expired.
type TrialExpiredEvent struct {
	SubscriptionID string    `json:"subscriptionId"`
	UserID         string    `json:"userId"`
	PlanSlug       string    `json:"planSlug"`
	TrialEndsAt    time.Time `json:"trialEndsAt"`
}

// Service выполняет проходы по просроченным пробным подпискам.
type Service struct {
	repo      Repository
	publisher Publisher
	metrics   Metrics
	batchSize int
	log       *slog.Logger
	now       func() time.Time
}

// New создаёт Service. publisher и metrics могут быть nil.
func New(repo Repository, publisher Publisher, metrics Metrics, batchSize int, log *slog.Logger) *Service {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		metrics:   metrics,
		batchSize: batchSize,
		log:       log,
		now:       time.Now,
	}
}

// Sweep выполняет один проход и возвращает число переведённых подписок.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	const op = "sweeper.Sweep"
	now := s.now()
	total := 0

	for {
		expired, err := s.repo.ExpireTrials(ctx, now, s.batchSize)
		if err != nil {
			return total, fmt.Errorf("%s: %w", op, err)
		}
		total += len(expired)
		if s.metrics != nil {
			s.metrics.TrialsExpired(len(expired))
		}
		for _, sub := range expired {
			s.publishExpired(ctx, sub)
		}
		if len(expired) < s.batchSize {
			return total, nil
		}
	}
}

// Run запускает Sweep сразу и затем с периодом interval до отмены ctx.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	const op = "sweeper.Run"
	log := s.log.With(sl.Op(op))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		n, err := s.Sweep(ctx)
		if err != nil {
			log.Error("trial sweep failed", sl.Err(err))
		} else if n > 0 {
			log.Info("expired trial subscriptions", slog.Int("count", n))
		}

		select {
		case <-ctx.Done():
			log.Info("trial sweeper stopped")
			return
		case <-ticker.C:
		}
	}
}

func (s *Service) publishExpired(ctx context.Context, sub models.Subscription) {
	if s.publisher == nil {
		return
	}
	msg := TrialExpiredEvent{
		SubscriptionID: sub.ID,
		UserID:         sub.UserID,
		PlanSlug:       sub.Plan.Slug,
	}
	if sub.TrialEndsAt != nil {
		msg.TrialEndsAt = *sub.TrialEndsAt
	}
	if err := s.publisher.Publish(ctx, rabbitmq.RoutingTrialExpired, msg); err != nil {
		s.log.Warn("failed to publish trial expired event",
			slog.String("subscription_id", sub.ID), sl.Err(err))
	}
}
