// Package contactview записывает просмотры контактов водителями и является
// точкой окончательного списания квоты.
package contactview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/freight-access/internal/lib/monthkey"
	"github.com/magabrotheeeer/freight-access/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/freight-access/internal/lib/sl"
	"github.com/magabrotheeeer/freight-access/internal/metrics"
	"github.com/magabrotheeeer/freight-access/internal/models"
	"github.com/magabrotheeeer/freight-access/internal/services/access"
)

// Ledger: журнал просмотров с атомарной вставкой по уникальному ключу.
type Ledger interface {
	FindContactView(ctx context.Context, driverID, freightID, monthKey string) (*models.ContactViewEvent, error)
	CountContactViews(ctx context.Context, driverID, monthKey string) (int, error)
	InsertContactViewIfAbsent(ctx context.Context, ev models.ContactViewEvent) (bool, error)
}

// FreightStore возвращает компанию-владельца груза.
type FreightStore interface {
	GetFreightOwner(ctx context.Context, freightID string) (string, error)
}

// SubscriptionStore возвращает текущую подписку пользователя или nil.
type SubscriptionStore interface {
	GetSubscription(ctx context.Context, userID string) (*models.Subscription, error)
}

// Publisher публикует доменные события.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, msg any) error
}

// Metrics учитывает исходы записи.
type Metrics interface {
	ContactView(outcome string)
}

// ViewedEvent: тело события contact.viewed.
type ViewedEvent struct {
	EventID   string    `json:"eventId"`
	DriverID  string    `json:"driverId"`
	FreightID string    `json:"freightId"`
	CompanyID string    `json:"companyId"`
	MonthKey  string    `json:"monthKey"`
	ViewedAt  time.Time `json:"viewedAt"`
}

// Recorder записывает просмотры контактов.
type Recorder struct {
	ledger       Ledger
	freights     FreightStore
	subs         SubscriptionStore
	defaultLimit int
	publisher    Publisher
	metrics      Metrics
	log          *slog.Logger
	now          func() time.Time
}

// Option настраивает Recorder.
type Option func(*Recorder)

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		r.now = now
	}
}

// WithPublisher включает публикацию события contact.viewed.
func WithPublisher(p Publisher) Option {
	return func(r *Recorder) {
		r.publisher = p
	}
}

// WithMetrics включает учёт исходов.
func WithMetrics(m Metrics) Option {
	return func(r *Recorder) {
		r.metrics = m
	}
}

// New создаёт Recorder.
func New(ledger Ledger, freights FreightStore, subs SubscriptionStore, defaultLimit int,
	log *slog.Logger, opts ...Option) *Recorder {
	r := &Recorder{
		ledger:       ledger,
		freights:     freights,
		subs:         subs,
		defaultLimit: defaultLimit,
		log:          log,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record списывает просмотр контакта груза freightID водителем driverID.
// Повторный просмотр того же груза в том же месяце бесплатен и возвращает
// AlreadyViewed. Исчерпанная квота даёт models.ErrLimitExceeded, отсутствующий
// груз или водитель дают models.ErrNotFound.
func (r *Recorder) Record(ctx context.Context, driverID, freightID string) (models.RecordResult, error) {
	const op = "contactview.Record"

	log := r.log.With(
		sl.Op(op),
		slog.String("driver_id", driverID),
		slog.String("freight_id", freightID),
	)

	result, ev, err := r.record(ctx, driverID, freightID)
	switch {
	case errors.Is(err, models.ErrLimitExceeded):
		r.outcome(metrics.OutcomeLimitExceeded)
		log.Info("contact view limit exceeded")
		return models.RecordResult{}, fmt.Errorf("%s: %w", op, err)
	case err != nil:
		r.outcome(metrics.OutcomeError)
		return models.RecordResult{}, fmt.Errorf("%s: %w", op, err)
	case result.AlreadyViewed:
		r.outcome(metrics.OutcomeAlreadyViewed)
		log.Debug("contact already viewed this month")
		return result, nil
	}

	r.outcome(metrics.OutcomeRecorded)
	log.Info("contact view recorded", slog.String("month", ev.MonthKey))
	r.publishViewed(ctx, log, ev)
	return result, nil
}

func (r *Recorder) record(ctx context.Context, driverID, freightID string) (models.RecordResult, models.ContactViewEvent, error) {
	now := r.now().UTC()
	month := monthkey.Of(now)

	companyID, err := r.freights.GetFreightOwner(ctx, freightID)
	if err != nil {
		return models.RecordResult{}, models.ContactViewEvent{}, err
	}

	_, err = r.ledger.FindContactView(ctx, driverID, freightID, month)
	switch {
	case err == nil:
		return models.RecordResult{AlreadyViewed: true}, models.ContactViewEvent{}, nil
	case !errors.Is(err, models.ErrNotFound):
		return models.RecordResult{}, models.ContactViewEvent{}, err
	}

	sub, err := r.subs.GetSubscription(ctx, driverID)
	if err != nil {
		return models.RecordResult{}, models.ContactViewEvent{}, err
	}
	limit := access.LimitFor(sub, r.defaultLimit)
	if limit != models.Unlimited {
		count, err := r.ledger.CountContactViews(ctx, driverID, month)
		if err != nil {
			return models.RecordResult{}, models.ContactViewEvent{}, err
		}
		if access.Remaining(limit, count) == 0 {
			return models.RecordResult{}, models.ContactViewEvent{}, models.ErrLimitExceeded
		}
	}

	ev := models.ContactViewEvent{
		ID:        uuid.New().String(),
		DriverID:  driverID,
		FreightID: freightID,
		CompanyID: companyID,
		MonthKey:  month,
		ViewedAt:  now,
	}
	inserted, err := r.ledger.InsertContactViewIfAbsent(ctx, ev)
	if err != nil {
		return models.RecordResult{}, models.ContactViewEvent{}, err
	}
	if !inserted {
		return models.RecordResult{AlreadyViewed: true}, models.ContactViewEvent{}, nil
	}
	return models.RecordResult{Recorded: true}, ev, nil
}

// publishViewed отправляет событие contact.viewed. Ошибка публикации
// только логируется: просмотр уже записан.
func (r *Recorder) publishViewed(ctx context.Context, log *slog.Logger, ev models.ContactViewEvent) {
	if r.publisher == nil {
		return
	}
	msg := ViewedEvent{
		EventID:   ev.ID,
		DriverID:  ev.DriverID,
		FreightID: ev.FreightID,
		CompanyID: ev.CompanyID,
		MonthKey:  ev.MonthKey,
		ViewedAt:  ev.ViewedAt,
	}
	if err := r.publisher.Publish(ctx, rabbitmq.RoutingContactViewed, msg); err != nil {
		log.Warn("failed to publish contact viewed event", sl.Err(err))
	}
}

func (r *Recorder) outcome(o string) {
	if r.metrics != nil {
		r.metrics.ContactView(o)
	}
}
