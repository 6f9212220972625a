// Package access принимает решения о доступе к действиям маркетплейса:
// публикация груза компанией и просмотр контакта водителем.
// Решение пересчитывается на каждый запрос и не кешируется.
package access

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/freight-access/internal/lib/monthkey"
	"github.com/magabrotheeeer/freight-access/internal/lib/sl"
	"github.com/magabrotheeeer/freight-access/internal/models"
)

// SubscriptionStore возвращает текущую подписку пользователя или nil.
type SubscriptionStore interface {
	GetSubscription(ctx context.Context, userID string) (*models.Subscription, error)
}

// UsageLedger считает просмотры контактов водителя за месяц.
type UsageLedger interface {
	CountContactViews(ctx context.Context, driverID, monthKey string) (int, error)
}

// Metrics учитывает принятые решения.
type Metrics interface {
	Decision(action, reason string)
}

// Engine вычисляет AccessDecision.
type Engine struct {
	subs         SubscriptionStore
	ledger       UsageLedger
	defaultLimit int
	metrics      Metrics
	log          *slog.Logger
	now          func() time.Time
}

// Option настраивает Engine.
type Option func(*Engine)

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithMetrics включает учёт решений.
func WithMetrics(m Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// New создаёт движок. defaultLimit задаёт месячный лимит просмотров водителя
// без действующей подписки.
func New(subs SubscriptionStore, ledger UsageLedger, defaultLimit int, log *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		subs:         subs,
		ledger:       ledger,
		defaultLimit: defaultLimit,
		log:          log,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate решает, может ли identity выполнить action.
// При ошибке чтения возвращается отказ LOOKUP_FAILED вместе с ошибкой.
func (e *Engine) Evaluate(ctx context.Context, identity *models.Identity, action models.Action) (models.AccessDecision, error) {
	const op = "access.Evaluate"

	if identity == nil || identity.UserID == "" {
		return e.record(action, models.Deny(models.ReasonNoAuth)), nil
	}

	var (
		decision models.AccessDecision
		err      error
	)
	switch {
	case action == models.ActionCreateFreight && identity.Role == models.RoleCompany:
		decision, err = e.evaluateCreateFreight(ctx, identity.UserID)
	case action == models.ActionViewContact && identity.Role == models.RoleDriver:
		decision, err = e.evaluateViewContact(ctx, identity.UserID)
	default:
		decision = models.Deny(models.ReasonUnsupportedAction)
	}
	if err != nil {
		e.log.Error("access lookup failed",
			sl.Op(op),
			slog.String("user_id", identity.UserID),
			slog.String("action", string(action)),
			sl.Err(err))
		return e.record(action, models.Deny(models.ReasonLookupFailed)), fmt.Errorf("%s: %w", op, err)
	}
	return e.record(action, decision), nil
}

// evaluateCreateFreight: доступ открыт в пробном окне или на платном плане.
// Окно проверяется по часам, а не по статусу в хранилище.
func (e *Engine) evaluateCreateFreight(ctx context.Context, companyID string) (models.AccessDecision, error) {
	sub, err := e.subs.GetSubscription(ctx, companyID)
	if err != nil {
		return models.AccessDecision{}, err
	}
	if sub == nil {
		return models.Deny(models.ReasonNoSubscription), nil
	}

	inTrial := sub.InTrial(e.now())
	hasPaidPlan := sub.Plan.IsPaid() && sub.Status.IsLive()
	if !inTrial && !hasPaidPlan {
		d := models.Deny(models.ReasonTrialExpired)
		d.Subscription = sub
		return d, nil
	}
	return models.AccessDecision{
		CanAccess:    true,
		Reason:       models.ReasonOK,
		Subscription: sub,
	}, nil
}

func (e *Engine) evaluateViewContact(ctx context.Context, driverID string) (models.AccessDecision, error) {
	usage, sub, err := e.usage(ctx, driverID)
	if err != nil {
		return models.AccessDecision{}, err
	}
	if usage.Remaining == models.Unlimited || usage.Remaining > 0 {
		return models.AccessDecision{
			CanAccess:      true,
			Reason:         models.ReasonOK,
			RemainingViews: usage.Remaining,
			Subscription:   sub,
		}, nil
	}
	return models.AccessDecision{
		Reason:       models.ReasonLimitReached,
		Subscription: sub,
	}, nil
}

// Usage возвращает использование квоты водителя в текущем месяце.
func (e *Engine) Usage(ctx context.Context, driverID string) (models.ContactViewUsage, error) {
	const op = "access.Usage"
	usage, _, err := e.usage(ctx, driverID)
	if err != nil {
		return models.ContactViewUsage{}, fmt.Errorf("%s: %w", op, err)
	}
	return usage, nil
}

func (e *Engine) usage(ctx context.Context, driverID string) (models.ContactViewUsage, *models.Subscription, error) {
	now := e.now()
	month := monthkey.Of(now)
	start, end := monthkey.Bounds(now)

	sub, err := e.subs.GetSubscription(ctx, driverID)
	if err != nil {
		return models.ContactViewUsage{}, nil, err
	}
	limit := LimitFor(sub, e.defaultLimit)

	count, err := e.ledger.CountContactViews(ctx, driverID, month)
	if err != nil {
		return models.ContactViewUsage{}, nil, fmt.Errorf("%w: %w", models.ErrLookupFailed, err)
	}
	return models.ContactViewUsage{
		MonthKey:    month,
		Used:        count,
		Limit:       limit,
		Remaining:   Remaining(limit, count),
		PeriodStart: start,
		PeriodEnd:   end,
	}, sub, nil
}

func (e *Engine) record(action models.Action, d models.AccessDecision) models.AccessDecision {
	if e.metrics != nil {
		e.metrics.Decision(string(action), string(d.Reason))
	}
	return d
}

// LimitFor возвращает месячный лимит просмотров водителя: лимит плана
// действующей подписки либо fallback, если такой подписки нет.
func LimitFor(sub *models.Subscription, fallback int) int {
	if sub == nil || !sub.Status.IsLive() {
		return fallback
	}
	if sub.Plan.IsUnlimited() {
		return models.Unlimited
	}
	return sub.Plan.ContactViewLimit
}

// Remaining возвращает остаток просмотров. Для безлимитного плана
// всегда models.Unlimited, независимо от числа просмотров.
func Remaining(limit, used int) int {
	if limit < 0 {
		return models.Unlimited
	}
	return max(0, limit-used)
}
