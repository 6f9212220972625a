package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/freight-access/internal/models"
)

const subscriptionColumns = `s.id, s.user_id, s.status, s.trial_ends_at, s.created_at, ` + planColumns

func scanSubscription(row rowScanner, sub *models.Subscription) error {
	var trialEndsAt sql.NullTime
	err := row.Scan(&sub.ID, &sub.UserID, &sub.Status, &trialEndsAt, &sub.CreatedAt,
		&sub.Plan.Slug, &sub.Plan.Name, &sub.Plan.TargetRole, &sub.Plan.PriceMonthly,
		&sub.Plan.ContactViewLimit, &sub.Plan.IsActive, &sub.Plan.IsTrialPlan)
	if err != nil {
		return err
	}
	if trialEndsAt.Valid {
		t := trialEndsAt.Time.UTC()
		sub.TrialEndsAt = &t
	}
	return nil
}

// GetSubscription возвращает текущую подписку пользователя вместе со снимком плана.
// Текущей считается действующая (trialing/active) подписка, а при её отсутствии
// самая поздняя по created_at. Если подписок нет, возвращается models.ErrNotFound.
func (s *Storage) GetSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	const op = "storage.GetSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions s
			  JOIN plans p ON p.slug = s.plan_slug
			  WHERE s.user_id = $1
			  ORDER BY (s.status IN ('trialing', 'active')) DESC, s.created_at DESC
			  LIMIT 1`
	var sub models.Subscription
	if err := scanSubscription(s.DB.QueryRowContext(ctx, query, userID), &sub); err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFoundOnBadInput(err))
	}
	return &sub, nil
}

// CreateSubscription добавляет подписку и возвращает её идентификатор.
// Вторая действующая подписка пользователя отвергается уникальным индексом.
func (s *Storage) CreateSubscription(ctx context.Context, userID, planSlug string,
	status models.SubscriptionStatus, trialEndsAt *time.Time) (string, error) {
	const op = "storage.CreateSubscription"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscriptions (user_id, plan_slug, status, trial_ends_at)
			  VALUES ($1, $2, $3, $4) RETURNING id`
	var id string
	err := s.DB.QueryRowContext(ctx, query, userID, planSlug, string(status), trialEndsAt).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// ExpireTrials переводит в expired не больше limit пробных подписок,
// у которых окно закончилось к моменту now, и возвращает их.
// Строки, заблокированные параллельным запуском, пропускаются.
func (s *Storage) ExpireTrials(ctx context.Context, now time.Time, limit int) ([]models.Subscription, error) {
	const op = "storage.ExpireTrials"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `WITH due AS (
				SELECT s.id
				FROM subscriptions s
				JOIN plans p ON p.slug = s.plan_slug
				WHERE s.status = 'trialing'
				  AND p.is_trial_plan
				  AND s.trial_ends_at <= $1
				ORDER BY s.trial_ends_at
				LIMIT $2
				FOR UPDATE OF s SKIP LOCKED
			  ), upd AS (
				UPDATE subscriptions
				SET status = 'expired', updated_at = NOW()
				FROM due
				WHERE subscriptions.id = due.id
				RETURNING subscriptions.*
			  )
			  SELECT ` + subscriptionColumns + `
			  FROM upd s
			  JOIN plans p ON p.slug = s.plan_slug`
	rows, err := s.DB.QueryContext(ctx, query, now.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var expired []models.Subscription
	for rows.Next() {
		var sub models.Subscription
		if err := scanSubscription(rows, &sub); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		expired = append(expired, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return expired, nil
}
