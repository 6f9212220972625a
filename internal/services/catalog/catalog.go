// Package catalog предоставляет каталог тарифных планов и доступ к подпискам
// пользователей. Планы кешируются в Redis, подписки читаются из хранилища
// на каждый запрос.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/freight-access/internal/lib/sl"
	"github.com/magabrotheeeer/freight-access/internal/models"
)

// Repository определяет методы чтения планов и подписок.
type Repository interface {
	// GetPlan возвращает план по slug.
	GetPlan(ctx context.Context, slug string) (*models.Plan, error)
	// ListPlans возвращает планы для роли.
	ListPlans(ctx context.Context, role models.Role, activeOnly bool) ([]models.Plan, error)
	// GetSubscription возвращает текущую подписку пользователя.
	GetSubscription(ctx context.Context, userID string) (*models.Subscription, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// Service: каталог планов и хранилище подписок для движка доступа.
type Service struct {
	repo  Repository
	cache Cache
	ttl   time.Duration
	log   *slog.Logger
}

// New создаёт каталог. cache может быть nil, тогда кеширование отключено.
func New(repo Repository, cache Cache, ttl time.Duration, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		ttl:   ttl,
		log:   log,
	}
}

// GetSubscription возвращает текущую подписку пользователя или nil, если её нет.
// Ошибка хранилища оборачивается в models.ErrLookupFailed.
func (s *Service) GetSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	const op = "catalog.GetSubscription"

	sub, err := s.repo.GetSubscription(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrLookupFailed, err)
	}
	return sub, nil
}

// GetActivePlan возвращает план действующей подписки или nil.
func (s *Service) GetActivePlan(ctx context.Context, userID string) (*models.Plan, error) {
	sub, err := s.GetSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub == nil || !sub.Status.IsLive() {
		return nil, nil
	}
	plan := sub.Plan
	return &plan, nil
}

// GetPlan возвращает план по slug. Неизвестный slug даёт models.ErrNotFound.
func (s *Service) GetPlan(ctx context.Context, slug string) (*models.Plan, error) {
	const op = "catalog.GetPlan"

	var cached models.Plan
	cacheKey := "plan:" + slug
	if s.fromCache(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	plan, err := s.repo.GetPlan(ctx, slug)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrLookupFailed, err)
	}
	s.toCache(ctx, cacheKey, plan)
	return plan, nil
}

// ListPlans возвращает планы для роли. Пустая роль означает все роли.
func (s *Service) ListPlans(ctx context.Context, role models.Role, activeOnly bool) ([]models.Plan, error) {
	const op = "catalog.ListPlans"

	var cached []models.Plan
	cacheKey := fmt.Sprintf("plans:%s:%t", role, activeOnly)
	if s.fromCache(ctx, cacheKey, &cached) {
		return cached, nil
	}

	plans, err := s.repo.ListPlans(ctx, role, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrLookupFailed, err)
	}
	s.toCache(ctx, cacheKey, plans)
	return plans, nil
}

// fromCache читает значение из кеша. Ошибка кеша не фатальна: запрос уходит в хранилище.
func (s *Service) fromCache(ctx context.Context, key string, result any) bool {
	if s.cache == nil {
		return false
	}
	found, err := s.cache.Get(ctx, key, result)
	if err != nil {
		s.log.Warn("failed to read from cache", slog.String("key", key), sl.Err(err))
		return false
	}
	return found
}

func (s *Service) toCache(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		s.log.Warn("failed to add to cache", slog.String("key", key), sl.Err(err))
	}
}
