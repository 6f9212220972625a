// Package memory реализует хранилище в памяти с теми же гарантиями,
// что и PostgreSQL-репозиторий: одна действующая подписка на пользователя
// и уникальность события просмотра по (водитель, груз, месяц).
// Используется в тестах сервисов и обработчиков.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/freight-access/internal/models"
)

type viewKey struct {
	driverID  string
	freightID string
	monthKey  string
}

// Storage хранит все данные в map под одним мьютексом.
type Storage struct {
	mu            sync.RWMutex
	plans         map[string]models.Plan
	profiles      map[string]models.Role
	freights      map[string]string
	subscriptions []models.Subscription
	views         map[viewKey]models.ContactViewEvent
}

// New создаёт пустое хранилище.
func New() *Storage {
	return &Storage{
		plans:    make(map[string]models.Plan),
		profiles: make(map[string]models.Role),
		freights: make(map[string]string),
		views:    make(map[viewKey]models.ContactViewEvent),
	}
}

// AddPlan добавляет или заменяет план.
func (s *Storage) AddPlan(p models.Plan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[p.Slug] = p
}

// AddProfile регистрирует пользователя с ролью.
func (s *Storage) AddProfile(userID string, role models.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[userID] = role
}

// AddFreight регистрирует груз компании.
func (s *Storage) AddFreight(freightID, companyID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.freights[freightID] = companyID
}

// AddSubscription добавляет подписку на существующий план.
func (s *Storage) AddSubscription(userID, planSlug string, status models.SubscriptionStatus,
	trialEndsAt *time.Time) (string, error) {
	const op = "memory.AddSubscription"
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, ok := s.plans[planSlug]
	if !ok {
		return "", fmt.Errorf("%s: plan %q: %w", op, planSlug, models.ErrNotFound)
	}
	if status.IsLive() {
		for _, sub := range s.subscriptions {
			if sub.UserID == userID && sub.Status.IsLive() {
				return "", fmt.Errorf("%s: user %s already has a live subscription", op, userID)
			}
		}
	}
	sub := models.Subscription{
		ID:          uuid.New().String(),
		UserID:      userID,
		Plan:        plan,
		Status:      status,
		TrialEndsAt: trialEndsAt,
		CreatedAt:   time.Now().UTC(),
	}
	s.subscriptions = append(s.subscriptions, sub)
	return sub.ID, nil
}

// Ping всегда успешен.
func (s *Storage) Ping(context.Context) error {
	return nil
}

// GetPlan возвращает план по slug.
func (s *Storage) GetPlan(ctx context.Context, slug string) (*models.Plan, error) {
	const op = "memory.GetPlan"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.plans[slug]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return &p, nil
}

// ListPlans возвращает планы в том же порядке, что и PostgreSQL-репозиторий.
func (s *Storage) ListPlans(ctx context.Context, role models.Role, activeOnly bool) ([]models.Plan, error) {
	const op = "memory.ListPlans"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	plans := make([]models.Plan, 0, len(s.plans))
	for _, p := range s.plans {
		if role != "" && p.TargetRole != role {
			continue
		}
		if activeOnly && !p.IsActive {
			continue
		}
		plans = append(plans, p)
	}
	sort.Slice(plans, func(i, j int) bool {
		a, b := plans[i], plans[j]
		if a.TargetRole != b.TargetRole {
			return a.TargetRole < b.TargetRole
		}
		if a.PriceMonthly != b.PriceMonthly {
			return a.PriceMonthly < b.PriceMonthly
		}
		return a.Slug < b.Slug
	})
	return plans, nil
}

// GetSubscription возвращает действующую подписку или самую позднюю.
func (s *Storage) GetSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	const op = "memory.GetSubscription"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var current *models.Subscription
	for i := range s.subscriptions {
		sub := s.subscriptions[i]
		if sub.UserID != userID {
			continue
		}
		switch {
		case current == nil:
			current = &sub
		case sub.Status.IsLive() && !current.Status.IsLive():
			current = &sub
		case sub.Status.IsLive() == current.Status.IsLive() && !sub.CreatedAt.Before(current.CreatedAt):
			current = &sub
		}
	}
	if current == nil {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return current, nil
}

// ExpireTrials переводит просроченные пробные подписки в expired.
func (s *Storage) ExpireTrials(ctx context.Context, now time.Time, limit int) ([]models.Subscription, error) {
	const op = "memory.ExpireTrials"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []models.Subscription
	for i := range s.subscriptions {
		if len(expired) >= limit {
			break
		}
		sub := &s.subscriptions[i]
		if sub.Status != models.StatusTrialing || !sub.Plan.IsTrialPlan || sub.TrialEndsAt == nil {
			continue
		}
		if sub.TrialEndsAt.After(now) {
			continue
		}
		sub.Status = models.StatusExpired
		expired = append(expired, *sub)
	}
	return expired, nil
}

// GetRole возвращает роль пользователя.
func (s *Storage) GetRole(ctx context.Context, userID string) (models.Role, error) {
	const op = "memory.GetRole"
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	role, ok := s.profiles[userID]
	if !ok {
		return "", fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return role, nil
}

// GetFreightOwner возвращает компанию-владельца груза.
func (s *Storage) GetFreightOwner(ctx context.Context, freightID string) (string, error) {
	const op = "memory.GetFreightOwner"
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	companyID, ok := s.freights[freightID]
	if !ok {
		return "", fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return companyID, nil
}

// FindContactView ищет событие по ключу.
func (s *Storage) FindContactView(ctx context.Context, driverID, freightID, monthKey string) (*models.ContactViewEvent, error) {
	const op = "memory.FindContactView"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ev, ok := s.views[viewKey{driverID, freightID, monthKey}]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return &ev, nil
}

// CountContactViews считает просмотры водителя за месяц.
func (s *Storage) CountContactViews(ctx context.Context, driverID, monthKey string) (int, error) {
	const op = "memory.CountContactViews"
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for k := range s.views {
		if k.driverID == driverID && k.monthKey == monthKey {
			count++
		}
	}
	return count, nil
}

// InsertContactViewIfAbsent добавляет событие, если ключ свободен.
func (s *Storage) InsertContactViewIfAbsent(ctx context.Context, ev models.ContactViewEvent) (bool, error) {
	const op = "memory.InsertContactViewIfAbsent"
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[ev.DriverID]; !ok {
		return false, fmt.Errorf("%s: driver: %w", op, models.ErrNotFound)
	}
	if _, ok := s.freights[ev.FreightID]; !ok {
		return false, fmt.Errorf("%s: freight: %w", op, models.ErrNotFound)
	}
	key := viewKey{ev.DriverID, ev.FreightID, ev.MonthKey}
	if _, ok := s.views[key]; ok {
		return false, nil
	}
	s.views[key] = ev
	return true, nil
}

// ContactViews возвращает копию журнала, упорядоченную по времени просмотра.
func (s *Storage) ContactViews() []models.ContactViewEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]models.ContactViewEvent, 0, len(s.views))
	for _, ev := range s.views {
		events = append(events, ev)
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].ViewedAt.Before(events[j].ViewedAt)
	})
	return events
}
