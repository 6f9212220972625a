package models

import "time"

// SubscriptionStatus: статус подписки пользователя.
type SubscriptionStatus string

const (
	StatusTrialing SubscriptionStatus = "trialing"
	StatusActive   SubscriptionStatus = "active"
	StatusCanceled SubscriptionStatus = "canceled"
	StatusExpired  SubscriptionStatus = "expired"
)

// IsLive сообщает, что подписка действующая (пробная или активная).
// У пользователя может быть не более одной действующей подписки.
func (s SubscriptionStatus) IsLive() bool {
	return s == StatusTrialing || s == StatusActive
}

// Subscription представляет текущую подписку пользователя.
// Записи не удаляются, меняется только статус.
type Subscription struct {
	ID          string             `json:"id"`
	UserID      string             `json:"user_id"`
	Plan        Plan               `json:"plan"`
	Status      SubscriptionStatus `json:"status"`
	TrialEndsAt *time.Time         `json:"trial_ends_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// InTrial сообщает, открыто ли пробное окно на момент now.
// Решает только время: статус в БД может ещё не быть переведён.
func (s *Subscription) InTrial(now time.Time) bool {
	return s.Plan.IsTrialPlan && s.TrialEndsAt != nil && s.TrialEndsAt.After(now)
}
