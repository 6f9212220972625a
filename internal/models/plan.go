// Package models содержит доменные структуры сервиса контроля доступа:
// тарифные планы, подписки, события просмотра контактов и результат
// решения о доступе, а также DTO для приёма данных из JSON-запросов.
package models

// Role: роль пользователя маркетплейса.
type Role string

const (
	// RoleDriver: водитель, просматривает контакты грузоотправителей.
	RoleDriver Role = "driver"
	// RoleCompany: компания, публикует грузы.
	RoleCompany Role = "company"
	// RoleAdmin: администратор площадки.
	RoleAdmin Role = "admin"
)

// Valid сообщает, является ли роль одной из известных.
func (r Role) Valid() bool {
	switch r {
	case RoleDriver, RoleCompany, RoleAdmin:
		return true
	}
	return false
}

// Unlimited обозначает отсутствие лимита просмотров контактов.
// Хранится в БД и отдаётся клиенту как -1.
const Unlimited = -1

// Plan представляет тарифный план. На момент принятия решения
// используется как снимок значения и не изменяется.
type Plan struct {
	Slug             string  `json:"slug"`
	Name             string  `json:"name"`
	TargetRole       Role    `json:"target_role"`
	PriceMonthly     float64 `json:"price_monthly"`
	ContactViewLimit int     `json:"contact_view_limit"` // Unlimited или >= 0
	IsActive         bool    `json:"is_active"`
	IsTrialPlan      bool    `json:"is_trial_plan"`
}

// IsUnlimited сообщает, что план не ограничивает просмотры контактов.
func (p Plan) IsUnlimited() bool {
	return p.ContactViewLimit < 0
}

// IsPaid сообщает, что план платный.
func (p Plan) IsPaid() bool {
	return p.PriceMonthly > 0
}
