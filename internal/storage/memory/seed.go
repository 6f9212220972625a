package memory

import "github.com/magabrotheeeer/freight-access/internal/models"

// DefaultPlans повторяет каталог из миграции 000002_seed_plans.
func DefaultPlans() []models.Plan {
	return []models.Plan{
		{Slug: "driver-free", Name: "Driver Free", TargetRole: models.RoleDriver, ContactViewLimit: 5, IsActive: true},
		{Slug: "driver-basic", Name: "Driver Basic", TargetRole: models.RoleDriver, PriceMonthly: 19.90, ContactViewLimit: 30, IsActive: true},
		{Slug: "driver-pro", Name: "Driver Pro", TargetRole: models.RoleDriver, PriceMonthly: 49.90, ContactViewLimit: models.Unlimited, IsActive: true},
		{Slug: "company-trial", Name: "Company Trial", TargetRole: models.RoleCompany, IsActive: true, IsTrialPlan: true},
		{Slug: "company-pro", Name: "Company Pro", TargetRole: models.RoleCompany, PriceMonthly: 99.00, IsActive: true},
	}
}

// NewSeeded создаёт хранилище с каталогом планов по умолчанию.
func NewSeeded() *Storage {
	s := New()
	for _, p := range DefaultPlans() {
		s.AddPlan(p)
	}
	return s
}
