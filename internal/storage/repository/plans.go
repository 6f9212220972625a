package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/freight-access/internal/models"
)

// planColumns ожидает, что таблица plans подключена под псевдонимом p.
const planColumns = `p.slug, p.name, p.target_role, p.price_monthly::float8, p.contact_view_limit, p.is_active, p.is_trial_plan`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner, p *models.Plan) error {
	return row.Scan(&p.Slug, &p.Name, &p.TargetRole, &p.PriceMonthly,
		&p.ContactViewLimit, &p.IsActive, &p.IsTrialPlan)
}

// GetPlan возвращает план по slug или models.ErrNotFound.
func (s *Storage) GetPlan(ctx context.Context, slug string) (*models.Plan, error) {
	const op = "storage.GetPlan"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + planColumns + ` FROM plans p WHERE p.slug = $1`
	var p models.Plan
	if err := scanPlan(s.DB.QueryRowContext(ctx, query, slug), &p); err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFoundOnBadInput(err))
	}
	return &p, nil
}

// ListPlans возвращает планы для роли. Пустая роль означает все роли.
// activeOnly скрывает планы, снятые с продажи.
func (s *Storage) ListPlans(ctx context.Context, role models.Role, activeOnly bool) ([]models.Plan, error) {
	const op = "storage.ListPlans"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + planColumns + ` FROM plans p
			  WHERE ($1::text = '' OR p.target_role = $1::text)
			    AND (NOT $2::boolean OR p.is_active)
			  ORDER BY p.target_role, p.price_monthly, p.slug`
	rows, err := s.DB.QueryContext(ctx, query, string(role), activeOnly)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	plans := make([]models.Plan, 0)
	for rows.Next() {
		var p models.Plan
		if err := scanPlan(rows, &p); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return plans, nil
}
