package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/freight-access/internal/models"
)

// GetRole возвращает роль пользователя из профиля.
func (s *Storage) GetRole(ctx context.Context, userID string) (models.Role, error) {
	const op = "storage.GetRole"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var role models.Role
	err := s.DB.QueryRowContext(ctx, `SELECT role FROM profiles WHERE user_id = $1`, userID).Scan(&role)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, notFoundOnBadInput(err))
	}
	return role, nil
}

// GetFreightOwner возвращает идентификатор компании, опубликовавшей груз.
func (s *Storage) GetFreightOwner(ctx context.Context, freightID string) (string, error) {
	const op = "storage.GetFreightOwner"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var companyID string
	err := s.DB.QueryRowContext(ctx, `SELECT company_id FROM freights WHERE id = $1`, freightID).Scan(&companyID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, notFoundOnBadInput(err))
	}
	return companyID, nil
}
