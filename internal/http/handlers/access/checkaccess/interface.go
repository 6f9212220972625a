package checkaccess

import (
	"context"

	"github.com/magabrotheeeer/freight-access/internal/models"
)

// Service описывает движок решений о доступе.
type Service interface {
	Evaluate(ctx context.Context, identity *models.Identity, action models.Action) (models.AccessDecision, error)
}
