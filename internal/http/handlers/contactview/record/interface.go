package record

import (
	"context"

	"github.com/magabrotheeeer/freight-access/internal/models"
)

// Service описывает запись просмотра контакта.
type Service interface {
	Record(ctx context.Context, driverID, freightID string) (models.RecordResult, error)
}
