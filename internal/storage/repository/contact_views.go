package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/magabrotheeeer/freight-access/internal/models"
)

// FindContactView ищет событие просмотра по ключу (водитель, груз, месяц).
// Отсутствие события возвращается как models.ErrNotFound.
func (s *Storage) FindContactView(ctx context.Context, driverID, freightID, monthKey string) (*models.ContactViewEvent, error) {
	const op = "storage.FindContactView"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, driver_id, freight_id, company_id, month_key, viewed_at
			  FROM contact_view_events
			  WHERE driver_id = $1 AND freight_id = $2 AND month_key = $3`
	var ev models.ContactViewEvent
	err := s.DB.QueryRowContext(ctx, query, driverID, freightID, monthKey).
		Scan(&ev.ID, &ev.DriverID, &ev.FreightID, &ev.CompanyID, &ev.MonthKey, &ev.ViewedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFoundOnBadInput(err))
	}
	ev.ViewedAt = ev.ViewedAt.UTC()
	return &ev, nil
}

// CountContactViews считает просмотры водителя за месяц.
func (s *Storage) CountContactViews(ctx context.Context, driverID, monthKey string) (int, error) {
	const op = "storage.CountContactViews"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT COUNT(*) FROM contact_view_events WHERE driver_id = $1 AND month_key = $2`
	var count int
	if err := s.DB.QueryRowContext(ctx, query, driverID, monthKey).Scan(&count); err != nil {
		if errors.Is(notFoundOnBadInput(err), models.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// InsertContactViewIfAbsent атомарно добавляет событие, если ключа
// (водитель, груз, месяц) ещё нет. inserted == false означает, что
// событие уже записано, в том числе параллельным запросом.
func (s *Storage) InsertContactViewIfAbsent(ctx context.Context, ev models.ContactViewEvent) (bool, error) {
	const op = "storage.InsertContactViewIfAbsent"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO contact_view_events (id, driver_id, freight_id, company_id, month_key, viewed_at)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  ON CONFLICT ON CONSTRAINT uq_contact_view_driver_freight_month DO NOTHING
			  RETURNING id`
	var id string
	err := s.DB.QueryRowContext(ctx, query,
		ev.ID, ev.DriverID, ev.FreightID, ev.CompanyID, ev.MonthKey, ev.ViewedAt.UTC()).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return false, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return false, fmt.Errorf("%s: %w", op, notFoundOnBadInput(err))
	}
	return true, nil
}
