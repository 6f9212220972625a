package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/freight-access/internal/migrations"
	"github.com/magabrotheeeer/freight-access/internal/models"
)

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции.
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(connStr)
	require.NoError(t, err, "failed to create storage")

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath))

	cleanup := func() {
		_ = storage.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
	return storage, cleanup
}

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateProfile создает профиль и возвращает его идентификатор
func (f *TestDataFactory) CreateProfile(t *testing.T, role models.Role) string {
	id := uuid.New().String()
	_, err := f.storage.DB.Exec(`INSERT INTO profiles (user_id, role) VALUES ($1, $2)`, id, string(role))
	require.NoError(t, err)
	return id
}

// CreateFreight создает груз компании
func (f *TestDataFactory) CreateFreight(t *testing.T, companyID string) string {
	var id string
	err := f.storage.DB.QueryRow(`INSERT INTO freights (company_id, title) VALUES ($1, 'test cargo') RETURNING id`,
		companyID).Scan(&id)
	require.NoError(t, err)
	return id
}

// CreateSubscription создает подписку с заданным статусом и временем создания
func (f *TestDataFactory) CreateSubscription(t *testing.T, userID, planSlug string,
	status models.SubscriptionStatus, trialEndsAt *time.Time, createdAt time.Time) string {
	var id string
	err := f.storage.DB.QueryRow(`INSERT INTO subscriptions (user_id, plan_slug, status, trial_ends_at, created_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		userID, planSlug, string(status), trialEndsAt, createdAt).Scan(&id)
	require.NoError(t, err)
	return id
}

// NewContactView собирает событие просмотра для вставки
func NewContactView(driverID, freightID, companyID, monthKey string) models.ContactViewEvent {
	return models.ContactViewEvent{
		ID:        uuid.New().String(),
		DriverID:  driverID,
		FreightID: freightID,
		CompanyID: companyID,
		MonthKey:  monthKey,
		ViewedAt:  time.Now().UTC(),
	}
}
