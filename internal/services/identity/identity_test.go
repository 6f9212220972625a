package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/freight-access/internal/lib/jwt"
	"github.com/magabrotheeeer/freight-access/internal/models"
)

type ProfilesMock struct{ mock.Mock }

func (m *ProfilesMock) GetRole(ctx context.Context, userID string) (models.Role, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(models.Role), args.Error(1)
}

func TestProvider_Resolve(t *testing.T) {
	maker := jwt.NewJWTMaker("test-secret", time.Hour, "freight-marketplace")
	token, err := maker.GenerateToken("user-1", "company")
	require.NoError(t, err)
	foreign, err := jwt.NewJWTMaker("other-secret", time.Hour, "freight-marketplace").GenerateToken("user-1", "company")
	require.NoError(t, err)

	tests := []struct {
		name      string
		token     string
		setupMock func(*ProfilesMock)
		want      *models.Identity
		wantErr   error
	}{
		{
			name:  "валидный токен",
			token: token,
			setupMock: func(m *ProfilesMock) {
				m.On("GetRole", mock.Anything, "user-1").Return(models.RoleDriver, nil)
			},
			want: &models.Identity{UserID: "user-1", Role: models.RoleDriver},
		},
		{
			name:      "пустой токен",
			token:     "  ",
			setupMock: func(_ *ProfilesMock) {},
			wantErr:   models.ErrUnauthenticated,
		},
		{
			name:      "чужая подпись",
			token:     foreign,
			setupMock: func(_ *ProfilesMock) {},
			wantErr:   models.ErrUnauthenticated,
		},
		{
			name:  "нет профиля",
			token: token,
			setupMock: func(m *ProfilesMock) {
				m.On("GetRole", mock.Anything, "user-1").Return(models.Role(""), models.ErrNotFound)
			},
			wantErr: models.ErrUnauthenticated,
		},
		{
			name:  "неизвестная роль",
			token: token,
			setupMock: func(m *ProfilesMock) {
				m.On("GetRole", mock.Anything, "user-1").Return(models.Role("guest"), nil)
			},
			wantErr: models.ErrUnauthenticated,
		},
		{
			name:  "ошибка хранилища профилей",
			token: token,
			setupMock: func(m *ProfilesMock) {
				m.On("GetRole", mock.Anything, "user-1").Return(models.Role(""), errors.New("db down"))
			},
			wantErr: models.ErrLookupFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profiles := new(ProfilesMock)
			tt.setupMock(profiles)
			p := New(maker, profiles)

			got, err := p.Resolve(context.Background(), tt.token)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			profiles.AssertExpectations(t)
		})
	}
}
