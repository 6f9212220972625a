// Package identity разрешает bearer-токен в аутентифицированного пользователя.
// Подпись и срок действия проверяются локально, роль берётся из профиля.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/freight-access/internal/lib/jwt"
	"github.com/magabrotheeeer/freight-access/internal/models"
)

// TokenParser проверяет токен и возвращает его claims.
type TokenParser interface {
	ParseToken(tokenStr string) (*jwt.CustomClaims, error)
}

// ProfileStore возвращает роль пользователя.
type ProfileStore interface {
	GetRole(ctx context.Context, userID string) (models.Role, error)
}

// Provider: провайдер идентификации.
type Provider struct {
	tokens   TokenParser
	profiles ProfileStore
}

// New создаёт Provider.
func New(tokens TokenParser, profiles ProfileStore) *Provider {
	return &Provider{
		tokens:   tokens,
		profiles: profiles,
	}
}

// Resolve возвращает пользователя по токену. Пустой или недействительный токен,
// а также отсутствие профиля дают models.ErrUnauthenticated.
func (p *Provider) Resolve(ctx context.Context, token string) (*models.Identity, error) {
	const op = "identity.Resolve"

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUnauthenticated)
	}
	claims, err := p.tokens.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrUnauthenticated, err)
	}

	role, err := p.profiles.GetRole(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w: profile %s", op, models.ErrUnauthenticated, claims.UserID())
		}
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrLookupFailed, err)
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%s: %w: unknown role %q", op, models.ErrUnauthenticated, role)
	}
	return &models.Identity{UserID: claims.UserID(), Role: role}, nil
}
