// tokens хранит пару access/refresh-токенов текущей сессии.
//
// Хранилище читают и пишут двое: клиент API (подстановка bearer, запись
// после refresh, очистка при провале refresh) и менеджер сессии
// (login/register/logout). Все реализации безопасны для конкурентного
// использования из разных горутин.
package tokens

import (
	"context"
	"errors"
)

// Фиксированные ключи, под которыми токены лежат в персистентных хранилищах.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
)

// ErrClosed — хранилище уже закрыто.
var ErrClosed = errors.New("token store closed")

// Pair — пара токенов сессии.
type Pair struct {
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// Empty — в паре нет ни одного токена.
func (p Pair) Empty() bool { return p.AccessToken == "" && p.RefreshToken == "" }

//go:generate mockgen -destination=../../mocks/mock_tokens.go -package=mocks github.com/pribylovaa/flashcards-client/internal/tokens Store

// Store — контракт хранилища пары токенов.
type Store interface {
	// Load возвращает текущую пару; отсутствие сессии — пустая пара без ошибки.
	Load(ctx context.Context) (Pair, error)
	// Save атомарно заменяет пару целиком.
	Save(ctx context.Context, p Pair) error
	// Clear удаляет оба токена.
	Clear(ctx context.Context) error
}
