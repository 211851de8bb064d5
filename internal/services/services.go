// services — типизированные обёртки над эндпойнтами REST API: по одной
// функции на эндпойнт. Авторизация, refresh и разбор ошибок делает
// client.Client; здесь только пути, параметры и типы data.
package services

import (
	"errors"

	"github.com/pribylovaa/flashcards-client/internal/client"
)

var (
	// ErrInvalidDailyGoal — дневная цель вне [DailyGoalMin, DailyGoalMax].
	ErrInvalidDailyGoal = errors.New("daily goal out of range")
	// ErrInvalidDeckType — тип колоды не Vocabulary/Grammar.
	ErrInvalidDeckType = errors.New("invalid deck type")
	// ErrEmptyAvatar — пустой файл аватара.
	ErrEmptyAvatar = errors.New("empty avatar file")
)

// Services агрегирует обёртки всех разделов API поверх одного клиента.
type Services struct {
	Auth  *AuthService
	Decks *DeckService
	Store *StoreService
	Users *UserService
}

// New создаёт обёртки поверх c.
func New(c *client.Client) *Services {
	return &Services{
		Auth:  &AuthService{c: c},
		Decks: &DeckService{c: c},
		Store: &StoreService{c: c},
		Users: &UserService{c: c},
	}
}
