// errors описывает таксономию ошибок клиента API:
//   - KindTransport — ответ не 2xx (кроме восстановленного 401);
//   - KindLogical — 2xx, но в конверте success=false;
//   - ErrSessionExpired — сессию не удалось продлить (нет refresh-токена
//     или обмен refresh-токена провалился), клиент разлогинен.
//
// Сетевые ошибки не заворачиваются в Error: вызывающий получает исходную
// ошибку net/http (через %w), её можно проверить errors.Is/As.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

var (
	// ErrSessionExpired — сессия завершена принудительно: токены очищены,
	// состояние переведено в logged-out. Вызывающему стоит отправить
	// пользователя на вход.
	ErrSessionExpired = stderrors.New("session expired")

	// ErrNoRefreshToken — причина ErrSessionExpired, когда в хранилище
	// не оказалось refresh-токена; обмен при этом не выполнялся.
	ErrNoRefreshToken = stderrors.New("no refresh token")
)

// Kind — класс ошибки API.
type Kind uint8

const (
	KindTransport Kind = iota + 1
	KindLogical
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindLogical:
		return "logical"
	default:
		return "unknown"
	}
}

// Error — ошибка, сформированная из ответа API.
// Error() возвращает только сообщение сервера: "200 + success=false" и
// "4xx с тем же message" для вызывающего выглядят одинаково.
type Error struct {
	Kind      Kind
	Status    int    // HTTP-статус ответа
	Code      int    // поле code из конверта, если было
	Message   string // безопасное сообщение сервера
	RequestID string // X-Request-Id исходящего запроса
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Status != 0 {
		return fmt.Sprintf("http %d: %s", e.Status, http.StatusText(e.Status))
	}

	return "api error"
}

// FromResponse строит ошибку из статуса и тела ответа.
// Тело читается лениво через gjson: конверт может быть неполным или не JSON.
func FromResponse(status int, body []byte, requestID string) *Error {
	kind := KindTransport
	if status >= 200 && status < 300 {
		kind = KindLogical
	}

	e := &Error{Kind: kind, Status: status, RequestID: requestID}

	if gjson.ValidBytes(body) {
		res := gjson.GetManyBytes(body, "message", "code", "title")
		e.Message = res[0].String()
		e.Code = int(res[1].Int())
		if e.Message == "" {
			e.Message = res[2].String()
		}
	}

	if e.Message == "" && kind == KindTransport {
		e.Message = http.StatusText(status)
	}

	return e
}

// As достаёт *Error из цепочки.
func As(err error) (*Error, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e, true
	}

	return nil, false
}

// StatusOf — HTTP-статус ошибки API или 0.
func StatusOf(err error) int {
	if e, ok := As(err); ok {
		return e.Status
	}

	return 0
}

// MessageOf — сообщение сервера или текст ошибки.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}

	if e, ok := As(err); ok {
		return e.Error()
	}

	return err.Error()
}

// IsUnauthorized — ответ 401 от API.
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

// IsSessionExpired — сессия завершена, требуется повторный вход.
func IsSessionExpired(err error) bool {
	return stderrors.Is(err, ErrSessionExpired)
}
