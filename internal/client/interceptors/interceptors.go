// interceptors — цепочка клиентских интерсепторов исходящих HTTP-вызовов
// к REST API: metadata -> timeout -> logging -> metrics.
//
// Интерсептор получает *http.Request (контекст — r.Context()) и следующий
// шаг цепочки. Авторизацию и refresh здесь не делаем: это задача клиента,
// которому нужно видеть результат вызова целиком.
package interceptors

import "net/http"

// Invoker выполняет запрос (обычно http.Client.Do в конце цепочки).
type Invoker func(req *http.Request) (*http.Response, error)

// Interceptor оборачивает вызов next.
type Interceptor func(req *http.Request, next Invoker) (*http.Response, error)

// Chain собирает интерсепторы вокруг final в порядке перечисления:
// первый интерсептор — внешний.
func Chain(final Invoker, ics ...Interceptor) Invoker {
	next := final
	for i := len(ics) - 1; i >= 0; i-- {
		ic, inner := ics[i], next
		next = func(req *http.Request) (*http.Response, error) {
			return ic(req, inner)
		}
	}

	return next
}
