package interceptors

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/pribylovaa/flashcards-client/internal/pkg/log"
)

// ClientLoggingInterceptor — логирование исходящих вызовов.
// Поведение:
//   - добавляет поля request_id/method/path, прокладывает логгер в контекст;
//   - пишет одну финальную запись: msg="http_client", status, dur
//     (Info для ответа, Warn для сетевой ошибки).
//
// Не логирует тело запроса/ответа и заголовок Authorization.
// Должен стоять после ClientWithMetadata, чтобы request_id уже был выставлен.
func ClientLoggingInterceptor(base *slog.Logger) Interceptor {
	return func(req *http.Request, next Invoker) (*http.Response, error) {
		start := time.Now()

		l := base
		if l == nil {
			l = log.From(req.Context())
		}
		l = l.With(
			slog.String("request_id", req.Header.Get(HeaderRequestID)),
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
		)
		req = req.WithContext(log.Into(req.Context(), l))

		resp, err := next(req)
		if err != nil {
			l.Warn("http_client",
				slog.String("err", err.Error()),
				slog.Duration("dur", time.Since(start)),
			)
			return resp, err
		}

		l.Info("http_client",
			slog.Int("status", resp.StatusCode),
			slog.Duration("dur", time.Since(start)),
		)

		return resp, nil
	}
}
