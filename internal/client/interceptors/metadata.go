package interceptors

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type CtxKey string

// CtxRequestID — ключ контекста с request id, который надо переиспользовать
// (например, чтобы повтор после refresh шёл с тем же X-Request-Id).
const CtxRequestID CtxKey = "request_id"

// HeaderRequestID — заголовок корреляции запросов.
const HeaderRequestID = "X-Request-Id"

// WithRequestID кладёт request id в контекст.
func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, CtxRequestID, rid)
}

// RequestIDFrom возвращает request id из контекста или "".
func RequestIDFrom(ctx context.Context) string {
	rid, _ := ctx.Value(CtxRequestID).(string)
	return rid
}

// ClientWithMetadata добавляет в исходящий запрос заголовки:
//   - X-Request-Id: уже выставленный, из контекста или новый UUID;
//   - User-Agent, если передан параметром.
func ClientWithMetadata(userAgent string) Interceptor {
	return func(req *http.Request, next Invoker) (*http.Response, error) {
		if req.Header.Get(HeaderRequestID) == "" {
			rid := RequestIDFrom(req.Context())
			if rid == "" {
				rid = uuid.NewString()
			}
			req.Header.Set(HeaderRequestID, rid)
		}

		if userAgent != "" {
			req.Header.Set("User-Agent", userAgent)
		}

		return next(req)
	}
}
