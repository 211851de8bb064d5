package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/pribylovaa/flashcards-client/internal/client/interceptors"
)

// RequestID обеспечивает наличие X-Request-Id:
//  1. читает заголовок, если клиент его прислал;
//  2. иначе генерирует UUID;
//  3. кладёт id в заголовки ответа и запроса и в контекст
//     (interceptors.CtxRequestID).
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(interceptors.HeaderRequestID)
			if id == "" {
				id = uuid.NewString()
				r.Header.Set(interceptors.HeaderRequestID, id)
			}
			w.Header().Set(interceptors.HeaderRequestID, id)

			ctx := interceptors.WithRequestID(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
