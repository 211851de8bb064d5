package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pribylovaa/flashcards-client/internal/pkg/log"
)

type ctxKey struct{}

// Verifier проверяет access-токен и возвращает id пользователя.
type Verifier func(token string) (int64, error)

// AuthBearer требует валидный "Authorization: Bearer <token>".
// Нет токена или verify вернул ошибку — 401 в формате конверта;
// иначе id пользователя кладётся в контекст (см. UserID) и в логгер запроса.
func AuthBearer(verify Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const prefix = "Bearer "

			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, prefix) {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			token := strings.TrimSpace(auth[len(prefix):])
			if token == "" {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			uid, err := verify(token)
			if err != nil {
				log.From(r.Context()).Debug("bearer_rejected", slog.String("err", err.Error()))
				writeError(w, http.StatusUnauthorized, "Token is invalid or expired")
				return
			}

			ctx, _ := log.With(r.Context(), slog.Int64("user_id", uid))
			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, ctxKey{}, uid)))
		})
	}
}

// UserID — id пользователя, проверенный AuthBearer.
func UserID(ctx context.Context) (int64, bool) {
	uid, ok := ctx.Value(ctxKey{}).(int64)
	return uid, ok
}
