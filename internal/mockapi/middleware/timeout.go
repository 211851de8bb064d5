package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Timeout ограничивает обработку запроса временем d. Если обработчик
// вернулся после дедлайна и ничего не записал, клиент получает 503 в
// формате конверта. Уже выставленный дедлайн не переопределяется;
// d <= 0 — no-op.
func Timeout(d time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if _, ok := ctx.Deadline(); !ok {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, d)
				defer cancel()
			}

			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r.WithContext(ctx))

			if sw.status == 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				writeError(w, http.StatusServiceUnavailable, "Request timeout")
			}
		})
	}
}

// Latency задерживает каждый запрос на d, имитируя медленный бэкенд.
// Ожидание прерывается отменой запроса.
func Latency(d time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t := time.NewTimer(d)
			defer t.Stop()

			select {
			case <-t.C:
				next.ServeHTTP(w, r)
			case <-r.Context().Done():
			}
		})
	}
}
