package interceptors

import (
	"context"
	"io"
	"net/http"
	"time"
)

// ClientWithTimeout навешивает таймаут d на исходящий вызов, если у контекста
// ещё нет дедлайна. Существующий дедлайн не переопределяется.
//
// Контракт:
//  1. d <= 0 — не модифицирует запрос;
//  2. у контекста уже есть deadline — оставляет как есть;
//  3. иначе — оборачивает контекст context.WithTimeout; cancel вызывается
//     при закрытии тела ответа (или сразу, если вызов вернул ошибку),
//     иначе чтение тела оборвалось бы сразу после возврата из next.
func ClientWithTimeout(d time.Duration) Interceptor {
	return func(req *http.Request, next Invoker) (*http.Response, error) {
		if d <= 0 {
			return next(req)
		}
		if _, ok := req.Context().Deadline(); ok {
			return next(req)
		}

		ctx, cancel := context.WithTimeout(req.Context(), d)
		resp, err := next(req.WithContext(ctx))
		if err != nil || resp == nil || resp.Body == nil {
			cancel()
			return resp, err
		}

		resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
		return resp, nil
	}
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
