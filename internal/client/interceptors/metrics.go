package interceptors

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics — метрики исходящих вызовов.
type RequestMetrics struct {
	duration *prometheus.HistogramVec
}

// NewRequestMetrics создаёт метрики и регистрирует их в reg (nil — без регистрации).
// Повторная регистрация переиспользует уже зарегистрированный коллектор.
func NewRequestMetrics(reg prometheus.Registerer) (*RequestMetrics, error) {
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "flashcards",
		Subsystem: "client",
		Name:      "request_duration_seconds",
		Help:      "Duration of outbound API calls by method and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "status"})

	if reg != nil {
		if err := reg.Register(duration); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return nil, err
			}
			duration = are.ExistingCollector.(*prometheus.HistogramVec)
		}
	}

	return &RequestMetrics{duration: duration}, nil
}

// ClientMetrics — интерсептор, наблюдающий длительность вызова.
// Сетевые ошибки попадают в status="error".
func ClientMetrics(m *RequestMetrics) Interceptor {
	return func(req *http.Request, next Invoker) (*http.Response, error) {
		start := time.Now()
		resp, err := next(req)

		status := "error"
		if err == nil && resp != nil {
			status = strconv.Itoa(resp.StatusCode)
		}
		m.duration.WithLabelValues(req.Method, status).Observe(time.Since(start).Seconds())

		return resp, err
	}
}
