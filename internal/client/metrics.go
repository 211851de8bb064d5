package client

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Исходы обмена refresh-токена (label result).
const (
	refreshSuccess = "success"
	refreshFailure = "failure"
	refreshNoToken = "no_token"
)

// Metrics — счётчики продления сессии.
type Metrics struct {
	refreshes *prometheus.CounterVec
	queued    prometheus.Counter
}

// NewMetrics создаёт счётчики и регистрирует их в reg (nil — без регистрации).
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flashcards",
			Subsystem: "client",
			Name:      "refresh_total",
			Help:      "Refresh token exchanges by result.",
		}, []string{"result"}),
		queued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flashcards",
			Subsystem: "client",
			Name:      "refresh_waiters_total",
			Help:      "Calls that waited on a refresh started by another call.",
		}),
	}

	if reg == nil {
		return m, nil
	}

	var err error
	if m.refreshes, err = register(reg, m.refreshes); err != nil {
		return nil, err
	}
	if m.queued, err = register(reg, m.queued); err != nil {
		return nil, err
	}

	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}

	return c, nil
}
