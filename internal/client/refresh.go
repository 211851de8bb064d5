package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	apierrors "github.com/pribylovaa/flashcards-client/internal/errors"
	"github.com/pribylovaa/flashcards-client/internal/models"
	"github.com/pribylovaa/flashcards-client/internal/pkg/redact"
	"github.com/pribylovaa/flashcards-client/internal/tokens"
)

// refreshKey — единственный ключ singleflight: в полёте не больше одного обмена.
const refreshKey = "refresh"

var errEmptyAccessToken = errors.New("refresh response has no access token")

// recoverSession восстанавливает сессию после 401 на запросе, ушедшем с токеном
// sentWith, и возвращает access-токен для повтора.
func (c *Client) recoverSession(ctx context.Context, sentWith string, unauthorized error) (string, error) {
	const op = "client.recoverSession"

	// Та же проверка повторяется в exchange внутри полёта.
	if pair, err := c.store.Load(ctx); err == nil {
		if token, ok, err := c.settled(ctx, pair, sentWith, unauthorized); ok {
			if err != nil {
				return "", fmt.Errorf("%s: %w", op, err)
			}
			return token, nil
		}
	}

	token, err := c.refresh(ctx, sentWith, unauthorized)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return token, nil
}

// settled проверяет, не решил ли судьбу сессии другой вызов, пока запрос
// с токеном sentWith был в полёте. ok=false — нужен обмен.
func (c *Client) settled(ctx context.Context, pair tokens.Pair, sentWith string, unauthorized error) (string, bool, error) {
	switch {
	case pair.AccessToken != "" && pair.AccessToken != sentWith:
		c.logFor(ctx).Debug("refresh_skipped_token_rotated")
		return pair.AccessToken, true, nil
	case sentWith != "" && pair.Empty():
		// Хуки уже сработали в том вызове, что завершил сессию.
		return "", true, fmt.Errorf("%w: %w", apierrors.ErrSessionExpired, unauthorized)
	}

	return "", false, nil
}

// refresh присоединяется к текущему обмену или запускает новый и ждёт
// результата. Обмен выполняется без отмены от ctx вызывающего: ожидающий
// может уйти по ctx, остальные всё равно получат результат.
func (c *Client) refresh(ctx context.Context, sentWith string, unauthorized error) (string, error) {
	const op = "client.refresh"

	leader := false
	detached := context.WithoutCancel(ctx)
	ch := c.flight.DoChan(refreshKey, func() (any, error) {
		leader = true
		return c.exchange(detached, sentWith, unauthorized)
	})

	select {
	case res := <-ch:
		if !leader {
			c.metrics.queued.Inc()
			c.logFor(ctx).Debug("refresh_joined")
		}
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	}
}

// exchange — тело обмена: ровно один вызов на полёт. Проверка хранилища
// повторяется внутри полёта, поэтому поздний 401 от уже обновлённой или уже
// завершённой сессии не запускает второй обмен.
// На любом неуспехе хранилище очищается до того, как ожидающие получат
// результат, и срабатывают logout-хуки.
func (c *Client) exchange(ctx context.Context, sentWith string, unauthorized error) (token string, err error) {
	const op = "client.exchange"

	ctx, cancel := context.WithTimeout(ctx, c.refreshTimeout)
	defer cancel()

	l := c.logFor(ctx)
	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%s: %w: panic: %v", op, apierrors.ErrSessionExpired, p)
			c.metrics.refreshes.WithLabelValues(refreshFailure).Inc()
			c.endSession(ctx, err)
		}
	}()

	pair, err := c.store.Load(ctx)
	if err != nil {
		c.metrics.refreshes.WithLabelValues(refreshFailure).Inc()
		err = fmt.Errorf("%s: %w: load tokens: %w", op, apierrors.ErrSessionExpired, err)
		c.endSession(ctx, err)
		return "", err
	}

	if token, ok, err := c.settled(ctx, pair, sentWith, unauthorized); ok {
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		return token, nil
	}

	if pair.RefreshToken == "" {
		c.metrics.refreshes.WithLabelValues(refreshNoToken).Inc()
		l.Info("refresh_no_token")
		c.endSession(ctx, apierrors.ErrNoRefreshToken)
		return "", fmt.Errorf("%s: %w: %w: %w", op, apierrors.ErrSessionExpired, apierrors.ErrNoRefreshToken, unauthorized)
	}

	l.Info("refresh_started", slog.String("refresh_token", redact.TokenTail(pair.RefreshToken)))

	tp, err := c.exchangeRefreshToken(ctx, pair.RefreshToken)
	if err == nil {
		if tp.RefreshToken == "" {
			tp.RefreshToken = pair.RefreshToken
		}
		err = c.store.Save(ctx, tokens.Pair{AccessToken: tp.AccessToken, RefreshToken: tp.RefreshToken})
	}
	if err != nil {
		c.metrics.refreshes.WithLabelValues(refreshFailure).Inc()
		l.Warn("refresh_failed",
			slog.String("err", err.Error()),
			slog.Duration("dur", time.Since(start)),
		)
		c.endSession(ctx, err)
		return "", fmt.Errorf("%s: %w: %w", op, apierrors.ErrSessionExpired, err)
	}

	c.metrics.refreshes.WithLabelValues(refreshSuccess).Inc()
	l.Info("refresh_succeeded", slog.Duration("dur", time.Since(start)))

	return tp.AccessToken, nil
}

// exchangeRefreshToken отправляет POST /auth/refresh мимо подстановки
// bearer и мимо обработки 401.
func (c *Client) exchangeRefreshToken(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	body, err := json.Marshal(models.RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return models.TokenPair{}, err
	}

	hreq, err := c.newHTTPRequest(ctx, http.MethodPost, RefreshPath, nil, body, "application/json")
	if err != nil {
		return models.TokenPair{}, err
	}

	resp, err := c.roundTrip(hreq)
	if err != nil {
		return models.TokenPair{}, err
	}
	if err := checkEnvelope(resp); err != nil {
		return models.TokenPair{}, err
	}

	env, err := DecodeEnvelope[models.TokenPair](resp)
	if err != nil {
		return models.TokenPair{}, err
	}
	if env.Data.AccessToken == "" {
		return models.TokenPair{}, errEmptyAccessToken
	}

	return env.Data, nil
}

// endSession очищает токены и оповещает хуки.
func (c *Client) endSession(ctx context.Context, reason error) {
	if err := c.store.Clear(ctx); err != nil {
		c.logFor(ctx).Error("token_clear_failed", slog.String("err", err.Error()))
	}

	c.logFor(ctx).Info("session_ended", slog.String("reason", reason.Error()))
	c.fireLogout(ctx, reason)
}
