// client — HTTP-клиент REST API с авторизацией по bearer-токену.
//
// Каждый исходящий запрос получает Authorization из tokens.Store. На 401
// клиент один раз продлевает сессию через /auth/refresh и повторяет запрос
// с новым токеном. Конкурентные вызовы, получившие 401, пока обмен уже идёт,
// ждут его результата и не запускают собственный. Если продлить сессию
// нельзя, хранилище очищается и срабатывают logout-хуки.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"

	"github.com/pribylovaa/flashcards-client/internal/client/interceptors"
	apierrors "github.com/pribylovaa/flashcards-client/internal/errors"
	"github.com/pribylovaa/flashcards-client/internal/tokens"
)

// DefaultRefreshTimeout — предел на один обмен refresh-токена.
const DefaultRefreshTimeout = 10 * time.Second

// RefreshPath — эндпойнт обмена refresh-токена относительно базового URL.
const RefreshPath = "/auth/refresh"

// LogoutHook вызывается, когда клиент принудительно завершил сессию.
// reason — причина (ErrNoRefreshToken или ошибка обмена).
type LogoutHook func(ctx context.Context, reason error)

// Client — авторизованный клиент API. Состояние refresh принадлежит
// экземпляру: два клиента с разными хранилищами не мешают друг другу.
type Client struct {
	base           *url.URL
	store          tokens.Store
	httpClient     *http.Client
	invoke         interceptors.Invoker
	log            *slog.Logger
	refreshTimeout time.Duration
	metrics        *Metrics

	flight singleflight.Group

	hooksMu sync.RWMutex
	hooks   []LogoutHook
}

type options struct {
	httpClient     *http.Client
	interceptors   []interceptors.Interceptor
	logger         *slog.Logger
	refreshTimeout time.Duration
	registerer     prometheus.Registerer
	hooks          []LogoutHook
}

// Option настраивает Client.
type Option func(*options)

// WithHTTPClient задаёт транспорт (по умолчанию http.Client без таймаута:
// таймауты выставляет интерсептор).
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithInterceptors задаёт цепочку исходящих интерсепторов.
func WithInterceptors(ics ...interceptors.Interceptor) Option {
	return func(o *options) { o.interceptors = append(o.interceptors, ics...) }
}

// WithLogger задаёт логгер клиента (по умолчанию slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRefreshTimeout задаёт предел на один обмен refresh-токена.
func WithRefreshTimeout(d time.Duration) Option {
	return func(o *options) { o.refreshTimeout = d }
}

// WithRegisterer регистрирует метрики refresh в reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithLogoutHook добавляет хук принудительного выхода при создании клиента.
func WithLogoutHook(h LogoutHook) Option {
	return func(o *options) { o.hooks = append(o.hooks, h) }
}

// New создаёт клиент для API с базовым URL baseURL (например
// http://localhost:5212/api).
func New(baseURL string, store tokens.Store, opts ...Option) (*Client, error) {
	const op = "client.New"

	if store == nil {
		return nil, fmt.Errorf("%s: nil token store", op)
	}

	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%s: parse base url: %w", op, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%s: base url %q must be absolute", op, baseURL)
	}

	o := options{refreshTimeout: DefaultRefreshTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{}
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.refreshTimeout <= 0 {
		o.refreshTimeout = DefaultRefreshTimeout
	}

	m, err := NewMetrics(o.registerer)
	if err != nil {
		return nil, fmt.Errorf("%s: metrics: %w", op, err)
	}

	c := &Client{
		base:           base,
		store:          store,
		httpClient:     o.httpClient,
		log:            o.logger.With(slog.String("component", "api_client")),
		refreshTimeout: o.refreshTimeout,
		metrics:        m,
		hooks:          o.hooks,
	}
	c.invoke = interceptors.Chain(c.httpClient.Do, o.interceptors...)

	return c, nil
}

// OnLogout добавляет хук принудительного выхода.
func (c *Client) OnLogout(h LogoutHook) {
	if h == nil {
		return
	}

	c.hooksMu.Lock()
	c.hooks = append(c.hooks, h)
	c.hooksMu.Unlock()
}

// Request — логический запрос к API. Тело хранится байтами, чтобы запрос
// можно было отправить повторно после refresh.
type Request struct {
	Method      string
	Path        string // относительно базового URL, например "/decks/5"
	Query       url.Values
	Header      http.Header
	Body        []byte
	ContentType string
	// Anonymous — запрос уходит без bearer, а 401 возвращается как есть
	// (login, register, сброс пароля).
	Anonymous bool

	retried bool
	// bearer — токен, полученный при восстановлении сессии, для повтора.
	bearer string
}

// NewJSONRequest сериализует body в JSON (nil — без тела).
func NewJSONRequest(method, path string, body any) (*Request, error) {
	const op = "client.NewJSONRequest"

	req := &Request{Method: method, Path: path}
	if body == nil {
		return req, nil
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Body = raw
	req.ContentType = "application/json"

	return req, nil
}

// Response — прочитанный целиком ответ API.
type Response struct {
	Status    int
	Header    http.Header
	Body      []byte
	RequestID string
}

// Do выполняет запрос. Результат:
//   - 2xx с success!=false — *Response;
//   - 2xx с success=false — *apierrors.Error{Kind: KindLogical};
//   - остальные статусы — *apierrors.Error{Kind: KindTransport};
//   - сессию продлить не удалось — ошибка с apierrors.ErrSessionExpired;
//   - сетевая ошибка — завёрнутая ошибка net/http.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	const op = "client.Do"

	if req == nil {
		return nil, fmt.Errorf("%s: nil request", op)
	}

	// Копия: флаг retried относится к одному вызову Do.
	r := *req
	r.retried = false
	r.bearer = ""

	// Повтор после refresh идёт с тем же X-Request-Id.
	rid := interceptors.RequestIDFrom(ctx)
	if rid == "" {
		rid = uuid.NewString()
		ctx = interceptors.WithRequestID(ctx, rid)
	}

	for {
		resp, sentWith, err := c.send(ctx, &r)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		resp.RequestID = rid

		if resp.Status == http.StatusUnauthorized && !r.retried && !r.Anonymous {
			r.retried = true

			unauthorized := apierrors.FromResponse(resp.Status, resp.Body, rid)
			token, err := c.recoverSession(ctx, sentWith, unauthorized)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			r.bearer = token

			continue
		}

		if err := checkEnvelope(resp); err != nil {
			return nil, err
		}

		return resp, nil
	}
}

// send отправляет запрос через цепочку интерсепторов и читает тело.
// Возвращает access-токен, с которым запрос ушёл ("" — без авторизации).
func (c *Client) send(ctx context.Context, r *Request) (*Response, string, error) {
	hreq, err := c.newHTTPRequest(ctx, r.Method, r.Path, r.Query, r.Body, r.ContentType)
	if err != nil {
		return nil, "", err
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			hreq.Header.Add(k, v)
		}
	}

	var sentWith string
	switch {
	case r.Anonymous:
	case r.bearer != "":
		hreq.Header.Set("Authorization", "Bearer "+r.bearer)
		sentWith = r.bearer
	default:
		sentWith = c.attachBearer(hreq)
	}

	resp, err := c.roundTrip(hreq)
	if err != nil {
		return nil, sentWith, err
	}

	return resp, sentWith, nil
}

func (c *Client) newHTTPRequest(ctx context.Context, method, path string, query url.Values, body []byte, contentType string) (*http.Request, error) {
	u := c.URL(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}

	if method == "" {
		method = http.MethodGet
	}

	hreq, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		hreq.Header.Set("Content-Type", contentType)
	}
	hreq.Header.Set("Accept", "application/json")

	return hreq, nil
}

func (c *Client) roundTrip(hreq *http.Request) (*Response, error) {
	resp, err := c.invoke(hreq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// URL — абсолютный адрес пути относительно базового URL.
func (c *Client) URL(path string) *url.URL {
	return c.base.JoinPath(strings.TrimLeft(path, "/"))
}

// attachBearer подставляет токен из хранилища. Ошибка чтения хранилища
// не роняет запрос: он уходит без авторизации.
func (c *Client) attachBearer(hreq *http.Request) string {
	pair, err := c.store.Load(hreq.Context())
	if err != nil {
		c.logFor(hreq.Context()).Warn("token_load_failed", slog.String("err", err.Error()))
		return ""
	}
	if pair.AccessToken == "" {
		return ""
	}

	hreq.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	return pair.AccessToken
}

// checkEnvelope превращает не-2xx и 2xx с success=false в *apierrors.Error.
func checkEnvelope(resp *Response) error {
	if resp.Status < 200 || resp.Status >= 300 {
		return apierrors.FromResponse(resp.Status, resp.Body, resp.RequestID)
	}

	if logicalFailure(resp.Body) {
		return apierrors.FromResponse(resp.Status, resp.Body, resp.RequestID)
	}

	return nil
}

func (c *Client) fireLogout(ctx context.Context, reason error) {
	c.hooksMu.RLock()
	hooks := append([]LogoutHook(nil), c.hooks...)
	c.hooksMu.RUnlock()

	for _, h := range hooks {
		h(ctx, reason)
	}
}

// logFor — логгер клиента с request_id вызова.
func (c *Client) logFor(ctx context.Context) *slog.Logger {
	if rid := interceptors.RequestIDFrom(ctx); rid != "" {
		return c.log.With(slog.String("request_id", rid))
	}

	return c.log
}
