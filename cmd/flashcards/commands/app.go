package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/pribylovaa/flashcards-client/internal/client"
	"github.com/pribylovaa/flashcards-client/internal/client/interceptors"
	"github.com/pribylovaa/flashcards-client/internal/config"
	"github.com/pribylovaa/flashcards-client/internal/locale"
	"github.com/pribylovaa/flashcards-client/internal/media"
	"github.com/pribylovaa/flashcards-client/internal/services"
	"github.com/pribylovaa/flashcards-client/internal/session"
	"github.com/pribylovaa/flashcards-client/internal/tokens"
)

const (
	envDev  = "dev"
	envProd = "prod"
)

// App — зависимости одного запуска CLI.
type App struct {
	flags struct {
		config  string
		lang    string
		verbose bool
	}

	cfg     *config.Config
	log     *slog.Logger
	store   tokens.Store
	svc     *services.Services
	session *session.Manager
	media   media.Resolver
	loc     *locale.Localizer

	closers []func() error
}

func (a *App) init(ctx context.Context, cmd *cobra.Command) error {
	const op = "commands.init"

	cfg, err := config.Load(a.flags.config)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	a.cfg = cfg

	log, closeLog := setupLogger(cfg.Env, cfg.Log, a.flags.verbose, cmd.ErrOrStderr())
	a.log = log
	a.closers = append(a.closers, closeLog)
	slog.SetDefault(log)

	store, closeStore, err := newTokenStore(ctx, cfg.Tokens)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	a.store = store
	a.closers = append(a.closers, closeStore)

	reg := prometheus.NewRegistry()
	reqMetrics, err := interceptors.NewRequestMetrics(reg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	c, err := client.New(cfg.API.BaseURL, store,
		client.WithLogger(log),
		client.WithRefreshTimeout(cfg.Timeouts.Refresh),
		client.WithRegisterer(reg),
		client.WithInterceptors(
			interceptors.ClientWithMetadata(cfg.API.UserAgent),
			interceptors.ClientWithTimeout(cfg.Timeouts.Request),
			interceptors.ClientLoggingInterceptor(log),
			interceptors.ClientMetrics(reqMetrics),
		),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	a.svc = services.New(c)
	a.session = session.New(store, a.svc.Auth, a.svc.Users,
		session.WithLogger(log),
		session.WithLanguage(a.flags.lang),
	)
	c.OnLogout(a.session.HandleForcedLogout)
	a.media = media.NewResolver(cfg.API.ImageBaseURL, cfg.API.BaseURL)

	if cfg.Metrics.Enabled() {
		a.serveMetrics(reg, cfg.Metrics.Addr())
	}

	return nil
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && a.log != nil {
			a.log.Warn("close_failed", slog.String("err", err.Error()))
		}
	}
	a.closers = nil
}

// serveMetrics отдаёт /metrics клиента, пока работает команда
// (имеет смысл для dashboard --watch).
func (a *App) serveMetrics(reg *prometheus.Registry, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		a.log.Warn("metrics_listen_failed", slog.String("addr", addr), slog.String("err", err.Error()))
		return
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Warn("metrics_serve_failed", slog.String("err", err.Error()))
		}
	}()
	a.log.Debug("metrics_listen_start", slog.String("addr", addr))

	a.closers = append(a.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	})
}

// requireLogin проверяет наличие сессии без сетевого запроса.
func (a *App) requireLogin(ctx context.Context) error {
	pair, err := a.store.Load(ctx)
	if err != nil {
		return err
	}
	if pair.Empty() {
		return session.ErrNotLoggedIn
	}

	return nil
}

// localizer — язык из --lang, иначе язык аккаунта (если сессия
// восстановлена), иначе язык по умолчанию.
func (a *App) localizer() *locale.Localizer {
	lang := a.flags.lang
	if lang == "" && a.session != nil {
		lang = a.session.Language()
	}
	if a.loc == nil || a.loc.Lang() != locale.Normalize(lang) {
		a.loc = locale.NewLocalizer(lang)
	}

	return a.loc
}

func (a *App) t(id string, data map[string]any) string {
	return a.localizer().T(id, data)
}

// setupLogger: CLI пишет логи в файл с ротацией, если он задан, иначе
// в stderr. В stderr без --verbose идут только предупреждения.
func setupLogger(env string, lc config.LogConfig, verbose bool, stderr io.Writer) (*slog.Logger, func() error) {
	level := slog.LevelDebug
	if env == envProd {
		level = slog.LevelInfo
	}

	if lc.File != "" {
		w := &lumberjack.Logger{
			Filename:   lc.File,
			MaxSize:    lc.MaxSizeMB,
			MaxBackups: lc.MaxBackups,
			MaxAge:     lc.MaxAgeDays,
			Compress:   true,
		}
		return newLogger(env, w, level), w.Close
	}

	if !verbose {
		level = slog.LevelWarn
	}

	return newLogger(env, stderr, level), func() error { return nil }
}

func newLogger(env string, w io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	switch env {
	case envDev, envProd:
		return slog.New(slog.NewJSONHandler(w, opts))
	default:
		return slog.New(slog.NewTextHandler(w, opts))
	}
}

// newTokenStore выбирает хранилище по tokens.driver.
func newTokenStore(ctx context.Context, tc config.TokensConfig) (tokens.Store, func() error, error) {
	noop := func() error { return nil }

	switch tc.Driver {
	case config.TokensMemory:
		return tokens.NewMemoryStore(tokens.Pair{}), noop, nil
	case config.TokensRedis:
		s, err := tokens.NewRedisStore(ctx, tc.RedisURL, tc.Prefix, tc.Profile)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		path := tc.Path
		if path == "" {
			p, err := tokens.DefaultPath()
			if err != nil {
				return nil, nil, err
			}
			path = p
		}
		s, err := tokens.NewFileStore(path)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	}
}
