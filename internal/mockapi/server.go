// mockapi — in-memory реализация REST API флэшкарт для разработки и тестов.
//
// Сервер повторяет контракт настоящего бэкенда: конверт
// {code, success, message, data, metaData}, HS256 access-токены с TTL,
// ротируемые непрозрачные refresh-токены, bcrypt-пароли. Всё состояние
// живёт в памяти экземпляра Server и защищено одним мьютексом.
package mockapi

import (
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/flashcards-client/internal/mockapi/middleware"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 30 * 24 * time.Hour
	DefaultJWTSecret  = "dev-secret"

	defaultPageSize = 10
	maxPageSize     = 100
)

// Options — параметры mock-сервера.
type Options struct {
	Logger     *slog.Logger
	Timeout    time.Duration
	BasePath   string // например "/api"; пустой — роуты на корне
	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// Seed наполняет витрину демонстрационными колодами.
	Seed bool
	// Latency задерживает каждый ответ.
	Latency time.Duration
	// Now подменяет часы (тесты TTL).
	Now func() time.Time
}

// Server — состояние mock-бэкенда.
type Server struct {
	opts Options
	log  *slog.Logger

	mu            sync.Mutex
	nextUserID    int64
	nextDeckID    int64
	users         map[int64]*user
	byEmail       map[string]int64
	decks         map[int64]*deck
	refreshTokens map[string]refreshEntry // sha256(token) -> entry
	resetTokens   map[string]int64        // reset token -> user id

	// generation входит в claims access-токена; InvalidateAccessTokens
	// увеличивает его и тем самым отзывает все выданные токены.
	generation atomic.Int64
	refreshes  atomic.Int64
}

// New создаёт сервер с пустым состоянием (и витриной, если opts.Seed).
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.JWTSecret == "" {
		opts.JWTSecret = DefaultJWTSecret
	}
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = DefaultAccessTTL
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = DefaultRefreshTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		opts:          opts,
		log:           opts.Logger.With(slog.String("component", "mockapi")),
		users:         make(map[int64]*user),
		byEmail:       make(map[string]int64),
		decks:         make(map[int64]*deck),
		refreshTokens: make(map[string]refreshEntry),
		resetTokens:   make(map[string]int64),
	}

	if opts.Seed {
		s.seed()
	}

	return s
}

// Handler собирает chi-роутер со всеми эндпойнтами и мидлварами.
func (s *Server) Handler() http.Handler {
	root := chi.NewRouter()

	// Внешний -> внутренний.
	root.Use(
		middleware.Recover(),
		middleware.RequestID(),
		middleware.Logging(s.log),
	)
	if s.opts.Timeout > 0 {
		root.Use(middleware.Timeout(s.opts.Timeout))
	}
	if s.opts.Latency > 0 {
		root.Use(middleware.Latency(s.opts.Latency))
	}

	root.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		fail(w, http.StatusNotFound, "Resource not found")
	})
	root.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		fail(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	if s.opts.BasePath != "" && s.opts.BasePath != "/" {
		sub := chi.NewRouter()
		s.registerRoutes(sub)
		root.Mount(s.opts.BasePath, sub)
		return root
	}

	s.registerRoutes(root)
	return root
}

func (s *Server) registerRoutes(r chi.Router) {
	// auth (анонимные)
	r.Post("/auth/register", s.register)
	r.Post("/auth/login", s.login)
	r.Post("/auth/refresh", s.refresh)
	r.Post("/auth/forgot-password", s.forgotPassword)
	r.Post("/auth/reset-password", s.resetPassword)

	// store: просмотр доступен без входа, клонирование — только с токеном
	r.Get("/store/decks", s.browseDecks)
	r.Get("/store/decks/trending", s.trendingDecks)
	r.Get("/store/tags", s.popularTags)
	r.Get("/store/decks/{id}", s.publicDeckDetail)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthBearer(s.verifyAccessToken))

		r.Post("/store/decks/{id}/clone", s.cloneDeck)

		// users
		r.Get("/users/me", s.me)
		r.Patch("/users/info", s.updateProfile)
		r.Patch("/users/password", s.changePassword)
		r.Post("/users/avatar", s.uploadAvatar)

		// settings
		r.Get("/settings", s.settings)
		r.Patch("/settings/ghost-mode", s.updateGhostMode)
		r.Patch("/settings/daily-goal", s.updateDailyGoal)
		r.Patch("/settings/language", s.updateLanguage)

		// decks
		r.Get("/decks", s.listDecks)
		r.Get("/decks/statistics", s.deckStatistics)
		r.Get("/decks/{id}", s.getDeck)
		r.Post("/decks", s.createDeck)
		r.Put("/decks/{id}", s.updateDeck)
		r.Patch("/decks/{id}/publish", s.togglePublish)
		r.Delete("/decks/{id}", s.deleteDeck)
		r.Post("/decks/{id}/reset", s.resetProgress)
	})
}

// RefreshCount — число обработанных запросов /auth/refresh.
func (s *Server) RefreshCount() int64 { return s.refreshes.Load() }

// InvalidateAccessTokens отзывает все ранее выданные access-токены,
// refresh-токены остаются валидными.
func (s *Server) InvalidateAccessTokens() { s.generation.Add(1) }

// RevokeRefreshTokens отзывает все refresh-токены.
func (s *Server) RevokeRefreshTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.refreshTokens)
}

// ResetTokenFor — последний выданный токен сброса пароля для email
// (вместо письма).
func (s *Server) ResetTokenFor(email string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	uid, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return "", false
	}
	for tok, id := range s.resetTokens {
		if id == uid {
			return tok, true
		}
	}

	return "", false
}
