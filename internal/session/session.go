// session ведёт состояние входа пользователя поверх клиента API:
// login/register сохраняют пару токенов и загружают профиль, restore
// поднимает сессию из хранилища, logout очищает токены. Принудительный
// выход клиента (refresh не удался) приходит через HandleForcedLogout.
//
// Изменения состояния рассылаются подписчикам как Event.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pribylovaa/flashcards-client/internal/locale"
	"github.com/pribylovaa/flashcards-client/internal/models"
	"github.com/pribylovaa/flashcards-client/internal/tokens"
)

// ErrNotLoggedIn — операция требует активной сессии.
var ErrNotLoggedIn = errors.New("not logged in")

// State — состояние сессии.
type State uint8

const (
	StateLoggedOut State = iota
	StateLoggedIn
)

func (s State) String() string {
	if s == StateLoggedIn {
		return "logged_in"
	}

	return "logged_out"
}

// Event — смена состояния. Reason заполнен для принудительного выхода
// и для выхода после неудачной загрузки профиля.
type Event struct {
	State  State
	Reason error
}

//go:generate mockgen -destination=../../mocks/mock_session.go -package=mocks github.com/pribylovaa/flashcards-client/internal/session AuthAPI,ProfileAPI

// AuthAPI — эндпойнты входа и регистрации.
type AuthAPI interface {
	Login(ctx context.Context, in models.LoginRequest) (models.AuthDTO, error)
	Register(ctx context.Context, in models.RegisterRequest) (models.AuthDTO, error)
}

// ProfileAPI — профиль текущего пользователя.
type ProfileAPI interface {
	Me(ctx context.Context) (models.UserProfileDTO, error)
}

// Manager — менеджер сессии. Безопасен для конкурентного использования.
type Manager struct {
	store tokens.Store
	auth  AuthAPI
	users ProfileAPI
	log   *slog.Logger

	mu    sync.RWMutex
	state State
	user  *models.UserProfileDTO
	lang  string

	subsMu sync.Mutex
	subs   map[chan Event]struct{}
}

// Option настраивает Manager.
type Option func(*Manager)

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithLanguage — язык интерфейса до загрузки профиля.
func WithLanguage(code string) Option {
	return func(m *Manager) { m.lang = locale.Normalize(code) }
}

// New создаёт менеджер в состоянии LoggedOut.
func New(store tokens.Store, auth AuthAPI, users ProfileAPI, opts ...Option) *Manager {
	m := &Manager{
		store: store,
		auth:  auth,
		users: users,
		log:   slog.Default(),
		lang:  locale.Default,
		subs:  make(map[chan Event]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With(slog.String("component", "session"))

	return m
}

// Login входит по email/паролю, сохраняет токены и загружает профиль
// с синхронизацией языка интерфейса.
func (m *Manager) Login(ctx context.Context, in models.LoginRequest) (models.UserProfileDTO, error) {
	const op = "session.Login"

	auth, err := m.auth.Login(ctx, in)
	if err != nil {
		return models.UserProfileDTO{}, fmt.Errorf("%s: %w", op, err)
	}

	profile, err := m.start(ctx, auth.Tokens())
	if err != nil {
		return models.UserProfileDTO{}, fmt.Errorf("%s: %w", op, err)
	}

	return profile, nil
}

// Register создаёт аккаунт и сразу открывает сессию.
func (m *Manager) Register(ctx context.Context, in models.RegisterRequest) (models.UserProfileDTO, error) {
	const op = "session.Register"

	auth, err := m.auth.Register(ctx, in)
	if err != nil {
		return models.UserProfileDTO{}, fmt.Errorf("%s: %w", op, err)
	}

	profile, err := m.start(ctx, auth.Tokens())
	if err != nil {
		return models.UserProfileDTO{}, fmt.Errorf("%s: %w", op, err)
	}

	return profile, nil
}

func (m *Manager) start(ctx context.Context, tp models.TokenPair) (models.UserProfileDTO, error) {
	if err := m.store.Save(ctx, tokens.Pair{AccessToken: tp.AccessToken, RefreshToken: tp.RefreshToken}); err != nil {
		return models.UserProfileDTO{}, fmt.Errorf("save tokens: %w", err)
	}

	return m.fetchUser(ctx, true)
}

// Restore поднимает сессию из хранилища токенов. Нет access-токена —
// LoggedOut без ошибки. Профиль не загрузился — выход и ошибка.
func (m *Manager) Restore(ctx context.Context) (models.UserProfileDTO, error) {
	const op = "session.Restore"

	pair, err := m.store.Load(ctx)
	if err != nil {
		return models.UserProfileDTO{}, fmt.Errorf("%s: %w", op, err)
	}
	if pair.AccessToken == "" {
		m.setLoggedOut(nil)
		return models.UserProfileDTO{}, fmt.Errorf("%s: %w", op, ErrNotLoggedIn)
	}

	profile, err := m.fetchUser(ctx, true)
	if err != nil {
		return models.UserProfileDTO{}, fmt.Errorf("%s: %w", op, err)
	}

	return profile, nil
}

// RefreshProfile перечитывает профиль, не трогая язык текущей сессии.
func (m *Manager) RefreshProfile(ctx context.Context) (models.UserProfileDTO, error) {
	const op = "session.RefreshProfile"

	profile, err := m.fetchUser(ctx, false)
	if err != nil {
		return models.UserProfileDTO{}, fmt.Errorf("%s: %w", op, err)
	}

	return profile, nil
}

// fetchUser загружает профиль; при ошибке API сессия завершается.
func (m *Manager) fetchUser(ctx context.Context, syncLanguage bool) (models.UserProfileDTO, error) {
	profile, err := m.users.Me(ctx)
	if err != nil {
		m.log.Warn("fetch_user_failed", slog.String("err", err.Error()))
		// Отменённый вызов ничего не говорит о сессии.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return models.UserProfileDTO{}, err
		}
		if clearErr := m.store.Clear(ctx); clearErr != nil {
			m.log.Error("token_clear_failed", slog.String("err", clearErr.Error()))
		}
		m.setLoggedOut(err)
		return models.UserProfileDTO{}, err
	}

	m.mu.Lock()
	m.user = &profile
	if syncLanguage && profile.Settings.UILanguage != "" {
		m.lang = locale.Normalize(profile.Settings.UILanguage)
	}
	changed := m.state != StateLoggedIn
	m.state = StateLoggedIn
	m.mu.Unlock()

	if changed {
		m.log.Info("logged_in", slog.Int64("user_id", profile.ID))
		m.publish(Event{State: StateLoggedIn})
	}

	return profile, nil
}

// Logout очищает токены и переводит сессию в LoggedOut.
func (m *Manager) Logout(ctx context.Context) error {
	const op = "session.Logout"

	err := m.store.Clear(ctx)
	m.setLoggedOut(nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// HandleForcedLogout — logout-хук клиента API: токены уже очищены,
// остаётся сменить состояние и оповестить подписчиков.
func (m *Manager) HandleForcedLogout(_ context.Context, reason error) {
	m.log.Info("forced_logout", slog.String("reason", fmt.Sprint(reason)))
	m.setLoggedOut(reason)
}

func (m *Manager) setLoggedOut(reason error) {
	m.mu.Lock()
	changed := m.state != StateLoggedOut
	m.state = StateLoggedOut
	m.user = nil
	m.mu.Unlock()

	if changed {
		m.publish(Event{State: StateLoggedOut, Reason: reason})
	}
}

// SetLanguage меняет язык текущей сессии (после PATCH /settings/language).
func (m *Manager) SetLanguage(code string) {
	m.mu.Lock()
	m.lang = locale.Normalize(code)
	if m.user != nil {
		m.user.Settings.UILanguage = m.lang
	}
	m.mu.Unlock()
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.state
}

func (m *Manager) IsAuthenticated() bool { return m.State() == StateLoggedIn }

// User — копия профиля; ok=false, если сессии нет.
func (m *Manager) User() (models.UserProfileDTO, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.user == nil {
		return models.UserProfileDTO{}, false
	}

	return *m.user, true
}

// Language — нормализованный язык интерфейса (vi|en).
func (m *Manager) Language() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.lang
}

// Subscribe возвращает канал событий с буфером buf. Если подписчик не
// успевает читать, событие для него теряется. cancel отписывает и
// закрывает канал.
func (m *Manager) Subscribe(buf int) (events <-chan Event, cancel func()) {
	if buf < 1 {
		buf = 1
	}
	ch := make(chan Event, buf)

	m.subsMu.Lock()
	m.subs[ch] = struct{}{}
	m.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.subsMu.Lock()
			delete(m.subs, ch)
			m.subsMu.Unlock()
			close(ch)
		})
	}
}

func (m *Manager) publish(ev Event) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()

	for ch := range m.subs {
		select {
		case ch <- ev:
		default:
			m.log.Warn("session_event_dropped", slog.String("state", ev.State.String()))
		}
	}
}
