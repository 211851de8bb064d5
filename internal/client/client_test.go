package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/flashcards-client/internal/client/interceptors"
	apierrors "github.com/pribylovaa/flashcards-client/internal/errors"
	"github.com/pribylovaa/flashcards-client/internal/models"
	"github.com/pribylovaa/flashcards-client/internal/tokens"
	"github.com/pribylovaa/flashcards-client/mocks"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// fakeAPI — httptest-сервер: "Bearer <valid>" проходит, остальное 401.
// /auth/refresh меняет refresh-токен "r1" на access-токен "new".
type fakeAPI struct {
	mu    sync.Mutex
	valid string

	// ждать столько 401, прежде чем ответить на refresh
	holdRefreshUntil int
	failRefresh      bool
	omitRefresh      bool

	unauthorized atomic.Int32
	refreshes    atomic.Int32
	authSeen     sync.Map // access token -> hits

	srv *httptest.Server
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()

	f := &fakeAPI{valid: "new"}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		f.refreshes.Add(1)
		if r.Header.Get("Authorization") != "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "unexpected bearer on refresh"})
			return
		}

		var in models.RefreshRequest
		_ = json.NewDecoder(r.Body).Decode(&in)

		deadline := time.Now().Add(2 * time.Second)
		for int(f.unauthorized.Load()) < f.holdRefreshUntil && time.Now().Before(deadline) {
			time.Sleep(2 * time.Millisecond)
		}
		if f.holdRefreshUntil > 0 {
			time.Sleep(50 * time.Millisecond)
		}

		if f.failRefresh || in.RefreshToken != "r1" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"code": 401, "success": false, "message": "invalid refresh token"})
			return
		}

		data := map[string]any{"accessToken": "new"}
		if !f.omitRefresh {
			data["refreshToken"] = "r2"
		}
		writeJSON(w, http.StatusOK, map[string]any{"code": 200, "success": true, "data": data})
	})

	mux.HandleFunc("GET /api/decks", func(w http.ResponseWriter, r *http.Request) {
		tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		v, _ := f.authSeen.LoadOrStore(tok, new(atomic.Int32))
		v.(*atomic.Int32).Add(1)

		f.mu.Lock()
		valid := f.valid
		f.mu.Unlock()

		if tok != valid {
			f.unauthorized.Add(1)
			writeJSON(w, http.StatusUnauthorized, map[string]any{"code": 401, "success": false, "message": "token expired"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"code": 200, "success": true, "data": []string{"a", "b"}})
	})

	mux.HandleFunc("GET /api/logical", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"code": 200, "success": false, "message": "Deck not found"})
	})

	mux.HandleFunc("GET /api/bad", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"code": 400, "success": false, "message": "Deck not found"})
	})

	mux.HandleFunc("GET /api/boom", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("oops"))
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)

	return f
}

func (f *fakeAPI) hits(token string) int {
	v, ok := f.authSeen.Load(token)
	if !ok {
		return 0
	}
	return int(v.(*atomic.Int32).Load())
}

type hookRecorder struct {
	mu      sync.Mutex
	reasons []error
}

func (h *hookRecorder) hook(_ context.Context, reason error) {
	h.mu.Lock()
	h.reasons = append(h.reasons, reason)
	h.mu.Unlock()
}

func (h *hookRecorder) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.reasons)
}

func newTestClient(t *testing.T, f *fakeAPI, store tokens.Store, opts ...Option) (*Client, *hookRecorder) {
	t.Helper()

	rec := &hookRecorder{}
	opts = append([]Option{
		WithLogger(quietLogger()),
		WithHTTPClient(f.srv.Client()),
		WithLogoutHook(rec.hook),
	}, opts...)

	c, err := New(f.srv.URL+"/api", store, opts...)
	require.NoError(t, err)

	return c, rec
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := New("http://localhost/api", nil)
	require.Error(t, err)

	_, err = New("/api", tokens.NewMemoryStore(tokens.Pair{}))
	require.Error(t, err)

	c, err := New("http://localhost:5212/api/", tokens.NewMemoryStore(tokens.Pair{}))
	require.NoError(t, err)
	require.Equal(t, "http://localhost:5212/api/decks/5", c.URL("/decks/5").String())
}

func TestDo_AttachesBearer_WhenTokenPresent(t *testing.T) {
	t.Parallel()

	f := newFakeAPI(t)
	c, _ := newTestClient(t, f, tokens.NewMemoryStore(tokens.Pair{AccessToken: "new", RefreshToken: "r1"}))

	items, err := Call[[]string](context.Background(), c, &Request{Method: http.MethodGet, Path: "/decks"})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, items)
	require.Equal(t, 1, f.hits("new"))
	require.Zero(t, f.refreshes.Load())
}

func TestDo_NoToken_SendsWithoutAuthorization(t *testing.T) {
	t.Parallel()

	var gotAuth []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Values("Authorization")
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": nil})
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL+"/api", tokens.NewMemoryStore(tokens.Pair{}), WithLogger(quietLogger()))
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "/store/tags", nil)
	require.NoError(t, err)
	require.Empty(t, gotAuth)
}

func TestDo_RefreshSuccess_ReplaysWithNewToken(t *testing.T) {
	t.Parallel()

	f := newFakeAPI(t)
	store := tokens.NewMemoryStore(tokens.Pair{AccessToken: "old", RefreshToken: "r1"})
	reg := prometheus.NewRegistry()
	c, rec := newTestClient(t, f, store, WithRegisterer(reg))

	resp, err := c.Get(context.Background(), "/decks", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.Status)

	pair, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, tokens.Pair{AccessToken: "new", RefreshToken: "r2"}, pair)

	require.EqualValues(t, 1, f.refreshes.Load())
	require.Equal(t, 1, f.hits("old"))
	require.Equal(t, 1, f.hits("new"))
	require.Zero(t, rec.count())
	require.Equal(t, 1.0, testutil.ToFloat64(c.metrics.refreshes.WithLabelValues(refreshSuccess)))
}

func TestDo_RefreshKeepsOldRefreshTokenWhenOmitted(t *testing.T) {
	t.Parallel()

	f := newFakeAPI(t)
	f.omitRefresh = true
	store := tokens.NewMemoryStore(tokens.Pair{AccessToken: "old", RefreshToken: "r1"})
	c, _ := newTestClient(t, f, store)

	_, err := c.Get(context.Background(), "/decks", nil)
	require.NoError(t, err)

	pair, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, tokens.Pair{AccessToken: "new", RefreshToken: "r1"}, pair)
}

func TestDo_ConcurrentUnauthorized_SingleRefresh(t *testing.T) {
	t.Parallel()

	const n = 8

	f := newFakeAPI(t)
	f.holdRefreshUntil = n
	store := tokens.NewMemoryStore(tokens.Pair{AccessToken: "old", RefreshToken: "r1"})
	c, rec := newTestClient(t, f, store)

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Get(context.Background(), "/decks", nil)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "call %d", i)
	}
	require.EqualValues(t, 1, f.refreshes.Load())
	require.Equal(t, n, f.hits("old"))
	require.Equal(t, n, f.hits("new"))
	require.Zero(t, rec.count())
}

func TestDo_ConcurrentRefreshFailure_AllRejected(t *testing.T) {
	t.Parallel()

	const n = 6

	f := newFakeAPI(t)
	f.holdRefreshUntil = n
	f.failRefresh = true
	store := tokens.NewMemoryStore(tokens.Pair{AccessToken: "old", RefreshToken: "r1"})
	c, rec := newTestClient(t, f, store)

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Get(context.Background(), "/decks", nil)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.Error(t, err, "call %d", i)
		require.True(t, apierrors.IsSessionExpired(err), "call %d: %v", i, err)
	}

	pair, err := store.Load(context.Background())
	require.NoError(t, err)
	require.True(t, pair.Empty())

	require.EqualValues(t, 1, f.refreshes.Load())
	require.Equal(t, 1, rec.count())
	require.Zero(t, f.hits("new"))
}

func TestDo_RetriedRequestUnauthorizedAgain_NoSecondRefresh(t *testing.T) {
	t.Parallel()

	f := newFakeAPI(t)
	f.valid = "never"
	store := tokens.NewMemoryStore(tokens.Pair{AccessToken: "old", RefreshToken: "r1"})
	c, rec := newTestClient(t, f, store)

	_, err := c.Get(context.Background(), "/decks", nil)
	require.Error(t, err)
	require.True(t, apierrors.IsUnauthorized(err))
	require.False(t, apierrors.IsSessionExpired(err))

	require.EqualValues(t, 1, f.refreshes.Load())
	require.Equal(t, 1, f.hits("new"))
	require.Zero(t, rec.count())
}

func TestDo_MissingRefreshToken_LogsOutWithoutExchange(t *testing.T) {
	t.Parallel()

	f := newFakeAPI(t)
	store := tokens.NewMemoryStore(tokens.Pair{AccessToken: "old"})
	c, rec := newTestClient(t, f, store)

	_, err := c.Get(context.Background(), "/decks", nil)
	require.Error(t, err)
	require.True(t, apierrors.IsSessionExpired(err))
	require.ErrorIs(t, err, apierrors.ErrNoRefreshToken)
	require.True(t, apierrors.IsUnauthorized(err), "original 401 stays in the chain")

	pair, err := store.Load(context.Background())
	require.NoError(t, err)
	require.True(t, pair.Empty())

	require.Zero(t, f.refreshes.Load())
	require.Equal(t, 1, rec.count())
	require.ErrorIs(t, rec.reasons[0], apierrors.ErrNoRefreshToken)
}

func TestDo_LogicalFailure_SameAsTransportMessage(t *testing.T) {
	t.Parallel()

	f := newFakeAPI(t)
	c, _ := newTestClient(t, f, tokens.NewMemoryStore(tokens.Pair{}))

	_, logicalErr := c.Get(context.Background(), "/logical", nil)
	_, transportErr := c.Get(context.Background(), "/bad", nil)

	require.EqualError(t, logicalErr, "Deck not found")
	require.EqualError(t, transportErr, "Deck not found")

	le, ok := apierrors.As(logicalErr)
	require.True(t, ok)
	te, ok := apierrors.As(transportErr)
	require.True(t, ok)
	require.Equal(t, apierrors.KindLogical, le.Kind)
	require.Equal(t, apierrors.KindTransport, te.Kind)
	require.Equal(t, http.StatusBadRequest, te.Status)
}

func TestDo_NonJSONError(t *testing.T) {
	t.Parallel()

	f := newFakeAPI(t)
	c, rec := newTestClient(t, f, tokens.NewMemoryStore(tokens.Pair{}))

	_, err := c.Get(context.Background(), "/boom", nil)
	require.Error(t, err)
	require.Equal(t, http.StatusInternalServerError, apierrors.StatusOf(err))
	require.Zero(t, rec.count())
}

func TestDo_NetworkErrorIsWrapped(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection refused")
	c, err := New("http://api.invalid/api", tokens.NewMemoryStore(tokens.Pair{}),
		WithLogger(quietLogger()),
		WithInterceptors(func(*http.Request, interceptors.Invoker) (*http.Response, error) {
			return nil, boom
		}),
	)
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "/decks", nil)
	require.ErrorIs(t, err, boom)
	_, ok := apierrors.As(err)
	require.False(t, ok)
}

func TestDo_ReplayKeepsRequestIDAndBody(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		rids   []string
		bodies []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/auth/refresh" {
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"accessToken": "new"}})
			return
		}
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		rids = append(rids, r.Header.Get(interceptors.HeaderRequestID))
		bodies = append(bodies, string(b))
		mu.Unlock()

		if r.Header.Get("Authorization") != "Bearer new" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"success": true, "data": map[string]any{"id": 7}})
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL+"/api", tokens.NewMemoryStore(tokens.Pair{AccessToken: "old", RefreshToken: "r1"}),
		WithLogger(quietLogger()),
		WithInterceptors(interceptors.ClientWithMetadata("test")),
	)
	require.NoError(t, err)

	resp, err := c.Post(context.Background(), "/decks", map[string]string{"name": "Verbs"})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.Status)

	require.Len(t, rids, 2)
	require.NotEmpty(t, rids[0])
	require.Equal(t, rids[0], rids[1])
	require.Equal(t, resp.RequestID, rids[0])
	require.JSONEq(t, `{"name":"Verbs"}`, bodies[0])
	require.Equal(t, bodies[0], bodies[1])
}

func TestDo_CallerCancelDoesNotStrandOthers(t *testing.T) {
	t.Parallel()

	const n = 3

	f := newFakeAPI(t)
	f.holdRefreshUntil = n + 1
	store := tokens.NewMemoryStore(tokens.Pair{AccessToken: "old", RefreshToken: "r1"})
	c, _ := newTestClient(t, f, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancelled := make(chan error, 1)
	go func() {
		_, err := c.Get(ctx, "/decks", nil)
		cancelled <- err
	}()

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Get(context.Background(), "/decks", nil)
		}(i)
	}

	require.Eventually(t, func() bool { return f.unauthorized.Load() == n+1 }, 2*time.Second, 2*time.Millisecond)
	cancel()

	require.ErrorIs(t, <-cancelled, context.Canceled)
	wg.Wait()
	for i, err := range errs {
		require.NoError(t, err, "call %d", i)
	}
	require.EqualValues(t, 1, f.refreshes.Load())
}

func TestDo_RefreshFailure_ClearsStoreViaMock(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)

	f := newFakeAPI(t)
	f.failRefresh = true
	c, rec := newTestClient(t, f, store)

	gomock.InOrder(
		store.EXPECT().Load(gomock.Any()).Return(tokens.Pair{AccessToken: "old", RefreshToken: "r1"}, nil), // attachBearer
		store.EXPECT().Load(gomock.Any()).Return(tokens.Pair{AccessToken: "old", RefreshToken: "r1"}, nil), // recoverSession
		store.EXPECT().Load(gomock.Any()).Return(tokens.Pair{AccessToken: "old", RefreshToken: "r1"}, nil), // exchange
		store.EXPECT().Clear(gomock.Any()).Return(nil),
	)

	_, err := c.Get(context.Background(), "/decks", nil)
	require.True(t, apierrors.IsSessionExpired(err))
	cause, ok := apierrors.As(err)
	require.True(t, ok)
	require.Equal(t, "invalid refresh token", cause.Message)
	require.Equal(t, 1, rec.count())
}

func TestDo_TokenRotatedByOtherCall_ReplaysWithoutExchange(t *testing.T) {
	t.Parallel()

	f := newFakeAPI(t)
	store := tokens.NewMemoryStore(tokens.Pair{AccessToken: "old", RefreshToken: "r1"})

	rotate := func(req *http.Request, next interceptors.Invoker) (*http.Response, error) {
		resp, err := next(req)
		if err == nil && resp.StatusCode == http.StatusUnauthorized {
			// Другой вызов успел обновить токены, пока этот был в полёте.
			_ = store.Save(req.Context(), tokens.Pair{AccessToken: "new", RefreshToken: "r2"})
		}
		return resp, err
	}
	c, _ := newTestClient(t, f, store, WithInterceptors(rotate))

	_, err := c.Get(context.Background(), "/decks", nil)
	require.NoError(t, err)
	require.Zero(t, f.refreshes.Load())
	require.Equal(t, 1, f.hits("new"))
}

// pausedStore задерживает второй Load вызова с request id "slow" (проверку
// перед singleflight): снимок берётся до паузы и отдаётся после release.
type pausedStore struct {
	tokens.Store

	loads   atomic.Int32
	paused  chan struct{}
	release chan struct{}
}

func newPausedStore(pair tokens.Pair) *pausedStore {
	return &pausedStore{
		Store:   tokens.NewMemoryStore(pair),
		paused:  make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (s *pausedStore) Load(ctx context.Context) (tokens.Pair, error) {
	pair, err := s.Store.Load(ctx)
	if interceptors.RequestIDFrom(ctx) != "slow" {
		return pair, err
	}
	if s.loads.Add(1) == 2 {
		close(s.paused)
		<-s.release
	}

	return pair, err
}

func TestDo_LateUnauthorizedAfterFinishedRefresh_NoSecondExchange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		failRefresh bool
	}{
		{name: "refresh_succeeded", failRefresh: false},
		{name: "refresh_failed", failRefresh: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFakeAPI(t)
			f.failRefresh = tt.failRefresh
			store := newPausedStore(tokens.Pair{AccessToken: "old", RefreshToken: "r1"})
			c, rec := newTestClient(t, f, store)

			slow := make(chan error, 1)
			go func() {
				ctx := interceptors.WithRequestID(context.Background(), "slow")
				_, err := c.Get(ctx, "/decks", nil)
				slow <- err
			}()

			// Медленный вызов получил 401 на "old" и видит ещё старую пару.
			<-store.paused

			_, fastErr := c.Get(context.Background(), "/decks", nil)
			close(store.release)
			slowErr := <-slow

			require.EqualValues(t, 1, f.refreshes.Load())
			require.Equal(t, 2, f.hits("old"))

			if tt.failRefresh {
				require.True(t, apierrors.IsSessionExpired(fastErr))
				require.True(t, apierrors.IsSessionExpired(slowErr), "%v", slowErr)
				require.Equal(t, 1, rec.count())
				require.Zero(t, f.hits("new"))
				return
			}

			require.NoError(t, fastErr)
			require.NoError(t, slowErr)
			require.Zero(t, rec.count())
			require.Equal(t, 2, f.hits("new"))

			pair, err := store.Load(context.Background())
			require.NoError(t, err)
			require.Equal(t, tokens.Pair{AccessToken: "new", RefreshToken: "r2"}, pair)
		})
	}
}

func TestDo_ReplayUsesTokenFromRefresh(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)

	f := newFakeAPI(t)
	c, rec := newTestClient(t, f, store)

	// Повтор не перечитывает хранилище: токен приходит из обмена.
	gomock.InOrder(
		store.EXPECT().Load(gomock.Any()).Return(tokens.Pair{AccessToken: "old", RefreshToken: "r1"}, nil), // attachBearer
		store.EXPECT().Load(gomock.Any()).Return(tokens.Pair{AccessToken: "old", RefreshToken: "r1"}, nil), // recoverSession
		store.EXPECT().Load(gomock.Any()).Return(tokens.Pair{AccessToken: "old", RefreshToken: "r1"}, nil), // exchange
		store.EXPECT().Save(gomock.Any(), tokens.Pair{AccessToken: "new", RefreshToken: "r2"}).Return(nil),
	)

	resp, err := c.Get(context.Background(), "/decks", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.Status)
	require.Equal(t, 1, f.hits("new"))
	require.Zero(t, rec.count())
}

func TestOnLogout_NilIgnored(t *testing.T) {
	t.Parallel()

	c, err := New("http://localhost/api", tokens.NewMemoryStore(tokens.Pair{}))
	require.NoError(t, err)

	c.OnLogout(nil)
	require.Empty(t, c.hooks)
}

func TestDo_AnonymousUnauthorized_NoRefreshNoBearer(t *testing.T) {
	t.Parallel()

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Invalid email or password"})
	}))
	t.Cleanup(srv.Close)

	rec := &hookRecorder{}
	store := tokens.NewMemoryStore(tokens.Pair{AccessToken: "old", RefreshToken: "r1"})
	c, err := New(srv.URL+"/api", store, WithLogger(quietLogger()), WithLogoutHook(rec.hook))
	require.NoError(t, err)

	req, err := NewJSONRequest(http.MethodPost, "/auth/login", models.LoginRequest{Email: "a@b.c"})
	require.NoError(t, err)
	req.Anonymous = true

	_, err = c.Do(context.Background(), req)
	require.EqualError(t, err, "Invalid email or password")
	require.False(t, apierrors.IsSessionExpired(err))
	require.Empty(t, gotAuth)
	require.Zero(t, rec.count())

	pair, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "old", pair.AccessToken)
}
