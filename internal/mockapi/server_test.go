package mockapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/flashcards-client/internal/models"
)

type testAPI struct {
	t   *testing.T
	s   *Server
	srv *httptest.Server
}

func newTestAPI(t *testing.T, opts Options) *testAPI {
	t.Helper()

	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	opts.BasePath = "/api"
	s := New(opts)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	return &testAPI{t: t, s: s, srv: srv}
}

// do отправляет JSON и декодирует конверт ответа.
func do[T any](a *testAPI, method, path, token string, body any) (int, models.Envelope[T]) {
	a.t.Helper()

	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		rd = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, a.srv.URL+"/api"+path, rd)
	require.NoError(a.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.srv.Client().Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	var env models.Envelope[T]
	require.NoError(a.t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func (a *testAPI) register(name string) models.AuthDTO {
	a.t.Helper()

	status, env := do[models.AuthDTO](a, http.MethodPost, "/auth/register", "", models.RegisterRequest{
		Username: name, Email: name + "@example.com", Password: "secret123",
	})
	require.Equal(a.t, http.StatusOK, status, env.Message)
	require.True(a.t, env.Success)
	return env.Data
}

func TestAuth_RegisterLoginRefreshRotation(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t, Options{})
	auth := a.register("anna")
	require.NotEmpty(t, auth.AccessToken)
	require.Equal(t, "User", auth.User.RoleName())

	status, env := do[models.AuthDTO](a, http.MethodPost, "/auth/register", "", models.RegisterRequest{
		Username: "anna2", Email: "ANNA@example.com", Password: "secret123",
	})
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, "Email already exists", env.Message)

	status, _ = do[models.AuthDTO](a, http.MethodPost, "/auth/login", "", models.LoginRequest{Email: "anna@example.com", Password: "wrong"})
	require.Equal(t, http.StatusUnauthorized, status)

	status, login := do[models.AuthDTO](a, http.MethodPost, "/auth/login", "", models.LoginRequest{Email: "anna@example.com", Password: "secret123"})
	require.Equal(t, http.StatusOK, status)

	status, pair := do[models.TokenPair](a, http.MethodPost, "/auth/refresh", "", models.RefreshRequest{RefreshToken: login.Data.RefreshToken})
	require.Equal(t, http.StatusOK, status)
	require.NotEqual(t, login.Data.RefreshToken, pair.Data.RefreshToken)

	// Старый refresh-токен уже погашен.
	status, _ = do[models.TokenPair](a, http.MethodPost, "/auth/refresh", "", models.RefreshRequest{RefreshToken: login.Data.RefreshToken})
	require.Equal(t, http.StatusUnauthorized, status)
	require.EqualValues(t, 2, a.s.RefreshCount())
}

func TestAuth_AccessTokenExpiryAndInvalidation(t *testing.T) {
	t.Parallel()

	var offset atomic.Int64
	start := time.Now()
	clock := func() time.Time { return start.Add(time.Duration(offset.Load())) }
	a := newTestAPI(t, Options{AccessTTL: time.Minute, Now: clock})
	auth := a.register("boris")

	status, _ := do[models.UserProfileDTO](a, http.MethodGet, "/users/me", auth.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)

	a.s.InvalidateAccessTokens()
	status, env := do[models.UserProfileDTO](a, http.MethodGet, "/users/me", auth.AccessToken, nil)
	require.Equal(t, http.StatusUnauthorized, status)
	require.False(t, env.Success)

	_, pair := do[models.TokenPair](a, http.MethodPost, "/auth/refresh", "", models.RefreshRequest{RefreshToken: auth.RefreshToken})
	status, _ = do[models.UserProfileDTO](a, http.MethodGet, "/users/me", pair.Data.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)

	offset.Store(int64(2 * time.Minute))
	status, _ = do[models.UserProfileDTO](a, http.MethodGet, "/users/me", pair.Data.AccessToken, nil)
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestAuth_ForgotAndResetPassword(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t, Options{})
	a.register("vera")

	status, _ := do[bool](a, http.MethodPost, "/auth/forgot-password", "", models.ForgotPasswordRequest{Email: "nobody@example.com"})
	require.Equal(t, http.StatusOK, status)
	status, _ = do[bool](a, http.MethodPost, "/auth/forgot-password", "", models.ForgotPasswordRequest{Email: "vera@example.com"})
	require.Equal(t, http.StatusOK, status)

	tok, found := a.s.ResetTokenFor("vera@example.com")
	require.True(t, found)

	status, _ = do[bool](a, http.MethodPost, "/auth/reset-password", "", models.ResetPasswordRequest{Token: tok, NewPassword: "newsecret"})
	require.Equal(t, http.StatusOK, status)

	status, _ = do[bool](a, http.MethodPost, "/auth/reset-password", "", models.ResetPasswordRequest{Token: tok, NewPassword: "again123"})
	require.Equal(t, http.StatusBadRequest, status)

	status, _ = do[models.AuthDTO](a, http.MethodPost, "/auth/login", "", models.LoginRequest{Email: "vera@example.com", Password: "newsecret"})
	require.Equal(t, http.StatusOK, status)
}

func TestDecks_CRUDAndLogicalConflict(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t, Options{})
	tok := a.register("gleb").AccessToken

	status, _ := do[models.UserDeckDetailDTO](a, http.MethodGet, "/decks", "", nil)
	require.Equal(t, http.StatusUnauthorized, status)

	status, createdDeck := do[models.UserDeckDetailDTO](a, http.MethodPost, "/decks", tok, models.CreateDeckRequest{
		Name: "Verbs", Type: models.DeckGrammar, Tags: []string{"a", "A", " b "},
	})
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, []string{"a", "b"}, createdDeck.Data.Tags)

	// Дубликат имени — success=false при HTTP 200.
	status, dup := do[models.UserDeckDetailDTO](a, http.MethodPost, "/decks", tok, models.CreateDeckRequest{Name: "verbs", Type: models.DeckGrammar})
	require.Equal(t, http.StatusOK, status)
	require.False(t, dup.Success)

	id := createdDeck.Data.ID
	path := "/decks/" + itoa(id)

	status, pub := do[models.UserDeckDetailDTO](a, http.MethodPatch, path+"/publish", tok, nil)
	require.Equal(t, http.StatusOK, status)
	require.True(t, pub.Data.IsPublic)

	status, list := do[[]models.UserDeckSummaryDTO](a, http.MethodGet, "/decks?isPublic=true", tok, nil)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, list.Data, 1)
	require.NotNil(t, list.MetaData)
	require.Equal(t, 1, list.MetaData.Pages())

	status, stats := do[models.DeckStatisticsDTO](a, http.MethodGet, "/decks/statistics", tok, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 1, stats.Data.TotalDecks)
	require.Equal(t, 1, stats.Data.PublicDecks)

	status, _ = do[bool](a, http.MethodDelete, path, tok, nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = do[models.UserDeckDetailDTO](a, http.MethodGet, path, tok, nil)
	require.Equal(t, http.StatusNotFound, status)
}

func TestStore_SeededBrowseAndClone(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t, Options{Seed: true})

	status, page := do[[]models.PublicDeckDTO](a, http.MethodGet, "/store/decks?tags=JLPT&tags=N5&pageSize=1", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, page.Data, 1)
	require.Equal(t, 2, page.MetaData.Total)
	require.True(t, page.MetaData.HasNext())
	require.Equal(t, "JLPT N5 Vocabulary", page.Data[0].Name)

	_, tags := do[[]models.TagStatDTO](a, http.MethodGet, "/store/tags?limit=1", "", nil)
	require.Equal(t, []models.TagStatDTO{{Name: "JLPT", Count: 3}}, tags.Data)

	tok := a.register("dina").AccessToken
	src := page.Data[0].ID

	status, clone := do[models.UserDeckDetailDTO](a, http.MethodPost, "/store/decks/"+itoa(src)+"/clone", tok, models.CloneDeckRequest{CustomName: "My N5"})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "My N5", clone.Data.Name)
	require.Equal(t, src, *clone.Data.ParentDeckID)

	status, again := do[models.UserDeckDetailDTO](a, http.MethodPost, "/store/decks/"+itoa(src)+"/clone", tok, nil)
	require.Equal(t, http.StatusOK, status)
	require.False(t, again.Success)
	require.Equal(t, "Deck already in your library", again.Message)

	_, detail := do[models.PublicDeckDTO](a, http.MethodGet, "/store/decks/"+itoa(src), "", nil)
	require.Equal(t, 1521, detail.Data.Downloads)
}

func TestNotFound_IsEnvelope(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t, Options{})
	status, env := do[any](a, http.MethodGet, "/nope", "", nil)
	require.Equal(t, http.StatusNotFound, status)
	require.False(t, env.Success)
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
