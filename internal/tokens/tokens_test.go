package tokens

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// exerciseStore — общий контракт для всех реализаций Store.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	p, err := s.Load(ctx)
	require.NoError(t, err)
	require.True(t, p.Empty(), "fresh store must be empty")

	want := Pair{AccessToken: "acc-1", RefreshToken: "ref-1"}
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, want, got)

	// Save заменяет пару целиком.
	require.NoError(t, s.Save(ctx, Pair{AccessToken: "acc-2"}))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, Pair{AccessToken: "acc-2"}, got)

	require.NoError(t, s.Clear(ctx))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	require.True(t, got.Empty())

	// Повторная очистка — не ошибка.
	require.NoError(t, s.Clear(ctx))
}

func TestMemoryStore_Contract(t *testing.T) {
	t.Parallel()
	exerciseStore(t, NewMemoryStore(Pair{}))
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(Pair{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Save(ctx, Pair{AccessToken: "a", RefreshToken: "r"})
			_, _ = s.Load(ctx)
		}()
	}
	wg.Wait()

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, Pair{AccessToken: "a", RefreshToken: "r"}, got)
}

func TestFileStore_Contract(t *testing.T) {
	t.Parallel()

	s, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "session.json"))
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestFileStore_WritesFixedKeysWithPrivateMode(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.json")
	s, err := NewFileStore(path)
	require.NoError(t, err)

	require.NoError(t, s.Save(context.Background(), Pair{AccessToken: "a", RefreshToken: "r"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.JSONEq(t, `{"accessToken":"a","refreshToken":"r"}`, string(data))

	fi, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
}

func TestFileStore_CorruptedFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s, err := NewFileStore(path)
	require.NoError(t, err)

	_, err = s.Load(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode")
}

func TestNewFileStore_EmptyPath(t *testing.T) {
	t.Parallel()

	_, err := NewFileStore("")
	require.Error(t, err)
}

func TestRedisStore_Contract(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	s, err := NewRedisStore(context.Background(), "redis://"+mr.Addr(), "test:", "alice")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	exerciseStore(t, s)
}

func TestRedisStore_UsesHashWithFixedFields(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	s, err := NewRedisStore(context.Background(), "redis://"+mr.Addr(), "", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Save(context.Background(), Pair{AccessToken: "a", RefreshToken: "r"}))

	require.Equal(t, "a", mr.HGet("flashcards:session:default", KeyAccessToken))
	require.Equal(t, "r", mr.HGet("flashcards:session:default", KeyRefreshToken))
}

func TestNewRedisStore_FailFast(t *testing.T) {
	t.Parallel()

	_, err := NewRedisStore(context.Background(), "not-a-url", "", "")
	require.Error(t, err)

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = NewRedisStore(ctx, "redis://"+addr, "", "")
	require.Error(t, err)
}

func TestAccessExpiry(t *testing.T) {
	t.Parallel()

	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("any-secret"))
	require.NoError(t, err)

	got, ok := AccessExpiry(tok)
	require.True(t, ok)
	require.True(t, exp.Equal(got))

	_, ok = AccessExpiry("opaque-token")
	require.False(t, ok)

	_, ok = AccessExpiry("")
	require.False(t, ok)
}
