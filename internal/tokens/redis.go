package tokens

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore хранит пару в Redis Hash с полями accessToken/refreshToken.
// Удобно, когда несколько процессов (CLI, фоновые задачи) делят одну сессию.
type RedisStore struct {
	rdb *redis.Client
	key string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "flashcards:session:", profile по умолчанию "default".
func NewRedisStore(ctx context.Context, redisURL, prefix, profile string) (*RedisStore, error) {
	const op = "tokens.NewRedisStore"

	if prefix == "" {
		prefix = "flashcards:session:"
	}
	if profile == "" {
		profile = "default"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	return &RedisStore{rdb: rdb, key: prefix + profile}, nil
}

func (s *RedisStore) Load(ctx context.Context) (Pair, error) {
	m, err := s.rdb.HGetAll(ctx, s.key).Result()
	if err != nil {
		return Pair{}, fmt.Errorf("tokens.RedisStore.Load: %w", err)
	}

	return Pair{
		AccessToken:  m[KeyAccessToken],
		RefreshToken: m[KeyRefreshToken],
	}, nil
}

// Save заменяет хэш целиком в транзакции: пустые поля не оставляем.
func (s *RedisStore) Save(ctx context.Context, p Pair) error {
	kv := make(map[string]string, 2)
	if p.AccessToken != "" {
		kv[KeyAccessToken] = p.AccessToken
	}
	if p.RefreshToken != "" {
		kv[KeyRefreshToken] = p.RefreshToken
	}

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, s.key)
	if len(kv) > 0 {
		pipe.HSet(ctx, s.key, kv)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("tokens.RedisStore.Save: %w", err)
	}

	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("tokens.RedisStore.Clear: %w", err)
	}

	return nil
}

func (s *RedisStore) Close() error { return s.rdb.Close() }
