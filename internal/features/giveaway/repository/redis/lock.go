package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"discord-giveaway-bot/internal/features/giveaway/repository"
)

// LockStore implements the per-giveaway processing lease with SetNX and a TTL,
// so a crashed worker's lease expires on its own.
type LockStore struct {
	client *redis.Client
}

func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// releaseScript deletes the lease only when the caller still holds it, so a
// lease that expired and was re-acquired by another worker is left alone.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`

func (s *LockStore) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.New().String()
	ok, err := s.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", repository.ErrAlreadyLocked
	}
	return token, nil
}

func (s *LockStore) Release(ctx context.Context, key, token string) error {
	err := s.client.Eval(ctx, releaseScript, []string{key}, token).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

func (s *LockStore) Clear(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
