package handoff

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const getDelScript = `local v = redis.call("get", KEYS[1])
if v then
  redis.call("del", KEYS[1])
end
return v`

// RedisStore keeps hand-off values in Redis with per-key expiry.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s == nil || s.client == nil {
		return nil, ErrNotFound
	}
	data, err := s.client.Get(ctx, key).Bytes()
	return data, normalize(err)
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s == nil || s.client == nil {
		return errors.New("handoff: redis client not configured")
	}
	return s.client.Set(ctx, key, value, ttl).Err()
}

// GetDel atomically reads and removes key. Servers older than 6.2 lack
// GETDEL, so the same operation is retried as a script.
func (s *RedisStore) GetDel(ctx context.Context, key string) ([]byte, error) {
	if s == nil || s.client == nil {
		return nil, ErrNotFound
	}
	data, err := s.client.GetDel(ctx, key).Bytes()
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "unknown command") {
		var v string
		v, err = s.client.Eval(ctx, getDelScript, []string{key}).Text()
		data = []byte(v)
	}
	return data, normalize(err)
}

func (s *RedisStore) Del(ctx context.Context, key string) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Del(ctx, key).Err()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if s == nil || s.client == nil {
		return errors.New("handoff: redis client not configured")
	}
	return s.client.Ping(ctx).Err()
}

func normalize(err error) error {
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	return err
}
