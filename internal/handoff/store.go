package handoff

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by a Store when the key is absent or expired.
var ErrNotFound = errors.New("handoff: key not found")

// Store is the byte-level storage behind the hand-off channel. Implementations
// must make GetDel atomic so a value is handed to at most one reader.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	GetDel(ctx context.Context, key string) ([]byte, error)
	Del(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}
