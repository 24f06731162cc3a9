package handoff

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/storefront-checkout/internal/obs"
)

const (
	keyPrefix  = "handoff"
	defaultTTL = 30 * time.Minute
)

// Options configures a Manager.
type Options struct {
	TTL    time.Duration
	Logger zerolog.Logger
}

// Manager hands values across a navigation boundary, scoped per browser session.
type Manager struct {
	store  Store
	ttl    time.Duration
	logger zerolog.Logger
}

// New builds a Manager over store.
func New(store Store, opts Options) *Manager {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Manager{store: store, ttl: ttl, logger: opts.Logger}
}

// Ping reports whether the backing store is reachable.
func (m *Manager) Ping(ctx context.Context) error {
	if m == nil || m.store == nil {
		return errors.New("handoff: store not configured")
	}
	return m.store.Ping(ctx)
}

// Scope returns the hand-off view for one browser session.
func (m *Manager) Scope(sessionID string) Session {
	return Session{m: m, id: strings.TrimSpace(sessionID)}
}

// Session is the per-session hand-off scope. Reads never fail: absent,
// expired, corrupt or unreachable values all read as absent.
type Session struct {
	m  *Manager
	id string
}

func (s Session) usable() bool {
	return s.m != nil && s.m.store != nil && s.id != ""
}

func (s Session) key(name string) string {
	return keyPrefix + ":" + s.id + ":" + name
}

// Write serialises value under key. Repeated writes replace the previous value.
func (s Session) Write(ctx context.Context, key string, value any) error {
	if !s.usable() {
		countWrite("skipped")
		return errors.New("handoff: session scope not available")
	}
	data, err := json.Marshal(value)
	if err != nil {
		countWrite("error")
		return err
	}
	if err := s.m.store.Set(ctx, s.key(key), data, s.m.ttl); err != nil {
		countWrite("error")
		s.m.logger.Warn().Err(err).Str("key", key).Msg("handoff_write_failed")
		return err
	}
	countWrite("ok")
	return nil
}

// Read decodes the value under key into dst and reports whether one was found.
func (s Session) Read(ctx context.Context, key string, dst any) bool {
	if !s.usable() {
		countRead("read", "miss")
		return false
	}
	data, err := s.m.store.Get(ctx, s.key(key))
	return s.decode(ctx, "read", key, data, err, dst)
}

// ConsumeOnce decodes the value under key into dst and removes it in the same
// step, so a value is returned to at most one caller.
func (s Session) ConsumeOnce(ctx context.Context, key string, dst any) bool {
	if !s.usable() {
		countRead("consume", "miss")
		return false
	}
	data, err := s.m.store.GetDel(ctx, s.key(key))
	return s.decode(ctx, "consume", key, data, err, dst)
}

// Clear removes the value under key.
func (s Session) Clear(ctx context.Context, key string) {
	if !s.usable() {
		return
	}
	if err := s.m.store.Del(ctx, s.key(key)); err != nil {
		s.m.logger.Warn().Err(err).Str("key", key).Msg("handoff_clear_failed")
	}
}

func (s Session) decode(ctx context.Context, op, key string, data []byte, err error, dst any) bool {
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			countRead(op, "miss")
			return false
		}
		countRead(op, "error")
		s.m.logger.Warn().Err(err).Str("op", op).Str("key", key).Msg("handoff_read_failed")
		return false
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		countRead(op, "miss")
		return false
	}
	if err := json.Unmarshal(trimmed, dst); err != nil {
		countRead(op, "corrupt")
		s.m.logger.Warn().Err(err).Str("op", op).Str("key", key).Msg("handoff_value_corrupt")
		// drop corrupt values so later reads stop paying for them
		if op == "read" {
			s.Clear(ctx, key)
		}
		return false
	}
	countRead(op, "hit")
	return true
}

func countRead(op, result string) {
	if obs.HandoffReads != nil {
		obs.HandoffReads.WithLabelValues(op, result).Inc()
	}
}

func countWrite(result string) {
	if obs.HandoffWrites != nil {
		obs.HandoffWrites.WithLabelValues(result).Inc()
	}
}
