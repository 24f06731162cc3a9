package handoff

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storefront-checkout/internal/financing"
	"github.com/noah-isme/storefront-checkout/internal/obs"
)

type payload struct {
	A int `json:"a"`
}

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	rs, _ := newRedisStore(t)
	return map[string]Store{
		"redis":  rs,
		"memory": NewMemoryStore(16, time.Hour),
	}
}

func TestWriteReadConsume(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := New(store, Options{Logger: zerolog.Nop()}).Scope("sess-1")

			require.NoError(t, s.Write(ctx, "k", payload{A: 1}))

			var got payload
			require.True(t, s.Read(ctx, "k", &got))
			require.Equal(t, payload{A: 1}, got)

			got = payload{}
			require.True(t, s.ConsumeOnce(ctx, "k", &got))
			require.Equal(t, payload{A: 1}, got)

			require.False(t, s.Read(ctx, "k", &got))
			require.False(t, s.ConsumeOnce(ctx, "k", &got))
		})
	}
}

func TestLastWriteWins(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := New(store, Options{}).Scope("sess-1")
			require.NoError(t, s.Write(ctx, "k", payload{A: 1}))
			require.NoError(t, s.Write(ctx, "k", payload{A: 2}))

			var got payload
			require.True(t, s.Read(ctx, "k", &got))
			require.Equal(t, 2, got.A)
		})
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			m := New(store, Options{})
			require.NoError(t, m.Scope("a").Write(ctx, "k", payload{A: 1}))

			var got payload
			require.False(t, m.Scope("b").Read(ctx, "k", &got))
			require.False(t, m.Scope("b").ConsumeOnce(ctx, "k", &got))
			require.True(t, m.Scope("a").Read(ctx, "k", &got))
		})
	}
}

func TestClear(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := New(store, Options{}).Scope("sess-1")
			require.NoError(t, s.Write(ctx, "k", payload{A: 1}))
			s.Clear(ctx, "k")
			s.Clear(ctx, "missing")

			var got payload
			require.False(t, s.Read(ctx, "k", &got))
		})
	}
}

func TestCorruptValueReadsAsAbsent(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs.MustRegisterDomainMetrics("test", reg)

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := New(store, Options{}).Scope("sess-1")
			require.NoError(t, store.Set(ctx, s.key("k"), []byte("{not json"), time.Minute))

			before := testutil.ToFloat64(obs.HandoffReads.WithLabelValues("read", "corrupt"))
			var got payload
			require.False(t, s.Read(ctx, "k", &got))
			require.Equal(t, before+1, testutil.ToFloat64(obs.HandoffReads.WithLabelValues("read", "corrupt")))

			_, err := store.Get(ctx, s.key("k"))
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.Set(ctx, s.key("k"), []byte("null"), time.Minute))
			require.False(t, s.ConsumeOnce(ctx, "k", &got))
		})
	}
}

func TestUnusableScopeDegrades(t *testing.T) {
	ctx := context.Background()
	var got payload

	var nilManager *Manager
	s := nilManager.Scope("sess")
	require.Error(t, s.Write(ctx, "k", payload{A: 1}))
	require.False(t, s.Read(ctx, "k", &got))
	require.False(t, s.ConsumeOnce(ctx, "k", &got))
	s.Clear(ctx, "k")

	anon := New(NewMemoryStore(4, time.Minute), Options{}).Scope("  ")
	require.Error(t, anon.Write(ctx, "k", payload{A: 1}))
	require.False(t, anon.Read(ctx, "k", &got))
}

func TestStoreFailureReadsAsAbsent(t *testing.T) {
	store, mr := newRedisStore(t)
	s := New(store, Options{}).Scope("sess-1")
	ctx := context.Background()
	require.NoError(t, s.Write(ctx, "k", payload{A: 1}))

	mr.Close()
	var got payload
	require.False(t, s.Read(ctx, "k", &got))
	require.False(t, s.ConsumeOnce(ctx, "k", &got))
	require.Error(t, s.Write(ctx, "k", payload{A: 2}))
}

func TestRedisTTL(t *testing.T) {
	store, mr := newRedisStore(t)
	s := New(store, Options{TTL: time.Minute}).Scope("sess-1")
	ctx := context.Background()
	require.NoError(t, s.Write(ctx, "k", payload{A: 1}))
	require.Equal(t, time.Minute, mr.TTL("handoff:sess-1:k"))

	mr.FastForward(2 * time.Minute)
	var got payload
	require.False(t, s.Read(ctx, "k", &got))
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(4, time.Hour)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte(`{"a":1}`), time.Minute))
	_, err := store.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = store.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, 0, store.Len())
}

func TestMemoryStoreIsBounded(t *testing.T) {
	store := NewMemoryStore(2, time.Hour)
	ctx := context.Background()
	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, store.Set(ctx, k, []byte("1"), 0))
	}
	require.Equal(t, 2, store.Len())
	_, err := store.Get(ctx, "a")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestConsumeOnceHandsValueToSingleReader(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := New(store, Options{}).Scope("sess-1")
			require.NoError(t, s.Write(ctx, "k", payload{A: 1}))

			var (
				wg   sync.WaitGroup
				mu   sync.Mutex
				hits int
			)
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					var got payload
					if s.ConsumeOnce(ctx, "k", &got) {
						mu.Lock()
						hits++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()
			require.Equal(t, 1, hits)
		})
	}
}

func TestFinancingChannel(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryStore(4, time.Hour), Options{}).Scope("sess-1")

	_, ok := FinancingChannel.Peek(ctx, s)
	require.False(t, ok)

	info := financing.Derive(&financing.PaymentRecord{
		Installments:        6,
		FinancingCost:       decimal.NewFromInt(150),
		TotalFinancedAmount: decimal.NewFromInt(1150),
		InstallmentAmount:   decimal.RequireFromString("191.67"),
	})
	require.NoError(t, FinancingChannel.Publish(ctx, s, *info))

	peeked, ok := FinancingChannel.Peek(ctx, s)
	require.True(t, ok)
	require.True(t, peeked.HasFinancingCost)

	got, ok := FinancingChannel.Consume(ctx, s)
	require.True(t, ok)
	require.Equal(t, 6, got.Installments)
	require.True(t, decimal.RequireFromString("191.67").Equal(got.InstallmentAmount))

	_, ok = FinancingChannel.Consume(ctx, s)
	require.False(t, ok)

	require.NoError(t, FinancingChannel.Publish(ctx, s, *info))
	FinancingChannel.Discard(ctx, s)
	_, ok = FinancingChannel.Peek(ctx, s)
	require.False(t, ok)
}
