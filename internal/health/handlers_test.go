package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storefront-checkout/internal/handoff"
	"github.com/noah-isme/storefront-checkout/internal/health"
)

type stubChecker struct {
	storeErr error
}

func (s stubChecker) PingStore(_ context.Context, _ time.Duration) error {
	return s.storeErr
}

type slowPinger struct{}

func (slowPinger) Ping(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestLive(t *testing.T) {
	handler := health.Handler{}
	rr := httptest.NewRecorder()
	handler.Live(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
	if body := rr.Body.String(); body != "ok" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestReadySuccess(t *testing.T) {
	handler := health.Handler{Checker: stubChecker{}, StoreTimeout: 50 * time.Millisecond, StoreName: "memory"}
	rr := httptest.NewRecorder()
	handler.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var status map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	require.Equal(t, "ok", status["handoff"])
	require.Equal(t, "memory", status["backend"])
}

func TestReadyFailure(t *testing.T) {
	handler := health.Handler{Checker: stubChecker{storeErr: errors.New("redis down")}}
	rr := httptest.NewRecorder()
	handler.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestPingerCheckerWithHandoffManager(t *testing.T) {
	mgr := handoff.New(handoff.NewMemoryStore(4, time.Minute), handoff.Options{})
	handler := health.Handler{Checker: health.PingerChecker{Pinger: mgr}}
	rr := httptest.NewRecorder()
	handler.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	err := health.PingerChecker{Pinger: slowPinger{}}.PingStore(context.Background(), 10*time.Millisecond)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	require.Error(t, health.PingerChecker{}.PingStore(context.Background(), time.Millisecond))
}

func TestReadinessAfterShutdown(t *testing.T) {
	handler := health.Handler{Checker: stubChecker{}}
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)

	health.SetReady(true)
	resp := httptest.NewRecorder()
	handler.Ready(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)

	health.SetReady(false)
	resp2 := httptest.NewRecorder()
	handler.Ready(resp2, req)
	require.Equal(t, http.StatusServiceUnavailable, resp2.Code)

	// reset for other tests
	health.SetReady(true)
}
