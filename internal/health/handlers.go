package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"
)

var (
	ready atomic.Bool

	errStoreNotConfigured = errors.New("store not configured")
)

func init() {
	ready.Store(true)
}

// SetReady toggles readiness, e.g. to drain traffic during shutdown.
func SetReady(v bool) {
	ready.Store(v)
}

// Checker represents dependencies that can be probed for readiness.
type Checker interface {
	PingStore(ctx context.Context, timeout time.Duration) error
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Checker      Checker
	StoreTimeout time.Duration
	// StoreName labels the hand-off backend in the readiness payload.
	StoreName string
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness based on dependency probes.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !ready.Load() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	if h.Checker == nil {
		http.Error(w, "dependencies unavailable", http.StatusServiceUnavailable)
		return
	}
	storeStatus := "ok"
	if err := h.Checker.PingStore(r.Context(), h.storeTimeout()); err != nil {
		storeStatus = err.Error()
	}
	status := map[string]string{
		"handoff": storeStatus,
	}
	if h.StoreName != "" {
		status["backend"] = h.StoreName
	}
	w.Header().Set("Content-Type", "application/json")
	if storeStatus != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_ = json.NewEncoder(w).Encode(status)
}

func (h Handler) storeTimeout() time.Duration {
	if h.StoreTimeout <= 0 {
		return 300 * time.Millisecond
	}
	return h.StoreTimeout
}

// Pinger is satisfied by the hand-off manager.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerChecker adapts a Pinger to Checker, bounding each probe by timeout.
type PingerChecker struct {
	Pinger Pinger
}

// PingStore probes the wrapped store.
func (c PingerChecker) PingStore(ctx context.Context, timeout time.Duration) error {
	if c.Pinger == nil {
		return errStoreNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.Pinger.Ping(ctx)
}
