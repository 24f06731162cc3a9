package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/noah-isme/storefront-checkout/internal/common"
)

// SessionOrIP keys limits by browser session, falling back to the client address.
func SessionOrIP(prefix string) func(*http.Request) string {
	return func(r *http.Request) string {
		if id, ok := common.SessionID(r.Context()); ok {
			return prefix + "session:" + id
		}
		return prefix + "ip:" + common.ClientIP(r)
	}
}

// Config describes how to derive a rate limit key and thresholds.
type Config struct {
	Key    func(*http.Request) string
	Window time.Duration
	Max    int
}

// Handler enforces rate limits before delegating to the next handler. Limiter
// failures let the request through and are reported to OnError.
type Handler struct {
	Limiter Limiter
	Config  Config
	OnError func(error)
}

// Middleware implements the http.Handler middleware interface.
func (h Handler) Middleware(next http.Handler) http.Handler {
	if h.Limiter == nil || h.Config.Key == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		allowed, remaining, resetAt, err := h.Limiter.Allow(r.Context(), h.Config.Key(r), h.Config.Window, h.Config.Max)
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		setHeaders(w.Header(), max(h.Config.Max, 0), remaining, resetAt)
		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter(resetAt)))
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func setHeaders(h http.Header, limit, remaining int, resetAt time.Time) {
	h.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
}

// retryAfter rounds up so clients never retry before the window resets.
func retryAfter(resetAt time.Time) int {
	secs := math.Ceil(time.Until(resetAt).Seconds())
	if secs < 0 {
		return 0
	}
	return int(secs)
}
