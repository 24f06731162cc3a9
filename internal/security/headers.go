package security

import (
	"net/http"
	"strconv"
	"strings"
)

const defaultHSTSMaxAge = 365 * 24 * 60 * 60

// Headers configures the security headers attached to API responses.
type Headers struct {
	Enable                bool
	EnableHSTS            bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	// NoStore marks responses uncacheable.
	NoStore bool
}

func (h Headers) static() [][2]string {
	out := [][2]string{
		{"X-Content-Type-Options", "nosniff"},
		{"X-Frame-Options", "DENY"},
		{"Referrer-Policy", "no-referrer"},
		{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
		{"Permissions-Policy", "geolocation=(), microphone=(), payment=(self)"},
	}
	if h.NoStore {
		out = append(out, [2]string{"Cache-Control", "no-store"})
	}
	return out
}

func (h Headers) hsts() string {
	maxAge := h.HSTSMaxAge
	if maxAge <= 0 {
		maxAge = defaultHSTSMaxAge
	}
	value := "max-age=" + strconv.Itoa(maxAge)
	if h.HSTSIncludeSubdomains {
		value += "; includeSubDomains"
	}
	return value
}

// Middleware attaches the configured headers to each response. HSTS is only
// sent over TLS, including TLS terminated at a proxy.
func (h Headers) Middleware(next http.Handler) http.Handler {
	if !h.Enable {
		return next
	}
	static := h.static()
	hsts := h.hsts()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := w.Header()
		for _, kv := range static {
			headers.Set(kv[0], kv[1])
		}
		if h.EnableHSTS && isHTTPS(r) {
			headers.Set("Strict-Transport-Security", hsts)
		}
		next.ServeHTTP(w, r)
	})
}

func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")), "https")
}
