package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/noah-isme/storefront-checkout/internal/common"
)

const defaultCSRFName = "X-CSRF-Token"

// CSRF protects cookie-session flows using the double-submit technique. The
// token cookie is readable by the storefront script, which echoes it back in
// the header on state-changing requests.
type CSRF struct {
	Header   string
	Cookie   string
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

func (c CSRF) names() (header, cookie string) {
	header = strings.TrimSpace(c.Header)
	if header == "" {
		header = defaultCSRFName
	}
	cookie = strings.TrimSpace(c.Cookie)
	if cookie == "" {
		cookie = header
	}
	return header, cookie
}

// Issue sets the token cookie when the browser does not carry one yet.
func (c CSRF) Issue(next http.Handler) http.Handler {
	_, cookieName := c.names()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if existing, err := r.Cookie(cookieName); err != nil || strings.TrimSpace(existing.Value) == "" {
			token, err := newToken()
			if err == nil {
				http.SetCookie(w, &http.Cookie{
					Name:     cookieName,
					Value:    token,
					Path:     "/",
					Domain:   c.Domain,
					Secure:   c.Secure,
					SameSite: c.SameSite,
				})
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Middleware enforces that non-idempotent requests include a CSRF token header matching the cookie.
func (c CSRF) Middleware(next http.Handler) http.Handler {
	headerName, cookieName := c.names()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := r.Method
		if method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions || method == http.MethodTrace {
			next.ServeHTTP(w, r)
			return
		}

		token := strings.TrimSpace(r.Header.Get(headerName))
		if token == "" {
			common.JSONError(w, http.StatusForbidden, "CSRF_REJECTED", "missing csrf token", nil)
			return
		}

		cookie, err := r.Cookie(cookieName)
		if err != nil || strings.TrimSpace(cookie.Value) == "" {
			common.JSONError(w, http.StatusForbidden, "CSRF_REJECTED", "missing csrf cookie", nil)
			return
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(cookie.Value)) != 1 {
			common.JSONError(w, http.StatusForbidden, "CSRF_REJECTED", "invalid csrf token", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
