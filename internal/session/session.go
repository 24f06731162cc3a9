package session

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/rs/zerolog"

	"github.com/noah-isme/storefront-checkout/internal/common"
)

const (
	defaultCookieName = "sf_session"
	defaultMaxAge     = 24 * time.Hour
	issuer            = "storefront-checkout"
)

// Config controls the browser-session cookie.
type Config struct {
	Secret     []byte
	CookieName string
	Domain     string
	Secure     bool
	SameSite   http.SameSite
	// MaxAge bounds the token lifetime. The cookie itself carries no expiry
	// and is dropped when the browser session ends.
	MaxAge time.Duration
	Logger zerolog.Logger
}

// Manager issues and verifies browser-session cookies.
type Manager struct {
	cfg Config
	now func() time.Time
}

// NewManager validates cfg and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("session: secret is required")
	}
	if strings.TrimSpace(cfg.CookieName) == "" {
		cfg.CookieName = defaultCookieName
	}
	if cfg.SameSite == 0 {
		cfg.SameSite = http.SameSiteLaxMode
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = defaultMaxAge
	}
	return &Manager{cfg: cfg, now: time.Now}, nil
}

// Middleware loads the session from the cookie or issues a fresh one, and
// stores its identifier on the request context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := m.load(r)
		if err != nil {
			if !errors.Is(err, http.ErrNoCookie) {
				m.cfg.Logger.Debug().Err(err).Msg("session_cookie_rejected")
			}
			id, err = m.issue(w)
			if err != nil {
				m.cfg.Logger.Error().Err(err).Msg("session_issue_failed")
				next.ServeHTTP(w, r)
				return
			}
		}
		next.ServeHTTP(w, r.WithContext(common.WithSessionID(r.Context(), id)))
	})
}

// ID returns the browser session identifier stored on ctx.
func ID(ctx context.Context) (string, bool) {
	return common.SessionID(ctx)
}

func (m *Manager) load(r *http.Request) (string, error) {
	cookie, err := r.Cookie(m.cfg.CookieName)
	if err != nil {
		return "", err
	}
	tok, err := jwt.ParseString(strings.TrimSpace(cookie.Value),
		jwt.WithKey(jwa.HS256, m.cfg.Secret),
		jwt.WithIssuer(issuer),
		jwt.WithClock(jwt.ClockFunc(m.now)),
	)
	if err != nil {
		return "", err
	}
	if _, err := uuid.Parse(tok.Subject()); err != nil {
		return "", errors.New("session: subject is not a session id")
	}
	return tok.Subject(), nil
}

func (m *Manager) issue(w http.ResponseWriter) (string, error) {
	id := uuid.NewString()
	now := m.now()
	tok, err := jwt.NewBuilder().
		Issuer(issuer).
		Subject(id).
		IssuedAt(now).
		Expiration(now.Add(m.cfg.MaxAge)).
		Build()
	if err != nil {
		return "", err
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, m.cfg.Secret))
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    string(signed),
		Path:     "/",
		Domain:   m.cfg.Domain,
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: m.cfg.SameSite,
	})
	return id, nil
}
