package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{Secret: []byte("test-secret"), MaxAge: time.Hour})
	require.NoError(t, err)
	return m
}

func captureID(t *testing.T, m *Manager, req *http.Request) (string, *httptest.ResponseRecorder) {
	t.Helper()
	var id string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ = ID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return id, rr
}

func TestIssuesSessionCookie(t *testing.T) {
	m := newManager(t)
	id, rr := captureID(t, m, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, id)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	require.Equal(t, defaultCookieName, c.Name)
	require.True(t, c.HttpOnly)
	require.Zero(t, c.MaxAge)
	require.True(t, c.Expires.IsZero())
	require.Equal(t, http.SameSiteLaxMode, c.SameSite)
}

func TestReusesValidCookie(t *testing.T) {
	m := newManager(t)
	first, rr := captureID(t, m, httptest.NewRequest(http.MethodGet, "/", nil))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(rr.Result().Cookies()[0])
	second, rr2 := captureID(t, m, req)
	require.Equal(t, first, second)
	require.Empty(t, rr2.Result().Cookies())
}

func TestRejectsForeignOrExpiredCookie(t *testing.T) {
	m := newManager(t)
	other, err := NewManager(Config{Secret: []byte("other-secret")})
	require.NoError(t, err)
	foreignID, rr := captureID(t, other, httptest.NewRequest(http.MethodGet, "/", nil))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(rr.Result().Cookies()[0])
	id, rr2 := captureID(t, m, req)
	require.NotEqual(t, foreignID, id)
	require.Len(t, rr2.Result().Cookies(), 1)

	_, issued := captureID(t, m, httptest.NewRequest(http.MethodGet, "/", nil))
	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(issued.Result().Cookies()[0])
	_, rr3 := captureID(t, m, req)
	require.Len(t, rr3.Result().Cookies(), 1, "expired token is replaced")
}

func TestRejectsNonSessionSubject(t *testing.T) {
	m := newManager(t)
	tok, err := jwt.NewBuilder().Issuer(issuer).Subject("admin").Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, m.cfg.Secret))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: defaultCookieName, Value: string(signed)})
	id, _ := captureID(t, m, req)
	require.NotEqual(t, "admin", id)
}

func TestNewManagerRequiresSecret(t *testing.T) {
	_, err := NewManager(Config{})
	require.Error(t, err)
}
