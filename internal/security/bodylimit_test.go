package security

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func echoBody(captured *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		*captured = string(data)
		w.WriteHeader(http.StatusOK)
	})
}

func TestBodyLimitAllowsWithinLimit(t *testing.T) {
	var captured string
	handler := BodyLimit{Max: 32}.Middleware(echoBody(&captured))

	req := httptest.NewRequest(http.MethodPost, "/checkout/financing", strings.NewReader(`{"a":1}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, `{"a":1}`, captured)
}

func TestBodyLimitRejectsOversized(t *testing.T) {
	var captured string
	handler := BodyLimit{Max: 5}.Middleware(echoBody(&captured))

	req := httptest.NewRequest(http.MethodPost, "/checkout/financing", strings.NewReader("excessive"))
	req.ContentLength = -1
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	require.Contains(t, rr.Body.String(), `"PAYLOAD_TOO_LARGE"`)
	require.Empty(t, captured)
}

func TestBodyLimitRejectsDeclaredLength(t *testing.T) {
	var captured string
	handler := BodyLimit{Max: 5}.Middleware(echoBody(&captured))

	req := httptest.NewRequest(http.MethodPost, "/checkout/financing", strings.NewReader("content"))
	req.ContentLength = 100
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestBodyLimitSkipsSafeMethods(t *testing.T) {
	var captured string
	handler := BodyLimit{Max: 1, RequireJSON: true}.Middleware(echoBody(&captured))

	req := httptest.NewRequest(http.MethodGet, "/orders/1/confirmation", strings.NewReader("ignored body"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestBodyLimitRequireJSON(t *testing.T) {
	var captured string
	handler := BodyLimit{Max: 64, RequireJSON: true}.Middleware(echoBody(&captured))

	req := httptest.NewRequest(http.MethodPost, "/carts/bulk-discount", strings.NewReader("a=b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnsupportedMediaType, rr.Code)

	req = httptest.NewRequest(http.MethodPost, "/carts/bulk-discount", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, `{}`, captured)
}
