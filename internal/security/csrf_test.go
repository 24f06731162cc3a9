package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCSRFMiddlewareBlocksMissingToken(t *testing.T) {
	handler := CSRF{}.Middleware(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/financing", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestCSRFMiddlewareAllowsValidToken(t *testing.T) {
	handler := CSRF{Header: "X-CSRF-Token", Cookie: "sf_csrf"}.Middleware(okHandler())

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/checkout/financing", nil)
	token := "secure-token"
	req.Header.Set("X-CSRF-Token", token)
	req.AddCookie(&http.Cookie{Name: "sf_csrf", Value: token})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestCSRFMiddlewareRejectsMismatch(t *testing.T) {
	handler := CSRF{}.Middleware(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/financing", nil)
	req.Header.Set(defaultCSRFName, "one")
	req.AddCookie(&http.Cookie{Name: defaultCSRFName, Value: "two"})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestCSRFMiddlewareSkipsSafeMethods(t *testing.T) {
	handler := CSRF{}.Middleware(okHandler())
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/orders/1/confirmation", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for GET, got %d", rr.Code)
	}
}

func TestCSRFIssueSetsCookieOnce(t *testing.T) {
	csrf := CSRF{Cookie: "sf_csrf"}
	handler := csrf.Issue(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "sf_csrf" || cookies[0].Value == "" {
		t.Fatalf("expected csrf cookie, got %#v", cookies)
	}
	if cookies[0].HttpOnly {
		t.Fatal("csrf cookie must be readable by the storefront script")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rr2 := httptest.NewRecorder()
	handler.ServeHTTP(rr2, req)
	if len(rr2.Result().Cookies()) != 0 {
		t.Fatal("expected existing cookie to be kept")
	}
}
