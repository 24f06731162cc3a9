package security

import (
	"bytes"
	"io"
	"mime"
	"net/http"

	"github.com/noah-isme/storefront-checkout/internal/common"
)

// BodyLimit bounds request payloads. Bodies are buffered so handlers can
// decode them without re-checking the size.
type BodyLimit struct {
	Max int64
	// RequireJSON rejects non-empty bodies that are not declared as JSON.
	RequireJSON bool
}

// Middleware rejects payloads above Max with HTTP 413.
func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body == nil || r.Body == http.NoBody || !hasBody(r.Method) {
			next.ServeHTTP(w, r)
			return
		}
		if b.RequireJSON && r.ContentLength != 0 && !isJSON(r.Header.Get("Content-Type")) {
			common.JSONError(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "request body must be application/json", nil)
			return
		}
		if b.Max <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		if r.ContentLength > b.Max {
			tooLarge(w)
			return
		}

		buf, err := io.ReadAll(io.LimitReader(r.Body, b.Max+1))
		_ = r.Body.Close()
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
			return
		}
		if int64(len(buf)) > b.Max {
			tooLarge(w)
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(buf))
		r.ContentLength = int64(len(buf))
		next.ServeHTTP(w, r)
	})
}

func tooLarge(w http.ResponseWriter) {
	common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request entity too large", nil)
}

func hasBody(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "application/json"
}
