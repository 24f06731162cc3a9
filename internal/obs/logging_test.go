package obs_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storefront-checkout/internal/common"
	"github.com/noah-isme/storefront-checkout/internal/obs"
)

func TestRequestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := obs.NewLoggerTo(&buf, "json", "info")
	handler := obs.RequestLogger{Logger: logger}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{}`))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/x/confirmation", nil)
	req = req.WithContext(common.WithSessionID(req.Context(), "sess-1"))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "warn", entry["level"])
	require.Equal(t, "http_request", entry["message"])
	require.Equal(t, "sess-1", entry["session_id"])
	require.EqualValues(t, 404, entry["status"])
	require.EqualValues(t, 2, entry["bytes"])
}

func TestRequestLoggerSkipPaths(t *testing.T) {
	var buf bytes.Buffer
	logger := obs.NewLoggerTo(&buf, "json", "info")
	handler := obs.RequestLogger{Logger: logger, SkipPaths: []string{"/health/live"}}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Empty(t, buf.String())

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/money/format", nil))
	require.True(t, strings.Contains(buf.String(), `"route":"/api/v1/money/format"`))
}

func TestNewLoggerUnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := obs.NewLoggerTo(&buf, "json", "chatty")
	logger.Debug().Msg("hidden")
	logger.Info().Msg("shown")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "shown")
}
