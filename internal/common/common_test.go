package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteAppErrorDefaults(t *testing.T) {
	rr := httptest.NewRecorder()
	err := fmt.Errorf("wrapped: %w", &AppError{Message: "bad"})
	require.True(t, WriteAppError(rr, err))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var body struct {
		Error ErrorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "BAD_REQUEST", body.Error.Code)
	require.Equal(t, "bad", body.Error.Message)

	require.False(t, WriteAppError(httptest.NewRecorder(), errors.New("plain")))
}

func TestDataEnvelope(t *testing.T) {
	rr := httptest.NewRecorder()
	Data(rr, http.StatusOK, map[string]int{"n": 1})
	require.JSONEq(t, `{"data":{"n":1}}`, rr.Body.String())
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded first hop", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.2:1234", "203.0.113.7"},
		{"forwarded garbage falls through", map[string]string{"X-Forwarded-For": "unknown", "X-Real-IP": "198.51.100.4"}, "10.0.0.2:1234", "198.51.100.4"},
		{"remote addr", nil, "192.0.2.1:5555", "192.0.2.1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			require.Equal(t, tc.want, ClientIP(req))
		})
	}
}

func TestSessionIDRequiresValue(t *testing.T) {
	_, ok := SessionID(context.Background())
	require.False(t, ok)
	_, ok = SessionID(WithSessionID(context.Background(), ""))
	require.False(t, ok)
	id, ok := SessionID(WithSessionID(context.Background(), "abc"))
	require.True(t, ok)
	require.Equal(t, "abc", id)
}
