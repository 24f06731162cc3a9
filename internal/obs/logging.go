package obs

import (
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/storefront-checkout/internal/common"
)

// NewLogger configures a zerolog logger writing to stdout using the provided format and level.
func NewLogger(format, level string) zerolog.Logger {
	return NewLoggerTo(os.Stdout, format, level)
}

// NewLoggerTo is NewLogger with an explicit destination. Unknown levels fall
// back to info; "console" and "text" select the human-readable writer.
func NewLoggerTo(w io.Writer, format, level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	out := w
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "console", "text":
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

// RequestLogger records structured HTTP request logs enriched with tracing
// and checkout session metadata.
type RequestLogger struct {
	Logger zerolog.Logger
	// SkipPaths are logged at debug only, e.g. probes and scrapes.
	SkipPaths []string
}

// Middleware implements chi middleware for structured request logs.
func (l RequestLogger) Middleware(next http.Handler) http.Handler {
	skip := make(map[string]struct{}, len(l.SkipPaths))
	for _, p := range l.SkipPaths {
		skip[p] = struct{}{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := NewStatusRecorder(w)
		start := time.Now()
		next.ServeHTTP(recorder, r)

		status := recorder.Status()
		evt := l.event(r.URL.Path, status, skip)
		if !evt.Enabled() {
			return
		}
		evt = evt.
			Str("method", r.Method).
			Str("route", routeOf(r, r.URL.Path)).
			Str("path", r.URL.Path).
			Int("status", status).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Int64("bytes", recorder.BytesWritten()).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("remote_addr", common.ClientIP(r))
		if spanCtx := trace.SpanContextFromContext(r.Context()); spanCtx.IsValid() {
			evt = evt.Str("trace_id", spanCtx.TraceID().String()).Str("span_id", spanCtx.SpanID().String())
		}
		if sessionID, ok := common.SessionID(r.Context()); ok {
			evt = evt.Str("session_id", sessionID)
		}
		if ua := strings.TrimSpace(r.UserAgent()); ua != "" {
			evt = evt.Str("user_agent", ua)
		}
		evt.Msg("http_request")
	})
}

func (l RequestLogger) event(path string, status int, skip map[string]struct{}) *zerolog.Event {
	switch {
	case status >= http.StatusInternalServerError:
		return l.Logger.Error()
	case status >= http.StatusBadRequest:
		return l.Logger.Warn()
	}
	if _, ok := skip[path]; ok {
		return l.Logger.Debug()
	}
	return l.Logger.Info()
}
