package common

import "context"

type ctxKey string

const sessionIDKey ctxKey = "session/id"

// WithSessionID stores the browser session identifier on the provided context.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionID extracts the browser session identifier from the context if present.
func SessionID(ctx context.Context) (string, bool) {
	v := ctx.Value(sessionIDKey)
	if v == nil {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
