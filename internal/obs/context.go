package obs

import "context"

type ctxKey int

const routePatternKey ctxKey = iota

// WithRoutePattern stores the matched router pattern on the context.
func WithRoutePattern(ctx context.Context, pattern string) context.Context {
	return context.WithValue(ctx, routePatternKey, pattern)
}

// RoutePatternFromContext returns the stored route pattern, or "" when none was recorded.
func RoutePatternFromContext(ctx context.Context) string {
	pattern, _ := ctx.Value(routePatternKey).(string)
	return pattern
}
