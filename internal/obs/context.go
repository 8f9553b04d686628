package obs

import "context"

type routePatternKey struct{}

type routePatternHolder struct {
	pattern string
}

// WithRoutePattern stores the matched router pattern on the context.
func WithRoutePattern(ctx context.Context, pattern string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, routePatternKey{}, &routePatternHolder{pattern: pattern})
}

// SetRoutePattern fills the holder injected by RoutePatternMiddleware so
// middlewares higher in the chain observe the resolved pattern.
func SetRoutePattern(ctx context.Context, pattern string) {
	if ctx == nil {
		return
	}
	if h, ok := ctx.Value(routePatternKey{}).(*routePatternHolder); ok {
		h.pattern = pattern
	}
}

// RoutePatternFromContext extracts the route pattern from context if present.
func RoutePatternFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if h, ok := ctx.Value(routePatternKey{}).(*routePatternHolder); ok {
		return h.pattern
	}
	return ""
}
