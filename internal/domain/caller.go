package domain

import "context"

// Caller is the authenticated principal behind a request. Token is the raw
// bearer token, forwarded to the persistence collaborator so its row-level
// policies apply.
type Caller struct {
	Subject string
	Token   string
}

type callerKey struct{}

// WithCaller returns a copy of ctx carrying c.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFromContext returns the caller stored by WithCaller. ok is false for
// unauthenticated requests.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok && c.Subject != ""
}
