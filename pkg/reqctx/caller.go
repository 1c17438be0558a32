package reqctx

import "context"

// Caller identifies who is making the request.
type Caller struct {
	// UID is the identity-provider user id.
	UID string

	// SessionID is set only when the caller presented an access token.
	SessionID string

	// Verified is true when UID comes from a validated token rather than
	// the legacy userUid parameter.
	Verified bool
}

// WithCaller stores the caller in the context.
func WithCaller(ctx context.Context, c *Caller) context.Context {
	return context.WithValue(ctx, keyCaller, c)
}

// CallerFromContext retrieves the caller. Returns nil, false for anonymous requests.
func CallerFromContext(ctx context.Context) (*Caller, bool) {
	c, ok := ctx.Value(keyCaller).(*Caller)
	return c, ok && c != nil
}

// CallerUID returns the caller's uid or "" when anonymous.
func CallerUID(ctx context.Context) string {
	c, ok := CallerFromContext(ctx)
	if !ok {
		return ""
	}
	return c.UID
}
