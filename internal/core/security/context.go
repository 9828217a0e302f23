package security

import "context"

type identityKey struct{}

// WithIdentity adds the caller identity to context.
// Used by the auth middleware; handlers read it once and pass it on explicitly.
func WithIdentity(ctx context.Context, ident *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, ident)
}

// GetIdentity returns the identity from context, or nil.
func GetIdentity(ctx context.Context) *Identity {
	if v, ok := ctx.Value(identityKey{}).(*Identity); ok {
		return v
	}
	return nil
}
