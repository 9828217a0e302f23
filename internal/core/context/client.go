package context

import "context"

// ClientInfo describes the caller of the current HTTP request.
type ClientInfo struct {
	IP        string
	UserAgent string
	Path      string
}

type clientInfoKey struct{}

// WithClient adds ClientInfo to context.
func WithClient(ctx context.Context, info *ClientInfo) context.Context {
	return context.WithValue(ctx, clientInfoKey{}, info)
}

// GetClient returns ClientInfo from context, or nil outside of a request.
func GetClient(ctx context.Context) *ClientInfo {
	if v, ok := ctx.Value(clientInfoKey{}).(*ClientInfo); ok {
		return v
	}
	return nil
}
