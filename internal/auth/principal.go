package auth

import "context"

// Principal is the authenticated actor making a request.
// A nil *Principal means the request is anonymous.
type Principal struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored in ctx, or nil.
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}
