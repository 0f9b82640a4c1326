package tenant

import "context"

// Principal identifies the acting user for an operation. SuperAdmin
// principals read across tenants: the tenant filter is waived for them,
// though soft-deleted rows stay excluded by default.
type Principal struct {
	UserID     string
	SuperAdmin bool
}

type principalContextKey struct{}

// WithPrincipal attaches the acting principal to the context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext returns the acting principal, if one was attached.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}
