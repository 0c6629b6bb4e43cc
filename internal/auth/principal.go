package auth

import (
	"context"

	"riceMarketplace/models"
)

// Principal represents the authenticated caller carried by a session token.
type Principal struct {
	AccountID int64
	Name      string      // username
	Kind      models.Role // "farmer" | "buyer"
}

type principalKey struct{}

// WithPrincipal stores the principal in context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext retrieves the principal from context (if any).
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
