package auth

import (
	"context"
)

var identityCtxKey = &contextKey{"identity"}

type contextKey struct {
	name string
}

// WithIdentity sets the Identity snapshot in the given context. Protected
// regions receive the snapshot through explicit passing like this, never via
// an ambient global lookup.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey, identity)
}

// IdentityFromContext finds the identity snapshot in the context.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	raw, ok := ctx.Value(identityCtxKey).(*Identity)
	if !ok || raw == nil {
		return nil, false
	}
	return raw, true
}

// GuardContext runs the access gate against the identity carried by ctx.
func GuardContext(ctx context.Context, requiredRoles ...string) Decision {
	identity, _ := IdentityFromContext(ctx)
	return Guard(identity, requiredRoles...)
}
