// Package gateware adapts the pure access decision in the auth package to
// go-router middleware. The middleware never talks to the network; it only
// resolves an identity snapshot and applies Guard.
package gateware

import (
	"github.com/goliatone/go-router"

	auth "github.com/stefvuck/forum-auth"
)

// IdentityLookup resolves the current identity snapshot for a request. Return
// nil when nobody is logged in.
type IdentityLookup func(ctx router.Context) *auth.Identity

type Config struct {
	// Filter skips the middleware when it returns true.
	Filter func(router.Context) bool

	// IdentityLookup resolves the identity to gate on. When nil the
	// middleware reads an *auth.Identity from ctx.Locals(ContextKey).
	IdentityLookup IdentityLookup

	// ContextKey is the Locals key consulted by the default lookup, and the
	// key under which the resolved identity is stored for downstream
	// handlers. Defaults to "identity".
	ContextKey string

	// RequiredRoles gates the route. Empty means any authenticated identity
	// passes, matching Guard's semantics.
	RequiredRoles []string

	// PromptLoginHandler runs when Guard returns DecisionPromptLogin.
	// Defaults to a 401 response.
	PromptLoginHandler router.HandlerFunc

	// ForbiddenHandler runs when Guard returns DecisionForbidden.
	// Defaults to a 403 response.
	ForbiddenHandler router.HandlerFunc
}

func New(config ...Config) func(router.HandlerFunc) router.HandlerFunc {
	cfg := GetDefaultConfig(config...)
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			identity := cfg.IdentityLookup(ctx)

			switch auth.Guard(identity, cfg.RequiredRoles...) {
			case auth.DecisionPromptLogin:
				return cfg.PromptLoginHandler(ctx)
			case auth.DecisionForbidden:
				return cfg.ForbiddenHandler(ctx)
			}

			ctx.Locals(cfg.ContextKey, identity)

			return hf(ctx)
		}
	}
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "identity"
	}

	if cfg.IdentityLookup == nil {
		key := cfg.ContextKey
		cfg.IdentityLookup = func(ctx router.Context) *auth.Identity {
			if identity, ok := ctx.Locals(key).(*auth.Identity); ok {
				return identity
			}
			return nil
		}
	}

	if cfg.PromptLoginHandler == nil {
		cfg.PromptLoginHandler = func(ctx router.Context) error {
			return ctx.Status(router.StatusUnauthorized).SendString("Authentication required")
		}
	}

	if cfg.ForbiddenHandler == nil {
		cfg.ForbiddenHandler = func(ctx router.Context) error {
			return ctx.Status(router.StatusForbidden).SendString("Insufficient permissions")
		}
	}

	return cfg
}
