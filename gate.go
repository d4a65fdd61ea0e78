package auth

// Decision is the outcome of an access gate check for a protected region.
type Decision string

const (
	// DecisionAllow renders the protected content.
	DecisionAllow Decision = "allow"
	// DecisionPromptLogin renders an unauthenticated prompt.
	DecisionPromptLogin Decision = "prompt_login"
	// DecisionForbidden renders a permission-denied view.
	DecisionForbidden Decision = "forbidden"
)

// Well-known role names seeded by the forum service.
const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleMember    = "member"
)

// AdminOnly is the requirement set guarding role administration.
var AdminOnly = []string{RoleAdmin}

// Guard decides whether the given identity may see a protected region. It is
// a pure function of its inputs: no side effects, no network calls, and the
// same inputs always yield the same decision. A page may invoke it once per
// protected region with different requirements.
//
// No identity yields PromptLogin. An identity with no requirement yields
// Allow. Otherwise the identity's canonical role name must be one of the
// required roles; an unassigned role never matches.
func Guard(identity *Identity, requiredRoles ...string) Decision {
	if identity == nil {
		return DecisionPromptLogin
	}

	if len(requiredRoles) == 0 {
		return DecisionAllow
	}

	name := identity.RoleName()
	for _, required := range requiredRoles {
		if name == required {
			return DecisionAllow
		}
	}

	return DecisionForbidden
}

// Allowed is a convenience wrapper for call sites that only branch on access.
func Allowed(identity *Identity, requiredRoles ...string) bool {
	return Guard(identity, requiredRoles...) == DecisionAllow
}
