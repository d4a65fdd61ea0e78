package auth

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Role is a named permission bundle assignable to a user. Roles are
// admin-managed and globally shared; users reference exactly one role by id.
type Role struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Color       string          `json:"color"`
	Permissions map[string]bool `json:"permissions"`
}

// Can reports whether the role grants the named permission.
func (r *Role) Can(permission string) bool {
	if r == nil {
		return false
	}
	return r.Permissions[permission]
}

// Identity holds the authenticated user's profile plus role. It is owned by
// the SessionStateMachine and read-only to every other component; a nil Role
// represents an unassigned state, which callers must render distinctly rather
// than assume away.
type Identity struct {
	UserID int    `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   *Role  `json:"role,omitempty"`
}

// RoleName returns the canonical role name used for access decisions, or the
// empty string when no role is assigned. All role comparisons go through this
// single path.
func (i *Identity) RoleName() string {
	if i == nil || i.Role == nil {
		return ""
	}
	return i.Role.Name
}

// User is a roster entry as the admin view sees it.
type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  *Role  `json:"role,omitempty"`
}

// RegistrationOutcome is the transient result of a successful registration.
// The verification token is only populated when the remote authority exposes
// it (non-production flows); its visibility is a workflow state, not an error.
type RegistrationOutcome struct {
	Message     string `json:"message"`
	VerifyToken string `json:"verify_token,omitempty"`
}

// LoginResult is the remote service's answer to a successful login.
type LoginResult struct {
	Token string   `json:"token"`
	User  *Account `json:"user"`
}

// Account is the profile shape the auth endpoints return for the current user.
type Account struct {
	ID       int    `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     *Role  `json:"role,omitempty"`
	Verified bool   `json:"verified"`
}

// Identity converts an account payload into the Identity snapshot owned by
// the state machine.
func (a *Account) Identity() *Identity {
	if a == nil {
		return nil
	}
	return &Identity{
		UserID: a.ID,
		Name:   a.Name,
		Email:  a.Email,
		Role:   a.Role,
	}
}

// RoleChangeResult is the remote service's answer to a role reassignment. The
// embedded user record is authoritative; the roster patch must use it verbatim.
type RoleChangeResult struct {
	Message string `json:"message"`
	User    *User  `json:"user"`
}

// Service is the remote authentication/authorization collaborator. Calls that
// operate on an established session attach the stored credential as a bearer
// token; the others run anonymously.
type Service interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Register(ctx context.Context, email, password, name string) (*RegistrationOutcome, error)
	VerifyEmail(ctx context.Context, token string) error

	// ValidateToken reports whether the credential is still accepted. A nil
	// error means accepted; ErrSessionExpired means explicit rejection; any
	// transport failure wraps ErrTransportFailure so callers never mistake a
	// flaky network for an expired session.
	ValidateToken(ctx context.Context, token string) error

	// CurrentUser re-derives the identity behind an accepted credential.
	CurrentUser(ctx context.Context, token string) (*Account, error)

	Roles(ctx context.Context) ([]Role, error)
	Users(ctx context.Context) ([]User, error)
	UpdateUserRole(ctx context.Context, userID, roleID int) (*RoleChangeResult, error)
}

// CredentialStore persists a single bearer credential across client restarts.
// It is a dumb, synchronous key-value surface: no expiry logic, and a missing
// credential is a normal empty state, never an error.
type CredentialStore interface {
	Save(token string) error
	Load() (string, error)
	Clear() error
}

// SessionValidator asks the remote authority whether a stored credential is
// still accepted. (false, nil) is an explicit rejection; a non-nil error means
// the outcome is unknown and prior state must be left untouched.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (bool, error)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
