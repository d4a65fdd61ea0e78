package auth

import (
	"context"
	"maps"
	"sync"

	"github.com/goliatone/go-errors"
)

// RosterAdminOption customizes RosterAdmin construction.
type RosterAdminOption func(*RosterAdmin)

// WithRosterAdminLogger overrides the default logger.
func WithRosterAdminLogger(logger Logger) RosterAdminOption {
	return func(ra *RosterAdmin) {
		if logger != nil {
			ra.logger = logger
		}
	}
}

// WithRosterAdminActivitySink sets the sink role reassignments are reported to.
func WithRosterAdminActivitySink(sink ActivitySink) RosterAdminOption {
	return func(ra *RosterAdmin) {
		ra.sink = normalizeActivitySink(sink)
	}
}

// RosterAdmin drives the admin-only role management screen: the role catalog,
// the user roster, and role reassignment. Callers must already have passed
// the access gate with an admin requirement; the flow does not re-check
// authorization, that belongs at the boundary.
//
// The roster is a snapshot fetched once and patched in place after each
// successful reassignment; it is never silently re-fetched in full.
type RosterAdmin struct {
	mu     sync.Mutex
	roles  []Role
	users  []User
	svc    Service
	logger Logger
	sink   ActivitySink
}

// NewRosterAdmin creates a role administration flow bound to the remote service.
func NewRosterAdmin(svc Service, opts ...RosterAdminOption) *RosterAdmin {
	ra := &RosterAdmin{
		svc:    svc,
		logger: defLogger{},
		sink:   noopActivitySink{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ra)
		}
	}

	return ra
}

// LoadRoles fetches the role catalog and caches it.
func (ra *RosterAdmin) LoadRoles(ctx context.Context) ([]Role, error) {
	roles, err := ra.svc.Roles(ctx)
	if err != nil {
		return nil, err
	}

	ra.mu.Lock()
	ra.roles = roles
	ra.mu.Unlock()

	return cloneRoles(roles), nil
}

// LoadUsers fetches the user roster snapshot and caches it.
func (ra *RosterAdmin) LoadUsers(ctx context.Context) ([]User, error) {
	users, err := ra.svc.Users(ctx)
	if err != nil {
		return nil, err
	}

	ra.mu.Lock()
	ra.users = users
	ra.mu.Unlock()

	return cloneUsers(users), nil
}

// Roles returns the cached role catalog.
func (ra *RosterAdmin) Roles() []Role {
	ra.mu.Lock()
	defer ra.mu.Unlock()
	return cloneRoles(ra.roles)
}

// Users returns the cached roster snapshot.
func (ra *RosterAdmin) Users() []User {
	ra.mu.Lock()
	defer ra.mu.Unlock()
	return cloneUsers(ra.users)
}

// ReassignRole moves a user to a different role and reconciles the roster by
// replacing exactly the affected entry with the server-returned record. The
// server record is authoritative: patching with a locally reconstructed guess
// would drift when client-side role metadata is stale.
func (ra *RosterAdmin) ReassignRole(ctx context.Context, userID, roleID int) (*User, error) {
	result, err := ra.svc.UpdateUserRole(ctx, userID, roleID)
	if err != nil {
		return nil, err
	}

	updated := result.User
	if updated.ID != userID {
		return nil, errors.New("role update returned a mismatched user record", errors.CategoryInternal).
			WithMetadata(map[string]any{
				"requested": userID,
				"returned":  updated.ID,
			})
	}

	ra.mu.Lock()
	for i := range ra.users {
		if ra.users[i].ID == userID {
			ra.users[i] = *updated
			break
		}
	}
	ra.mu.Unlock()

	roleName := ""
	if updated.Role != nil {
		roleName = updated.Role.Name
	}

	ra.record(ctx, ActivityEvent{
		EventType: ActivityEventRoleReassigned,
		UserID:    itoa(userID),
		Metadata: map[string]any{
			"role_id":   roleID,
			"role_name": roleName,
		},
	})

	out := cloneUser(*updated)
	return &out, nil
}

func (ra *RosterAdmin) record(ctx context.Context, event ActivityEvent) {
	if err := ra.sink.Record(ctx, event); err != nil {
		ra.logger.Warn("activity sink record error: %v", err)
	}
}

// Snapshots hand out deep copies so callers can never mutate the cached
// roster through a returned role pointer or permissions map.
func cloneRole(r Role) Role {
	r.Permissions = maps.Clone(r.Permissions)
	return r
}

func cloneUser(u User) User {
	if u.Role != nil {
		role := cloneRole(*u.Role)
		u.Role = &role
	}
	return u
}

func cloneRoles(roles []Role) []Role {
	if roles == nil {
		return nil
	}
	out := make([]Role, len(roles))
	for i := range roles {
		out[i] = cloneRole(roles[i])
	}
	return out
}

func cloneUsers(users []User) []User {
	if users == nil {
		return nil
	}
	out := make([]User, len(users))
	for i := range users {
		out[i] = cloneUser(users[i])
	}
	return out
}
