package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-print"
	"github.com/goliatone/hashid/pkg/hashid"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventLoginSuccess         ActivityEventType = "session.login.success"
	ActivityEventLoginFailure         ActivityEventType = "session.login.failure"
	ActivityEventRegistered           ActivityEventType = "session.register.pending"
	ActivityEventEmailVerified        ActivityEventType = "session.email.verified"
	ActivityEventLogout               ActivityEventType = "session.logout"
	ActivityEventSessionExpired       ActivityEventType = "session.expired"
	ActivityEventValidateInconclusive ActivityEventType = "session.validate.inconclusive"
	ActivityEventRoleReassigned       ActivityEventType = "roster.role.reassigned"
)

// ActorRef identifies who/what triggered an event.
type ActorRef struct {
	ID   string
	Type string
}

// ActivityEvent captures audit-friendly information about a session action.
type ActivityEvent struct {
	EventType  ActivityEventType
	Actor      ActorRef
	UserID     string
	FromState  SessionState
	ToState    SessionState
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
// Sinks run best-effort: errors are logged and never block authentication.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}

// NewDebugActivitySink logs every event through logger, pretty-printing the
// metadata payload. Useful while wiring a client, not meant for production.
func NewDebugActivitySink(logger Logger) ActivitySink {
	if logger == nil {
		logger = defLogger{}
	}
	return ActivitySinkFunc(func(_ context.Context, event ActivityEvent) error {
		logger.Debug("activity", "type", event.EventType, "user", event.UserID,
			"details", print.MaybePrettyJSON(event.Metadata))
		return nil
	})
}

// pseudonymousActor derives a stable, non-reversible actor reference from an
// email so sinks never see raw addresses.
func pseudonymousActor(email string) ActorRef {
	if email == "" {
		return ActorRef{Type: "unknown"}
	}

	if id, err := hashid.NewUUID(email); err == nil {
		return ActorRef{ID: id.String(), Type: "user"}
	}

	return ActorRef{Type: "user"}
}
