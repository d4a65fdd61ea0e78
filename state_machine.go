package auth

import (
	"context"
	"maps"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionState is the client-side authentication state.
type SessionState string

const (
	// SessionAnonymous means no identity is held; absence of a credential.
	SessionAnonymous SessionState = "anonymous"
	// SessionAuthenticating means a login or credential validation is in flight.
	SessionAuthenticating SessionState = "authenticating"
	// SessionAuthenticated means an identity is held for a valid session.
	SessionAuthenticated SessionState = "authenticated"
	// SessionPendingVerification means registration succeeded and the account
	// awaits email verification.
	SessionPendingVerification SessionState = "pending_verification"
)

// ChangeHook observes session transitions. Hooks run after the transition is
// applied and outside the machine's lock; the identity argument is a snapshot.
type ChangeHook func(from, to SessionState, identity *Identity)

// SessionOption customizes state machine construction.
type SessionOption func(*SessionStateMachine)

// WithSessionLogger overrides the default logger.
func WithSessionLogger(logger Logger) SessionOption {
	return func(sm *SessionStateMachine) {
		if logger != nil {
			sm.logger = logger
		}
	}
}

// WithSessionClock injects a custom clock (useful for tests).
func WithSessionClock(clock func() time.Time) SessionOption {
	return func(sm *SessionStateMachine) {
		if clock != nil {
			sm.now = clock
		}
	}
}

// WithSessionActivitySink sets the ActivitySink used to publish session events.
func WithSessionActivitySink(sink ActivitySink) SessionOption {
	return func(sm *SessionStateMachine) {
		sm.sink = normalizeActivitySink(sink)
	}
}

// WithSessionValidator overrides the validator used during Bootstrap.
func WithSessionValidator(v SessionValidator) SessionOption {
	return func(sm *SessionStateMachine) {
		if v != nil {
			sm.validator = v
		}
	}
}

// WithEmailDomain overrides the institutional namespace payloads must match.
func WithEmailDomain(domain string) SessionOption {
	return func(sm *SessionStateMachine) {
		if domain != "" {
			sm.emailDomain = domain
		}
	}
}

// WithChangeHook registers an observer for session transitions.
func WithChangeHook(h ChangeHook) SessionOption {
	return func(sm *SessionStateMachine) {
		if h != nil {
			sm.hooks = append(sm.hooks, h)
		}
	}
}

// SessionStateMachine owns the current identity and drives every
// login/registration/verification/logout transition. It is the single source
// of truth for the rest of the application and the only writer of the
// CredentialStore. Transitions are strictly serialized: a second
// authentication attempt issued before the first resolves is rejected with
// ErrAuthInProgress, never interleaved.
type SessionStateMachine struct {
	mu         sync.Mutex
	state      SessionState
	identity   *Identity
	pending    *RegistrationOutcome
	inFlight   bool
	generation uint64
	expired    bool

	service     Service
	store       CredentialStore
	validator   SessionValidator
	logger      Logger
	sink        ActivitySink
	now         func() time.Time
	hooks       []ChangeHook
	emailDomain string

	transitions map[SessionState]map[SessionState]struct{}
}

// NewSessionStateMachine returns a machine in the Anonymous state bound to
// the remote service and credential store.
func NewSessionStateMachine(service Service, store CredentialStore, opts ...SessionOption) *SessionStateMachine {
	sm := &SessionStateMachine{
		state:       SessionAnonymous,
		service:     service,
		store:       store,
		logger:      defLogger{},
		sink:        noopActivitySink{},
		now:         time.Now,
		emailDomain: DefaultEmailDomain,
		transitions: map[SessionState]map[SessionState]struct{}{
			SessionAnonymous: {
				SessionAuthenticating:      {},
				SessionPendingVerification: {},
			},
			SessionAuthenticating: {
				SessionAuthenticated: {},
				SessionAnonymous:     {},
			},
			SessionAuthenticated: {
				SessionAnonymous: {},
			},
			SessionPendingVerification: {
				SessionAnonymous: {},
			},
		},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sm)
		}
	}

	if sm.validator == nil {
		sm.validator = NewRemoteValidator(service, sm.logger)
	}

	return sm
}

// State returns the current session state.
func (sm *SessionStateMachine) State() SessionState {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.state
}

// Identity returns a snapshot of the authenticated identity, or nil.
func (sm *SessionStateMachine) Identity() *Identity {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return cloneIdentity(sm.identity)
}

// PendingRegistration returns the outcome carried by the
// pending-verification state, or nil.
func (sm *SessionStateMachine) PendingRegistration() *RegistrationOutcome {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.pending == nil {
		return nil
	}
	out := *sm.pending
	return &out
}

// ConsumeExpiredNotice reports whether the session recently expired and
// resets the flag, so the UI shows the notice exactly once.
func (sm *SessionStateMachine) ConsumeExpiredNotice() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	expired := sm.expired
	sm.expired = false
	return expired
}

// Login exchanges credentials for a session. On success the credential is
// persisted and the machine moves to Authenticated; on failure it reverts to
// Anonymous and the error kind distinguishes invalid credentials, an
// unverified email, and transport failure.
func (sm *SessionStateMachine) Login(ctx context.Context, email, password string) (*Identity, error) {
	payload := LoginPayload{Email: email, Password: password}
	if err := payload.Validate(sm.emailDomain); err != nil {
		return nil, err
	}

	gen, notify, err := sm.begin(SessionAuthenticating)
	if err != nil {
		return nil, err
	}
	notify()

	attempt := uuid.New()
	result, loginErr := sm.service.Login(ctx, email, password)

	sm.mu.Lock()
	sm.inFlight = false

	if sm.generation != gen {
		sm.mu.Unlock()
		sm.logger.Info("discarding stale login result", "attempt", attempt)
		return nil, decorate(ErrInvalidTransition, map[string]any{
			"reason": "stale result discarded",
		})
	}

	if loginErr != nil {
		notify := sm.applyLocked(SessionAnonymous, nil)
		sm.mu.Unlock()
		notify()

		sm.record(ctx, ActivityEvent{
			EventType: ActivityEventLoginFailure,
			Actor:     pseudonymousActor(email),
			Metadata:  map[string]any{"attempt": attempt.String(), "error": loginErr.Error()},
		})
		return nil, loginErr
	}

	if err := sm.store.Save(result.Token); err != nil {
		sm.logger.Error("unable to persist credential, session will not survive restart", "error", err)
	}

	identity := result.User.Identity()
	notify = sm.applyLocked(SessionAuthenticated, identity)
	snapshot := cloneIdentity(identity)
	sm.mu.Unlock()
	notify()

	sm.record(ctx, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		Actor:     pseudonymousActor(email),
		UserID:    itoa(identity.UserID),
		Metadata:  map[string]any{"attempt": attempt.String()},
	})

	return snapshot, nil
}

// Register creates an account and moves the machine to
// PendingVerification, carrying the verification token when the remote
// authority exposes one.
func (sm *SessionStateMachine) Register(ctx context.Context, email, password, name string) (*RegistrationOutcome, error) {
	payload := RegisterPayload{Email: email, Password: password, Name: name}
	if err := payload.Validate(sm.emailDomain); err != nil {
		return nil, err
	}

	gen, err := sm.beginInPlace(SessionAnonymous)
	if err != nil {
		return nil, err
	}

	outcome, regErr := sm.service.Register(ctx, email, password, name)

	sm.mu.Lock()
	sm.inFlight = false

	if sm.generation != gen {
		sm.mu.Unlock()
		sm.logger.Info("discarding stale registration result")
		return nil, decorate(ErrInvalidTransition, map[string]any{
			"reason": "stale result discarded",
		})
	}

	if regErr != nil {
		sm.mu.Unlock()
		return nil, regErr
	}

	sm.pending = outcome
	notify := sm.applyLocked(SessionPendingVerification, nil)
	out := *outcome
	sm.mu.Unlock()
	notify()

	sm.record(ctx, ActivityEvent{
		EventType: ActivityEventRegistered,
		Actor:     pseudonymousActor(email),
		Metadata:  map[string]any{"has_verify_token": outcome.VerifyToken != ""},
	})

	return &out, nil
}

// VerifyEmail confirms a registration. On success the machine returns to
// Anonymous: verification never implicitly authenticates, the user logs in
// explicitly afterwards.
func (sm *SessionStateMachine) VerifyEmail(ctx context.Context, token string) error {
	gen, err := sm.beginInPlace(SessionPendingVerification)
	if err != nil {
		return err
	}

	verifyErr := sm.service.VerifyEmail(ctx, token)

	sm.mu.Lock()
	sm.inFlight = false

	if sm.generation != gen {
		sm.mu.Unlock()
		sm.logger.Info("discarding stale verification result")
		return decorate(ErrInvalidTransition, map[string]any{
			"reason": "stale result discarded",
		})
	}

	if verifyErr != nil {
		sm.mu.Unlock()
		return verifyErr
	}

	sm.pending = nil
	notify := sm.applyLocked(SessionAnonymous, nil)
	sm.mu.Unlock()
	notify()

	sm.record(ctx, ActivityEvent{EventType: ActivityEventEmailVerified})
	return nil
}

// AbandonRegistration drops a pending verification and returns to Anonymous.
func (sm *SessionStateMachine) AbandonRegistration() {
	sm.mu.Lock()
	if sm.state != SessionPendingVerification {
		sm.mu.Unlock()
		return
	}
	sm.pending = nil
	notify := sm.applyLocked(SessionAnonymous, nil)
	sm.mu.Unlock()
	notify()
}

// Logout clears the credential store synchronously before any observer is
// notified, so no component ever observes "no credential, still
// authenticated" in the opposite order. Any in-flight attempt is invalidated
// and its late result discarded.
func (sm *SessionStateMachine) Logout(ctx context.Context) {
	sm.mu.Lock()

	if sm.state == SessionAnonymous && sm.identity == nil {
		sm.mu.Unlock()
		return
	}

	if err := sm.store.Clear(); err != nil {
		sm.logger.Error("unable to clear credential store", "error", err)
	}

	userID := ""
	if sm.identity != nil {
		userID = itoa(sm.identity.UserID)
	}

	sm.generation++
	sm.pending = nil
	notify := sm.applyLocked(SessionAnonymous, nil)
	sm.mu.Unlock()
	notify()

	sm.record(ctx, ActivityEvent{
		EventType: ActivityEventLogout,
		UserID:    userID,
	})
}

// Bootstrap runs once at application start. A stored credential moves the
// machine to Authenticating; the validator outcome settles it. An explicit
// rejection clears the store and lands in Anonymous with a one-time expiry
// notice; a transport failure is inconclusive and falls back to the identity
// the credential itself encodes rather than logging the user out.
func (sm *SessionStateMachine) Bootstrap(ctx context.Context) error {
	token, err := sm.store.Load()
	if err != nil {
		sm.logger.Warn("unable to read stored credential", "error", err)
		return nil
	}

	if token == "" {
		return nil
	}

	gen, notify, err := sm.begin(SessionAuthenticating)
	if err != nil {
		return err
	}
	notify()

	accepted, validateErr := sm.validator.Validate(ctx, token)

	var account *Account
	var accountErr error
	if accepted {
		account, accountErr = sm.service.CurrentUser(ctx, token)
	}

	sm.mu.Lock()
	sm.inFlight = false

	if sm.generation != gen {
		sm.mu.Unlock()
		sm.logger.Info("discarding stale validation result")
		return nil
	}

	switch {
	case accepted && accountErr == nil:
		notify := sm.applyLocked(SessionAuthenticated, account.Identity())
		sm.mu.Unlock()
		notify()

		sm.record(ctx, ActivityEvent{
			EventType: ActivityEventLoginSuccess,
			UserID:    itoa(account.ID),
			Metadata:  map[string]any{"bootstrap": true},
		})
		return nil

	case accepted && IsSessionExpired(accountErr):
		// accepted then rejected between the two calls; treat as expiry
		return sm.expireSession(ctx)

	case accepted:
		// profile fetch failed transiently; fall back to the credential claims
		return sm.settleFromCredential(ctx, token, accountErr)

	case validateErr == nil:
		return sm.expireSession(ctx)

	default:
		return sm.settleFromCredential(ctx, token, validateErr)
	}
}

// expireSession finalizes an explicit rejection. Called with the lock held;
// releases it.
func (sm *SessionStateMachine) expireSession(ctx context.Context) error {
	if err := sm.store.Clear(); err != nil {
		sm.logger.Error("unable to clear rejected credential", "error", err)
	}

	sm.expired = true
	notify := sm.applyLocked(SessionAnonymous, nil)
	sm.mu.Unlock()
	notify()

	sm.record(ctx, ActivityEvent{EventType: ActivityEventSessionExpired})
	return ErrSessionExpired
}

// settleFromCredential settles an inconclusive validation from the
// credential's own claims. Called with the lock held; releases it.
func (sm *SessionStateMachine) settleFromCredential(ctx context.Context, token string, cause error) error {
	snap, decodeErr := DecodeCredential(token)
	if decodeErr != nil {
		sm.logger.Warn("validation inconclusive and credential undecodable", "error", decodeErr)
		notify := sm.applyLocked(SessionAnonymous, nil)
		sm.mu.Unlock()
		notify()
		return cause
	}

	if snap.Expired(sm.now()) {
		// the credential itself says the session is over
		return sm.expireSession(ctx)
	}

	notify := sm.applyLocked(SessionAuthenticated, snap.Identity())
	sm.mu.Unlock()
	notify()

	sm.logger.Warn("validation inconclusive, trusting stored credential", "error", cause)
	sm.record(ctx, ActivityEvent{
		EventType: ActivityEventValidateInconclusive,
		UserID:    itoa(snap.UserID),
		Metadata:  map[string]any{"cause": cause.Error()},
	})
	return nil
}

// begin starts a serialized attempt that also moves to the target state.
func (sm *SessionStateMachine) begin(target SessionState) (uint64, func(), error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.inFlight {
		return 0, nil, ErrAuthInProgress
	}

	if !sm.canTransition(sm.state, target) {
		return 0, nil, decorate(ErrInvalidTransition, map[string]any{
			"from": string(sm.state),
			"to":   string(target),
		})
	}

	sm.inFlight = true
	sm.generation++
	notify := sm.applyLocked(target, sm.identity)
	return sm.generation, notify, nil
}

// beginInPlace starts a serialized attempt that keeps the current state,
// which must match the expected one.
func (sm *SessionStateMachine) beginInPlace(expected SessionState) (uint64, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.inFlight {
		return 0, ErrAuthInProgress
	}

	if sm.state != expected {
		return 0, decorate(ErrInvalidTransition, map[string]any{
			"from": string(sm.state),
			"to":   string(expected),
		})
	}

	sm.inFlight = true
	sm.generation++
	return sm.generation, nil
}

func (sm *SessionStateMachine) canTransition(from, to SessionState) bool {
	if from == to {
		return true
	}
	if allowed, ok := sm.transitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}

// applyLocked updates state and identity and returns a closure that fires the
// change hooks; callers invoke it after releasing the lock.
func (sm *SessionStateMachine) applyLocked(to SessionState, identity *Identity) func() {
	from := sm.state
	sm.state = to
	sm.identity = identity

	if from == to {
		return func() {}
	}

	hooks := sm.hooks
	snapshot := cloneIdentity(identity)
	return func() {
		for _, h := range hooks {
			h(from, to, snapshot)
		}
	}
}

func (sm *SessionStateMachine) record(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = sm.now()
	}

	if err := sm.sink.Record(ctx, event); err != nil {
		sm.logger.Warn("activity sink record error: %v", err)
	}
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func cloneIdentity(i *Identity) *Identity {
	if i == nil {
		return nil
	}

	c := *i
	if i.Role != nil {
		role := *i.Role
		role.Permissions = maps.Clone(i.Role.Permissions)
		c.Role = &role
	}
	return &c
}
