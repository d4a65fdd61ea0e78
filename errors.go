package auth

import (
	"github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidCredentials    = "invalid_credentials"
	TextCodeEmailUnverified       = "email_unverified"
	TextCodeDuplicateRegistration = "duplicate_registration"
	TextCodeInvalidVerification   = "invalid_verification_token"
	TextCodeForbidden             = "forbidden"
	TextCodeTransportFailure      = "transport_failure"
	TextCodeSessionExpired        = "session_expired"
	TextCodeAuthInProgress        = "auth_in_progress"
	TextCodeInvalidTransition     = "invalid_session_transition"
)

// ErrInvalidCredentials is returned when the remote authority rejects an
// email/password pair.
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrEmailUnverified is returned when login is blocked pending email
// verification.
var ErrEmailUnverified = errors.New("email not verified", errors.CategoryAuth).
	WithTextCode(TextCodeEmailUnverified).
	WithCode(errors.CodeForbidden)

// ErrDuplicateRegistration is returned when the email is already registered.
var ErrDuplicateRegistration = errors.New("email already registered", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateRegistration).
	WithCode(errors.CodeConflict)

// ErrInvalidVerificationToken is returned when a verification token is
// unknown or expired.
var ErrInvalidVerificationToken = errors.New("invalid or expired verification token", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidVerification).
	WithCode(errors.CodeBadRequest)

// ErrForbidden is returned when the caller's role does not satisfy a
// requirement. The access gate handles it by rendering a denial, never by
// throwing it up the call stack.
var ErrForbidden = errors.New("insufficient role", errors.CategoryAuth).
	WithTextCode(TextCodeForbidden).
	WithCode(errors.CodeForbidden)

// ErrTransportFailure marks an inconclusive network-level failure. It must
// never be conflated with ErrSessionExpired: the outcome is unknown and prior
// session state stays untouched.
var ErrTransportFailure = errors.New("forum service unreachable", errors.CategoryOperation).
	WithTextCode(TextCodeTransportFailure)

// ErrSessionExpired is returned when the remote authority explicitly rejects
// a stored credential.
var ErrSessionExpired = errors.New("session expired", errors.CategoryAuth).
	WithTextCode(TextCodeSessionExpired).
	WithCode(errors.CodeUnauthorized)

// ErrAuthInProgress is returned when a second login/registration attempt is
// issued while one is still in flight.
var ErrAuthInProgress = errors.New("authentication already in progress", errors.CategoryConflict).
	WithTextCode(TextCodeAuthInProgress).
	WithCode(errors.CodeConflict)

// ErrInvalidTransition is returned when a requested session state change is
// not allowed from the current state.
var ErrInvalidTransition = errors.New("invalid session state transition", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidTransition).
	WithCode(errors.CodeBadRequest)

// decorate attaches metadata to a copy of a sentinel error. WithMetadata
// mutates its receiver, so calling it on the shared sentinels would leak
// request details across callers; the clone keeps the sentinel pristine and
// the Source link keeps errors.Is matching.
func decorate(sentinel *errors.Error, meta map[string]any) error {
	clone := sentinel.Clone()
	if clone == nil {
		return sentinel
	}
	clone.Source = sentinel
	return clone.WithMetadata(meta)
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if errors.As(err, &rich) {
		return rich.TextCode == code
	}
	return false
}

// IsTransportFailure will check for inconclusive network failures.
func IsTransportFailure(err error) bool {
	return hasTextCode(err, TextCodeTransportFailure)
}

// IsSessionExpired will check for explicit credential rejection.
func IsSessionExpired(err error) bool {
	return hasTextCode(err, TextCodeSessionExpired)
}

// IsAuthInProgress will check for the single-flight rejection.
func IsAuthInProgress(err error) bool {
	return hasTextCode(err, TextCodeAuthInProgress)
}
