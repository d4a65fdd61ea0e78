// Package auth implements the session and authorization core of the student
// forum client: credential persistence, startup revalidation, the
// login/registration/verification lifecycle, and role-based gating of
// protected regions.
//
// Session lifecycle:
//   - SessionStateMachine owns the current identity and serializes every
//     transition. It is the only writer of the CredentialStore; everything
//     else reads identity snapshots handed to it explicitly.
//   - Bootstrap revalidates a stored credential once per application start.
//     Explicit rejection clears the session; a transport failure is
//     inconclusive and falls back to what the credential itself encodes, so a
//     flaky network never logs anyone out.
//
// Access decisions:
//   - Guard is a pure function of (identity, required roles) returning Allow,
//     PromptLogin, or Forbidden. Pages nest it freely, one call per protected
//     region. The gateware subpackage adapts it to router middleware.
//
// Role administration:
//   - RosterAdmin backs the admin screen: role catalog, user roster, and
//     reassignment. After a reassignment the roster is patched in place with
//     the server-returned record, never a locally reconstructed guess.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter describing session and
//     roster events. Sinks run best-effort (errors are logged) so you can
//     forward to a log or queue without blocking authentication.
package auth
