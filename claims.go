package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// credentialClaims mirrors the claim set the forum backend signs into its
// bearer tokens. Field names match the server's Go struct, which marshals
// without json tags.
type credentialClaims struct {
	jwt.RegisteredClaims
	UserID uint   `json:"UserID"`
	Email  string `json:"Email"`
}

// CredentialSnapshot is what a stored credential implies about the session
// that minted it. The client never holds the signing key, so the snapshot is
// decoded without signature verification and is only trusted as a fallback
// when the remote authority cannot be reached.
type CredentialSnapshot struct {
	UserID    int
	Email     string
	IssuedAt  *time.Time
	ExpiresAt *time.Time
}

// Identity derives the partial identity the credential implies. Name and role
// are unknown to the token; they stay zero until the profile can be re-fetched.
func (s *CredentialSnapshot) Identity() *Identity {
	if s == nil {
		return nil
	}
	return &Identity{
		UserID: s.UserID,
		Email:  s.Email,
	}
}

// Expired reports whether the token carries an expiry in the past.
func (s *CredentialSnapshot) Expired(now time.Time) bool {
	if s == nil || s.ExpiresAt == nil {
		return false
	}
	return s.ExpiresAt.Before(now)
}

// DecodeCredential parses a stored bearer token without verifying its
// signature and returns the session snapshot it encodes.
func DecodeCredential(token string) (*CredentialSnapshot, error) {
	claims := &credentialClaims{}
	parser := jwt.NewParser()

	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "unable to decode stored credential")
	}

	snap := &CredentialSnapshot{
		UserID: int(claims.UserID),
		Email:  claims.Email,
	}

	if claims.IssuedAt != nil {
		iat := claims.IssuedAt.Time
		snap.IssuedAt = &iat
	}

	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time
		snap.ExpiresAt = &exp
	}

	return snap, nil
}
