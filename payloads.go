package auth

import (
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// DefaultEmailDomain is the institutional namespace accounts must live in.
// The check is a UX guard only; the server remains the authority on what it
// accepts.
const DefaultEmailDomain = "student.gla.ac.uk"

func emailDomainRule(domain string) *validation.MatchRule {
	pattern := regexp.MustCompile(`@` + regexp.QuoteMeta(domain) + `$`)
	return validation.Match(pattern).
		Error(fmt.Sprintf("must be a @%s address", domain))
}

// LoginPayload carries a login request.
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the payload against the institutional namespace.
func (r LoginPayload) Validate(domain string) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email, emailDomainRule(domain)),
		validation.Field(&r.Password, validation.Required),
	)
}

// RegisterPayload carries a registration request.
type RegisterPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Validate checks the payload against the institutional namespace and the
// minimum password length the forum UI enforces.
func (r RegisterPayload) Validate(domain string) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email, emailDomainRule(domain)),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
	)
}
