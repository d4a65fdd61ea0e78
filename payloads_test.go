package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	auth "github.com/stefvuck/forum-auth"
)

func TestLoginPayloadValidate(t *testing.T) {
	cases := []struct {
		name    string
		payload auth.LoginPayload
		valid   bool
	}{
		{"valid", auth.LoginPayload{Email: "a@student.gla.ac.uk", Password: "password123"}, true},
		{"missing email", auth.LoginPayload{Password: "password123"}, false},
		{"missing password", auth.LoginPayload{Email: "a@student.gla.ac.uk"}, false},
		{"not an email", auth.LoginPayload{Email: "nope", Password: "password123"}, false},
		{"wrong domain", auth.LoginPayload{Email: "a@gmail.com", Password: "password123"}, false},
		{"domain as substring only", auth.LoginPayload{Email: "a@student.gla.ac.uk.evil.com", Password: "password123"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.payload.Validate(auth.DefaultEmailDomain)
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestRegisterPayloadValidate(t *testing.T) {
	cases := []struct {
		name    string
		payload auth.RegisterPayload
		valid   bool
	}{
		{"valid", auth.RegisterPayload{Email: "a@student.gla.ac.uk", Password: "password123", Name: "Ada"}, true},
		{"short password", auth.RegisterPayload{Email: "a@student.gla.ac.uk", Password: "short", Name: "Ada"}, false},
		{"missing name", auth.RegisterPayload{Email: "a@student.gla.ac.uk", Password: "password123"}, false},
		{"wrong domain", auth.RegisterPayload{Email: "a@gmail.com", Password: "password123", Name: "Ada"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.payload.Validate(auth.DefaultEmailDomain)
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidateAgainstCustomDomain(t *testing.T) {
	payload := auth.LoginPayload{Email: "a@example.edu", Password: "password123"}
	assert.NoError(t, payload.Validate("example.edu"))
	assert.Error(t, payload.Validate(auth.DefaultEmailDomain))
}
