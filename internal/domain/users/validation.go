package users

import (
	"fmt"
	"strings"

	"github.com/happenit/server/internal/messages"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// specialCharacters is the fixed set of which at least one must appear in
// a password.
const specialCharacters = `!@#$%^&*(),.?":{}|<>`

// ValidationError rejects one field of a request. Message is the internal
// description; Key, when set, names the catalog entry whose localized text
// the HTTP boundary shows instead.
type ValidationError struct {
	Field   string
	Key     string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ValidatePasswordPolicy runs the password policy check: the confirmation
// must match, the length must be at least MinPasswordLength, and at least
// one special character must be present. It runs before any hashing.
func ValidatePasswordPolicy(password, confirm string) error {
	if password != confirm {
		return ValidationError{Field: "confirm_password", Key: messages.KeyPasswordMismatch, Message: "passwords do not match"}
	}
	if len(password) < MinPasswordLength {
		return ValidationError{Field: "password", Key: messages.KeyPasswordTooShort, Message: fmt.Sprintf("must be at least %d characters", MinPasswordLength)}
	}
	if !strings.ContainsAny(password, specialCharacters) {
		return ValidationError{Field: "password", Key: messages.KeyPasswordNoSpecial, Message: "must contain at least one special character"}
	}
	return nil
}
