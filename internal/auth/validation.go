package auth

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"unicode"
)

// Username validation pattern: alphanumeric and underscore only
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

const (
	MinUsernameLen = 3
	MaxUsernameLen = 32
	MinPasswordLen = 8
	MaxEmailLen    = 254
)

// ValidateUsername checks if username meets requirements:
// - 3-32 characters
// - Only letters (a-z, A-Z), numbers (0-9), and underscores (_)
func ValidateUsername(username string) error {
	if username == "" {
		return errors.New("username required")
	}
	if len(username) < MinUsernameLen || len(username) > MaxUsernameLen {
		return errors.New("username must be 3-32 characters")
	}
	if !usernamePattern.MatchString(username) {
		return errors.New("username must contain only letters, numbers, and underscores")
	}
	return nil
}

// NormalizeEmail trims and lower-cases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail accepts a bare address (no display name).
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("email required")
	}
	if len(email) > MaxEmailLen {
		return errors.New("email too long")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(addr.Address[strings.LastIndex(addr.Address, "@"):], ".") {
		return errors.New("please provide a valid email")
	}
	return nil
}

// ValidatePassword checks if password meets requirements:
// - At least 8 characters
// - Contains at least one uppercase letter
// - Contains at least one lowercase letter
// - Contains at least one number
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLen {
		return errors.New("password must be at least 8 characters")
	}

	var hasUpper, hasLower, hasNumber bool
	for _, c := range password {
		switch {
		case unicode.IsUpper(c):
			hasUpper = true
		case unicode.IsLower(c):
			hasLower = true
		case unicode.IsNumber(c):
			hasNumber = true
		}
	}

	if !hasUpper || !hasLower || !hasNumber {
		return errors.New("password must contain uppercase, lowercase, and numbers")
	}

	return nil
}
