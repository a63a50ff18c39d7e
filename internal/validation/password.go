// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 128
)

var commonPasswords = map[string]struct{}{
	"password": {}, "password1": {}, "qwertyuiop": {}, "12345678": {}, "123456789": {},
	"iloveyou": {}, "sunshine": {}, "princess": {}, "football": {}, "baseball": {},
	"11111111": {}, "1q2w3e4r": {}, "qwerty123": {}, "admin123": {}, "welcome1": {},
}

// ValidatePassword checks a new password against the signup rules. username may be empty.
func ValidatePassword(password, username string) error {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLength)
	}
	if n > MaxPasswordLength {
		return fmt.Errorf("password must not exceed %d characters", MaxPasswordLength)
	}

	allDigits := true
	for _, r := range password {
		if !unicode.IsDigit(r) {
			allDigits = false
			break
		}
	}
	if allDigits {
		return fmt.Errorf("password must not be entirely numeric")
	}

	lower := strings.ToLower(password)
	if _, common := commonPasswords[lower]; common {
		return fmt.Errorf("password is too common")
	}
	if username != "" && strings.Contains(lower, strings.ToLower(username)) {
		return fmt.Errorf("password is too similar to the username")
	}

	return nil
}
