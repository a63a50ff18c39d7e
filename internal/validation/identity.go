package validation

import (
	"fmt"
	"net/mail"
	"regexp"
)

var (
	usernameRegex  = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]{1,150}$`)
	groupSlugRegex = regexp.MustCompile(`^[-a-zA-Z0-9_]{1,100}$`)
)

// ValidateUsername allows letters, digits and @/./+/-/_ up to 150 characters.
func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username must be 1-150 characters: letters, digits and @/./+/-/_ only")
	}
	return nil
}

// ValidateEmail accepts an empty address or a single RFC 5322 address.
func ValidateEmail(email string) error {
	if email == "" {
		return nil
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("enter a valid email address")
	}
	return nil
}

// ValidateGroupSlug validates the URL slug of a group.
func ValidateGroupSlug(slug string) error {
	if !groupSlugRegex.MatchString(slug) {
		return fmt.Errorf("slug must be 1-100 characters of letters, numbers, underscores or hyphens")
	}
	return nil
}
