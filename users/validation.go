package users

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const minNameLength = 2

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail performs the client-side shape check done before asking the backend
// whether an address is available.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("please enter a valid email address")
	}
	return nil
}

// ValidateName checks the minimum display name length.
func ValidateName(name string) error {
	if utf8.RuneCountInString(strings.TrimSpace(name)) < minNameLength {
		return fmt.Errorf("name must be at least %d characters long", minNameLength)
	}
	return nil
}
