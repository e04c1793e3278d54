package util

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/badoux/checkmail"
)

var (
	hasLower   = regexp.MustCompile("[a-z]")
	hasUpper   = regexp.MustCompile("[A-Z]")
	hasDigit   = regexp.MustCompile("[0-9]")
	hasSpecial = regexp.MustCompile(`[^A-Za-z0-9]`)
)

func ValidateEmail(email string) bool {
	return checkmail.ValidateFormat(email) == nil
}

// NormalizeEmail is the form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidateName(name string) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	return n >= 2 && n <= 50
}

func ValidatePassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	return hasLower.MatchString(password) &&
		hasUpper.MatchString(password) &&
		hasDigit.MatchString(password) &&
		hasSpecial.MatchString(password)
}
