package store

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/apperr"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9_+&*-]+(?:\.[a-zA-Z0-9_+&*-]+)*@(?:[a-zA-Z0-9-]+\.)+[a-zA-Z]{2,7}$`)

	upperPattern = regexp.MustCompile(`[A-Z]`)
	lowerPattern = regexp.MustCompile(`[a-z]`)
	digitPattern = regexp.MustCompile(`[0-9]`)

	ErrInvalidName = apperr.Validation("Invalid username. Please make sure your username have at least 1 character, " +
		"does not start with a space and does not contain '-', ';', '/', '\\' or line breaks.")
	ErrInvalidEmail    = apperr.Validation("Invalid email! Please enter an valid email.")
	ErrInvalidPassword = apperr.Validation("Invalid password. Password must be at least 8 characters and include at " +
		"least one uppercase letter, one lowercase letter, and one digit. Password cannot contain spaces.")
)

// ValidateName rejects empty names, names starting with whitespace, and names
// containing the separators used by the conversation files and index. Names
// end up in conversation file names, so path separators and dot names are
// refused too.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidName
	}
	if unicode.IsSpace([]rune(name)[0]) {
		return ErrInvalidName
	}
	if strings.ContainsAny(name, "-;\r\n/\\") || name == "." || name == ".." {
		return ErrInvalidName
	}
	return nil
}

func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePassword requires 8+ characters with an upper-case letter, a
// lower-case letter and a digit, and no spaces anywhere.
func ValidatePassword(password string) error {
	switch {
	case strings.TrimSpace(password) == "",
		strings.Contains(password, " "),
		utf8.RuneCountInString(password) < 8,
		!upperPattern.MatchString(password),
		!lowerPattern.MatchString(password),
		!digitPattern.MatchString(password):
		return ErrInvalidPassword
	}
	return nil
}
