// Package validation holds the field format rules shared by the attendance
// form and the account forms. Every rule is a pure predicate; callers decide
// how a failed check is reported.
package validation

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 30

	hebrewBlockStart = '\u0590'
	hebrewBlockEnd   = '\u05FF'
)

var (
	passwordCharset = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	timeOfDay       = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)
	decimalDigits   = regexp.MustCompile(`^[0-9]*$`)
	emailShape      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// ValidPassword reports whether password is 8-30 ASCII letters and digits with
// at least one lowercase letter, one uppercase letter and one digit.
func ValidPassword(password string) bool {
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return false
	}
	if !passwordCharset.MatchString(password) {
		return false
	}

	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	return lower && upper && digit
}

// ValidTimeOfDay reports whether value is a 24-hour HH:MM time.
func ValidTimeOfDay(value string) bool {
	return timeOfDay.MatchString(value)
}

// ValidWorkplace reports whether value is non-empty and contains only Hebrew
// script characters and whitespace.
func ValidWorkplace(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if unicode.IsSpace(r) {
			continue
		}
		if r < hebrewBlockStart || r > hebrewBlockEnd {
			return false
		}
	}
	return true
}

// ValidNumericHours reports whether value consists of decimal digits only.
// The empty string passes; required-ness is checked separately.
func ValidNumericHours(value string) bool {
	return decimalDigits.MatchString(value)
}

// ValidEmail performs the same shallow shape check as the signup form.
func ValidEmail(value string) bool {
	return emailShape.MatchString(strings.TrimSpace(value))
}
