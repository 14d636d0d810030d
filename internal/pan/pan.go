package pan

import (
	"regexp"
	"strings"
)

// PAN format: 5 uppercase letters, 4 digits, 1 uppercase letter.
var panPattern = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)

// Account numbers are plain digit strings, 6 to 18 digits.
var accountPattern = regexp.MustCompile(`^[0-9]{6,18}$`)

// Valid reports whether s is a well-formed PAN.
func Valid(s string) bool {
	return panPattern.MatchString(s)
}

// Normalize trims whitespace and upper-cases a user-supplied PAN.
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ValidAccountNumber reports whether s is a well-formed account number.
func ValidAccountNumber(s string) bool {
	return accountPattern.MatchString(s)
}
