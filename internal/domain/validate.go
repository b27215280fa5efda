package domain

import "regexp"

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s looks like local@domain.tld
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}
