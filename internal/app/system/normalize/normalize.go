// Package normalize centralizes input normalization so stores can rely on
// canonical values (lowercased emails, trimmed names, lowercased roles)
// without each call site repeating the cleanup.
package normalize

import "strings"

// Email lowercases and trims an email address. Email comparison everywhere
// in the system is over this canonical form.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace but preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Role lowercases and trims a role value.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
