// Package htmlsanitize strips unsafe HTML from user-supplied content before
// it is persisted. Comment bodies go through Sanitize on every write; raw
// input never reaches the database.
package htmlsanitize

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	once   sync.Once
	policy *bluemonday.Policy
)

// getPolicy lazily builds the shared sanitization policy. UGC covers common
// formatting (paragraphs, emphasis, lists, links); tables are allowed for
// pasted status matrices.
func getPolicy() *bluemonday.Policy {
	once.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowTables()
		policy = p
	})
	return policy
}

// Sanitize returns s with scripts, event handlers, and unsafe URLs removed.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return getPolicy().Sanitize(s)
}
