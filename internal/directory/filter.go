// Package directory filters account and invoice listings by free text and status.
package directory

import (
	"strings"
)

// Searchable is a record that exposes the fields free-text search looks at.
type Searchable interface {
	SearchFields() []string
}

// Filter returns the records, in their original order, whose search fields
// contain text (case-insensitively) and that satisfy keep. Empty text matches
// everything and a nil keep accepts everything. The input is never modified
// and the result is never nil.
func Filter[T Searchable](records []T, text string, keep func(T) bool) []T {
	needle := strings.ToLower(text)
	out := make([]T, 0, len(records))
	for _, r := range records {
		if keep != nil && !keep(r) {
			continue
		}
		if !matchesText(r, needle) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchesText(r Searchable, needle string) bool {
	if needle == "" {
		return true
	}
	for _, f := range r.SearchFields() {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}
