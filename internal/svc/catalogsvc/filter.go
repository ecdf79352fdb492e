package catalogsvc

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/mkrupp/homecase-catalog/internal/domain"
)

// Filter returns the entries whose title contains query, ignoring case.
// Order is preserved and an empty query matches everything. The query is not trimmed.
func Filter(entries []domain.Entry, query string) []domain.Entry {
	if query == "" {
		return slices.Clone(entries)
	}

	fold := cases.Fold()
	needle := fold.String(query)

	matches := make([]domain.Entry, 0, len(entries))

	for _, entry := range entries {
		if strings.Contains(fold.String(entry.Title), needle) {
			matches = append(matches, entry)
		}
	}

	return matches
}
