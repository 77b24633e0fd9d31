package cuse

import (
	"strings"
	"unicode"

	"github.com/Aman-CERP/cuse/internal/store"
)

// SearchMatcher is a field-value constraint rendered as field:value.
// The value is not validated until the search executes.
type SearchMatcher struct {
	value string
}

// Is creates a matcher for value.
func Is(value string) SearchMatcher {
	return SearchMatcher{value: value}
}

// Value returns the trimmed value.
func (m SearchMatcher) Value() string {
	return strings.TrimSpace(m.value)
}

// IsEmpty reports whether the value is blank.
func (m SearchMatcher) IsEmpty() bool {
	return m.Value() == ""
}

// render returns the clause for field. Values with inner whitespace become
// a quoted phrase.
func (m SearchMatcher) render(field string) string {
	v := m.Value()
	if strings.IndexFunc(v, unicode.IsSpace) >= 0 || strings.ContainsRune(v, '"') {
		return field + ":" + store.QuotePhrase(v)
	}
	return field + ":" + v
}

// SearchQuery is a raw query fragment passed to the index as is.
type SearchQuery struct {
	raw string
}

// Query creates a raw query fragment.
func Query(raw string) SearchQuery {
	return SearchQuery{raw: raw}
}

// String returns the raw fragment.
func (q SearchQuery) String() string {
	return q.raw
}
