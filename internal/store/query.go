package store

import (
	"errors"
	"regexp"
	"strings"
)

// ErrEmptyQuery is returned when a query string has no clauses.
var ErrEmptyQuery = errors.New("query is empty")

// ErrMalformedQuery is returned for an unterminated quoted phrase.
var ErrMalformedQuery = errors.New("malformed query")

// Clause is one conjunctive term of a parsed query.
type Clause struct {
	// Field restricts the clause to one document field. Empty means any field.
	Field string

	// Value is the text to match, unquoted.
	Value string

	// Phrase is true when Value was quoted and must match as a phrase.
	Phrase bool
}

// Query is a parsed query string. Every clause must match.
type Query struct {
	Clauses []Clause
}

var fieldNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// ParseQuery parses the query language shared by all backends:
//
//	status:active name:"John Smith" urgent "exact phrase"
//
// Clauses are separated by whitespace. A clause is either field:value,
// field:"quoted phrase", a bare term, or a bare quoted phrase. Inside quotes
// a doubled quote ("") stands for a literal quote.
func ParseQuery(s string) (*Query, error) {
	q := &Query{}
	rest := strings.TrimSpace(s)

	for rest != "" {
		var clause Clause
		var err error

		clause, rest, err = nextClause(rest)
		if err != nil {
			return nil, err
		}
		if clause.Value != "" {
			q.Clauses = append(q.Clauses, clause)
		}
		rest = strings.TrimLeft(rest, " \t\r\n")
	}

	if len(q.Clauses) == 0 {
		return nil, ErrEmptyQuery
	}
	return q, nil
}

// nextClause consumes one clause from the front of s.
func nextClause(s string) (Clause, string, error) {
	if s[0] == '"' {
		value, rest, err := readQuoted(s)
		return Clause{Value: value, Phrase: true}, rest, err
	}

	end := strings.IndexAny(s, " \t\r\n")
	if end < 0 {
		end = len(s)
	}
	token := s[:end]

	colon := strings.IndexByte(token, ':')
	if colon <= 0 || !fieldNamePattern.MatchString(token[:colon]) {
		return Clause{Value: token}, s[end:], nil
	}

	field := token[:colon]
	after := s[colon+1:]
	if strings.HasPrefix(after, `"`) {
		value, rest, err := readQuoted(after)
		return Clause{Field: field, Value: value, Phrase: true}, rest, err
	}
	if colon+1 == len(token) {
		// "field:" with nothing after it is kept as a literal term
		return Clause{Value: token}, s[end:], nil
	}
	return Clause{Field: field, Value: token[colon+1:]}, s[end:], nil
}

// readQuoted reads a quoted phrase starting at s[0] == '"'.
func readQuoted(s string) (string, string, error) {
	var sb strings.Builder
	i := 1
	for i < len(s) {
		if s[i] == '"' {
			if i+1 < len(s) && s[i+1] == '"' {
				sb.WriteByte('"')
				i += 2
				continue
			}
			return strings.TrimSpace(sb.String()), s[i+1:], nil
		}
		sb.WriteByte(s[i])
		i++
	}
	return "", "", ErrMalformedQuery
}

// QuotePhrase renders value as a quoted phrase understood by ParseQuery.
func QuotePhrase(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}
