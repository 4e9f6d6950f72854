package search

import (
	"github.com/cockroachdb/errors"
	"strings"
)

// InvalidQuery is returned when a query string cannot be parsed.
var InvalidQuery = errors.New("[search] - invalid query")

// Operator defines how the terms of a Query are combined.
type Operator uint8

const (
	// And matches resources indexed under every term.
	And Operator = iota
	// Or matches resources indexed under at least one term.
	Or
)

func (o Operator) String() string {
	if o == Or {
		return "OR"
	}
	return "AND"
}

// Query selects resources by their terms. A Query without terms matches every
// resource.
type Query struct {
	Terms    []Term
	Operator Operator
}

// ParseQuery parses a whitespace separated list of field:value terms. Adjacent terms
// are combined with AND. Terms may instead be joined with the AND or OR keywords, but
// the two can't be mixed in one query.
func ParseQuery(s string) (Query, error) {
	var (
		q            Query
		sawAnd       bool
		sawOr        bool
		expectingKey = true
	)
	tokens := strings.Fields(s)
	for _, tok := range tokens {
		if tok == "AND" || tok == "OR" {
			if expectingKey {
				return q, errors.Wrapf(InvalidQuery, "unexpected %s", tok)
			}
			sawAnd = sawAnd || tok == "AND"
			sawOr = sawOr || tok == "OR"
			expectingKey = true
			continue
		}
		if !expectingKey {
			sawAnd = true
		}
		field, value, ok := strings.Cut(tok, ":")
		if !ok || field == "" {
			return q, errors.Wrapf(InvalidQuery, "%q is not a field:value term", tok)
		}
		q.Terms = append(q.Terms, Term{Field: field, Value: value})
		expectingKey = false
	}
	if len(tokens) > 0 && expectingKey {
		return q, errors.Wrap(InvalidQuery, "query ends with an operator")
	}
	if sawAnd && sawOr {
		return q, errors.Wrap(InvalidQuery, "cannot mix AND and OR")
	}
	if sawOr {
		q.Operator = Or
	}
	return q, nil
}

func (q Query) String() string {
	parts := make([]string, len(q.Terms))
	for i, t := range q.Terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, " "+q.Operator.String()+" ")
}
