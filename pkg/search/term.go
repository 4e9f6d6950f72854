package search

import (
	"encoding/binary"
	"github.com/pbrane/newts/pkg/resource"
	"strings"
)

// ParentField is the term field under which a resource is indexed for each proper
// prefix of its colon-separated id. Searching _parent:a:b finds a:b:c and a:b:c:d.
const ParentField = "_parent"

// Separator splits a resource id into its hierarchical components.
const Separator = ":"

// Term is a single field:value pair a resource is indexed under.
type Term struct {
	Field string
	Value string
}

func (t Term) String() string { return t.Field + ":" + t.Value }

// Terms returns the terms r is indexed under: one per attribute and one per parent of
// its id, deduplicated.
func Terms(r resource.Resource) []Term {
	var (
		terms []Term
		seen  = make(map[Term]bool)
	)
	add := func(t Term) {
		if !seen[t] {
			seen[t] = true
			terms = append(terms, t)
		}
	}
	r.Attributes().Range(func(k, v string) bool {
		add(Term{Field: k, Value: v})
		return true
	})
	parts := strings.Split(r.ID(), Separator)
	for i := 1; i < len(parts); i++ {
		add(Term{Field: ParentField, Value: strings.Join(parts[:i], Separator)})
	}
	return terms
}

// |||||| KEYS ||||||

var (
	recordPrefix = []byte("r/")
	termPrefix   = []byte("t/")
)

func recordKey(id string) []byte { return append(append([]byte{}, recordPrefix...), id...) }

// termKeyPrefix length-prefixes the field and value so that no choice of characters in
// either can make two different terms share a key prefix.
func termKeyPrefix(t Term) []byte {
	b := append([]byte{}, termPrefix...)
	b = appendLengthPrefixed(b, t.Field)
	b = appendLengthPrefixed(b, t.Value)
	return b
}

func termKey(t Term, id string) []byte { return append(termKeyPrefix(t), id...) }

func appendLengthPrefixed(b []byte, s string) []byte {
	var l [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(l[:], uint64(len(s)))
	return append(append(b, l[:n]...), s...)
}

// prefixEnd returns the smallest key greater than every key starting with prefix.
func prefixEnd(prefix []byte) []byte {
	end := append([]byte{}, prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
