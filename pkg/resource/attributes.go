package resource

import "sort"

// Attributes is an optional set of string key-value pairs attached to a Resource.
// The zero value is absent, which is distinct from a present but empty set. An
// Attributes value never shares its map with the caller.
type Attributes struct {
	m       map[string]string
	present bool
}

// NoAttributes returns an absent set of attributes. It is equivalent to the zero value.
func NoAttributes() Attributes { return Attributes{} }

// WithAttributes returns a present set of attributes holding a copy of m. A nil m
// yields a present, empty set.
func WithAttributes(m map[string]string) Attributes {
	return Attributes{m: copyMap(m), present: true}
}

// IsPresent returns true if the attributes were supplied.
func (a Attributes) IsPresent() bool { return a.present }

// Get returns a copy of the attribute map and whether the attributes are present.
func (a Attributes) Get() (map[string]string, bool) {
	if !a.present {
		return nil, false
	}
	return copyMap(a.m), true
}

// Lookup returns the value stored under key.
func (a Attributes) Lookup(key string) (string, bool) {
	v, ok := a.m[key]
	return v, ok
}

func (a Attributes) Len() int { return len(a.m) }

// Keys returns the attribute keys in ascending order.
func (a Attributes) Keys() []string {
	keys := make([]string, 0, len(a.m))
	for k := range a.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Range calls f for each attribute in key order until f returns false.
func (a Attributes) Range(f func(key, value string) bool) {
	for _, k := range a.Keys() {
		if !f(k, a.m[k]) {
			return
		}
	}
}

// Equal returns true if both sets have the same presence and the same entries.
func (a Attributes) Equal(other Attributes) bool {
	if a.present != other.present || len(a.m) != len(other.m) {
		return false
	}
	for k, v := range a.m {
		if ov, ok := other.m[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

func copyMap(m map[string]string) map[string]string {
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
