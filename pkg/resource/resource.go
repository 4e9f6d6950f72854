package resource

import (
	"fmt"
	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
)

// InvalidArgument is returned when a Resource is built from a missing id or a missing
// attributes container.
var InvalidArgument = errors.New("[resource] - invalid argument")

// Resource is the entity a group of measurements is associated with. Resources are
// indexed by their ID, providing a means of search and discovery. A Resource is
// immutable and safe for concurrent use.
type Resource struct {
	id    string
	attrs Attributes
}

// New creates a Resource with the given id and absent attributes. Any string, including
// the empty string, is a valid id.
func New(id string) Resource { return Resource{id: id} }

// NewWithAttributes creates a Resource with the given id and attributes.
func NewWithAttributes(id string, attrs Attributes) Resource {
	return Resource{id: id, attrs: attrs}
}

// Parse creates a Resource from values that may be unset. A nil id or a nil attributes
// container returns an InvalidArgument error. Pass a pointer to NoAttributes() to build
// a Resource without attributes.
func Parse(id *string, attrs *Attributes) (Resource, error) {
	if id == nil {
		return Resource{}, errors.Wrap(InvalidArgument, "id argument")
	}
	if attrs == nil {
		return Resource{}, errors.Wrap(InvalidArgument, "attributes argument")
	}
	return NewWithAttributes(*id, *attrs), nil
}

// ID returns the id of the Resource.
func (r Resource) ID() string { return r.id }

// Attributes returns the attributes of the Resource, which may be absent.
func (r Resource) Attributes() Attributes { return r.attrs }

// String implements fmt.Stringer.
func (r Resource) String() string { return fmt.Sprintf("Resource[%s]", r.id) }

// Equal returns true if both resources have the same id. Attributes are not compared.
func (r Resource) Equal(other Resource) bool { return r.id == other.id }

// Hash returns a hash of the id and the attributes of the Resource. Resources that are
// Equal but carry different attributes hash differently, so Hash must not be used as a
// key for Equal-based lookups. Use ID for that.
func (r Resource) Hash() uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(r.id)
	if !r.attrs.present {
		_, _ = d.Write([]byte{0})
		return d.Sum64()
	}
	_, _ = d.Write([]byte{0, 1})
	r.attrs.Range(func(k, v string) bool {
		_, _ = d.WriteString(k)
		_, _ = d.Write([]byte{0})
		_, _ = d.WriteString(v)
		_, _ = d.Write([]byte{0})
		return true
	})
	return d.Sum64()
}
