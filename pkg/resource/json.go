package resource

import (
	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type jsonResource struct {
	ID         *string            `json:"id"`
	Attributes *map[string]string `json:"attributes,omitempty"`
}

// MarshalJSON implements json.Marshaler. The attributes field is omitted when the
// attributes are absent and encoded as an empty object when present but empty.
func (r Resource) MarshalJSON() ([]byte, error) {
	jr := jsonResource{ID: &r.id}
	if m, ok := r.attrs.Get(); ok {
		jr.Attributes = &m
	}
	return json.Marshal(jr)
}

// UnmarshalJSON implements json.Unmarshaler. A missing or null id returns an
// InvalidArgument error. Missing or null attributes decode as absent.
func (r *Resource) UnmarshalJSON(b []byte) error {
	var jr jsonResource
	if err := json.Unmarshal(b, &jr); err != nil {
		return errors.Wrap(errors.Mark(err, InvalidArgument), "[resource] - malformed resource")
	}
	attrs := NoAttributes()
	if jr.Attributes != nil {
		attrs = WithAttributes(*jr.Attributes)
	}
	res, err := Parse(jr.ID, &attrs)
	if err != nil {
		return err
	}
	*r = res
	return nil
}
