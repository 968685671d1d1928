package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
)

// ID is a remote identifier. The service emits both JSON strings and numbers; both decode to
// their textual form. Anything else decodes to an empty ID instead of failing the document.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	*id = ""
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if json.Unmarshal(b, &s) == nil {
			*id = ID(s)
		}
		return nil
	}
	var n json.Number
	if json.Unmarshal(b, &n) == nil {
		*id = ID(n.String())
	}
	return nil
}

// Location is an airport as served by the remote service. Only ID is meaningful for identity;
// every other field may be missing and then renders as an empty string.
type Location struct {
	ID      ID     `json:"id"`
	Name    string `json:"name"`
	Code    string `json:"code"`
	City    string `json:"city"`
	Country string `json:"country"`
}

// UnmarshalJSON keeps the rest of the object when a field has the wrong type.
func (l *Location) UnmarshalJSON(b []byte) error {
	type plain Location
	var v plain
	if err := decodeObject(b, &v); err != nil {
		return err
	}
	*l = Location(v)
	return nil
}

// decodeObject unmarshals a JSON object into v. Fields of the wrong type keep their zero value;
// null leaves v untouched and anything else that is not an object is an error.
func decodeObject(b []byte, v any) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) == 0 || b[0] != '{' {
		return &json.UnmarshalTypeError{Value: "non-object", Type: reflect.TypeOf(v).Elem()}
	}
	var typeErr *json.UnmarshalTypeError
	if err := json.Unmarshal(b, v); err != nil && !errors.As(err, &typeErr) {
		return err
	}
	return nil
}

// LocationRef is a movement's pointer to a Location: an embedded object, a bare identifier,
// or nothing at all.
type LocationRef struct {
	ID     ID
	Object *Location
}

func RefByID(id ID) LocationRef { return LocationRef{ID: id} }

func RefTo(l Location) LocationRef { return LocationRef{Object: &l} }

// Key returns the identifier carried by the reference, whichever form it has.
func (r LocationRef) Key() ID {
	if r.Object != nil && r.Object.ID != "" {
		return r.Object.ID
	}
	return r.ID
}

func (r LocationRef) IsAbsent() bool {
	return r.Object == nil && r.ID == ""
}

// UnmarshalJSON never returns an error: malformed references decode as absent.
func (r *LocationRef) UnmarshalJSON(b []byte) error {
	*r = LocationRef{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}
	switch b[0] {
	case '{':
		var l Location
		if json.Unmarshal(b, &l) == nil {
			r.Object = &l
		}
	case '"', '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var id ID
		_ = id.UnmarshalJSON(b)
		r.ID = id
	}
	return nil
}

func (r LocationRef) MarshalJSON() ([]byte, error) {
	switch {
	case r.Object != nil:
		return json.Marshal(r.Object)
	case r.ID != "":
		return json.Marshal(string(r.ID))
	default:
		return []byte("null"), nil
	}
}
