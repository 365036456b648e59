package model

import "encoding/json"

// Optional is a field of a partial update. Set reports whether the field was
// present in the request at all; a present JSON null is Set with the zero
// Value, which for pointer types means "clear".
type Optional[T any] struct {
	Value T
	Set   bool
}

// Some returns a present Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// UnmarshalJSON marks the field present and decodes the value.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	return json.Unmarshal(data, &o.Value)
}
