package adminapi

import (
	"bytes"
	"encoding/json"
)

// Optional holds a value that is either explicitly set or absent.
// Fields of this type are tagged omitzero so unset values never reach the wire.
type Optional[T any] struct {
	v   T
	set bool
}

// Some returns a set Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{v: v, set: true}
}

// NonEmpty returns a set Optional only when s is not empty.
func NonEmpty(s string) Optional[string] {
	if s == "" {
		return Optional[string]{}
	}
	return Some(s)
}

// NonEmptyList returns a set Optional only when l has elements.
func NonEmptyList(l []string) Optional[[]string] {
	if len(l) == 0 {
		return Optional[[]string]{}
	}
	return Some(l)
}

// Get returns the value and whether it was set.
func (o Optional[T]) Get() (T, bool) {
	return o.v, o.set
}

// Value returns the value, or the zero value when unset.
func (o Optional[T]) Value() T {
	return o.v
}

// IsSet reports whether a value is present.
func (o Optional[T]) IsSet() bool {
	return o.set
}

// IsZero lets encoding/json omitzero drop unset values.
func (o Optional[T]) IsZero() bool {
	return !o.set
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return json.Marshal(o.v)
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*o = Optional[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}
