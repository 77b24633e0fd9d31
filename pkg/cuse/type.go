package cuse

import (
	"reflect"
)

// Type identifies a Go type in the catalogs. The zero Type is invalid.
type Type struct {
	rt reflect.Type
}

// TypeOf returns the Type token for T.
func TypeOf[T any]() Type {
	return Type{rt: reflect.TypeOf((*T)(nil)).Elem()}
}

// TypeOfValue returns the Type token of v's dynamic type.
func TypeOfValue(v any) Type {
	return Type{rt: reflect.TypeOf(v)}
}

// Name returns the simple type name with pointer indirection stripped,
// e.g. "Person" for *app.Person.
func (t Type) Name() string {
	if t.rt == nil {
		return ""
	}
	rt := t.rt
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	return rt.Name()
}

// String returns the package-qualified type, e.g. "*app.Person".
func (t Type) String() string {
	if t.rt == nil {
		return "<nil>"
	}
	return t.rt.String()
}

// IsZero reports whether t identifies no type.
func (t Type) IsZero() bool {
	return t.rt == nil
}
