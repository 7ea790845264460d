package schema

import (
	"fmt"
	"reflect"

	"github.com/amilzbot/agent-proof-cli/internal/app/apperrors"
)

type Field struct {
	Name string
	Type FieldType
}

// Layout is the ordered field list of a schema. It is immutable once
// built; a different field list is a different schema version.
type Layout struct {
	fields []Field
	// payload is the struct type the codec reads and writes: one
	// exported field per schema field, in order.
	payload reflect.Type
}

// NewLayout pairs types with names. Both lists must have the same
// length, names must be unique and non-empty, and every type known.
func NewLayout(types []FieldType, names []string) (*Layout, error) {
	if len(types) != len(names) {
		return nil, apperrors.Invalid("schema layout", "one field name per type",
			fmt.Sprintf("%d types for %d names", len(types), len(names)))
	}
	if len(types) == 0 {
		return nil, apperrors.Invalid("schema layout", "at least one field", "empty layout")
	}

	seen := make(map[string]struct{}, len(names))
	fields := make([]Field, len(types))
	for i, name := range names {
		if name == "" {
			return nil, apperrors.Invalid("schema field name", "non-empty", fmt.Sprintf("field %d has no name", i))
		}
		if _, dup := seen[name]; dup {
			return nil, apperrors.Invalid("schema field name", "unique", fmt.Sprintf("duplicate field %q", name))
		}
		if !types[i].Valid() {
			return nil, apperrors.Invalid("schema field type", "known layout tag",
				fmt.Sprintf("field %q has tag %d", name, uint8(types[i])))
		}
		seen[name] = struct{}{}
		fields[i] = Field{Name: name, Type: types[i]}
	}

	return &Layout{fields: fields, payload: payloadType(fields)}, nil
}

func payloadType(fields []Field) reflect.Type {
	structFields := make([]reflect.StructField, len(fields))
	for i, f := range fields {
		structFields[i] = reflect.StructField{
			Name: fmt.Sprintf("F%d", i),
			Type: fieldGoTypes[f.Type],
		}
	}
	return reflect.StructOf(structFields)
}

// FromFields builds a layout from (name, type) pairs.
func FromFields(fields ...Field) (*Layout, error) {
	types := make([]FieldType, len(fields))
	names := make([]string, len(fields))
	for i, f := range fields {
		types[i] = f.Type
		names[i] = f.Name
	}
	return NewLayout(types, names)
}

// LayoutFromBytes rebuilds a layout from the tag bytes and names stored
// in a schema account.
func LayoutFromBytes(tags []byte, names []string) (*Layout, error) {
	types := make([]FieldType, len(tags))
	for i, tag := range tags {
		types[i] = FieldType(tag)
	}
	return NewLayout(types, names)
}

// Bytes returns the layout tags in field order.
func (l *Layout) Bytes() []byte {
	out := make([]byte, len(l.fields))
	for i, f := range l.fields {
		out[i] = byte(f.Type)
	}
	return out
}

func (l *Layout) Names() []string {
	out := make([]string, len(l.fields))
	for i, f := range l.fields {
		out[i] = f.Name
	}
	return out
}

// Equal reports whether both layouts declare the same fields in the
// same order.
func (l *Layout) Equal(other *Layout) bool {
	if other == nil || len(l.fields) != len(other.fields) {
		return false
	}
	for i := range l.fields {
		if l.fields[i] != other.fields[i] {
			return false
		}
	}
	return true
}
