// Package schema models the fixed field layout of an attestation and
// encodes attestation payloads against it.
package schema

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/amilzbot/agent-proof-cli/internal/app/apperrors"
)

// FieldType is a closed set of payload field types. The numeric value
// is the layout tag written into the on-chain schema.
type FieldType uint8

const (
	U8          FieldType = 0
	U16         FieldType = 1
	U32         FieldType = 2
	U64         FieldType = 3
	I8          FieldType = 5
	I16         FieldType = 6
	I32         FieldType = 7
	I64         FieldType = 8
	Bool        FieldType = 10
	String      FieldType = 12
	IdentityKey FieldType = 13
	F32         FieldType = 25
	F64         FieldType = 26
)

var fieldTypeNames = map[FieldType]string{
	U8:          "u8",
	U16:         "u16",
	U32:         "u32",
	U64:         "u64",
	I8:          "i8",
	I16:         "i16",
	I32:         "i32",
	I64:         "i64",
	Bool:        "bool",
	String:      "string",
	IdentityKey: "identityKey",
	F32:         "f32",
	F64:         "f64",
}

// Go types the payload codec uses for each field type. An identity key
// travels as a 32-byte vector.
var fieldGoTypes = map[FieldType]reflect.Type{
	U8:          reflect.TypeOf(uint8(0)),
	U16:         reflect.TypeOf(uint16(0)),
	U32:         reflect.TypeOf(uint32(0)),
	U64:         reflect.TypeOf(uint64(0)),
	I8:          reflect.TypeOf(int8(0)),
	I16:         reflect.TypeOf(int16(0)),
	I32:         reflect.TypeOf(int32(0)),
	I64:         reflect.TypeOf(int64(0)),
	Bool:        reflect.TypeOf(false),
	String:      reflect.TypeOf(""),
	IdentityKey: reflect.TypeOf([]byte(nil)),
	F32:         reflect.TypeOf(float32(0)),
	F64:         reflect.TypeOf(float64(0)),
}

func (ft FieldType) String() string {
	if name, ok := fieldTypeNames[ft]; ok {
		return name
	}
	return fmt.Sprintf("FieldType(%d)", uint8(ft))
}

func (ft FieldType) Valid() bool {
	_, ok := fieldTypeNames[ft]
	return ok
}

func ParseFieldType(s string) (FieldType, error) {
	for ft, name := range fieldTypeNames {
		if strings.EqualFold(name, s) {
			return ft, nil
		}
	}
	return 0, apperrors.Invalid("field type", "one of u8,u16,u32,u64,i8,i16,i32,i64,bool,f32,f64,identityKey,string",
		fmt.Sprintf("unknown type %q", s))
}
