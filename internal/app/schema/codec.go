package schema

import (
	"fmt"
	"math"
	"reflect"

	"github.com/amilzbot/agent-proof-cli/internal/app/apperrors"

	"github.com/gagliardetto/solana-go"
	"github.com/near/borsh-go"
)

const identityKeyLen = 32

// Value is one decoded field.
type Value struct {
	Name  string
	Type  FieldType
	Value any
}

// Record is a decoded payload in layout order.
type Record []Value

func (r Record) Get(name string) (any, bool) {
	for _, v := range r {
		if v.Name == name {
			return v.Value, true
		}
	}
	return nil, false
}

// String returns a string field, or "" when absent or not a string.
func (r Record) String(name string) string {
	v, _ := r.Get(name)
	s, _ := v.(string)
	return s
}

func (r Record) Map() map[string]any {
	out := make(map[string]any, len(r))
	for _, v := range r {
		if key, ok := v.Value.(solana.PublicKey); ok {
			out[v.Name] = key.String()
			continue
		}
		out[v.Name] = v.Value
	}
	return out
}

// Encode serializes values in layout order. Every field must be
// present; numeric values are converted when they fit the field type.
func (l *Layout) Encode(values map[string]any) ([]byte, error) {
	if len(values) != len(l.fields) {
		for name := range values {
			if !l.has(name) {
				return nil, apperrors.Invalid("attestation data", "fields declared by the schema",
					fmt.Sprintf("unknown field %q", name))
			}
		}
	}

	payload := reflect.New(l.payload).Elem()
	for i, f := range l.fields {
		raw, ok := values[f.Name]
		if !ok {
			return nil, apperrors.Invalid("attestation data", "every schema field",
				fmt.Sprintf("missing field %q", f.Name))
		}
		v, err := coerce(f, raw)
		if err != nil {
			return nil, err
		}
		payload.Field(i).Set(v)
	}

	data, err := borsh.Serialize(payload.Interface())
	if err != nil {
		return nil, fmt.Errorf("encode attestation data: %w", err)
	}
	return data, nil
}

// Decode parses data written with this layout.
func (l *Layout) Decode(data []byte) (Record, error) {
	payload := reflect.New(l.payload)
	if err := borsh.Deserialize(payload.Interface(), data); err != nil {
		return nil, fmt.Errorf("decode attestation data: %w", err)
	}

	// The decoder neither reports trailing bytes nor short reads; a
	// layout mismatch shows up as a length difference.
	reencoded, err := borsh.Serialize(payload.Elem().Interface())
	if err != nil {
		return nil, fmt.Errorf("decode attestation data: %w", err)
	}
	if len(reencoded) != len(data) {
		return nil, fmt.Errorf("decode attestation data: payload is %d bytes, layout accounts for %d",
			len(data), len(reencoded))
	}

	record := make(Record, len(l.fields))
	for i, f := range l.fields {
		v := payload.Elem().Field(i).Interface()
		if f.Type == IdentityKey {
			raw := v.([]byte)
			if len(raw) != identityKeyLen {
				return nil, fmt.Errorf("decode attestation data: field %q holds %d bytes, want %d",
					f.Name, len(raw), identityKeyLen)
			}
			v = solana.PublicKeyFromBytes(raw)
		}
		record[i] = Value{Name: f.Name, Type: f.Type, Value: v}
	}
	return record, nil
}

func (l *Layout) has(name string) bool {
	for _, f := range l.fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

func mismatch(f Field, raw any) error {
	return apperrors.Invalid("attestation data", fmt.Sprintf("%s value", f.Type),
		fmt.Sprintf("field %q cannot hold %T(%v)", f.Name, raw, raw))
}

func coerce(f Field, raw any) (reflect.Value, error) {
	target := reflect.New(fieldGoTypes[f.Type]).Elem()

	switch f.Type {
	case IdentityKey:
		key, err := identityKey(raw)
		if err != nil {
			return reflect.Value{}, apperrors.Invalid("attestation data", "32-byte identity key",
				fmt.Sprintf("field %q: %v", f.Name, err))
		}
		target.SetBytes(key.Bytes())
		return target, nil
	case String:
		s, ok := raw.(string)
		if !ok {
			return reflect.Value{}, mismatch(f, raw)
		}
		target.SetString(s)
		return target, nil
	case Bool:
		b, ok := raw.(bool)
		if !ok {
			return reflect.Value{}, mismatch(f, raw)
		}
		target.SetBool(b)
		return target, nil
	}

	rv := reflect.ValueOf(raw)
	if !rv.IsValid() {
		return reflect.Value{}, mismatch(f, raw)
	}

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i := rv.Int()
		switch target.Kind() {
		case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if target.OverflowInt(i) {
				return reflect.Value{}, mismatch(f, raw)
			}
			target.SetInt(i)
		case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			if i < 0 || target.OverflowUint(uint64(i)) {
				return reflect.Value{}, mismatch(f, raw)
			}
			target.SetUint(uint64(i))
		case reflect.Float32, reflect.Float64:
			target.SetFloat(float64(i))
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		switch target.Kind() {
		case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if u > math.MaxInt64 || target.OverflowInt(int64(u)) {
				return reflect.Value{}, mismatch(f, raw)
			}
			target.SetInt(int64(u))
		case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			if target.OverflowUint(u) {
				return reflect.Value{}, mismatch(f, raw)
			}
			target.SetUint(u)
		case reflect.Float32, reflect.Float64:
			target.SetFloat(float64(u))
		}
	case reflect.Float32, reflect.Float64:
		if target.Kind() != reflect.Float32 && target.Kind() != reflect.Float64 {
			return reflect.Value{}, mismatch(f, raw)
		}
		if target.OverflowFloat(rv.Float()) {
			return reflect.Value{}, mismatch(f, raw)
		}
		target.SetFloat(rv.Float())
	default:
		return reflect.Value{}, mismatch(f, raw)
	}
	return target, nil
}

func identityKey(raw any) (solana.PublicKey, error) {
	switch v := raw.(type) {
	case solana.PublicKey:
		return v, nil
	case [32]byte:
		return v, nil
	case []byte:
		if len(v) != identityKeyLen {
			return solana.PublicKey{}, fmt.Errorf("%d bytes", len(v))
		}
		return solana.PublicKeyFromBytes(v), nil
	case string:
		return solana.PublicKeyFromBase58(v)
	default:
		return solana.PublicKey{}, fmt.Errorf("unsupported %T", raw)
	}
}
