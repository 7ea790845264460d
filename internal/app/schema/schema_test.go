package schema

import (
	"math"
	"testing"

	"github.com/amilzbot/agent-proof-cli/internal/app/apperrors"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTripEachFieldType(t *testing.T) {
	key := solana.NewWallet().PublicKey()

	tests := []struct {
		ft    FieldType
		value any
	}{
		{U8, uint8(math.MaxUint8)},
		{U16, uint16(math.MaxUint16)},
		{U32, uint32(math.MaxUint32)},
		{U64, uint64(math.MaxUint64)},
		{I8, int8(math.MinInt8)},
		{I16, int16(math.MinInt16)},
		{I32, int32(math.MinInt32)},
		{I64, int64(math.MinInt64)},
		{Bool, true},
		{F32, float32(3.25)},
		{F64, math.Pi},
		{String, "nix"},
		{String, ""},
		{IdentityKey, key},
	}

	for _, tt := range tests {
		t.Run(tt.ft.String(), func(t *testing.T) {
			layout, err := NewLayout([]FieldType{tt.ft}, []string{"value"})
			require.NoError(t, err)

			data, err := layout.Encode(map[string]any{"value": tt.value})
			require.NoError(t, err)

			record, err := layout.Decode(data)
			require.NoError(t, err)
			require.Len(t, record, 1)
			assert.Equal(t, tt.value, record[0].Value)
			assert.Equal(t, tt.ft, record[0].Type)
		})
	}
}

func TestRoundTripMixedLayoutPreservesOrder(t *testing.T) {
	layout, err := FromFields(
		Field{Name: "agent_name", Type: String},
		Field{Name: "created_at", Type: I64},
		Field{Name: "verified", Type: Bool},
		Field{Name: "score", Type: U16},
	)
	require.NoError(t, err)

	values := map[string]any{
		"agent_name": "nix",
		"created_at": int64(1_750_000_000),
		"verified":   true,
		"score":      uint16(700),
	}
	data, err := layout.Encode(values)
	require.NoError(t, err)

	record, err := layout.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"agent_name", "created_at", "verified", "score"}, layout.Names())
	for i, name := range layout.Names() {
		assert.Equal(t, name, record[i].Name)
		assert.Equal(t, values[name], record[i].Value)
	}
	assert.Equal(t, "nix", record.String("agent_name"))
	assert.Equal(t, "", record.String("created_at"))
}

func TestEncodeCoercesFittingNumbers(t *testing.T) {
	layout, err := FromFields(Field{Name: "a", Type: U8}, Field{Name: "b", Type: I64}, Field{Name: "c", Type: F64})
	require.NoError(t, err)

	data, err := layout.Encode(map[string]any{"a": 200, "b": uint32(7), "c": 2})
	require.NoError(t, err)
	record, err := layout.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, uint8(200), record[0].Value)
	assert.Equal(t, int64(7), record[1].Value)
	assert.Equal(t, float64(2), record[2].Value)
}

func TestEncodeRejects(t *testing.T) {
	layout, err := FromFields(Field{Name: "n", Type: U8}, Field{Name: "s", Type: String})
	require.NoError(t, err)

	tests := map[string]map[string]any{
		"overflow":      {"n": 256, "s": "x"},
		"negative":      {"n": -1, "s": "x"},
		"wrong type":    {"n": 1, "s": 5},
		"float to int":  {"n": 1.5, "s": "x"},
		"missing field": {"n": 1},
		"unknown field": {"n": 1, "s": "x", "extra": true},
		"nil value":     {"n": nil, "s": "x"},
	}

	for name, values := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := layout.Encode(values)
			var verr *apperrors.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestIdentityKeyInputs(t *testing.T) {
	layout, err := FromFields(Field{Name: "owner", Type: IdentityKey})
	require.NoError(t, err)
	key := solana.NewWallet().PublicKey()

	for name, input := range map[string]any{
		"base58": key.String(),
		"bytes":  key.Bytes(),
		"array":  [32]byte(key),
	} {
		t.Run(name, func(t *testing.T) {
			data, err := layout.Encode(map[string]any{"owner": input})
			require.NoError(t, err)
			record, err := layout.Decode(data)
			require.NoError(t, err)
			assert.Equal(t, key, record[0].Value)
			assert.Equal(t, key.String(), record.Map()["owner"])
		})
	}

	_, err = layout.Encode(map[string]any{"owner": []byte{1, 2, 3}})
	assert.Error(t, err)
}

func TestDecodeWithWrongLayoutFails(t *testing.T) {
	written, err := FromFields(Field{Name: "a", Type: String}, Field{Name: "b", Type: U64})
	require.NoError(t, err)
	data, err := written.Encode(map[string]any{"a": "nix", "b": uint64(1)})
	require.NoError(t, err)

	shorter, err := FromFields(Field{Name: "a", Type: String})
	require.NoError(t, err)
	_, err = shorter.Decode(data)
	assert.ErrorContains(t, err, "layout accounts for")

	_, err = written.Decode(data[:5])
	assert.Error(t, err)
}

func TestNewLayoutValidation(t *testing.T) {
	tests := []struct {
		name  string
		types []FieldType
		names []string
		field string
	}{
		{"length mismatch", []FieldType{String, U8}, []string{"a"}, "schema layout"},
		{"empty", nil, nil, "schema layout"},
		{"empty name", []FieldType{String}, []string{""}, "schema field name"},
		{"duplicate", []FieldType{String, U8}, []string{"a", "a"}, "schema field name"},
		{"unknown tag", []FieldType{FieldType(4)}, []string{"a"}, "schema field type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLayout(tt.types, tt.names)
			var verr *apperrors.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestLayoutBytesRoundTrip(t *testing.T) {
	layout, err := FromFields(Field{Name: "agent_name", Type: String}, Field{Name: "created_at", Type: I64})
	require.NoError(t, err)
	assert.Equal(t, []byte{12, 8}, layout.Bytes())

	rebuilt, err := LayoutFromBytes(layout.Bytes(), layout.Names())
	require.NoError(t, err)
	assert.True(t, layout.Equal(rebuilt))

	other, err := FromFields(Field{Name: "agent_name", Type: String}, Field{Name: "created_at", Type: U64})
	require.NoError(t, err)
	assert.False(t, layout.Equal(other))
	assert.False(t, layout.Equal(nil))
}

func TestParseFieldType(t *testing.T) {
	ft, err := ParseFieldType("identityKey")
	require.NoError(t, err)
	assert.Equal(t, IdentityKey, ft)

	ft, err = ParseFieldType("I64")
	require.NoError(t, err)
	assert.Equal(t, I64, ft)

	_, err = ParseFieldType("u128")
	assert.Error(t, err)
	assert.Equal(t, "FieldType(99)", FieldType(99).String())
}
