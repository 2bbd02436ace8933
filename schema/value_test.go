package schema

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefault_Primitives(t *testing.T) {
	prim := func(p PrimitiveType) *FieldType {
		return &FieldType{Kind: KindPrimitive, PrimitiveType: p}
	}

	tests := []struct {
		name    string
		ft      *FieldType
		literal string
		want    Value
	}{
		{name: "bool true", ft: prim(TypeBool), literal: "true", want: Value{Kind: ValueBool, Bool: true}},
		{name: "int32 negative", ft: prim(TypeInt32), literal: "-42", want: Value{Kind: ValueI32, Int: -42}},
		{name: "sint64", ft: prim(TypeSint64), literal: "9000000000", want: Value{Kind: ValueI64, Int: 9000000000}},
		{name: "uint32", ft: prim(TypeUint32), literal: "4294967295", want: Value{Kind: ValueU32, Uint: 4294967295}},
		{name: "fixed64", ft: prim(TypeFixed64), literal: "18446744073709551615", want: Value{Kind: ValueU64, Uint: math.MaxUint64}},
		{name: "double", ft: prim(TypeDouble), literal: "2.5", want: Value{Kind: ValueF64, Float: 2.5}},
		{name: "float inf", ft: prim(TypeFloat), literal: "inf", want: Value{Kind: ValueF32, Float: math.Inf(1)}},
		{name: "double -inf", ft: prim(TypeDouble), literal: "-inf", want: Value{Kind: ValueF64, Float: math.Inf(-1)}},
		{name: "string quoted", ft: prim(TypeString), literal: `"us-east"`, want: Value{Kind: ValueString, Str: "us-east"}},
		{name: "string escapes", ft: prim(TypeString), literal: `"a\nb"`, want: Value{Kind: ValueString, Str: "a\nb"}},
		{name: "bytes", ft: prim(TypeBytes), literal: `"abc"`, want: Value{Kind: ValueBytes, Bytes: []byte("abc")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDefault(tt.ft, tt.literal, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestParseDefault_NaN(t *testing.T) {
	got, err := ParseDefault(&FieldType{Kind: KindPrimitive, PrimitiveType: TypeDouble}, "nan", nil)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(got.Float))
}

func TestParseDefault_Enum(t *testing.T) {
	enum := &Enum{
		Name: "Mode",
		Values: []*EnumValue{
			{Name: "MODE_OFF", Number: 0},
			{Name: "MODE_ON", Number: 1},
		},
	}
	ft := &FieldType{Kind: KindEnum, EnumType: "Mode"}

	got, err := ParseDefault(ft, "MODE_ON", enum)
	require.NoError(t, err)
	assert.Equal(t, Value{Kind: ValueEnum, Enum: 1}, *got)

	_, err = ParseDefault(ft, "MODE_MAYBE", enum)
	assert.Error(t, err)

	_, err = ParseDefault(ft, "MODE_ON", nil)
	assert.Error(t, err)
}

func TestParseDefault_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		ft      *FieldType
		literal string
	}{
		{name: "bool garbage", ft: &FieldType{Kind: KindPrimitive, PrimitiveType: TypeBool}, literal: "yes"},
		{name: "int32 overflow", ft: &FieldType{Kind: KindPrimitive, PrimitiveType: TypeInt32}, literal: "3000000000"},
		{name: "uint negative", ft: &FieldType{Kind: KindPrimitive, PrimitiveType: TypeUint64}, literal: "-1"},
		{name: "message type", ft: &FieldType{Kind: KindMessage, MessageType: "M"}, literal: "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDefault(tt.ft, tt.literal, nil)
			assert.Error(t, err)
		})
	}
}

func TestFieldByNumber(t *testing.T) {
	msg := &Message{
		Name: "M",
		Fields: []*Field{
			{Name: "a", Number: 1},
			{Name: "b", Number: 7},
		},
	}
	require.NotNil(t, msg.FieldByNumber(7))
	assert.Equal(t, "b", msg.FieldByNumber(7).Name)
	assert.Nil(t, msg.FieldByNumber(2))
}

func TestEnumLookups(t *testing.T) {
	enum := &Enum{
		Name: "E",
		Values: []*EnumValue{
			{Name: "E_ZERO", Number: 0},
			{Name: "E_ONE", Number: 1},
		},
	}
	assert.Equal(t, "E_ONE", enum.ValueByNumber(1).Name)
	assert.Nil(t, enum.ValueByNumber(9))
	assert.Equal(t, int32(0), enum.ValueByName("E_ZERO").Number)
	assert.Nil(t, enum.ValueByName("E_NINE"))
}
