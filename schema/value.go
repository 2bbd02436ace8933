package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueKind discriminates the payload of a Value.
type ValueKind uint8

const (
	ValueBool ValueKind = iota + 1
	ValueI32
	ValueI64
	ValueU32
	ValueU64
	ValueF32
	ValueF64
	ValueBytes
	ValueString
	ValueEnum
)

// Value is an owned protobuf scalar, used to hold field defaults that are
// computed once when a schema is loaded. Decoders reference these values
// instead of re-parsing the default literal on every decode.
type Value struct {
	Kind  ValueKind
	Bool  bool
	Int   int64
	Uint  uint64
	Float float64
	Str   string
	Bytes []byte
	Enum  int32
}

// ParseDefault parses a proto2 default-option literal for the given field
// type. The enum argument supplies symbol resolution for enum-typed fields
// and may be nil otherwise.
func ParseDefault(ft *FieldType, literal string, enum *Enum) (*Value, error) {
	switch ft.Kind {
	case KindEnum:
		if enum == nil {
			return nil, fmt.Errorf("default %q declared for unresolved enum %s", literal, ft.EnumType)
		}
		ev := enum.ValueByName(literal)
		if ev == nil {
			return nil, fmt.Errorf("default %q is not a value of enum %s", literal, enum.Name)
		}
		return &Value{Kind: ValueEnum, Enum: ev.Number}, nil
	case KindMessage:
		return nil, fmt.Errorf("message field cannot declare a default value")
	}

	switch ft.PrimitiveType {
	case TypeBool:
		switch literal {
		case "true":
			return &Value{Kind: ValueBool, Bool: true}, nil
		case "false":
			return &Value{Kind: ValueBool, Bool: false}, nil
		}
		return nil, fmt.Errorf("invalid bool default %q", literal)
	case TypeInt32, TypeSint32, TypeSfixed32:
		v, err := strconv.ParseInt(literal, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid int32 default %q: %v", literal, err)
		}
		return &Value{Kind: ValueI32, Int: v}, nil
	case TypeInt64, TypeSint64, TypeSfixed64:
		v, err := strconv.ParseInt(literal, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid int64 default %q: %v", literal, err)
		}
		return &Value{Kind: ValueI64, Int: v}, nil
	case TypeUint32, TypeFixed32:
		v, err := strconv.ParseUint(literal, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid uint32 default %q: %v", literal, err)
		}
		return &Value{Kind: ValueU32, Uint: v}, nil
	case TypeUint64, TypeFixed64:
		v, err := strconv.ParseUint(literal, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid uint64 default %q: %v", literal, err)
		}
		return &Value{Kind: ValueU64, Uint: v}, nil
	case TypeFloat:
		v, err := parseFloatLiteral(literal, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid float default %q: %v", literal, err)
		}
		return &Value{Kind: ValueF32, Float: v}, nil
	case TypeDouble:
		v, err := parseFloatLiteral(literal, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid double default %q: %v", literal, err)
		}
		return &Value{Kind: ValueF64, Float: v}, nil
	case TypeString:
		return &Value{Kind: ValueString, Str: unquoteLiteral(literal)}, nil
	case TypeBytes:
		return &Value{Kind: ValueBytes, Bytes: []byte(unquoteLiteral(literal))}, nil
	}
	return nil, fmt.Errorf("unsupported default for type %s", ft.PrimitiveType)
}

// parseFloatLiteral accepts the protobuf spellings of special floats in
// addition to ordinary decimal literals.
func parseFloatLiteral(literal string, bits int) (float64, error) {
	switch literal {
	case "inf":
		return math.Inf(1), nil
	case "-inf":
		return math.Inf(-1), nil
	case "nan":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(literal, bits)
}

// unquoteLiteral strips the surrounding quotes of a string/bytes default and
// resolves common escapes. Literals without quotes are returned as-is.
func unquoteLiteral(literal string) string {
	if len(literal) >= 2 {
		if q := literal[0]; (q == '"' || q == '\'') && literal[len(literal)-1] == q {
			if unquoted, err := strconv.Unquote(`"` + strings.ReplaceAll(literal[1:len(literal)-1], `"`, `\"`) + `"`); err == nil {
				return unquoted
			}
			return literal[1 : len(literal)-1]
		}
	}
	return literal
}
