package wire

import (
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/protolens/protolens/schema"
)

// Kind discriminates the payload of a SingleValue.
type Kind uint8

const (
	KindBool Kind = iota + 1
	KindI32
	KindI64
	KindU32
	KindU64
	KindF32
	KindF64
	KindBytes
	KindString
	KindEnum
	KindLazyMessage
	KindNull
	KindDefault
)

// SingleValue is one decoded field value. Scalars are packed into num as
// their bit pattern; bytes, strings and lazy message spans alias the input
// buffer passed to DecodeMessage and are only valid for that buffer's
// lifetime.
type SingleValue struct {
	kind Kind
	num  uint64          // bool / ints / float bits / enum number
	str  string          // borrowed string payload
	raw  []byte          // borrowed bytes or undecoded submessage span
	msg  *schema.Message // lazy submessage descriptor
	enum *schema.Enum    // resolved enum type
	def  *schema.Value   // registry-owned precomputed default
}

// Kind returns the value's variant.
func (v SingleValue) Kind() Kind { return v.kind }

func boolValue(b bool) SingleValue {
	var n uint64
	if b {
		n = 1
	}
	return SingleValue{kind: KindBool, num: n}
}

func i32Value(v int32) SingleValue { return SingleValue{kind: KindI32, num: uint64(uint32(v))} }
func i64Value(v int64) SingleValue { return SingleValue{kind: KindI64, num: uint64(v)} }
func u32Value(v uint32) SingleValue { return SingleValue{kind: KindU32, num: uint64(v)} }
func u64Value(v uint64) SingleValue { return SingleValue{kind: KindU64, num: v} }
func f32Value(v float32) SingleValue {
	return SingleValue{kind: KindF32, num: uint64(math.Float32bits(v))}
}
func f64Value(v float64) SingleValue {
	return SingleValue{kind: KindF64, num: math.Float64bits(v)}
}
func bytesValue(b []byte) SingleValue  { return SingleValue{kind: KindBytes, raw: b} }
func stringValue(s string) SingleValue { return SingleValue{kind: KindString, str: s} }
func enumValue(n int32, e *schema.Enum) SingleValue {
	return SingleValue{kind: KindEnum, num: uint64(uint32(n)), enum: e}
}
func lazyMessageValue(m *schema.Message, data []byte) SingleValue {
	return SingleValue{kind: KindLazyMessage, msg: m, raw: data}
}
func nullValue() SingleValue                    { return SingleValue{kind: KindNull} }
func defaultValue(d *schema.Value) SingleValue  { return SingleValue{kind: KindDefault, def: d} }

// Repeated is the ordered storage of a repeated field, in wire-encounter
// order across all occurrences of its field number.
type Repeated = []SingleValue

// Record pairs a decoded value with the field it belongs to.
type Record[V any] struct {
	Field *schema.Field
	Tag   protowire.Number
	Value V
}

// DecodedMessage is the result of decoding one message's bytes. Singles
// holds exactly one record per declared non-repeated field, tag-sorted and
// unique by tag; Repeats holds one record per declared repeated field in
// first-seen order. Both slices and every Repeated value come from the pool
// the decode was given.
type DecodedMessage struct {
	Singles []Record[SingleValue]
	Repeats []Record[Repeated]
}

// wantWireType returns the wire type a declared field type decodes from.
func wantWireType(ft *schema.FieldType) protowire.Type {
	switch ft.Kind {
	case schema.KindMessage:
		return protowire.BytesType
	case schema.KindEnum:
		return protowire.VarintType
	}
	switch ft.PrimitiveType {
	case schema.TypeString, schema.TypeBytes:
		return protowire.BytesType
	case schema.TypeFloat, schema.TypeFixed32, schema.TypeSfixed32:
		return protowire.Fixed32Type
	case schema.TypeDouble, schema.TypeFixed64, schema.TypeSfixed64:
		return protowire.Fixed64Type
	default:
		return protowire.VarintType
	}
}

// declaredTypeName names a field's declared type for error reporting.
func declaredTypeName(ft *schema.FieldType) string {
	switch ft.Kind {
	case schema.KindMessage:
		return ft.MessageType
	case schema.KindEnum:
		return ft.EnumType
	default:
		return string(ft.PrimitiveType)
	}
}

// parseSingleValue decodes exactly one value for the given field from the
// reader's current position. Message-typed fields capture their byte span
// without recursing.
func parseSingleValue(r *Reader, wt protowire.Type, f *schema.Field, res Resolver) (SingleValue, error) {
	if wt == protowire.StartGroupType || wt == protowire.EndGroupType {
		return SingleValue{}, ErrGroupEncoding
	}
	if want := wantWireType(&f.Type); wt != want {
		return SingleValue{}, &WireMismatchError{Field: f.Name, Declared: declaredTypeName(&f.Type), Wire: wt}
	}

	switch f.Type.Kind {
	case schema.KindMessage:
		msg, err := res.GetMessage(f.Type.MessageType)
		if err != nil {
			return SingleValue{}, &UnresolvedTypeError{Kind: "message", Name: f.Type.MessageType}
		}
		data, err := r.ReadBytes()
		if err != nil {
			return SingleValue{}, err
		}
		return lazyMessageValue(msg, data), nil

	case schema.KindEnum:
		enum, err := res.GetEnum(f.Type.EnumType)
		if err != nil {
			return SingleValue{}, &UnresolvedTypeError{Kind: "enum", Name: f.Type.EnumType}
		}
		v, err := r.ReadVarint()
		if err != nil {
			return SingleValue{}, err
		}
		return enumValue(int32(v), enum), nil
	}

	switch f.Type.PrimitiveType {
	case schema.TypeInt32:
		v, err := r.ReadVarint()
		if err != nil {
			return SingleValue{}, err
		}
		return i32Value(int32(v)), nil
	case schema.TypeInt64:
		v, err := r.ReadVarint()
		if err != nil {
			return SingleValue{}, err
		}
		return i64Value(int64(v)), nil
	case schema.TypeUint32:
		v, err := r.ReadVarint()
		if err != nil {
			return SingleValue{}, err
		}
		return u32Value(uint32(v)), nil
	case schema.TypeUint64:
		v, err := r.ReadVarint()
		if err != nil {
			return SingleValue{}, err
		}
		return u64Value(v), nil
	case schema.TypeSint32:
		v, err := r.ReadVarint()
		if err != nil {
			return SingleValue{}, err
		}
		return i32Value(int32(protowire.DecodeZigZag(uint64(uint32(v))))), nil
	case schema.TypeSint64:
		v, err := r.ReadVarint()
		if err != nil {
			return SingleValue{}, err
		}
		return i64Value(protowire.DecodeZigZag(v)), nil
	case schema.TypeBool:
		v, err := r.ReadVarint()
		if err != nil {
			return SingleValue{}, err
		}
		return boolValue(v != 0), nil
	case schema.TypeFixed32:
		v, err := r.ReadFixed32()
		if err != nil {
			return SingleValue{}, err
		}
		return u32Value(v), nil
	case schema.TypeSfixed32:
		v, err := r.ReadFixed32()
		if err != nil {
			return SingleValue{}, err
		}
		return i32Value(int32(v)), nil
	case schema.TypeFloat:
		v, err := r.ReadFixed32()
		if err != nil {
			return SingleValue{}, err
		}
		return f32Value(math.Float32frombits(v)), nil
	case schema.TypeFixed64:
		v, err := r.ReadFixed64()
		if err != nil {
			return SingleValue{}, err
		}
		return u64Value(v), nil
	case schema.TypeSfixed64:
		v, err := r.ReadFixed64()
		if err != nil {
			return SingleValue{}, err
		}
		return i64Value(int64(v)), nil
	case schema.TypeDouble:
		v, err := r.ReadFixed64()
		if err != nil {
			return SingleValue{}, err
		}
		return f64Value(math.Float64frombits(v)), nil
	case schema.TypeString:
		v, err := r.ReadString()
		if err != nil {
			return SingleValue{}, err
		}
		return stringValue(v), nil
	case schema.TypeBytes:
		v, err := r.ReadBytes()
		if err != nil {
			return SingleValue{}, err
		}
		return bytesValue(v), nil
	}

	return SingleValue{}, &WireMismatchError{Field: f.Name, Declared: declaredTypeName(&f.Type), Wire: wt}
}
