package wire

import (
	"sort"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/protolens/protolens/schema"
)

// MaxNestingDepth bounds recursive submessage decoding. Inputs nested
// deeper than this fail with ErrDepthExceeded.
const MaxNestingDepth = 100

// Resolver supplies descriptor lookups during a decode. *registry.Registry
// implements it.
type Resolver interface {
	GetMessage(name string) (*schema.Message, error)
	GetEnum(name string) (*schema.Enum, error)
}

// DecodeMessage decodes one message's bytes against its descriptor.
//
// Every declared non-repeated field appears in the result, synthesized from
// its default when absent from the wire; duplicate singular occurrences
// collapse to the last one. Repeated fields accumulate in encounter order.
// Unknown field numbers are skipped and never stored. Message-typed fields
// are captured as undecoded spans, to be decoded only if visited.
//
// All buffers in the result come from pool, and the result borrows from
// data; the caller must return the buffers via pool and drop the result
// before data is reused. On error the partially-built result is returned so
// the caller can still release its buffers.
func DecodeMessage(data []byte, msg *schema.Message, res Resolver, pool *Pool) (DecodedMessage, error) {
	dm := DecodedMessage{
		Singles: pool.GetSingleRecords(),
		Repeats: pool.GetRepeatedRecords(),
	}

	// Seed defaults: one record per declared singular field, one empty
	// sequence per declared repeated field. Wire values are appended after
	// these, so the last-wins collapse below lets them override.
	for _, f := range msg.Fields {
		if f.IsRepeated() {
			dm.Repeats = append(dm.Repeats, Record[Repeated]{
				Field: f,
				Tag:   protowire.Number(f.Number),
				Value: pool.GetValues(),
			})
			continue
		}
		v, err := defaultSingleValue(f, res)
		if err != nil {
			return dm, wrapWithField(err, f.Name)
		}
		dm.Singles = append(dm.Singles, Record[SingleValue]{
			Field: f,
			Tag:   protowire.Number(f.Number),
			Value: v,
		})
	}

	r := NewReader(data)
	for !r.EOF() {
		num, wt, err := r.ReadTag()
		if err != nil {
			return dm, err
		}

		f := msg.FieldByNumber(int32(num))
		if f == nil {
			if err := r.Skip(num, wt); err != nil {
				return dm, err
			}
			continue
		}

		v, err := parseSingleValue(r, wt, f, res)
		if err != nil {
			return dm, wrapWithField(err, f.Name)
		}

		if f.IsRepeated() {
			appendRepeated(&dm, f, num, v, pool)
		} else {
			dm.Singles = append(dm.Singles, Record[SingleValue]{Field: f, Tag: num, Value: v})
		}
	}

	sort.SliceStable(dm.Singles, func(i, j int) bool {
		return dm.Singles[i].Tag < dm.Singles[j].Tag
	})
	dm.Singles = retainLastByTag(dm.Singles)
	return dm, nil
}

// appendRepeated appends a value to the field's repeated record, creating
// the record if the seed pass did not (a field added to the descriptor
// mid-scan cannot occur today, but the decode loop does not rely on the
// seed).
func appendRepeated(dm *DecodedMessage, f *schema.Field, tag protowire.Number, v SingleValue, pool *Pool) {
	for i := range dm.Repeats {
		if dm.Repeats[i].Tag == tag {
			dm.Repeats[i].Value = append(dm.Repeats[i].Value, v)
			return
		}
	}
	dm.Repeats = append(dm.Repeats, Record[Repeated]{
		Field: f,
		Tag:   tag,
		Value: append(pool.GetValues(), v),
	})
}

// defaultSingleValue synthesizes the value a singular field resolves to
// when absent from the wire: the descriptor's precomputed default if one
// was declared, Null for optional fields, the type's zero value otherwise.
func defaultSingleValue(f *schema.Field, res Resolver) (SingleValue, error) {
	if f.Default != nil {
		return defaultValue(f.Default), nil
	}
	if f.Label == schema.LabelOptional {
		return nullValue(), nil
	}

	switch f.Type.Kind {
	case schema.KindMessage:
		return nullValue(), nil
	case schema.KindEnum:
		enum, err := res.GetEnum(f.Type.EnumType)
		if err != nil {
			return SingleValue{}, &UnresolvedTypeError{Kind: "enum", Name: f.Type.EnumType}
		}
		return enumValue(0, enum), nil
	}

	switch f.Type.PrimitiveType {
	case schema.TypeBool:
		return boolValue(false), nil
	case schema.TypeInt32, schema.TypeSint32, schema.TypeSfixed32:
		return i32Value(0), nil
	case schema.TypeInt64, schema.TypeSint64, schema.TypeSfixed64:
		return i64Value(0), nil
	case schema.TypeUint32, schema.TypeFixed32:
		return u32Value(0), nil
	case schema.TypeUint64, schema.TypeFixed64:
		return u64Value(0), nil
	case schema.TypeFloat:
		return f32Value(0), nil
	case schema.TypeDouble:
		return f64Value(0), nil
	case schema.TypeString:
		return stringValue(""), nil
	default: // bytes
		return bytesValue(nil), nil
	}
}

// retainLastByTag collapses runs of equal tags in a tag-sorted record
// slice, keeping the last record of each run. In-place, no allocation.
func retainLastByTag(recs []Record[SingleValue]) []Record[SingleValue] {
	if len(recs) == 0 {
		return recs
	}
	w := 0
	for r := 1; r < len(recs); r++ {
		if recs[r].Tag != recs[w].Tag {
			w++
		}
		recs[w] = recs[r]
	}
	// Zero the dropped tail so a pooled buffer does not pin borrowed input
	// bytes past this decode.
	clear(recs[w+1:])
	return recs[:w+1]
}
