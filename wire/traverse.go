package wire

import (
	"math"

	"github.com/protolens/protolens/schema"
	"github.com/protolens/protolens/visitor"
)

// Visit decodes one message and drives v over it as a map of field-name to
// field-value: singular fields first in tag order, then repeated fields in
// first-seen order. Nested messages decode lazily, only when their key is
// actually visited.
//
// Everything surfaced to v borrows from data; v must copy whatever it
// keeps. All pooled buffers are released before Visit returns, on success
// and on error alike.
func Visit(data []byte, msg *schema.Message, res Resolver, pool *Pool, v visitor.Visitor) error {
	return visitMessage(data, msg, res, pool, v, 0)
}

func visitMessage(data []byte, msg *schema.Message, res Resolver, pool *Pool, v visitor.Visitor, depth int) error {
	if depth >= MaxNestingDepth {
		return ErrDepthExceeded
	}

	dm, err := DecodeMessage(data, msg, res, pool)
	if err != nil {
		releaseMessage(&dm, pool)
		return err
	}

	ma := &messageMap{dm: &dm, res: res, pool: pool, depth: depth}
	err = v.VisitMap(ma)
	releaseMessage(&dm, pool)
	return err
}

// releaseMessage returns a decoded message's buffers to the pool: any
// repeated value buffer the traversal did not consume, then the two record
// buffers.
func releaseMessage(dm *DecodedMessage, pool *Pool) {
	for i := range dm.Repeats {
		if dm.Repeats[i].Value != nil {
			pool.PutValues(dm.Repeats[i].Value)
			dm.Repeats[i].Value = nil
		}
	}
	pool.PutSingleRecords(dm.Singles)
	pool.PutRepeatedRecords(dm.Repeats)
	dm.Singles = nil
	dm.Repeats = nil
}

// messageMap cursors a decoded message for visitor.MapAccess: all singular
// fields, then all repeated fields.
type messageMap struct {
	dm    *DecodedMessage
	res   Resolver
	pool  *Pool
	depth int

	nextSingle int
	nextRep    int
	current    int // index into Singles or Repeats of the pending value
	onRepeats  bool
	pending    bool
}

func (m *messageMap) NextKey() (string, bool, error) {
	if m.nextSingle < len(m.dm.Singles) {
		m.current = m.nextSingle
		m.onRepeats = false
		m.pending = true
		m.nextSingle++
		return m.dm.Singles[m.current].Field.Name, true, nil
	}
	if m.nextRep < len(m.dm.Repeats) {
		m.current = m.nextRep
		m.onRepeats = true
		m.pending = true
		m.nextRep++
		return m.dm.Repeats[m.current].Field.Name, true, nil
	}
	return "", false, nil
}

func (m *messageMap) NextValue(v visitor.Visitor) error {
	if !m.pending {
		return errNextValueBeforeKey
	}
	m.pending = false

	if m.onRepeats {
		rec := &m.dm.Repeats[m.current]
		err := v.VisitSeq(&repeatedSeq{
			values: rec.Value,
			field:  rec.Field,
			res:    m.res,
			pool:   m.pool,
			depth:  m.depth,
		})
		// The sequence has been handed over in full; its buffer goes back
		// to the pool now rather than at end of message, so peak memory
		// stays bounded for messages with many repeated fields.
		m.pool.PutValues(rec.Value)
		rec.Value = nil
		return wrapWithField(err, rec.Field.Name)
	}

	rec := &m.dm.Singles[m.current]
	var err error
	if rec.Field.Label == schema.LabelOptional {
		if rec.Value.kind == KindNull {
			err = v.VisitNone()
		} else {
			err = v.VisitSome(&deferredValue{
				value: &rec.Value,
				field: rec.Field,
				res:   m.res,
				pool:  m.pool,
				depth: m.depth,
			})
		}
	} else {
		err = resolveSingle(&rec.Value, rec.Field, m.res, m.pool, m.depth, v)
	}
	return wrapWithField(err, rec.Field.Name)
}

// repeatedSeq cursors one repeated field's values for visitor.SeqAccess.
type repeatedSeq struct {
	values Repeated
	field  *schema.Field
	res    Resolver
	pool   *Pool
	depth  int
	next   int
}

func (s *repeatedSeq) SizeHint() int {
	return len(s.values) - s.next
}

func (s *repeatedSeq) Next(v visitor.Visitor) (bool, error) {
	if s.next >= len(s.values) {
		return false, nil
	}
	fv := &s.values[s.next]
	s.next++
	return true, resolveSingle(fv, s.field, s.res, s.pool, s.depth, v)
}

// deferredValue resolves a present optional value when the visitor accepts
// it under VisitSome.
type deferredValue struct {
	value *SingleValue
	field *schema.Field
	res   Resolver
	pool  *Pool
	depth int
}

func (d *deferredValue) Accept(v visitor.Visitor) error {
	return resolveSingle(d.value, d.field, d.res, d.pool, d.depth, v)
}

// resolveSingle turns one stored value into exactly one visitor call.
// Scalars pass through exactly; enums surface their symbol name; lazy
// submessages re-enter the decoder here and nowhere else.
func resolveSingle(fv *SingleValue, f *schema.Field, res Resolver, pool *Pool, depth int, v visitor.Visitor) error {
	switch fv.kind {
	case KindBool:
		return v.VisitBool(fv.num != 0)
	case KindI32:
		return v.VisitInt32(int32(uint32(fv.num)))
	case KindI64:
		return v.VisitInt64(int64(fv.num))
	case KindU32:
		return v.VisitUint32(uint32(fv.num))
	case KindU64:
		return v.VisitUint64(fv.num)
	case KindF32:
		return v.VisitFloat32(math.Float32frombits(uint32(fv.num)))
	case KindF64:
		return v.VisitFloat64(math.Float64frombits(fv.num))
	case KindBytes:
		return v.VisitBytes(fv.raw)
	case KindString:
		return v.VisitString(fv.str)
	case KindEnum:
		return visitEnumNumber(fv.enum, int32(uint32(fv.num)), v)
	case KindLazyMessage:
		return visitMessage(fv.raw, fv.msg, res, pool, v, depth+1)
	case KindNull:
		return v.VisitNone()
	case KindDefault:
		return resolveDefault(fv.def, f, res, v)
	}
	return &WireMismatchError{Field: f.Name, Declared: declaredTypeName(&f.Type), Wire: -1}
}

// resolveDefault surfaces a precomputed descriptor default.
func resolveDefault(def *schema.Value, f *schema.Field, res Resolver, v visitor.Visitor) error {
	switch def.Kind {
	case schema.ValueBool:
		return v.VisitBool(def.Bool)
	case schema.ValueI32:
		return v.VisitInt32(int32(def.Int))
	case schema.ValueI64:
		return v.VisitInt64(def.Int)
	case schema.ValueU32:
		return v.VisitUint32(uint32(def.Uint))
	case schema.ValueU64:
		return v.VisitUint64(def.Uint)
	case schema.ValueF32:
		return v.VisitFloat32(float32(def.Float))
	case schema.ValueF64:
		return v.VisitFloat64(def.Float)
	case schema.ValueBytes:
		return v.VisitBytes(def.Bytes)
	case schema.ValueString:
		return v.VisitString(def.Str)
	case schema.ValueEnum:
		if f.Type.Kind != schema.KindEnum {
			return &WireMismatchError{Field: f.Name, Declared: declaredTypeName(&f.Type), Wire: -1}
		}
		enum, err := res.GetEnum(f.Type.EnumType)
		if err != nil {
			return &UnresolvedTypeError{Kind: "enum", Name: f.Type.EnumType}
		}
		return visitEnumNumber(enum, def.Enum, v)
	}
	return &WireMismatchError{Field: f.Name, Declared: declaredTypeName(&f.Type), Wire: -1}
}

// visitEnumNumber surfaces the symbol for an enum number. An unmatched
// number is an error; the raw number is never surfaced.
func visitEnumNumber(enum *schema.Enum, number int32, v visitor.Visitor) error {
	ev := enum.ValueByNumber(number)
	if ev == nil {
		return &UnknownEnumValueError{Enum: enum.Name, Number: number}
	}
	return v.VisitString(ev.Name)
}
