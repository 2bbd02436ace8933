package visitor

import "strings"

// MapBuilder is a Visitor that materializes a traversal into ordinary Go
// values: messages become map[string]any, repeated fields []any, absent
// optionals nil. Borrowed bytes and strings are copied, so the result is
// safe to keep after the decode input buffer is reused.
type MapBuilder struct {
	value any
	set   bool
}

// Value returns the built value. For a message traversal this is a
// map[string]any.
func (b *MapBuilder) Value() any { return b.value }

// Map returns the built value as a map, or nil if the traversal did not
// produce a message.
func (b *MapBuilder) Map() map[string]any {
	m, _ := b.value.(map[string]any)
	return m
}

func (b *MapBuilder) store(v any) error {
	b.value = v
	b.set = true
	return nil
}

func (b *MapBuilder) VisitBool(v bool) error       { return b.store(v) }
func (b *MapBuilder) VisitInt32(v int32) error     { return b.store(v) }
func (b *MapBuilder) VisitInt64(v int64) error     { return b.store(v) }
func (b *MapBuilder) VisitUint32(v uint32) error   { return b.store(v) }
func (b *MapBuilder) VisitUint64(v uint64) error   { return b.store(v) }
func (b *MapBuilder) VisitFloat32(v float32) error { return b.store(v) }
func (b *MapBuilder) VisitFloat64(v float64) error { return b.store(v) }

func (b *MapBuilder) VisitBytes(v []byte) error {
	cp := make([]byte, len(v))
	copy(cp, v)
	return b.store(cp)
}

func (b *MapBuilder) VisitString(v string) error {
	return b.store(strings.Clone(v))
}

func (b *MapBuilder) VisitSome(v Value) error {
	var inner MapBuilder
	if err := v.Accept(&inner); err != nil {
		return err
	}
	return b.store(inner.value)
}

func (b *MapBuilder) VisitNone() error { return b.store(nil) }

func (b *MapBuilder) VisitMap(m MapAccess) error {
	out := make(map[string]any)
	for {
		key, ok, err := m.NextKey()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		var inner MapBuilder
		if err := m.NextValue(&inner); err != nil {
			return err
		}
		out[key] = inner.value
	}
	return b.store(out)
}

func (b *MapBuilder) VisitSeq(s SeqAccess) error {
	out := make([]any, 0, s.SizeHint())
	for {
		var inner MapBuilder
		ok, err := s.Next(&inner)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		out = append(out, inner.value)
	}
	return b.store(out)
}
