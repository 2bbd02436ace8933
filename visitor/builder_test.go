package visitor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceSeq serves a fixed list of scalars as a SeqAccess.
type sliceSeq struct {
	values []any
	next   int
}

func (s *sliceSeq) SizeHint() int { return len(s.values) - s.next }

func (s *sliceSeq) Next(v Visitor) (bool, error) {
	if s.next >= len(s.values) {
		return false, nil
	}
	val := s.values[s.next]
	s.next++
	switch x := val.(type) {
	case int32:
		return true, v.VisitInt32(x)
	case string:
		return true, v.VisitString(x)
	case error:
		return true, x
	}
	return true, nil
}

// pairMap serves key/value pairs as a MapAccess.
type pairMap struct {
	keys   []string
	values []any
	next   int
}

func (m *pairMap) NextKey() (string, bool, error) {
	if m.next >= len(m.keys) {
		return "", false, nil
	}
	return m.keys[m.next], true, nil
}

func (m *pairMap) NextValue(v Visitor) error {
	val := m.values[m.next]
	m.next++
	switch x := val.(type) {
	case int64:
		return v.VisitInt64(x)
	case []byte:
		return v.VisitBytes(x)
	case nil:
		return v.VisitNone()
	}
	return nil
}

func TestMapBuilder_Scalars(t *testing.T) {
	var b MapBuilder
	require.NoError(t, b.VisitUint64(9))
	assert.Equal(t, uint64(9), b.Value())

	require.NoError(t, b.VisitFloat64(1.5))
	assert.Equal(t, 1.5, b.Value())

	require.NoError(t, b.VisitNone())
	assert.Nil(t, b.Value())
}

func TestMapBuilder_CopiesBorrowedMemory(t *testing.T) {
	buf := []byte{1, 2, 3}
	var b MapBuilder
	require.NoError(t, b.VisitBytes(buf))

	buf[0] = 99
	got, ok := b.Value().([]byte)
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, got, "builder must own its bytes")
}

func TestMapBuilder_Map(t *testing.T) {
	var b MapBuilder
	err := b.VisitMap(&pairMap{
		keys:   []string{"id", "payload", "note"},
		values: []any{int64(7), []byte("xyz"), nil},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"id":      int64(7),
		"payload": []byte("xyz"),
		"note":    nil,
	}, b.Map())
}

func TestMapBuilder_Seq(t *testing.T) {
	var b MapBuilder
	err := b.VisitSeq(&sliceSeq{values: []any{int32(1), "two", int32(3)}})
	require.NoError(t, err)
	assert.Equal(t, []any{int32(1), "two", int32(3)}, b.Value())
}

func TestMapBuilder_EmptySeq(t *testing.T) {
	var b MapBuilder
	require.NoError(t, b.VisitSeq(&sliceSeq{}))
	assert.Equal(t, []any{}, b.Value())
}

func TestMapBuilder_SeqErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	var b MapBuilder
	err := b.VisitSeq(&sliceSeq{values: []any{int32(1), boom}})
	assert.ErrorIs(t, err, boom)
}

func TestMapBuilder_MapIsNilForNonMessage(t *testing.T) {
	var b MapBuilder
	require.NoError(t, b.VisitInt32(5))
	assert.Nil(t, b.Map())
}
