// Package visitor defines the push-based value protocol the wire decoder
// drives. A traversal makes exactly one Visit call per resolved value;
// composite values hand the visitor a cursor it drains at its own pace.
//
// Bytes and string payloads may alias the buffer the decode was invoked
// with. A visitor that retains them past the visit must copy.
package visitor

// Visitor consumes one value. Implementations return an error to abort the
// traversal that is driving them.
type Visitor interface {
	VisitBool(v bool) error
	VisitInt32(v int32) error
	VisitInt64(v int64) error
	VisitUint32(v uint32) error
	VisitUint64(v uint64) error
	VisitFloat32(v float32) error
	VisitFloat64(v float64) error

	// VisitBytes and VisitString receive payloads that may alias the
	// decode input buffer.
	VisitBytes(v []byte) error
	VisitString(v string) error

	// VisitSome marks a present optional value; the visitor resolves it by
	// accepting v. VisitNone marks an absent one.
	VisitSome(v Value) error
	VisitNone() error

	// VisitMap receives a message as a field-name keyed cursor.
	VisitMap(m MapAccess) error

	// VisitSeq receives a repeated field as a single-pass cursor.
	VisitSeq(s SeqAccess) error
}

// Value is a deferred value: it resolves into exactly one Visit call when
// accepted, and must be accepted at most once.
type Value interface {
	Accept(v Visitor) error
}

// MapAccess iterates a message's fields. Keys are declared field names.
// NextValue must be called exactly once after each successful NextKey.
type MapAccess interface {
	// NextKey advances to the next field and returns its name, or ok=false
	// when the message is exhausted.
	NextKey() (name string, ok bool, err error)

	// NextValue resolves the current field's value into v.
	NextValue(v Visitor) error
}

// SeqAccess iterates a repeated field's values in stored order, forward
// only.
type SeqAccess interface {
	// SizeHint returns the number of values remaining.
	SizeHint() int

	// Next resolves the next value into v, or returns ok=false when the
	// sequence is exhausted.
	Next(v Visitor) (ok bool, err error)
}
