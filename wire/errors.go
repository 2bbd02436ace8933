package wire

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/protobuf/encoding/protowire"
)

// Decode failure sentinels.
var (
	// ErrGroupEncoding is returned when a declared field uses the legacy
	// group wire format.
	ErrGroupEncoding = errors.New("group-encoded fields are not supported")

	// ErrDepthExceeded is returned when message nesting goes past
	// MaxNestingDepth.
	ErrDepthExceeded = errors.New("message nesting exceeds depth limit")

	// ErrTruncated is returned when the input ends in the middle of a
	// value.
	ErrTruncated = errors.New("truncated input")
)

// UnresolvedTypeError reports a field whose message or enum type is not
// present in the registry the decoder was given.
type UnresolvedTypeError struct {
	Kind string // "message" or "enum"
	Name string
}

func (e *UnresolvedTypeError) Error() string {
	return fmt.Sprintf("unresolved %s type %s", e.Kind, e.Name)
}

// UnknownEnumValueError reports a decoded enum number that has no symbol in
// the field's enum type. The raw number is never surfaced as a value.
type UnknownEnumValueError struct {
	Enum   string
	Number int32
}

func (e *UnknownEnumValueError) Error() string {
	return fmt.Sprintf("enum %s has no value with number %d", e.Enum, e.Number)
}

// WireMismatchError reports a field whose declared type disagrees with the
// wire type found on the wire, or a value that cannot satisfy the requested
// resolution (for example an enum default on a non-enum field).
type WireMismatchError struct {
	Field    string
	Declared string
	Wire     protowire.Type
}

func (e *WireMismatchError) Error() string {
	if e.Wire < 0 {
		return fmt.Sprintf("field %s: declared type %s cannot satisfy the requested value", e.Field, e.Declared)
	}
	return fmt.Sprintf("field %s: declared type %s cannot decode wire type %d", e.Field, e.Declared, e.Wire)
}

// errNextValueBeforeKey flags a visitor driving the map cursor out of
// order.
var errNextValueBeforeKey = errors.New("NextValue called without a pending key")

// parseError converts a negative protowire consume count into a decode
// error, keeping the underlying protowire error in the chain.
func parseError(n int) error {
	err := protowire.ParseError(n)
	if err == nil {
		err = ErrTruncated
	}
	return fmt.Errorf("malformed input: %w", err)
}

// FieldError annotates a decode error with the path of field names leading
// to the failure.
type FieldError struct {
	FieldPath []string // e.g., ["order", "items", "price"]
	Err       error    // underlying error
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	if len(e.FieldPath) == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("error at proto path %s: %v", strings.Join(e.FieldPath, "."), e.Err)
}

// Unwrap returns the underlying error.
func (e *FieldError) Unwrap() error {
	return e.Err
}

// wrapWithField prefixes an error's field path with the given field name.
func wrapWithField(err error, fieldName string) error {
	if err == nil {
		return nil
	}

	var fe *FieldError
	if errors.As(err, &fe) {
		return &FieldError{
			FieldPath: append([]string{fieldName}, fe.FieldPath...),
			Err:       fe.Err,
		}
	}

	return &FieldError{
		FieldPath: []string{fieldName},
		Err:       err,
	}
}
