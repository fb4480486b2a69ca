package bzz

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Span is the eight-byte little-endian length field prefixed to every chunk.
// For a leaf chunk it is the payload length;
// for an intermediate chunk of a split tree it is the length of all the data beneath it.
type Span [SpanSize]byte

// NewSpan encodes n as a Span.
// It fails with ErrInvalidLength if n is zero or greater than MaxSpan.
func NewSpan(n uint64) (Span, error) {
	var s Span
	if n == 0 || n > MaxSpan {
		return s, errors.Wrapf(ErrInvalidLength, "span %d", n)
	}
	binary.LittleEndian.PutUint64(s[:], n)
	return s, nil
}

// DecodeSpan is the inverse of NewSpan.
// It does not validate its input.
func DecodeSpan(s Span) uint64 {
	return binary.LittleEndian.Uint64(s[:])
}

// SpanFromBytes reads a Span from the first SpanSize bytes of b.
func SpanFromBytes(b []byte) (Span, error) {
	var s Span
	if len(b) < SpanSize {
		return s, errors.Wrapf(ErrTruncatedData, "span needs %d bytes, got %d", SpanSize, len(b))
	}
	copy(s[:], b)
	return s, nil
}

// Length is the value of the span.
func (s Span) Length() uint64 {
	return DecodeSpan(s)
}
