package bzz

import (
	"errors"
	"testing"

	"pgregory.net/rapid"
)

func TestSpan(t *testing.T) {
	s, err := NewSpan(1)
	if err != nil {
		t.Fatal(err)
	}
	if s != (Span{1, 0, 0, 0, 0, 0, 0, 0}) {
		t.Errorf("got %x, want 0100000000000000", s[:])
	}

	s, err = NewSpan(ChunkSize)
	if err != nil {
		t.Fatal(err)
	}
	if s != (Span{0, 0x10, 0, 0, 0, 0, 0, 0}) {
		t.Errorf("got %x, want 0010000000000000", s[:])
	}

	for _, n := range []uint64{0, MaxSpan + 1, 1 << 63} {
		if _, err := NewSpan(n); !errors.Is(err, ErrInvalidLength) {
			t.Errorf("NewSpan(%d): got error %v, want %v", n, err, ErrInvalidLength)
		}
	}

	if _, err := SpanFromBytes([]byte{1, 2, 3}); !errors.Is(err, ErrTruncatedData) {
		t.Errorf("got error %v, want %v", err, ErrTruncatedData)
	}
}

func TestSpanRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.Uint64Range(1, MaxSpan).Draw(t, "n")
		s, err := NewSpan(n)
		if err != nil {
			t.Fatal(err)
		}
		if got := DecodeSpan(s); got != n {
			t.Fatalf("got %d, want %d", got, n)
		}
		s2, err := SpanFromBytes(append(s[:], 0xff))
		if err != nil {
			t.Fatal(err)
		}
		if s2 != s {
			t.Fatalf("got %x, want %x", s2[:], s[:])
		}
	})
}
