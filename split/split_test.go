package split

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bobg/bzz"
	"github.com/bobg/bzz/cac"
	"github.com/bobg/bzz/store/mem"
)

func TestSplitEmpty(t *testing.T) {
	m := mem.New()
	w := NewWriter(context.Background(), m)
	err := w.Close()
	if !errors.Is(err, bzz.ErrInvalidLength) {
		t.Errorf("got error %v, want %v", err, bzz.ErrInvalidLength)
	}
	if w.Root != bzz.Zero {
		t.Errorf("got Root of %s, want %s", w.Root, bzz.Zero)
	}
}

func TestSplitRoundTrip(t *testing.T) {
	sizes := []int{
		1,
		31,
		bzz.ChunkSize - 1,
		bzz.ChunkSize,
		bzz.ChunkSize + 1,
		3*bzz.ChunkSize + 17,
		bzz.Branches * bzz.ChunkSize,
		bzz.Branches*bzz.ChunkSize + 1,
		(bzz.Branches+1)*bzz.ChunkSize + 5000,
	}

	ctx := context.Background()
	for _, size := range sizes {
		data := make([]byte, size)
		rand.New(rand.NewSource(int64(size))).Read(data)

		m := mem.New()
		root, err := Write(ctx, m, bytes.NewReader(data))
		if err != nil {
			t.Fatalf("size %d: %s", size, err)
		}

		buf := new(bytes.Buffer)
		if err = Read(ctx, m, root, buf); err != nil {
			t.Fatalf("size %d: %s", size, err)
		}
		if diff := cmp.Diff(data, buf.Bytes()); diff != "" {
			t.Errorf("size %d: mismatch (-want +got):\n%s", size, diff)
		}

		// The root's span is the content length.
		rootData, err := m.Get(ctx, root)
		if err != nil {
			t.Fatal(err)
		}
		ch, err := cac.FromDataAt(rootData, root)
		if err != nil {
			t.Fatal(err)
		}
		if got := ch.Span().Length(); got != uint64(size) {
			t.Errorf("size %d: root span is %d", size, got)
		}
	}
}

func TestSplitSingleChunk(t *testing.T) {
	ctx := context.Background()
	root, err := Write(ctx, mem.New(), bytes.NewReader([]byte{1, 2, 3}))
	if err != nil {
		t.Fatal(err)
	}
	if root.String() != "ca6357a08e317d15ec560fef34e4c45f8f19f01c372aa70f1da72bfa7f1a4338" {
		t.Errorf("got root %s", root)
	}
}

func TestSplitShape(t *testing.T) {
	ctx := context.Background()

	data := make([]byte, bzz.ChunkSize+1)
	rand.New(rand.NewSource(1)).Read(data)

	left, err := cac.New(data[:bzz.ChunkSize])
	if err != nil {
		t.Fatal(err)
	}
	right, err := cac.New(data[bzz.ChunkSize:])
	if err != nil {
		t.Fatal(err)
	}
	la, ra := left.Address(), right.Address()
	want, err := cac.NewWithSpan(append(la[:], ra[:]...), uint64(len(data)))
	if err != nil {
		t.Fatal(err)
	}

	m := mem.New()
	root, err := Write(ctx, m, bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if root != want.Address() {
		t.Errorf("got root %s, want %s", root, want.Address())
	}

	var n int
	err = m.ListAddrs(ctx, bzz.Zero, func(bzz.Address) error {
		n++
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("got %d chunks in store, want 3", n)
	}
}

// Piecemeal writes produce the same tree as a single write.
func TestSplitWriteSizes(t *testing.T) {
	ctx := context.Background()

	data := make([]byte, 5*bzz.ChunkSize+123)
	rand.New(rand.NewSource(2)).Read(data)

	whole, err := Write(ctx, mem.New(), bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}

	w := NewWriter(ctx, mem.New())
	for rest := data; len(rest) > 0; {
		n := 1000
		if n > len(rest) {
			n = len(rest)
		}
		if _, err := w.Write(rest[:n]); err != nil {
			t.Fatal(err)
		}
		rest = rest[n:]
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if w.Root != whole {
		t.Errorf("got root %s, want %s", w.Root, whole)
	}
}

func TestReadErrors(t *testing.T) {
	ctx := context.Background()

	data := make([]byte, 2*bzz.ChunkSize)
	rand.New(rand.NewSource(3)).Read(data)

	m := mem.New()
	root, err := Write(ctx, m, bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}

	leaf, err := cac.New(data[bzz.ChunkSize:])
	if err != nil {
		t.Fatal(err)
	}

	// Replace the second leaf with different data at the same address.
	bad := mem.New()
	err = m.ListAddrs(ctx, bzz.Zero, func(addr bzz.Address) error {
		d, err := m.Get(ctx, addr)
		if err != nil {
			return err
		}
		if addr == leaf.Address() {
			d = append([]byte(nil), d...)
			d[len(d)-1] ^= 1
		}
		_, err = bad.Put(ctx, addr, d)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	err = Read(ctx, bad, root, new(bytes.Buffer))
	if !errors.Is(err, bzz.ErrAddressMismatch) {
		t.Errorf("got error %v, want %v", err, bzz.ErrAddressMismatch)
	}

	err = Read(ctx, mem.New(), root, new(bytes.Buffer))
	if !errors.Is(err, bzz.ErrNotFound) {
		t.Errorf("got error %v, want %v", err, bzz.ErrNotFound)
	}
}
