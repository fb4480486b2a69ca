package transform

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"strings"
	"testing"
	"testing/quick"

	"github.com/bobg/bzz"
	"github.com/bobg/bzz/cac"
	"github.com/bobg/bzz/store"
	"github.com/bobg/bzz/store/mem"
	"github.com/bobg/bzz/testutil"
)

const text = `The ships hung in the sky in much the same way that bricks don't. `

func TestTransform(t *testing.T) {
	ctx := context.Background()

	compressible := []byte(strings.Repeat(text, 5000))
	random := testutil.Data(1, 100000)

	for _, alg := range []Algorithm{None, LZ4, Zstd} {
		alg := alg
		t.Run(alg.String(), func(t *testing.T) {
			t.Run("compressible", func(t *testing.T) {
				testutil.ReadWrite(ctx, t, New(mem.New(), Compress{Algorithm: alg}), compressible)
			})
			t.Run("random", func(t *testing.T) {
				testutil.ReadWrite(ctx, t, New(mem.New(), Compress{Algorithm: alg}), random)
			})
			t.Run("chunks", func(t *testing.T) {
				testutil.Chunks(ctx, t, New(mem.New(), Compress{Algorithm: alg}))
			})
		})
	}
}

func TestCompressShrinks(t *testing.T) {
	ctx := context.Background()

	ch, err := cac.New([]byte(strings.Repeat(text, 50)[:bzz.ChunkSize]))
	if err != nil {
		t.Fatal(err)
	}

	for _, alg := range []Algorithm{LZ4, Zstd} {
		nested := mem.New()
		s := New(nested, Compress{Algorithm: alg})
		if _, err := bzz.PutChunk(ctx, s, ch); err != nil {
			t.Fatal(err)
		}
		stored, err := nested.Get(ctx, ch.Address())
		if err != nil {
			t.Fatal(err)
		}
		if len(stored) >= len(ch.Data()) {
			t.Errorf("%s: stored %d bytes for %d-byte chunk", alg, len(stored), len(ch.Data()))
		}
		if Algorithm(stored[0]) != alg {
			t.Errorf("stored with algorithm %s, want %s", Algorithm(stored[0]), alg)
		}
	}
}

func TestCompressRoundTrip(t *testing.T) {
	ctx := context.Background()
	for _, alg := range []Algorithm{None, LZ4, Zstd} {
		c := Compress{Algorithm: alg}
		f := func(inp []byte) bool {
			x, err := c.In(ctx, inp)
			if err != nil {
				t.Log(err)
				return false
			}
			// Any Compress can read any algorithm's output.
			out, err := Compress{}.Out(ctx, x)
			if err != nil {
				t.Log(err)
				return false
			}
			return bytes.Equal(inp, out)
		}
		if err := quick.Check(f, nil); err != nil {
			t.Errorf("%s: %s", alg, err)
		}
	}
}

func TestOutErrors(t *testing.T) {
	ctx := context.Background()
	for _, inp := range [][]byte{nil, {0}, {9, 1, 0}, {0, 5, 1, 2}} {
		if _, err := (Compress{}).Out(ctx, inp); err == nil {
			t.Errorf("got no error for %x", inp)
		}
	}

	// Corrupt headers claiming huge sizes must fail without allocating.
	huge := []byte{0, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7f, 0}
	tooBig := binary.AppendUvarint([]byte{0}, MaxSize+1)
	for _, alg := range []Algorithm{None, LZ4, Zstd} {
		for _, hdr := range [][]byte{huge, tooBig} {
			inp := append([]byte{byte(alg)}, hdr[1:]...)
			_, err := Compress{}.Out(ctx, inp)
			if !errors.Is(err, bzz.ErrInvalidLength) {
				t.Errorf("%s: got %v for header %x, want ErrInvalidLength", alg, err, inp)
			}
		}
	}

	if _, err := (Compress{Algorithm: Zstd}).In(ctx, make([]byte, MaxSize+1)); !errors.Is(err, bzz.ErrInvalidLength) {
		t.Errorf("got %v for oversized input, want ErrInvalidLength", err)
	}
}

func TestCreate(t *testing.T) {
	conf := map[string]interface{}{
		"transformer": "zstd",
		"nested":      map[string]interface{}{"type": "mem"},
	}
	s, err := store.Create(context.Background(), "transform", conf)
	if err != nil {
		t.Fatal(err)
	}
	testutil.Chunks(context.Background(), t, s)

	conf["transformer"] = "bogus"
	if _, err = store.Create(context.Background(), "transform", conf); err == nil {
		t.Error("got no error for unknown transformer")
	}
}
