package bmt

import (
	"context"
	"encoding/hex"
	"errors"
	"math/rand"
	"testing"

	"pgregory.net/rapid"

	"github.com/bobg/bzz"
)

// refRootHash is a straightforward recursive rendition of the tree,
// slow but easy to see is correct.
func refRootHash(payload []byte) [32]byte {
	buf := make([]byte, bzz.ChunkSize)
	copy(buf, payload)
	return refHash(buf)
}

func refHash(section []byte) [32]byte {
	if len(section) == 2*bzz.SectionSize {
		return bzz.Keccak256(section)
	}
	half := len(section) / 2
	left := refHash(section[:half])
	right := refHash(section[half:])
	return bzz.Keccak256(left[:], right[:])
}

func TestVectors(t *testing.T) {
	t.Run("empty root", func(t *testing.T) {
		got, err := RootHash(nil)
		if err != nil {
			t.Fatal(err)
		}
		const want = "ffd70157e48063fc33c97a050f7f640233bf646cc98d9524c6b92bcf3ab56f83"
		if hex.EncodeToString(got[:]) != want {
			t.Errorf("got %x, want %s", got, want)
		}
	})

	t.Run("1,2,3", func(t *testing.T) {
		data := []byte{3, 0, 0, 0, 0, 0, 0, 0, 1, 2, 3}
		got, err := Hash(data)
		if err != nil {
			t.Fatal(err)
		}
		const want = "ca6357a08e317d15ec560fef34e4c45f8f19f01c372aa70f1da72bfa7f1a4338"
		if got.String() != want {
			t.Errorf("got %s, want %s", got, want)
		}
	})
}

func TestReference(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	h := New()
	for _, size := range []int{0, 1, 31, 32, 33, 64, 65, 127, 128, 1000, 2048, 4095, 4096} {
		payload := make([]byte, size)
		rng.Read(payload)

		got, err := h.RootHash(payload)
		if err != nil {
			t.Fatalf("size %d: %s", size, err)
		}
		if want := refRootHash(payload); got != want {
			t.Errorf("size %d: got %x, want %x", size, got, want)
		}
	}
}

func TestDeterminism(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		payload := rapid.SliceOfN(rapid.Byte(), 1, bzz.ChunkSize).Draw(t, "payload")
		span, err := bzz.NewSpan(uint64(len(payload)))
		if err != nil {
			t.Fatal(err)
		}
		data := append(span[:], payload...)

		a1, err := Hash(data)
		if err != nil {
			t.Fatal(err)
		}
		a2, err := New().Hash(data)
		if err != nil {
			t.Fatal(err)
		}
		if a1 != a2 {
			t.Fatalf("got %s then %s", a1, a2)
		}
	})
}

func TestTrailingZeros(t *testing.T) {
	// Zero padding is implicit, so the root alone cannot tell trailing zeros apart.
	// The span is what distinguishes the two chunks.
	r1, err := RootHash([]byte{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	r2, err := RootHash([]byte{1, 2, 3, 0})
	if err != nil {
		t.Fatal(err)
	}
	if r1 != r2 {
		t.Errorf("roots differ: %x vs %x", r1, r2)
	}

	a1, err := Hash([]byte{3, 0, 0, 0, 0, 0, 0, 0, 1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	a2, err := Hash([]byte{4, 0, 0, 0, 0, 0, 0, 0, 1, 2, 3, 0})
	if err != nil {
		t.Fatal(err)
	}
	if a1 == a2 {
		t.Error("addresses are equal, want different")
	}
}

func TestErrors(t *testing.T) {
	_, err := RootHash(make([]byte, bzz.ChunkSize+1))
	if !errors.Is(err, bzz.ErrPayloadTooLarge) {
		t.Errorf("got %v, want ErrPayloadTooLarge", err)
	}

	_, err = Hash(make([]byte, bzz.SpanSize+bzz.ChunkSize+1))
	if !errors.Is(err, bzz.ErrPayloadTooLarge) {
		t.Errorf("got %v, want ErrPayloadTooLarge", err)
	}

	_, err = Hash([]byte{1, 2, 3})
	if !errors.Is(err, bzz.ErrTruncatedData) {
		t.Errorf("got %v, want ErrTruncatedData", err)
	}
}

func TestHashMulti(t *testing.T) {
	rng := rand.New(rand.NewSource(2))

	var datas [][]byte
	for i := 0; i < 50; i++ {
		payload := make([]byte, 1+rng.Intn(bzz.ChunkSize))
		rng.Read(payload)
		span, err := bzz.NewSpan(uint64(len(payload)))
		if err != nil {
			t.Fatal(err)
		}
		datas = append(datas, append(span[:], payload...))
	}

	got, err := HashMulti(context.Background(), datas)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(datas) {
		t.Fatalf("got %d addresses, want %d", len(got), len(datas))
	}
	for i, data := range datas {
		want, err := Hash(data)
		if err != nil {
			t.Fatal(err)
		}
		if got[i] != want {
			t.Errorf("chunk %d: got %s, want %s", i, got[i], want)
		}
	}

	datas = append(datas, []byte{1})
	if _, err = HashMulti(context.Background(), datas); !errors.Is(err, bzz.ErrTruncatedData) {
		t.Errorf("got %v, want ErrTruncatedData", err)
	}
}
