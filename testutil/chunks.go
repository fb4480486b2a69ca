package testutil

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/bobg/bzz"
	"github.com/bobg/bzz/cac"
	"github.com/bobg/bzz/signer"
	"github.com/bobg/bzz/soc"
)

// Chunks tests storing and retrieving content-addressed and single-owner chunks,
// the added flag of Put,
// and the not-found error of Get.
func Chunks(ctx context.Context, t *testing.T, store bzz.Store) {
	inner, err := cac.New([]byte("Sphinx of black quartz, judge my vow."))
	if err != nil {
		t.Fatal(err)
	}
	s, err := signer.Generate()
	if err != nil {
		t.Fatal(err)
	}
	sch, err := soc.New(inner, soc.ID{7}, s)
	if err != nil {
		t.Fatal(err)
	}

	for _, ch := range []bzz.Chunk{inner, sch} {
		added, err := bzz.PutChunk(ctx, store, ch)
		if err != nil {
			t.Fatal(err)
		}
		if !added {
			t.Errorf("chunk %s not added on first put", ch.Address())
		}

		added, err = bzz.PutChunk(ctx, store, ch)
		if err != nil {
			t.Fatal(err)
		}
		if added {
			t.Errorf("chunk %s added on second put", ch.Address())
		}

		got, err := store.Get(ctx, ch.Address())
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, ch.Data()) {
			t.Errorf("data mismatch for chunk %s", ch.Address())
		}
	}

	got, err := store.Get(ctx, sch.Address())
	if err != nil {
		t.Fatal(err)
	}
	if _, err = soc.FromData(got, sch.Address()); err != nil {
		t.Errorf("single-owner chunk does not verify after round trip: %s", err)
	}

	_, err = store.Get(ctx, bzz.Address{0xff, 0xfe})
	if !errors.Is(err, bzz.ErrNotFound) {
		t.Errorf("got error %v, want %v", err, bzz.ErrNotFound)
	}
}
