package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/bobg/bzz"
	"github.com/bobg/bzz/cac"
	"github.com/bobg/bzz/signer"
	"github.com/bobg/bzz/soc"
	. "github.com/bobg/bzz/store"
	"github.com/bobg/bzz/store/mem"
)

func TestGetChunk(t *testing.T) {
	ctx := context.Background()

	inner, err := cac.New([]byte("payload"))
	if err != nil {
		t.Fatal(err)
	}
	s, err := signer.Generate()
	if err != nil {
		t.Fatal(err)
	}
	sch, err := soc.New(inner, soc.ID{1}, s)
	if err != nil {
		t.Fatal(err)
	}

	m := mem.New()
	for _, ch := range []bzz.Chunk{inner, sch} {
		if !Valid(ch.Address(), ch.Data()) {
			t.Errorf("chunk %s is not valid", ch.Address())
		}
		if _, err := bzz.PutChunk(ctx, m, ch); err != nil {
			t.Fatal(err)
		}
	}

	got, err := GetChunk(ctx, m, inner.Address())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got.(*cac.Chunk); !ok {
		t.Errorf("got %T, want *cac.Chunk", got)
	}

	got, err = GetChunk(ctx, m, sch.Address())
	if err != nil {
		t.Fatal(err)
	}
	if g, ok := got.(*soc.Chunk); !ok {
		t.Errorf("got %T, want *soc.Chunk", got)
	} else if g.Owner() != s.Address() {
		t.Errorf("got owner %s, want %s", g.Owner(), s.Address())
	}

	// Content stored under the wrong address.
	if _, err = m.Put(ctx, bzz.Address{1}, inner.Data()); err != nil {
		t.Fatal(err)
	}
	if Valid(bzz.Address{1}, inner.Data()) {
		t.Error("misplaced chunk is valid")
	}
	_, err = GetChunk(ctx, m, bzz.Address{1})
	if !errors.Is(err, bzz.ErrAddressMismatch) {
		t.Errorf("got error %v, want %v", err, bzz.ErrAddressMismatch)
	}

	_, err = GetChunk(ctx, m, bzz.Address{2})
	if !errors.Is(err, bzz.ErrNotFound) {
		t.Errorf("got error %v, want %v", err, bzz.ErrNotFound)
	}
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()

	s, err := Create(ctx, "mem", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*mem.Store); !ok {
		t.Errorf("got %T, want *mem.Store", s)
	}

	if _, err = Create(ctx, "no such store", nil); err == nil {
		t.Error("got no error creating an unregistered store type")
	}

	var found bool
	for _, typ := range Types() {
		if typ == "mem" {
			found = true
		}
	}
	if !found {
		t.Errorf("mem missing from %v", Types())
	}
}
