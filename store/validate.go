package store

import (
	"context"

	"github.com/pkg/errors"

	"github.com/bobg/bzz"
	"github.com/bobg/bzz/cac"
	"github.com/bobg/bzz/soc"
)

// Valid tells whether data belongs at addr,
// either as a content-addressed chunk or as a single-owner chunk.
func Valid(addr bzz.Address, data []byte) bool {
	return cac.Valid(data, addr) || soc.Valid(data, addr)
}

// ParseChunk interprets data as the chunk at addr.
// It tries content addressing first, then single ownership.
// If neither matches it returns an error wrapping bzz.ErrAddressMismatch.
func ParseChunk(addr bzz.Address, data []byte) (bzz.Chunk, error) {
	if ch, err := cac.FromDataAt(data, addr); err == nil {
		return ch, nil
	}
	if ch, err := soc.FromData(data, addr); err == nil {
		return ch, nil
	}
	return nil, errors.Wrapf(bzz.ErrAddressMismatch, "%d bytes of data at %s", len(data), addr)
}

// GetChunk gets the chunk at addr from g and checks that it belongs there.
func GetChunk(ctx context.Context, g bzz.Getter, addr bzz.Address) (bzz.Chunk, error) {
	data, err := g.Get(ctx, addr)
	if err != nil {
		return nil, err
	}
	return ParseChunk(addr, data)
}
