package feed

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/pkg/errors"

	"github.com/bobg/bzz"
	"github.com/bobg/bzz/cac"
	"github.com/bobg/bzz/soc"
)

// UpdateSize is the size of an update payload:
// an eight-byte big-endian Unix timestamp followed by a chunk address.
const UpdateSize = 8 + bzz.AddressSize

// Update is the payload of a feed update.
// It points at the content the feed held as of Timestamp.
type Update struct {
	Timestamp time.Time // seconds resolution
	Reference bzz.Address
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (u Update) MarshalBinary() ([]byte, error) {
	ts := u.Timestamp.Unix()
	if ts < 0 {
		return nil, errors.Errorf("timestamp %s is before the epoch", u.Timestamp)
	}
	b := make([]byte, UpdateSize)
	binary.BigEndian.PutUint64(b, uint64(ts))
	copy(b[8:], u.Reference[:])
	return b, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (u *Update) UnmarshalBinary(b []byte) error {
	if len(b) != UpdateSize {
		return errors.Wrapf(bzz.ErrInvalidLength, "update payload is %d bytes, want %d", len(b), UpdateSize)
	}
	u.Timestamp = time.Unix(int64(binary.BigEndian.Uint64(b)), 0).UTC()
	copy(u.Reference[:], b[8:])
	return nil
}

// ParseUpdate parses the payload of a feed update chunk.
func ParseUpdate(payload []byte) (Update, error) {
	var u Update
	err := u.UnmarshalBinary(payload)
	return u, err
}

// NewUpdate creates the single-owner chunk for update u at idx in s's feed with topic t.
func NewUpdate(s soc.Signer, t Topic, idx Index, u Update) (*soc.Chunk, error) {
	id, err := Identifier(t, idx)
	if err != nil {
		return nil, err
	}
	payload, err := u.MarshalBinary()
	if err != nil {
		return nil, err
	}
	inner, err := cac.New(payload)
	if err != nil {
		return nil, errors.Wrap(err, "creating update payload chunk")
	}
	return soc.New(inner, id, s)
}

// Lookup finds the latest update in owner's sequential feed with topic t
// by fetching updates 0, 1, 2, ... from g until one is missing.
// Every fetched update is verified against its address.
// It returns the latest update and its index,
// or bzz.ErrNotFound if the feed has no updates.
func Lookup(ctx context.Context, g bzz.Getter, t Topic, owner bzz.EthAddress) (Update, uint64, error) {
	var (
		latest Update
		found  bool
		n      uint64
	)
	for ; ; n++ {
		if err := ctx.Err(); err != nil {
			return Update{}, 0, err
		}

		addr := soc.Address(SequentialIdentifier(t, n), owner)
		data, err := g.Get(ctx, addr)
		if errors.Is(err, bzz.ErrNotFound) {
			break
		}
		if err != nil {
			return Update{}, 0, errors.Wrapf(err, "getting update %d", n)
		}

		ch, err := soc.FromData(data, addr)
		if err != nil {
			return Update{}, 0, errors.Wrapf(err, "verifying update %d", n)
		}
		latest, err = ParseUpdate(ch.Payload())
		if err != nil {
			return Update{}, 0, errors.Wrapf(err, "parsing update %d", n)
		}
		found = true
	}
	if !found {
		return Update{}, 0, bzz.ErrNotFound
	}
	return latest, n - 1, nil
}
