// Package feed derives the identifiers of feed updates.
//
// A feed is a sequence of single-owner chunks published by one owner under one topic.
// Update N lives at the single-owner chunk whose identifier is
// the Keccak-256 hash of the topic and the eight-byte big-endian encoding of N,
// so anyone who knows the topic and the owner can compute where each update is
// without asking anybody.
package feed

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/pkg/errors"

	"github.com/bobg/bzz"
	"github.com/bobg/bzz/soc"
)

// IndexSize is the size of an encoded feed index.
const IndexSize = 8

// Topic names a feed.
type Topic [32]byte

// TopicFromString derives a topic from a human-readable name.
func TopicFromString(s string) Topic {
	return Topic(bzz.Keccak256([]byte(s)))
}

// TopicFromHex parses a hex-encoded topic.
func TopicFromHex(s string) (Topic, error) {
	var t Topic
	if len(s) != 2*len(t) {
		return t, errors.Wrapf(bzz.ErrInvalidLength, "topic hex has length %d", len(s))
	}
	_, err := hex.Decode(t[:], []byte(s))
	return t, errors.Wrap(err, "decoding topic hex")
}

func (t Topic) String() string {
	return hex.EncodeToString(t[:])
}

// Index is the position of an update in a feed.
// It is one of Sequential, RawIndex, or Epoch.
type Index interface {
	isIndex()
}

// Sequential is the index of the Nth update of a sequential feed.
type Sequential uint64

// RawIndex is a pre-encoded index of exactly IndexSize bytes.
type RawIndex []byte

// Epoch is an index in an epoch-based feed.
// Epoch-based feeds are not supported;
// Identifier fails with bzz.ErrNotImplemented for them.
type Epoch struct {
	Time  uint64
	Level uint8
}

func (Sequential) isIndex() {}
func (RawIndex) isIndex()   {}
func (Epoch) isIndex()      {}

// ParseIndex parses a hex-encoded index of exactly IndexSize bytes.
func ParseIndex(s string) (RawIndex, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "decoding index hex")
	}
	if len(b) != IndexSize {
		return nil, errors.Wrapf(bzz.ErrInvalidLength, "index is %d bytes", len(b))
	}
	return RawIndex(b), nil
}

// Bytes is the big-endian encoding of n.
func (n Sequential) Bytes() []byte {
	b := make([]byte, IndexSize)
	binary.BigEndian.PutUint64(b, uint64(n))
	return b
}

// SequentialIdentifier computes the identifier of update n of the feed with topic t.
func SequentialIdentifier(t Topic, n uint64) soc.ID {
	return soc.ID(bzz.Keccak256(t[:], Sequential(n).Bytes()))
}

// Identifier computes the single-owner chunk identifier of the update at idx in the feed with topic t.
func Identifier(t Topic, idx Index) (soc.ID, error) {
	switch idx := idx.(type) {
	case Sequential:
		return SequentialIdentifier(t, uint64(idx)), nil

	case RawIndex:
		if len(idx) != IndexSize {
			return soc.ID{}, errors.Wrapf(bzz.ErrInvalidLength, "index is %d bytes", len(idx))
		}
		return soc.ID(bzz.Keccak256(t[:], idx)), nil

	case Epoch:
		return soc.ID{}, errors.Wrap(bzz.ErrNotImplemented, "epoch feed index")

	default:
		return soc.ID{}, errors.Errorf("unknown index type %T", idx)
	}
}

// UpdateAddress computes the address of the update at idx in owner's feed with topic t.
func UpdateAddress(t Topic, idx Index, owner bzz.EthAddress) (bzz.Address, error) {
	id, err := Identifier(t, idx)
	if err != nil {
		return bzz.Zero, err
	}
	return soc.Address(id, owner), nil
}
