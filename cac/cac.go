// Package cac builds and validates content-addressed chunks.
package cac

import (
	"context"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/bobg/bzz"
	"github.com/bobg/bzz/bmt"
)

var _ bzz.Chunk = &Chunk{}

// Chunk is a content-addressed chunk.
// Its address is always the BMT hash of its data.
type Chunk struct {
	addr bzz.Address
	data []byte // span followed by payload
}

// New creates a chunk whose span is the length of its payload.
// The payload must be 1 to bzz.ChunkSize bytes long.
func New(payload []byte) (*Chunk, error) {
	return NewWithSpan(payload, uint64(len(payload)))
}

// NewWithSpan creates a chunk with an explicit span.
// Intermediate chunks of a split tree use this:
// their payload is a list of child addresses
// and their span is the length of the data beneath them.
func NewWithSpan(payload []byte, span uint64) (*Chunk, error) {
	if len(payload) > bzz.ChunkSize {
		return nil, errors.Wrapf(bzz.ErrPayloadTooLarge, "payload is %d bytes", len(payload))
	}
	if len(payload) == 0 {
		return nil, errors.Wrap(bzz.ErrInvalidLength, "empty payload")
	}
	if span <= bzz.ChunkSize && span != uint64(len(payload)) {
		return nil, errors.Wrapf(bzz.ErrInvalidLength, "single-span chunk has span %d but payload length %d", span, len(payload))
	}
	s, err := bzz.NewSpan(span)
	if err != nil {
		return nil, err
	}

	data := make([]byte, 0, bzz.SpanSize+len(payload))
	data = append(data, s[:]...)
	data = append(data, payload...)

	addr, err := bmt.Hash(data)
	if err != nil {
		return nil, errors.Wrap(err, "computing address")
	}
	return &Chunk{addr: addr, data: data}, nil
}

// FromData creates a chunk from its wire format,
// computing its address.
func FromData(data []byte) (*Chunk, error) {
	if len(data) <= bzz.SpanSize {
		return nil, errors.Wrapf(bzz.ErrTruncatedData, "chunk data is %d bytes", len(data))
	}
	addr, err := bmt.Hash(data)
	if err != nil {
		return nil, err
	}
	return &Chunk{addr: addr, data: append([]byte(nil), data...)}, nil
}

// FromDataAt is like FromData
// but fails with bzz.ErrAddressMismatch unless the data belongs at addr.
func FromDataAt(data []byte, addr bzz.Address) (*Chunk, error) {
	ch, err := FromData(data)
	if err != nil {
		return nil, err
	}
	if ch.addr != addr {
		return nil, errors.Wrapf(bzz.ErrAddressMismatch, "data hashes to %s, not %s", ch.addr, addr)
	}
	return ch, nil
}

// Address implements bzz.Chunk.
func (c *Chunk) Address() bzz.Address { return c.addr }

// Data implements bzz.Chunk.
func (c *Chunk) Data() []byte { return c.data }

// Span implements bzz.Chunk.
func (c *Chunk) Span() bzz.Span {
	var s bzz.Span
	copy(s[:], c.data)
	return s
}

// Payload implements bzz.Chunk.
func (c *Chunk) Payload() []byte { return c.data[bzz.SpanSize:] }

// Valid tells whether data is the wire format of the content-addressed chunk at claimed.
func Valid(data []byte, claimed bzz.Address) bool {
	return AssertValid(data, claimed) == nil
}

// AssertValid is like Valid but reports why data is not valid.
// A mismatch is reported as bzz.ErrAddressMismatch.
func AssertValid(data []byte, claimed bzz.Address) error {
	addr, err := bmt.Hash(data)
	if err != nil {
		return err
	}
	if addr != claimed {
		return errors.Wrapf(bzz.ErrAddressMismatch, "data hashes to %s, not %s", addr, claimed)
	}
	return nil
}

// NewMulti creates a chunk for each payload, concurrently.
// The result is in the same order as the input.
func NewMulti(ctx context.Context, payloads [][]byte) ([]*Chunk, error) {
	result := make([]*Chunk, len(payloads))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, payload := range payloads {
		i, payload := i, payload
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ch, err := New(payload)
			if err != nil {
				return errors.Wrapf(err, "creating chunk %d", i)
			}
			result[i] = ch
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}
