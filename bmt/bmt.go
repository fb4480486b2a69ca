// Package bmt computes Binary Merkle Tree hashes,
// the content addresses of Swarm chunks.
//
// The tree is fixed: the payload is zero-padded to bzz.ChunkSize bytes
// and adjacent 32-byte segments are hashed pairwise with Keccak-256,
// halving the buffer each round,
// until a single 32-byte root remains.
// The same seven rounds run whatever the payload length.
// The chunk address is the Keccak-256 hash of the span followed by that root.
package bmt

import (
	"context"
	"hash"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"
	"golang.org/x/sync/errgroup"

	"github.com/bobg/bzz"
)

// Hasher computes BMT hashes using a working buffer it owns.
// A Hasher may be reused for any number of hashes
// but is not safe for concurrent use.
type Hasher struct {
	buf [bzz.ChunkSize]byte
	h   hash.Hash
}

// New produces a new Hasher.
func New() *Hasher {
	return &Hasher{h: sha3.NewLegacyKeccak256()}
}

// RootHash computes the BMT root of payload.
// An empty payload is accepted and hashes like bzz.ChunkSize zero bytes.
func (h *Hasher) RootHash(payload []byte) ([32]byte, error) {
	var root [32]byte
	if len(payload) > bzz.ChunkSize {
		return root, errors.Wrapf(bzz.ErrPayloadTooLarge, "payload is %d bytes", len(payload))
	}

	n := copy(h.buf[:], payload)
	for i := n; i < len(h.buf); i++ {
		h.buf[i] = 0
	}

	// Each round replaces the pair at [2i, 2i+64) with its hash at [i, i+32).
	// Writes stay behind the reads, so this can happen in place.
	for size := len(h.buf); size > bzz.SectionSize; size /= 2 {
		for i := 0; i < size/2; i += bzz.SectionSize {
			h.h.Reset()
			h.h.Write(h.buf[2*i : 2*i+2*bzz.SectionSize])
			h.h.Sum(h.buf[i:i])
		}
	}

	copy(root[:], h.buf[:bzz.SectionSize])
	return root, nil
}

// Hash computes the address of chunk data in wire format:
// the Keccak-256 hash of the span followed by the BMT root of the payload.
func (h *Hasher) Hash(data []byte) (bzz.Address, error) {
	if len(data) < bzz.SpanSize {
		return bzz.Zero, errors.Wrapf(bzz.ErrTruncatedData, "chunk data is %d bytes", len(data))
	}
	root, err := h.RootHash(data[bzz.SpanSize:])
	if err != nil {
		return bzz.Zero, err
	}
	return bzz.Keccak256(data[:bzz.SpanSize], root[:]), nil
}

var pool = sync.Pool{
	New: func() interface{} { return New() },
}

// RootHash computes the BMT root of payload with a pooled Hasher.
func RootHash(payload []byte) ([32]byte, error) {
	h := pool.Get().(*Hasher)
	defer pool.Put(h)
	return h.RootHash(payload)
}

// Hash computes the address of chunk data with a pooled Hasher.
func Hash(data []byte) (bzz.Address, error) {
	h := pool.Get().(*Hasher)
	defer pool.Put(h)
	return h.Hash(data)
}

// HashMulti hashes many chunks concurrently.
// The result is in the same order as the input.
// Any error fails the whole call.
func HashMulti(ctx context.Context, datas [][]byte) ([]bzz.Address, error) {
	result := make([]bzz.Address, len(datas))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, data := range datas {
		i, data := i, data
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			addr, err := Hash(data)
			if err != nil {
				return errors.Wrapf(err, "hashing chunk %d", i)
			}
			result[i] = addr
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}
