// Package transform implements a chunk store that can transform chunk data into and out of a nested store.
package transform

import (
	"context"

	"github.com/pkg/errors"

	"github.com/bobg/bzz"
	"github.com/bobg/bzz/store"
)

var _ bzz.Store = &Store{}

// Store is a chunk store wrapping a nested store and a Transformer.
// Chunk data is transformed according to the Transformer on its way in and out of the nested store.
// Addresses are not transformed:
// the nested store holds each chunk's transformed data at the chunk's own address.
type Store struct {
	s bzz.Store
	x Transformer
}

// Transformer tells how to transform chunk data on its way into and out of a Store.
// Out should be the inverse of In.
type Transformer interface {
	// In transforms chunk data on its way into the store.
	In(context.Context, []byte) ([]byte, error)

	// Out transforms chunk data on its way out of the store.
	Out(context.Context, []byte) ([]byte, error)
}

// New produces a new Store.
func New(s bzz.Store, x Transformer) *Store {
	return &Store{s: s, x: x}
}

// Get gets the chunk data at addr.
func (s *Store) Get(ctx context.Context, addr bzz.Address) ([]byte, error) {
	data, err := s.s.Get(ctx, addr)
	if err != nil {
		return nil, err
	}
	data, err = s.x.Out(ctx, data)
	return data, errors.Wrapf(err, "untransforming chunk %s", addr)
}

// Put adds a chunk to the store if it wasn't already present.
func (s *Store) Put(ctx context.Context, addr bzz.Address, data []byte) (bool, error) {
	xdata, err := s.x.In(ctx, data)
	if err != nil {
		return false, errors.Wrapf(err, "transforming chunk %s", addr)
	}
	added, err := s.s.Put(ctx, addr, xdata)
	return added, errors.Wrap(err, "storing transformed chunk")
}

// ListAddrs produces all chunk addresses in the store, in lexicographic order.
func (s *Store) ListAddrs(ctx context.Context, start bzz.Address, f func(bzz.Address) error) error {
	return s.s.ListAddrs(ctx, start, f)
}

func init() {
	store.Register("transform", func(ctx context.Context, conf map[string]interface{}) (bzz.Store, error) {
		nested, err := store.Nested(ctx, conf, "nested")
		if err != nil {
			return nil, err
		}
		name, err := store.String(conf, "transformer")
		if err != nil {
			return nil, err
		}
		alg, err := ParseAlgorithm(name)
		if err != nil {
			return nil, err
		}
		return New(nested, Compress{Algorithm: alg}), nil
	})
}
