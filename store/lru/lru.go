// Package lru implements a chunk store that acts as a least-recently-used cache for a nested chunk store.
package lru

import (
	"context"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/bobg/bzz"
	"github.com/bobg/bzz/store"
)

var _ bzz.Store = &Store{}

// Store implements a memory-based least-recently-used cache for a chunk store.
// Writes pass through to the underlying chunk store.
type Store struct {
	c *lru.Cache // Address->[]byte
	s bzz.Store
}

// New produces a new Store backed by `s` and caching up to `size` chunks.
func New(s bzz.Store, size int) (*Store, error) {
	c, err := lru.New(size)
	return &Store{s: s, c: c}, errors.Wrap(err, "creating cache")
}

// Get gets the chunk data at addr.
func (s *Store) Get(ctx context.Context, addr bzz.Address) ([]byte, error) {
	if got, ok := s.c.Get(addr); ok {
		return got.([]byte), nil
	}
	data, err := s.s.Get(ctx, addr)
	if err != nil {
		return nil, err
	}
	s.c.Add(addr, data)
	return data, nil
}

// Put adds a chunk to the store if it wasn't already present.
func (s *Store) Put(ctx context.Context, addr bzz.Address, data []byte) (bool, error) {
	added, err := s.s.Put(ctx, addr, data)
	if err != nil {
		return false, err
	}
	s.c.Add(addr, append([]byte(nil), data...))
	return added, nil
}

// ListAddrs produces all chunk addresses in the store, in lexicographic order.
func (s *Store) ListAddrs(ctx context.Context, start bzz.Address, f func(bzz.Address) error) error {
	return s.s.ListAddrs(ctx, start, f)
}

// Len is the number of cached chunks.
func (s *Store) Len() int {
	return s.c.Len()
}

func init() {
	store.Register("lru", func(ctx context.Context, conf map[string]interface{}) (bzz.Store, error) {
		size, err := store.Int(conf, "size")
		if err != nil {
			return nil, err
		}
		nested, err := store.Nested(ctx, conf, "nested")
		if err != nil {
			return nil, err
		}
		return New(nested, size)
	})
}
