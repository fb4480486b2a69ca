// Package verify implements a chunk store that refuses data that does not belong at its address.
package verify

import (
	"context"

	"github.com/pkg/errors"

	"github.com/bobg/bzz"
	"github.com/bobg/bzz/store"
)

var _ bzz.Store = &Store{}

// Store checks every chunk going into or coming out of a nested store.
// Data is accepted at an address if it is a valid content-addressed chunk
// or a valid single-owner chunk there.
// Otherwise Put and Get fail with an error wrapping bzz.ErrAddressMismatch.
type Store struct {
	s bzz.Store
}

// New produces a new Store verifying chunks in s.
func New(s bzz.Store) *Store {
	return &Store{s: s}
}

func (s *Store) Get(ctx context.Context, addr bzz.Address) ([]byte, error) {
	data, err := s.s.Get(ctx, addr)
	if err != nil {
		return nil, err
	}
	if !store.Valid(addr, data) {
		return nil, errors.Wrapf(bzz.ErrAddressMismatch, "stored data for %s", addr)
	}
	return data, nil
}

func (s *Store) Put(ctx context.Context, addr bzz.Address, data []byte) (bool, error) {
	if !store.Valid(addr, data) {
		return false, errors.Wrapf(bzz.ErrAddressMismatch, "putting %d bytes at %s", len(data), addr)
	}
	return s.s.Put(ctx, addr, data)
}

func (s *Store) ListAddrs(ctx context.Context, start bzz.Address, f func(bzz.Address) error) error {
	return s.s.ListAddrs(ctx, start, f)
}

func init() {
	store.Register("verify", func(ctx context.Context, conf map[string]interface{}) (bzz.Store, error) {
		nested, err := store.Nested(ctx, conf, "nested")
		if err != nil {
			return nil, err
		}
		return New(nested), nil
	})
}
