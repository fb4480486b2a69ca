// Package mem implements an in-memory chunk store.
package mem

import (
	"context"
	"sort"
	"sync"

	"github.com/bobg/bzz"
	"github.com/bobg/bzz/store"
)

var _ bzz.Store = &Store{}

// Store is a memory-based implementation of a chunk store.
type Store struct {
	mu     sync.Mutex
	chunks map[bzz.Address][]byte
}

// New produces a new Store.
func New() *Store {
	return &Store{
		chunks: make(map[bzz.Address][]byte),
	}
}

// Get gets the chunk data at addr.
func (s *Store) Get(_ context.Context, addr bzz.Address) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(addr)
}

// Caller must obtain a lock.
func (s *Store) get(addr bzz.Address) ([]byte, error) {
	if data, ok := s.chunks[addr]; ok {
		return data, nil
	}
	return nil, bzz.ErrNotFound
}

// GetMulti gets multiple chunks in one call.
func (s *Store) GetMulti(_ context.Context, addrs []bzz.Address) (map[bzz.Address][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		result = make(map[bzz.Address][]byte)
		errmap bzz.MultiErr
	)
	for _, addr := range addrs {
		data, err := s.get(addr)
		if err != nil {
			if errmap == nil {
				errmap = make(bzz.MultiErr)
			}
			errmap[addr] = err
			continue
		}
		result[addr] = data
	}
	if errmap == nil {
		return result, nil
	}
	return result, errmap
}

// Put adds a chunk to the store if it wasn't already present.
// The store keeps its own copy of data.
func (s *Store) Put(_ context.Context, addr bzz.Address, data []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.put(addr, data), nil
}

// Caller must obtain a lock.
func (s *Store) put(addr bzz.Address, data []byte) bool {
	if _, ok := s.chunks[addr]; ok {
		return false
	}
	s.chunks[addr] = append([]byte(nil), data...)
	return true
}

// PutMulti adds multiple chunks to the store in one call.
func (s *Store) PutMulti(_ context.Context, chunks []bzz.Chunk) (map[bzz.Address]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make(map[bzz.Address]bool, len(chunks))
	for _, ch := range chunks {
		added := s.put(ch.Address(), ch.Data())
		result[ch.Address()] = result[ch.Address()] || added
	}
	return result, nil
}

// Len is the number of chunks in the store.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chunks)
}

// ListAddrs produces all chunk addresses in the store, in lexicographic order.
func (s *Store) ListAddrs(ctx context.Context, start bzz.Address, f func(bzz.Address) error) error {
	s.mu.Lock()
	addrs := make([]bzz.Address, 0, len(s.chunks))
	for addr := range s.chunks {
		addrs = append(addrs, addr)
	}
	s.mu.Unlock()

	sort.Slice(addrs, func(i, j int) bool { return addrs[i].Less(addrs[j]) })
	index := sort.Search(len(addrs), func(n int) bool {
		return start.Less(addrs[n])
	})

	for i := index; i < len(addrs); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := f(addrs[i]); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	store.Register("mem", func(context.Context, map[string]interface{}) (bzz.Store, error) {
		return New(), nil
	})
}
