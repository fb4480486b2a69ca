package bzz

import (
	"context"

	"github.com/pkg/errors"
)

// Getter is a read-only Store (qv).
type Getter interface {
	// Get gets a chunk's data by its address.
	Get(context.Context, Address) ([]byte, error)

	// ListAddrs calls a function for each chunk address in the store in lexicographic order,
	// beginning with the first address _after_ the specified one.
	//
	// The calls reflect at least the set of addresses
	// known at the moment ListAddrs was called.
	// It is unspecified whether later changes,
	// that happen concurrently with ListAddrs,
	// are reflected.
	//
	// If the callback function returns an error,
	// ListAddrs exits with that error.
	ListAddrs(context.Context, Address, func(Address) error) error
}

// Store is a chunk store.
// It maps chunk addresses to chunk data in wire format.
//
// A Store does not itself check that data belongs at its address;
// wrap it in a store/verify.Store for that.
type Store interface {
	Getter

	// Put adds data to the store at addr if it was not already present.
	// It returns a boolean that is true iff the data had to be added.
	Put(ctx context.Context, addr Address, data []byte) (added bool, err error)
}

// ErrNotFound is the error returned
// when a Getter tries to access a non-existent address.
var ErrNotFound = errors.New("not found")

// PutChunk stores a chunk at its address.
func PutChunk(ctx context.Context, s Store, ch Chunk) (bool, error) {
	return s.Put(ctx, ch.Address(), ch.Data())
}
