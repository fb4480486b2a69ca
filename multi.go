package bzz

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// MultiGetter is a Getter that can get many chunks in one call.
type MultiGetter interface {
	GetMulti(context.Context, []Address) (map[Address][]byte, error)
}

// MultiPutter is a Store that can put many chunks in one call.
type MultiPutter interface {
	PutMulti(context.Context, []Chunk) (map[Address]bool, error)
}

// GetMulti gets multiple chunks with a single call.
// By default this is implemented as a bunch of concurrent individual Get calls.
// However, if g implements MultiGetter, its GetMulti method is used instead.
// The return value is a mapping of input addresses to the chunk data that was found in g.
// The returned error may be a MultiErr,
// mapping input addresses to errors encountered retrieving those specific chunks.
// This function may return a successful partial result even in case of error.
// In particular, when the error return is a MultiErr,
// every input address appears in either the result map or the MultiErr map.
func GetMulti(ctx context.Context, g Getter, addrs []Address) (map[Address][]byte, error) {
	if m, ok := g.(MultiGetter); ok {
		return m.GetMulti(ctx, addrs)
	}

	type triple struct {
		addr Address
		data []byte
		err  error
	}

	var (
		res = make(map[Address][]byte)
		ch  = make(chan triple)
	)

	for _, addr := range addrs {
		addr := addr
		go func() {
			data, err := g.Get(ctx, addr)
			ch <- triple{addr: addr, data: data, err: err}
		}()
	}

	var errmap MultiErr

	for i := 0; i < len(addrs); i++ {
		trip := <-ch
		if trip.err != nil {
			if errmap == nil {
				errmap = make(MultiErr)
			}
			errmap[trip.addr] = trip.err
			continue
		}
		res[trip.addr] = trip.data
	}

	if errmap == nil {
		return res, nil
	}
	return res, errmap
}

// MultiErr is a type of error returned by GetMulti and PutMulti.
// It maps individual addresses to errors encountered trying to Get or Put them.
type MultiErr map[Address]error

// Error implements the error interface.
func (e MultiErr) Error() string {
	strs := make([]string, 0, len(e))
	for addr, err := range e {
		strs = append(strs, fmt.Sprintf("%s: %s", addr, err))
	}
	sort.Strings(strs)
	return "error(s): " + strings.Join(strs, "; ")
}

// PutMulti stores multiple chunks with a single call.
// By default this is implemented as a bunch of concurrent individual Put calls.
// However, if s implements MultiPutter, its PutMulti method is used instead.
// The return value is a mapping of the chunks' addresses to a boolean indicating whether each was a new addition to s.
// The returned error may be a MultiErr,
// mapping addresses to errors encountered writing those specific chunks.
// This function may return a successful partial result even in case of error.
// In particular, when the error return is a MultiErr,
// every input address appears in either the result map or the MultiErr map.
func PutMulti(ctx context.Context, s Store, chunks []Chunk) (map[Address]bool, error) {
	if m, ok := s.(MultiPutter); ok {
		return m.PutMulti(ctx, chunks)
	}

	type triple struct {
		addr  Address
		added bool
		err   error
	}

	var (
		res = make(map[Address]bool)
		ch  = make(chan triple)
	)

	for _, chunk := range chunks {
		chunk := chunk
		go func() {
			added, err := PutChunk(ctx, s, chunk)
			ch <- triple{addr: chunk.Address(), added: added, err: err}
		}()
	}

	var errmap MultiErr

	for i := 0; i < len(chunks); i++ {
		trip := <-ch
		if trip.err != nil {
			if errmap == nil {
				errmap = make(MultiErr)
			}
			errmap[trip.addr] = trip.err
			continue
		}
		res[trip.addr] = trip.added
	}

	if errmap == nil {
		return res, nil
	}
	return res, errmap
}
