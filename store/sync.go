package store

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/bobg/bzz"
)

// Sync synchronizes two or more stores.
// It runs ListAddrs on all input stores.
// When an address is found to be in some but not all stores,
// its chunk is added to the stores where it's missing.
func Sync(ctx context.Context, stores []bzz.Store) error {
	if len(stores) < 2 {
		return nil
	}

	type tuple struct {
		s    bzz.Store
		ch   <-chan bzz.Address
		addr *bzz.Address
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	eg, ctx2 := errgroup.WithContext(ctx)

	tuples := make([]*tuple, 0, len(stores))
	for _, s := range stores {
		s := s
		ch := make(chan bzz.Address)
		eg.Go(func() error {
			defer close(ch)
			return s.ListAddrs(ctx2, bzz.Zero, func(addr bzz.Address) error {
				select {
				case <-ctx2.Done():
					return ctx2.Err()
				case ch <- addr:
				}
				return nil
			})
		})
		tuples = append(tuples, &tuple{s: s, ch: ch})
	}

	// Each round advances the stores that held the previous lowest address.
	havers := tuples
	for {
		for _, tup := range havers {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case addr, ok := <-tup.ch:
				if ok {
					tup.addr = &addr
				} else {
					tup.addr = nil
				}
			}
		}

		sort.Slice(tuples, func(i, j int) bool {
			ai := tuples[i].addr
			aj := tuples[j].addr
			if ai != nil {
				if aj != nil {
					return ai.Less(*aj)
				}
				return true
			}
			return false
		})

		if tuples[0].addr == nil {
			// We've reached the end of input on all channels.
			return eg.Wait()
		}
		addr := *(tuples[0].addr)

		havers = []*tuple{tuples[0]}
		i := 1
		for i < len(tuples) && tuples[i].addr != nil && *(tuples[i].addr) == addr {
			havers = append(havers, tuples[i])
			i++
		}

		if i == len(tuples) {
			continue
		}

		data, err := havers[0].s.Get(ctx, addr)
		if err != nil {
			return errors.Wrapf(err, "getting chunk %s", addr)
		}

		for _, tup := range tuples[i:] {
			if _, err = tup.s.Put(ctx, addr, data); err != nil {
				return errors.Wrapf(err, "storing chunk %s", addr)
			}
		}
	}
}
