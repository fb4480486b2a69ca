// Package replica implements a chunk store that replicates writes to several nested stores.
package replica

import (
	"context"
	"reflect"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/bobg/bzz"
	"github.com/bobg/bzz/store"
)

var _ bzz.Store = (*Store)(nil)

// Store is a chunk store that delegates reads and writes to two sets of nested stores.
// One set is synchronous:
// writes to all of these must succeed before a call to Put returns,
// and an error from any will cause Put to fail.
// The other set is asynchronous:
// a call to Put queues writes on these stores but does not wait for them to finish.
// However, if any asynchronous write encounters an error,
// the whole Store is put into an error state and further operations will fail.
type Store struct {
	sync   []bzz.Store
	async  []asyncChans
	cancel context.CancelFunc

	mu  sync.Mutex // protects err
	err error      // the error from an async goroutine, if any
}

type asyncChans struct {
	puts chan<- put
	errs <-chan error
}

type put struct {
	addr bzz.Address
	data []byte
}

// New produces a new Store.
// The set of synchronous stores must be non-empty.
// The set of asynchronous stores may be empty.
// If there are any asynchronous stores,
// goroutines are launched for them,
// and canceling the given context object causes those to exit,
// placing the Store in an error state.
//
// Normally, writes to asynchronous stores do not block calls to Put,
// but the queue for each nested store has a fixed length given by n,
// which must be 1 or greater.
// If any async store falls too far behind,
// Put will block until all requests can be queued.
func New(ctx context.Context, sync []bzz.Store, async []bzz.Store, n int) *Store {
	result := &Store{sync: sync}

	if len(async) > 0 {
		ctx, result.cancel = context.WithCancel(ctx)

		selectCases := make([]reflect.SelectCase, 1+len(async))

		for i, a := range async {
			var (
				puts = make(chan put, n)
				errs = make(chan error, 1)
			)

			result.async = append(result.async, asyncChans{puts: puts, errs: errs})

			selectCases[i].Dir = reflect.SelectRecv
			selectCases[i].Chan = reflect.ValueOf(errs)

			go runAsync(ctx, a, puts, errs)
		}

		selectCases[len(async)].Dir = reflect.SelectRecv
		selectCases[len(async)].Chan = reflect.ValueOf(ctx.Done())

		go func() {
			_, errval, ok := reflect.Select(selectCases)
			if ok {
				result.cancel()
				result.mu.Lock()
				result.err = errval.Interface().(error)
				result.mu.Unlock()
			}
		}()
	}

	return result
}

// Runs as a goroutine until ctx is canceled or an error occurs (which it writes to errs).
func runAsync(ctx context.Context, s bzz.Store, puts <-chan put, errs chan<- error) {
	defer close(errs)

	for {
		select {
		case <-ctx.Done():
			errs <- ctx.Err()
			return

		case p := <-puts:
			if _, err := s.Put(ctx, p.addr, p.data); err != nil {
				errs <- errors.Wrapf(err, "storing chunk %s", p.addr)
				return
			}
		}
	}
}

// Put implements bzz.Store.Put.
// The chunk is stored in all synchronous nested stores.
// An error from any of them causes Put to return an error.
//
// Some nested stores may already have the chunk and others may not,
// in which case the value of `added`
// (the boolean return value)
// is true.
//
// A request to write the chunk is queued for any asynchronous nested stores.
// Normally this does not block the call to Put,
// but if any async store falls too far behind,
// Put must wait for space to open in its request queue before proceeding.
// The size of this queue is given by the int passed to New.
func (s *Store) Put(ctx context.Context, addr bzz.Address, data []byte) (bool, error) {
	if err := s.checkErr(); err != nil {
		return false, errors.Wrap(err, "in async-store goroutine")
	}

	g, gctx := errgroup.WithContext(ctx)
	addeds := make([]bool, len(s.sync))
	for i, nested := range s.sync {
		i, nested := i, nested
		g.Go(func() error {
			added, err := nested.Put(gctx, addr, data)
			addeds[i] = added
			return err
		})
	}

	p := put{addr: addr, data: append([]byte(nil), data...)}
	for _, a := range s.async {
		select {
		case <-ctx.Done():
			return false, ctx.Err()

		case a.puts <- p:
		}
	}

	if err := g.Wait(); err != nil {
		return false, err
	}
	for _, added := range addeds {
		if added {
			return true, nil
		}
	}
	return false, nil
}

// Get implements bzz.Getter.
// It delegates the request to all of the synchronous stores in s,
// returning the result from the first one to respond without error
// and canceling the request to the others.
// If all synchronous stores respond with an error,
// one of those errors is returned.
func (s *Store) Get(ctx context.Context, addr bzz.Address) ([]byte, error) {
	if err := s.checkErr(); err != nil {
		return nil, errors.Wrap(err, "in async-store goroutine")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var g errgroup.Group

	ch := make(chan []byte, len(s.sync))
	for _, nested := range s.sync {
		nested := nested
		g.Go(func() error {
			data, err := nested.Get(ctx, addr)
			if err != nil {
				return err
			}
			ch <- data
			return nil
		})
	}

	errch := make(chan error, 1)
	go func() {
		errch <- g.Wait()
		close(ch)
	}()

	if data, ok := <-ch; ok {
		return data, nil
	}
	return nil, <-errch
}

// ListAddrs implements bzz.Getter.
// It delegates the request to all of the synchronous stores in s
// and synthesizes the result from the union of their addresses.
func (s *Store) ListAddrs(ctx context.Context, start bzz.Address, f func(bzz.Address) error) error {
	if err := s.checkErr(); err != nil {
		return errors.Wrap(err, "in async-store goroutine")
	}

	chans := make([]chan bzz.Address, len(s.sync))
	for i := 0; i < len(s.sync); i++ {
		chans[i] = make(chan bzz.Address, 1)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	for i, nested := range s.sync {
		var (
			i      = i
			nested = nested
		)
		g.Go(func() error {
			defer close(chans[i])
			return nested.ListAddrs(ctx, start, func(addr bzz.Address) error {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case chans[i] <- addr:
					return nil
				}
			})
		})
	}

	type head struct {
		addr bzz.Address
		ok   bool
	}
	heads := make([]head, len(chans))
	for i, ch := range chans {
		heads[i].addr, heads[i].ok = <-ch
	}

	for {
		var (
			best  bzz.Address
			found bool
		)
		for _, h := range heads {
			if h.ok && (!found || h.addr.Less(best)) {
				best, found = h.addr, true
			}
		}
		if !found {
			break
		}
		if err := f(best); err != nil {
			cancel()
			g.Wait()
			return err
		}
		// Advance every input positioned at best.
		for i := range heads {
			if heads[i].ok && heads[i].addr == best {
				heads[i].addr, heads[i].ok = <-chans[i]
			}
		}
	}

	return g.Wait()
}

func (s *Store) checkErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func init() {
	store.Register("replica", func(ctx context.Context, conf map[string]interface{}) (bzz.Store, error) {
		syncStores, err := store.NestedList(ctx, conf, "sync")
		if err != nil {
			return nil, err
		}
		if len(syncStores) == 0 {
			return nil, errors.New(`missing "sync" parameter`)
		}

		asyncStores, err := store.NestedList(ctx, conf, "async")
		if err != nil {
			return nil, err
		}

		queueLen := 10
		if _, ok := conf["queuelen"]; ok {
			queueLen, err = store.Int(conf, "queuelen")
			if err != nil {
				return nil, err
			}
		}

		return New(ctx, syncStores, asyncStores, queueLen), nil
	})
}
