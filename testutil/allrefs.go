package testutil

import (
	"context"
	"sort"
	"testing"
	"testing/quick"

	"github.com/google/go-cmp/cmp"

	"github.com/bobg/bzz"
	"github.com/bobg/bzz/cac"
)

// AllAddrs writes a random set of random chunks to an empty store
// and makes sure that the right set of addresses comes back in a call to ListAddrs.
func AllAddrs(ctx context.Context, t *testing.T, storeFactory func() bzz.Store) {
	if err := quick.Check(allAddrsHelper(ctx, t, storeFactory), nil); err != nil {
		t.Error(err)
	}
}

func allAddrsHelper(ctx context.Context, t *testing.T, storeFactory func() bzz.Store) func([][]byte) bool {
	return func(payloads [][]byte) bool {
		var (
			store = storeFactory()
			want  []bzz.Address
		)
		for _, payload := range payloads {
			if len(payload) == 0 || len(payload) > bzz.ChunkSize {
				continue
			}
			ch, err := cac.New(payload)
			if err != nil {
				t.Fatal(err)
			}
			added, err := bzz.PutChunk(ctx, store, ch)
			if err != nil {
				t.Fatal(err)
			}
			if added {
				want = append(want, ch.Address())
			}
		}
		var got []bzz.Address
		err := store.ListAddrs(ctx, bzz.Zero, func(a bzz.Address) error {
			got = append(got, a)
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}

		sort.Slice(want, func(i, j int) bool { return want[i].Less(want[j]) })

		if diff := cmp.Diff(want, got); diff != "" {
			t.Logf("mismatch (-want +got):\n%s", diff)
			return false
		}

		if len(got) > 1 {
			// Listing starts strictly after the given address.
			var rest []bzz.Address
			err = store.ListAddrs(ctx, got[0], func(a bzz.Address) error {
				rest = append(rest, a)
				return nil
			})
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(got[1:], rest); diff != "" {
				t.Logf("mismatch listing after %s (-want +got):\n%s", got[0], diff)
				return false
			}
		}
		return true
	}
}
