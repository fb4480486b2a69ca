// Package file implements a chunk store as a file hierarchy.
package file

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/pkg/errors"

	"github.com/bobg/bzz"
	"github.com/bobg/bzz/store"
)

var _ bzz.Store = &Store{}

// Store is a file-based implementation of a chunk store.
// Each chunk is a file named by its hex address,
// in a directory named by the first four hex digits of the address,
// in a directory named by the first two.
type Store struct {
	root string
}

// New produces a new Store storing data beneath `root`.
func New(root string) *Store {
	return &Store{root: root}
}

func (s *Store) chunkroot() string {
	return filepath.Join(s.root, "chunks")
}

func (s *Store) chunkpath(addr bzz.Address) string {
	h := addr.String()
	return filepath.Join(s.chunkroot(), h[:2], h[:4], h)
}

// Get gets the chunk data at addr.
func (s *Store) Get(_ context.Context, addr bzz.Address) ([]byte, error) {
	path := s.chunkpath(addr)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, bzz.ErrNotFound
	}
	return data, errors.Wrapf(err, "reading %s", path)
}

// Put adds a chunk to the store if it wasn't already present.
// The file appears atomically:
// data is written to a temporary file that is then linked into place.
func (s *Store) Put(_ context.Context, addr bzz.Address, data []byte) (bool, error) {
	var (
		path = s.chunkpath(addr)
		dir  = filepath.Dir(path)
	)

	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return false, errors.Wrapf(err, "ensuring path %s exists", dir)
	}

	f, err := os.CreateTemp(dir, "tmp-")
	if err != nil {
		return false, errors.Wrapf(err, "creating temp file in %s", dir)
	}
	tmpname := f.Name()
	defer os.Remove(tmpname)

	_, err = f.Write(data)
	if err != nil {
		f.Close()
		return false, errors.Wrapf(err, "writing data to %s", tmpname)
	}
	if err = f.Close(); err != nil {
		return false, errors.Wrapf(err, "closing %s", tmpname)
	}

	err = os.Link(tmpname, path)
	if errors.Is(err, os.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "linking %s to %s", tmpname, path)
	}
	return true, nil
}

// ListAddrs produces all chunk addresses in the store, in lexicographic order.
func (s *Store) ListAddrs(ctx context.Context, start bzz.Address, f func(bzz.Address) error) error {
	err := os.MkdirAll(s.chunkroot(), 0755)
	if err != nil {
		return errors.Wrapf(err, "ensuring %s exists", s.chunkroot())
	}

	topLevel, err := os.ReadDir(s.chunkroot())
	if err != nil {
		return errors.Wrapf(err, "reading dir %s", s.chunkroot())
	}

	startHex := start.String()
	topIndex := sort.Search(len(topLevel), func(n int) bool {
		return topLevel[n].Name() >= startHex[:2]
	})
	for i := topIndex; i < len(topLevel); i++ {
		topEntry := topLevel[i]
		if !topEntry.IsDir() {
			continue
		}
		topName := topEntry.Name()
		if len(topName) != 2 {
			continue
		}
		if _, err = strconv.ParseUint(topName, 16, 8); err != nil {
			continue
		}

		midLevel, err := os.ReadDir(filepath.Join(s.chunkroot(), topName))
		if err != nil {
			return errors.Wrapf(err, "reading dir %s/%s", s.chunkroot(), topName)
		}
		midIndex := sort.Search(len(midLevel), func(n int) bool {
			return midLevel[n].Name() >= startHex[:4]
		})
		for j := midIndex; j < len(midLevel); j++ {
			midEntry := midLevel[j]
			if !midEntry.IsDir() {
				continue
			}
			midName := midEntry.Name()
			if len(midName) != 4 {
				continue
			}
			if _, err = strconv.ParseUint(midName, 16, 16); err != nil {
				continue
			}

			chunkEntries, err := os.ReadDir(filepath.Join(s.chunkroot(), topName, midName))
			if err != nil {
				return errors.Wrapf(err, "reading dir %s/%s/%s", s.chunkroot(), topName, midName)
			}

			index := sort.Search(len(chunkEntries), func(n int) bool {
				return chunkEntries[n].Name() > startHex
			})
			for k := index; k < len(chunkEntries); k++ {
				chunkEntry := chunkEntries[k]
				if chunkEntry.IsDir() {
					continue
				}

				// Skips temp files.
				addr, err := bzz.AddressFromHex(chunkEntry.Name())
				if err != nil {
					continue
				}

				if err = ctx.Err(); err != nil {
					return err
				}
				if err = f(addr); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func init() {
	store.Register("file", func(_ context.Context, conf map[string]interface{}) (bzz.Store, error) {
		root, ok := conf["root"].(string)
		if !ok {
			return nil, errors.New(`missing "root" parameter`)
		}
		return New(root), nil
	})
}
