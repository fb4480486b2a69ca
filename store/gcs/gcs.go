// Package gcs implements a chunk store on Google Cloud Storage.
package gcs

import (
	"context"
	stderrs "errors"
	"io"
	"net/http"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/bobg/bzz"
	"github.com/bobg/bzz/store"
)

var _ bzz.Store = &Store{}

// Store is a Google Cloud Storage-based implementation of a chunk store.
type Store struct {
	bucket *storage.BucketHandle
}

// New produces a new Store.
func New(bucket *storage.BucketHandle) *Store {
	return &Store{bucket: bucket}
}

// Get gets the chunk data at addr.
func (s *Store) Get(ctx context.Context, addr bzz.Address) ([]byte, error) {
	name := chunkObjName(addr)
	r, err := s.bucket.Object(name).NewReader(ctx)
	if stderrs.Is(err, storage.ErrObjectNotExist) {
		return nil, bzz.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading info of object %s", name)
	}
	defer r.Close()

	data := make([]byte, r.Attrs.Size)
	_, err = io.ReadFull(r, data)
	return data, errors.Wrapf(err, "reading contents of object %s", name)
}

// Put adds a chunk to the store if it wasn't already present.
func (s *Store) Put(ctx context.Context, addr bzz.Address, data []byte) (bool, error) {
	var (
		name = chunkObjName(addr)
		obj  = s.bucket.Object(name).If(storage.Conditions{DoesNotExist: true})
		w    = obj.NewWriter(ctx)
	)

	// The object is created (and the precondition checked) by Close.
	if _, err := w.Write(data); err != nil {
		w.Close()
		return false, errors.Wrapf(err, "writing object %s", name)
	}
	err := w.Close()
	var e *googleapi.Error
	if stderrs.As(err, &e) && e.Code == http.StatusPreconditionFailed {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "writing object %s", name)
	}
	return true, nil
}

// ListAddrs produces all chunk addresses in the store, in lexicographic order.
func (s *Store) ListAddrs(ctx context.Context, start bzz.Address, f func(bzz.Address) error) error {
	// Google Cloud Storage iterators have no API for starting in the middle of a bucket.
	// But they can filter by object-name prefix.
	// So we take (the hex encoding of) `start` and repeatedly compute prefixes for the objects we want.
	// If `start` is e67a, for example, the sequence of generated prefixes is:
	//   e67b e67c e67d e67e e67f
	//   e68 e69 e6a e6b e6c e6d e6e e6f
	//   e7 e8 e9 ea eb ec ed ee ef
	//   f
	return eachHexPrefix(start.String(), false, func(prefix string) error {
		return s.listAddrs(ctx, prefix, f)
	})
}

func (s *Store) listAddrs(ctx context.Context, prefix string, f func(bzz.Address) error) error {
	iter := s.bucket.Objects(ctx, &storage.Query{Prefix: chunkPrefix + prefix})
	for {
		obj, err := iter.Next()
		if stderrs.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "iterating over chunk objects")
		}
		addr, err := addrFromChunkObjName(obj.Name)
		if err != nil {
			return errors.Wrapf(err, "decoding object name %s", obj.Name)
		}
		if err = f(addr); err != nil {
			return err
		}
	}
}

func eachHexPrefix(prefix string, incl bool, f func(string) error) error {
	prefix = strings.ToLower(prefix)
	for len(prefix) > 0 {
		end := hexval(prefix[len(prefix)-1:][0])
		if !incl {
			end++
		}
		prefix = prefix[:len(prefix)-1]
		for c := end; c < 16; c++ {
			err := f(prefix + string(hexdigit(c)))
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func hexval(b byte) int {
	switch {
	case '0' <= b && b <= '9':
		return int(b - '0')
	case 'a' <= b && b <= 'f':
		return int(10 + b - 'a')
	case 'A' <= b && b <= 'F':
		return int(10 + b - 'A')
	}
	return 0
}

func hexdigit(n int) byte {
	if n < 10 {
		return byte(n + '0')
	}
	return byte(n - 10 + 'a')
}

const chunkPrefix = "c:"

func chunkObjName(addr bzz.Address) string {
	return chunkPrefix + addr.String()
}

func addrFromChunkObjName(name string) (bzz.Address, error) {
	return bzz.AddressFromHex(strings.TrimPrefix(name, chunkPrefix))
}

func init() {
	store.Register("gcs", func(ctx context.Context, conf map[string]interface{}) (bzz.Store, error) {
		creds, err := store.String(conf, "creds")
		if err != nil {
			return nil, err
		}
		bucketName, err := store.String(conf, "bucket")
		if err != nil {
			return nil, err
		}
		c, err := storage.NewClient(ctx, option.WithCredentialsFile(creds))
		if err != nil {
			return nil, errors.Wrap(err, "creating cloud storage client")
		}
		return New(c.Bucket(bucketName)), nil
	})
}
