// Package split implements reading and writing of chunk trees in a chunk store.
//
// Content larger than one chunk is stored as a balanced tree.
// The input is cut into ChunkSize-byte leaves,
// each stored as a content-addressed chunk.
// The addresses of every Branches consecutive children
// form the payload of an intermediate content-addressed chunk
// whose span is the number of content bytes beneath it.
// The address of the single chunk at the top of the tree is the address of the whole content.
package split

import (
	"context"
	"io"

	"github.com/pkg/errors"

	"github.com/bobg/bzz"
	"github.com/bobg/bzz/cac"
)

// Writer is an io.WriteCloser that splits its input into chunks,
// writing them to a bzz.Store.
// It additionally assembles those chunks into a tree of intermediate chunks,
// also written to the bzz.Store.
// The address of the tree root is available as Writer.Root after a call to Close.
type Writer struct {
	Ctx  context.Context
	Root bzz.Address // populated by Close

	st     bzz.Store
	buf    []byte
	levels [][]ref // levels[0] holds leaf addresses
	total  uint64
	closed bool
}

type ref struct {
	addr bzz.Address
	span uint64
}

// NewWriter produces a new Writer writing to the given chunk store.
// The given context object is stored in the Writer and used in subsequent calls to Write and Close.
// This is an antipattern but acceptable when an object must adhere to a context-free stdlib interface
// (https://github.com/golang/go/wiki/CodeReviewComments#contexts).
// Callers may replace the context object during the lifetime of the Writer as needed.
func NewWriter(ctx context.Context, st bzz.Store) *Writer {
	return &Writer{
		Ctx: ctx,
		st:  st,
		buf: make([]byte, 0, bzz.ChunkSize),
	}
}

// Write implements io.Writer.
func (w *Writer) Write(inp []byte) (int, error) {
	if w.closed {
		return 0, errors.New("write to closed writer")
	}
	if w.total+uint64(len(inp)) > bzz.MaxSpan {
		return 0, errors.Wrapf(bzz.ErrInvalidLength, "content exceeds %d bytes", uint64(bzz.MaxSpan))
	}

	n := len(inp)
	for len(inp) > 0 {
		k := bzz.ChunkSize - len(w.buf)
		if k > len(inp) {
			k = len(inp)
		}
		w.buf = append(w.buf, inp[:k]...)
		inp = inp[k:]
		w.total += uint64(k)

		if len(w.buf) == bzz.ChunkSize {
			if err := w.flushLeaf(); err != nil {
				return n - len(inp), err
			}
		}
	}
	return n, nil
}

func (w *Writer) flushLeaf() error {
	ch, err := cac.New(w.buf)
	if err != nil {
		return errors.Wrap(err, "creating leaf chunk")
	}
	if _, err = bzz.PutChunk(w.Ctx, w.st, ch); err != nil {
		return errors.Wrap(err, "writing leaf chunk to store")
	}
	w.buf = w.buf[:0]
	return w.add(0, ref{addr: ch.Address(), span: ch.Span().Length()})
}

// add appends r to the given level,
// wrapping the level into an intermediate chunk when it is full.
func (w *Writer) add(level int, r ref) error {
	for len(w.levels) <= level {
		w.levels = append(w.levels, nil)
	}
	w.levels[level] = append(w.levels[level], r)
	if len(w.levels[level]) < bzz.Branches {
		return nil
	}
	return w.wrap(level)
}

// wrap stores the refs at the given level as an intermediate chunk
// and adds that chunk to the level above.
func (w *Writer) wrap(level int) error {
	refs := w.levels[level]
	payload := make([]byte, 0, len(refs)*bzz.AddressSize)
	var span uint64
	for _, r := range refs {
		payload = append(payload, r.addr[:]...)
		span += r.span
	}
	ch, err := cac.NewWithSpan(payload, span)
	if err != nil {
		return errors.Wrapf(err, "creating intermediate chunk at level %d", level+1)
	}
	if _, err = bzz.PutChunk(w.Ctx, w.st, ch); err != nil {
		return errors.Wrap(err, "writing intermediate chunk to store")
	}
	w.levels[level] = nil
	return w.add(level+1, ref{addr: ch.Address(), span: span})
}

// Close implements io.Closer.
// It fails with bzz.ErrInvalidLength if nothing was written.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	if len(w.buf) > 0 {
		if err := w.flushLeaf(); err != nil {
			return err
		}
	}
	if w.total == 0 {
		return errors.Wrap(bzz.ErrInvalidLength, "empty content")
	}

	for level := 0; ; level++ {
		refs := w.levels[level]
		top := level == len(w.levels)-1
		switch {
		case top && len(refs) == 1:
			w.Root = refs[0].addr
			w.closed = true
			return nil

		case len(refs) == 0:
			continue

		case len(refs) == 1:
			// A lone ref moves up unchanged.
			w.levels[level] = nil
			w.levels[level+1] = append(w.levels[level+1], refs[0])

		default:
			if err := w.wrap(level); err != nil {
				return err
			}
		}
	}
}

// Write splits the content of r into a chunk tree in s
// and returns the address of its root.
func Write(ctx context.Context, s bzz.Store, r io.Reader) (bzz.Address, error) {
	w := NewWriter(ctx, s)
	if _, err := io.Copy(w, r); err != nil {
		return bzz.Zero, errors.Wrap(err, "splitting content")
	}
	if err := w.Close(); err != nil {
		return bzz.Zero, err
	}
	return w.Root, nil
}

// Read reads chunks from g,
// reassembling the content of the chunk tree created with Write
// and writing it to w.
// The address of the root chunk is given by root.
// Every chunk is checked against its address before use.
func Read(ctx context.Context, g bzz.Getter, root bzz.Address, w io.Writer) error {
	data, err := g.Get(ctx, root)
	if err != nil {
		return errors.Wrapf(err, "getting root chunk %s", root)
	}
	ch, err := cac.FromDataAt(data, root)
	if err != nil {
		return errors.Wrapf(err, "verifying root chunk %s", root)
	}
	return read(ctx, g, ch, w)
}

func read(ctx context.Context, g bzz.Getter, ch *cac.Chunk, w io.Writer) error {
	var (
		span    = ch.Span().Length()
		payload = ch.Payload()
	)
	if span <= bzz.ChunkSize {
		if uint64(len(payload)) != span {
			return errors.Wrapf(bzz.ErrInvalidContentChunk, "leaf %s has span %d and %d payload bytes", ch.Address(), span, len(payload))
		}
		_, err := w.Write(payload)
		return err
	}

	if len(payload)%bzz.AddressSize != 0 {
		return errors.Wrapf(bzz.ErrInvalidContentChunk, "intermediate chunk %s has %d payload bytes", ch.Address(), len(payload))
	}
	addrs := make([]bzz.Address, 0, len(payload)/bzz.AddressSize)
	for i := 0; i < len(payload); i += bzz.AddressSize {
		addrs = append(addrs, bzz.AddressFromBytes(payload[i:i+bzz.AddressSize]))
	}

	datas, err := bzz.GetMulti(ctx, g, addrs)
	if err != nil {
		return errors.Wrapf(err, "getting children of %s", ch.Address())
	}

	var sum uint64
	for _, addr := range addrs {
		child, err := cac.FromDataAt(datas[addr], addr)
		if err != nil {
			return errors.Wrapf(err, "verifying chunk %s", addr)
		}
		sum += child.Span().Length()
		if sum > span {
			return errors.Wrapf(bzz.ErrInvalidContentChunk, "children of %s exceed its span %d", ch.Address(), span)
		}
		if err = read(ctx, g, child, w); err != nil {
			return err
		}
	}
	if sum != span {
		return errors.Wrapf(bzz.ErrInvalidContentChunk, "children of %s cover %d bytes, want %d", ch.Address(), sum, span)
	}
	return nil
}
