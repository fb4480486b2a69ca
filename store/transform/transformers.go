package transform

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"

	"github.com/bobg/bzz"
)

// MaxSize is the size of the largest chunk in wire format,
// a single-owner chunk with a full payload.
// Compress handles nothing larger.
const MaxSize = bzz.SocPayloadOffset + bzz.ChunkSize

// Algorithm identifies a compression algorithm.
// It is stored in the first byte of compressed chunk data,
// so the values must not change.
type Algorithm uint8

const (
	None Algorithm = 0
	LZ4  Algorithm = 1
	Zstd Algorithm = 2
)

func (a Algorithm) String() string {
	switch a {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(a))
	}
}

// ParseAlgorithm parses the name of an algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch name {
	case "none":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd":
		return Zstd, nil
	default:
		return 0, errors.Errorf("unknown compression algorithm %q", name)
	}
}

// Compress is a Transformer that compresses chunk data.
// The transformed form is the algorithm byte,
// the uncompressed length as a uvarint,
// and the compressed bytes.
// Data that does not shrink is stored with algorithm None.
// Out handles data written with any algorithm,
// whatever the Algorithm field.
type Compress struct {
	Algorithm Algorithm
}

var errIncompressible = errors.New("incompressible")

// The zstd encoder and decoder are safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic(err)
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic(err)
	}
}

// In implements Transformer.In.
func (c Compress) In(_ context.Context, inp []byte) ([]byte, error) {
	if len(inp) > MaxSize {
		return nil, errors.Wrapf(bzz.ErrInvalidLength, "%d bytes of chunk data exceeds %d", len(inp), MaxSize)
	}
	var (
		alg  = c.Algorithm
		body []byte
		err  error
	)
	switch alg {
	case None:
		body = inp
	case LZ4:
		body, err = compressLZ4(inp)
	case Zstd:
		body, err = compressZstd(inp)
	default:
		return nil, errors.Errorf("unknown compression algorithm %s", alg)
	}
	if errors.Is(err, errIncompressible) {
		alg, body = None, inp
	} else if err != nil {
		return nil, err
	}

	out := make([]byte, 1+binary.MaxVarintLen64, 1+binary.MaxVarintLen64+len(body))
	out[0] = byte(alg)
	n := binary.PutUvarint(out[1:], uint64(len(inp)))
	out = append(out[:1+n], body...)
	return out, nil
}

// Out implements Transformer.Out.
func (c Compress) Out(_ context.Context, inp []byte) ([]byte, error) {
	if len(inp) < 2 {
		return nil, errors.New("compressed data too short")
	}
	alg := Algorithm(inp[0])
	size, n := binary.Uvarint(inp[1:])
	if n <= 0 {
		return nil, errors.New("bad length in compressed data")
	}
	if size > MaxSize {
		return nil, errors.Wrapf(bzz.ErrInvalidLength, "compressed data claims %d bytes, more than %d", size, MaxSize)
	}
	body := inp[1+n:]

	switch alg {
	case None:
		if uint64(len(body)) != size {
			return nil, errors.Errorf("uncompressed data has length %d, want %d", len(body), size)
		}
		return body, nil
	case LZ4:
		return decompressLZ4(body, size)
	case Zstd:
		return decompressZstd(body, size)
	default:
		return nil, errors.Errorf("unknown compression algorithm %s", alg)
	}
}

func compressLZ4(data []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, dst, nil)
	if err != nil {
		return nil, errors.Wrap(err, "lz4 compress")
	}
	// CompressBlock reports 0 for incompressible input.
	if n == 0 || n >= len(data) {
		return nil, errIncompressible
	}
	return dst[:n], nil
}

func decompressLZ4(data []byte, size uint64) ([]byte, error) {
	dst := make([]byte, size)
	n, err := lz4.UncompressBlock(data, dst)
	if err != nil {
		return nil, errors.Wrap(err, "lz4 decompress")
	}
	if uint64(n) != size {
		return nil, errors.Errorf("lz4 decompress: got %d bytes, want %d", n, size)
	}
	return dst, nil
}

func compressZstd(data []byte) ([]byte, error) {
	out := zstdEncoder.EncodeAll(data, nil)
	if len(out) >= len(data) {
		return nil, errIncompressible
	}
	return out, nil
}

func decompressZstd(data []byte, size uint64) ([]byte, error) {
	out, err := zstdDecoder.DecodeAll(data, make([]byte, 0, size))
	if err != nil {
		return nil, errors.Wrap(err, "zstd decompress")
	}
	if uint64(len(out)) != size {
		return nil, errors.Errorf("zstd decompress: got %d bytes, want %d", len(out), size)
	}
	return out, nil
}
