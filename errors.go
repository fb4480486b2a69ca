package bzz

import "github.com/pkg/errors"

var (
	// ErrInvalidLength means a span or index length is out of range.
	ErrInvalidLength = errors.New("invalid length")

	// ErrPayloadTooLarge means a payload exceeds ChunkSize bytes.
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrAddressMismatch means the address computed from some chunk data
	// differs from the address claimed for it.
	// It is the error for forged or corrupted chunks.
	ErrAddressMismatch = errors.New("address mismatch")

	// ErrTruncatedData means a byte slice is too short for a field it must contain.
	ErrTruncatedData = errors.New("truncated data")

	// ErrInvalidSignature means a signature is malformed
	// or no public key could be recovered from it.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrInvalidContentChunk means a content-addressed chunk
	// given to a single-owner chunk constructor does not match its own address.
	ErrInvalidContentChunk = errors.New("invalid content-addressed chunk")

	// ErrNotImplemented is returned for epoch-based feed indexes.
	ErrNotImplemented = errors.New("not implemented")
)
