package bzz

import (
	"bytes"
	"database/sql/driver"
	"encoding/hex"
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"
)

const (
	// SpanSize is the size of the span prefixed to every chunk.
	SpanSize = 8

	// ChunkSize is the maximum size of a chunk payload.
	ChunkSize = 4096

	// SectionSize is the size of a BMT segment, and of a Keccak-256 digest.
	SectionSize = 32

	// Branches is the number of child addresses an intermediate chunk can hold.
	Branches = ChunkSize / SectionSize

	// MaxSpan is the largest span value.
	// The span field is eight bytes wide
	// but values are limited to 32 bits for compatibility with other implementations.
	MaxSpan = 1<<32 - 1

	// AddressSize is the size of a chunk address.
	AddressSize = 32

	// EthAddressSize is the size of an owner's account address.
	EthAddressSize = 20

	// IdentifierSize is the size of a single-owner chunk identifier.
	IdentifierSize = 32

	// SignatureSize is the size of a recoverable signature: r, s, and v.
	SignatureSize = 65
)

// Offsets of the fields of a single-owner chunk.
const (
	SocIdentifierOffset = 0
	SocSignatureOffset  = SocIdentifierOffset + IdentifierSize
	SocSpanOffset       = SocSignatureOffset + SignatureSize
	SocPayloadOffset    = SocSpanOffset + SpanSize
)

type (
	// Address is the address of a chunk.
	// For content-addressed chunks it is the BMT hash of the chunk data;
	// for single-owner chunks it is the hash of the identifier and the owner.
	Address [AddressSize]byte

	// EthAddress is an Ethereum-style account address,
	// the last 20 bytes of the Keccak-256 hash of a public key.
	EthAddress [EthAddressSize]byte

	// Signature is a recoverable secp256k1 signature: r ‖ s ‖ v.
	Signature [SignatureSize]byte
)

// Zero is the zero value of an Address.
var Zero Address

func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// IsZero tells whether a is the zero address.
func (a Address) IsZero() bool {
	return a == Zero
}

// Less tells whether a sorts before other.
func (a Address) Less(other Address) bool {
	return bytes.Compare(a[:], other[:]) < 0
}

// Equal tells whether a and other are the same address.
func (a Address) Equal(other Address) bool {
	return a == other
}

// Scan implements sql.Scanner.
func (a *Address) Scan(src interface{}) error {
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into an Address", src)
	}
	if len(b) != AddressSize {
		return errors.Wrapf(ErrTruncatedData, "scanning %d bytes into an Address", len(b))
	}
	copy(a[:], b)
	return nil
}

// Value implements driver.Valuer.
func (a Address) Value() (driver.Value, error) {
	return a[:], nil
}

// AddressFromBytes copies b into an Address.
// Short input is zero-padded on the right; long input is truncated.
func AddressFromBytes(b []byte) Address {
	var out Address
	copy(out[:], b)
	return out
}

// AddressFromHex parses a hex-encoded address.
func AddressFromHex(s string) (Address, error) {
	var out Address
	if len(s) != 2*AddressSize {
		return out, errors.Wrapf(ErrInvalidLength, "address hex has length %d", len(s))
	}
	_, err := hex.Decode(out[:], []byte(s))
	return out, errors.Wrap(err, "decoding address hex")
}

func (e EthAddress) String() string {
	return hex.EncodeToString(e[:])
}

// EthAddressFromHex parses a hex-encoded account address,
// with or without a 0x prefix.
func EthAddressFromHex(s string) (EthAddress, error) {
	var out EthAddress
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	if len(s) != 2*EthAddressSize {
		return out, errors.Wrapf(ErrInvalidLength, "account address hex has length %d", len(s))
	}
	_, err := hex.Decode(out[:], []byte(s))
	return out, errors.Wrap(err, "decoding account address hex")
}

// Keccak256 computes the legacy Keccak-256 hash of the concatenation of parts.
// This is the hash Ethereum uses, not NIST SHA3-256.
func Keccak256(parts ...[]byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		h.Write(p)
	}
	var out [32]byte
	h.Sum(out[:0])
	return out
}

// Chunk is a chunk of either kind.
// The concrete types are *cac.Chunk and *soc.Chunk.
// They share this interface but not their address derivation.
type Chunk interface {
	// Address is the chunk's address.
	Address() Address

	// Data is the chunk in its wire format.
	Data() []byte

	// Span is the span of the content-addressed chunk inside.
	Span() Span

	// Payload is the payload following the span.
	Payload() []byte
}
