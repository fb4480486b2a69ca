// Package soc builds and verifies single-owner chunks.
//
// A single-owner chunk wraps a content-addressed chunk
// with a 32-byte identifier and its owner's signature
// over the hash of the identifier and the inner chunk's address.
// Its wire format is
//
//	identifier (32) ‖ signature (65) ‖ span (8) ‖ payload (1..4096)
//
// and its address is the Keccak-256 hash of the identifier and the owner's account address.
// Anyone can check a single-owner chunk against its address
// by recovering the owner from the signature.
package soc

import (
	"github.com/pkg/errors"

	"github.com/bobg/bzz"
	"github.com/bobg/bzz/cac"
	"github.com/bobg/bzz/signer"
)

var _ bzz.Chunk = &Chunk{}

// ID is a single-owner chunk identifier.
type ID [bzz.IdentifierSize]byte

// Signer is what New needs to sign a chunk.
// The signer package implements it.
type Signer interface {
	// Sign signs a 32-byte digest.
	Sign(digest [32]byte) (bzz.Signature, error)

	// Address is the signer's account address.
	Address() bzz.EthAddress
}

// Chunk is a single-owner chunk.
type Chunk struct {
	id    ID
	sig   bzz.Signature
	owner bzz.EthAddress
	addr  bzz.Address
	inner *cac.Chunk
	data  []byte
}

// Address computes the address of the single-owner chunk with the given identifier and owner.
// It needs no chunk content,
// so it can locate a chunk before downloading it.
func Address(id ID, owner bzz.EthAddress) bzz.Address {
	return bzz.Keccak256(id[:], owner[:])
}

func digest(id ID, inner bzz.Address) [32]byte {
	return bzz.Keccak256(id[:], inner[:])
}

// New wraps a content-addressed chunk in a single-owner chunk signed by s.
// The content-addressed chunk must be valid,
// or New fails with bzz.ErrInvalidContentChunk.
func New(ch *cac.Chunk, id ID, s Signer) (*Chunk, error) {
	if err := cac.AssertValid(ch.Data(), ch.Address()); err != nil {
		return nil, errors.Wrapf(bzz.ErrInvalidContentChunk, "%s", err)
	}

	sig, err := s.Sign(digest(id, ch.Address()))
	if err != nil {
		return nil, errors.Wrap(err, "signing chunk")
	}

	owner := s.Address()

	data := make([]byte, 0, bzz.SocSpanOffset+len(ch.Data()))
	data = append(data, id[:]...)
	data = append(data, sig[:]...)
	data = append(data, ch.Data()...)

	return &Chunk{
		id:    id,
		sig:   sig,
		owner: owner,
		addr:  Address(id, owner),
		inner: ch,
		data:  data,
	}, nil
}

// FromData parses and verifies a single-owner chunk in wire format.
// The owner is recovered from the signature,
// and the chunk is accepted only if its identifier and owner hash to claimed.
// Otherwise FromData fails with bzz.ErrAddressMismatch.
func FromData(data []byte, claimed bzz.Address) (*Chunk, error) {
	if len(data) <= bzz.SocPayloadOffset {
		return nil, errors.Wrapf(bzz.ErrTruncatedData, "single-owner chunk data is %d bytes", len(data))
	}

	var (
		id  ID
		sig bzz.Signature
	)
	copy(id[:], data[bzz.SocIdentifierOffset:bzz.SocSignatureOffset])
	copy(sig[:], data[bzz.SocSignatureOffset:bzz.SocSpanOffset])

	inner, err := cac.FromData(data[bzz.SocSpanOffset:])
	if err != nil {
		return nil, errors.Wrap(err, "hashing inner chunk")
	}

	owner, err := signer.Recover(sig, digest(id, inner.Address()))
	if err != nil {
		return nil, err
	}

	addr := Address(id, owner)
	if addr != claimed {
		return nil, errors.Wrapf(bzz.ErrAddressMismatch, "single-owner chunk belongs at %s, not %s", addr, claimed)
	}

	return &Chunk{
		id:    id,
		sig:   sig,
		owner: owner,
		addr:  addr,
		inner: inner,
		data:  append([]byte(nil), data...),
	}, nil
}

// Valid tells whether data is a single-owner chunk belonging at claimed.
func Valid(data []byte, claimed bzz.Address) bool {
	_, err := FromData(data, claimed)
	return err == nil
}

// Address implements bzz.Chunk.
func (c *Chunk) Address() bzz.Address { return c.addr }

// Data implements bzz.Chunk.
func (c *Chunk) Data() []byte { return c.data }

// Span implements bzz.Chunk.
func (c *Chunk) Span() bzz.Span { return c.inner.Span() }

// Payload implements bzz.Chunk.
func (c *Chunk) Payload() []byte { return c.inner.Payload() }

// ID is the chunk's identifier.
func (c *Chunk) ID() ID { return c.id }

// Signature is the owner's signature.
func (c *Chunk) Signature() bzz.Signature { return c.sig }

// Owner is the owner's account address.
func (c *Chunk) Owner() bzz.EthAddress { return c.owner }

// Inner is the wrapped content-addressed chunk.
func (c *Chunk) Inner() *cac.Chunk { return c.inner }
