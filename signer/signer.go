// Package signer signs single-owner chunks with secp256k1 keys
// and recovers their owners from signatures.
//
// Signatures follow the Ethereum personal-message convention:
// the 32-byte digest is prefixed with "\x19Ethereum Signed Message:\n32"
// and hashed with Keccak-256 before signing.
// They are 65 bytes, r ‖ s ‖ v, with v = 27 + the recovery id.
package signer

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec"
	"github.com/pkg/errors"

	"github.com/bobg/bzz"
)

const messagePrefix = "\x19Ethereum Signed Message:\n32"

// Signer holds a private key.
// It is safe for concurrent use.
type Signer struct {
	key  *btcec.PrivateKey
	addr bzz.EthAddress
}

// New produces a Signer for the given key.
func New(key *btcec.PrivateKey) *Signer {
	return &Signer{
		key:  key,
		addr: PublicKeyAddress(key.PubKey()),
	}
}

// FromHex produces a Signer from a hex-encoded 32-byte private key,
// with or without a 0x prefix.
func FromHex(s string) (*Signer, error) {
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "decoding private key hex")
	}
	if len(b) != 32 {
		return nil, errors.Wrapf(bzz.ErrInvalidLength, "private key is %d bytes", len(b))
	}
	key, _ := btcec.PrivKeyFromBytes(btcec.S256(), b)
	if key.D.Sign() == 0 || key.D.Cmp(btcec.S256().N) >= 0 {
		return nil, errors.New("private key out of range")
	}
	return New(key), nil
}

// Generate produces a Signer with a fresh random key.
func Generate() (*Signer, error) {
	key, err := btcec.NewPrivateKey(btcec.S256())
	if err != nil {
		return nil, errors.Wrap(err, "generating private key")
	}
	return New(key), nil
}

// Address is the account address of the key.
func (s *Signer) Address() bzz.EthAddress {
	return s.addr
}

// Hex is the hex encoding of the private key, suitable for FromHex.
func (s *Signer) Hex() string {
	return hex.EncodeToString(s.key.Serialize())
}

// Sign signs a digest.
func (s *Signer) Sign(digest [32]byte) (bzz.Signature, error) {
	var sig bzz.Signature

	h := prefixed(digest)

	// SignCompact produces v ‖ r ‖ s with v = 27 + recovery id
	// (no +4, since the key is not flagged as compressed).
	compact, err := btcec.SignCompact(btcec.S256(), s.key, h[:], false)
	if err != nil {
		return sig, errors.Wrap(err, "signing")
	}
	if len(compact) != bzz.SignatureSize {
		return sig, errors.Wrapf(bzz.ErrInvalidSignature, "compact signature is %d bytes", len(compact))
	}
	copy(sig[:64], compact[1:])
	sig[64] = compact[0]
	return sig, nil
}

// Recover returns the address of the key that signed digest.
// The recovery byte v may be 0, 1, 27, or 28.
func Recover(sig bzz.Signature, digest [32]byte) (bzz.EthAddress, error) {
	v := sig[64]
	if v < 27 {
		v += 27
	}
	if v != 27 && v != 28 {
		return bzz.EthAddress{}, errors.Wrapf(bzz.ErrInvalidSignature, "recovery byte %d", sig[64])
	}

	compact := make([]byte, bzz.SignatureSize)
	compact[0] = v
	copy(compact[1:], sig[:64])

	h := prefixed(digest)
	pub, _, err := btcec.RecoverCompact(btcec.S256(), compact, h[:])
	if err != nil {
		return bzz.EthAddress{}, errors.Wrapf(bzz.ErrInvalidSignature, "recovering public key: %s", err)
	}
	return PublicKeyAddress(pub), nil
}

// PublicKeyAddress computes the account address of a public key:
// the last 20 bytes of the Keccak-256 hash of its uncompressed X ‖ Y coordinates.
func PublicKeyAddress(pub *btcec.PublicKey) bzz.EthAddress {
	uncompressed := pub.SerializeUncompressed() // 0x04 ‖ X ‖ Y
	h := bzz.Keccak256(uncompressed[1:])

	var addr bzz.EthAddress
	copy(addr[:], h[32-bzz.EthAddressSize:])
	return addr
}

func prefixed(digest [32]byte) [32]byte {
	return bzz.Keccak256([]byte(messagePrefix), digest[:])
}
