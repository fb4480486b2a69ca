package signer

import (
	"testing"

	"github.com/btcsuite/btcd/btcec"
	"github.com/stretchr/testify/require"

	"github.com/bobg/bzz"
)

const (
	testKey     = "634fb5a872396d9693e5c9f9d7233cfa93f395c093371017ff44aa9ae6564cdd"
	testAddress = "8d3766440f0d7b949a5e32995d09619a7f86e632"
)

func TestFromHex(t *testing.T) {
	s, err := FromHex(testKey)
	require.NoError(t, err)
	require.Equal(t, testAddress, s.Address().String())

	require.Equal(t, testKey, s.Hex())

	s, err = FromHex("0x" + testKey)
	require.NoError(t, err)
	require.Equal(t, testAddress, s.Address().String())

	tests := []struct {
		name string
		key  string
	}{
		{"not hex", "zz"},
		{"short", "634fb5"},
		{"zero", "0000000000000000000000000000000000000000000000000000000000000000"},
		{"curve order", "fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromHex(tt.key)
			require.Error(t, err)
		})
	}
}

func TestSignRecover(t *testing.T) {
	s, err := FromHex(testKey)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		digest := bzz.Keccak256([]byte{byte(i)})

		sig, err := s.Sign(digest)
		require.NoError(t, err)
		require.Contains(t, []byte{27, 28}, sig[64])

		owner, err := Recover(sig, digest)
		require.NoError(t, err)
		require.Equal(t, s.Address(), owner)

		// v may also be given as a bare recovery id.
		sig[64] -= 27
		owner, err = Recover(sig, digest)
		require.NoError(t, err)
		require.Equal(t, s.Address(), owner)

		// A different digest recovers some other key, or none.
		other := bzz.Keccak256([]byte{byte(i), 1})
		owner, err = Recover(sig, other)
		if err == nil {
			require.NotEqual(t, s.Address(), owner)
		}
	}
}

func TestRecoverErrors(t *testing.T) {
	var sig bzz.Signature
	sig[64] = 29
	_, err := Recover(sig, [32]byte{})
	require.ErrorIs(t, err, bzz.ErrInvalidSignature)

	sig[64] = 255
	_, err = Recover(sig, [32]byte{})
	require.ErrorIs(t, err, bzz.ErrInvalidSignature)
}

func TestGenerate(t *testing.T) {
	s1, err := Generate()
	require.NoError(t, err)
	s2, err := Generate()
	require.NoError(t, err)
	require.NotEqual(t, s1.Address(), s2.Address())

	digest := bzz.Keccak256([]byte("We have lingered long enough on the shores of the cosmic ocean."))
	sig, err := s1.Sign(digest)
	require.NoError(t, err)
	owner, err := Recover(sig, digest)
	require.NoError(t, err)
	require.Equal(t, s1.Address(), owner)
}

func TestPublicKeyAddress(t *testing.T) {
	key, err := btcec.NewPrivateKey(btcec.S256())
	require.NoError(t, err)
	require.Equal(t, New(key).Address(), PublicKeyAddress(key.PubKey()))
}
