// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package address

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"
)

// scalarOne is the private scalar 0x0000...0001 used in the spec's
// address round-trip vectors.
func scalarOne() *btcec.PrivateKey {
	b := make([]byte, 32)
	b[31] = 1
	return btcec.PrivKeyFromBytes(b)
}

func TestWIFAndAddressVectorsCompressed(t *testing.T) {
	priv := scalarOne()

	wif := EncodeWIF(priv, 0x80, true)
	require.Equal(t, "KwDiBf89QgGbjEhKnhXJuH7LrciVrZi3qYjgd9M7rFU73sVHnoWn", wif)

	addr := PubKeyHashAddressFromPubKey(priv.PubKey(), true, 0x00)
	require.Equal(t, "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH", addr.String())

	decoded, version, err := DecodeWIF(wif)
	require.NoError(t, err)
	require.Equal(t, byte(0x80), version)
	require.True(t, decoded.Compressed)
	require.Equal(t, priv.Serialize(), decoded.PrivKey.Serialize())
}

func TestWIFAndAddressVectorsUncompressed(t *testing.T) {
	priv := scalarOne()

	wif := EncodeWIF(priv, 0x80, false)
	require.Equal(t, "5HpHagT65TZzG1PH3CSu63k8DbpvD8s5ip4nEB3kEsreAnchuDf", wif)

	addr := PubKeyHashAddressFromPubKey(priv.PubKey(), false, 0x00)
	require.Equal(t, "1EHNa6Q4Jz2uvNExL497mE43ikXhwF6kZm", addr.String())

	decoded, version, err := DecodeWIF(wif)
	require.NoError(t, err)
	require.Equal(t, byte(0x80), version)
	require.False(t, decoded.Compressed)
}

func TestBase58CheckRoundTrip(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20}
	encoded := Base58CheckEncode(0x00, payload, nil)

	version, decodedPayload, suffix, err := Base58CheckDecode(encoded, 0)
	require.NoError(t, err)
	require.Equal(t, byte(0x00), version)
	require.Equal(t, payload, decodedPayload)
	require.Empty(t, suffix)
}

func TestBase58CheckRejectsBadChecksum(t *testing.T) {
	payload := []byte{1, 2, 3}
	encoded := Base58CheckEncode(0x00, payload, nil)
	tampered := encoded[:len(encoded)-1] + "z"

	_, _, _, err := Base58CheckDecode(tampered, 0)
	require.Error(t, err)
}
