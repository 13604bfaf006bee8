package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharedKeyAgreement(t *testing.T) {
	alice, err := GenerateKeyPair()
	require.NoError(t, err)
	bob, err := GenerateKeyPair()
	require.NoError(t, err)

	ka, err := alice.SharedKey(bob.PublicKey())
	require.NoError(t, err)
	kb, err := bob.SharedKey(alice.PublicKey())
	require.NoError(t, err)

	assert.Len(t, ka, KeySize)
	assert.Equal(t, ka, kb)

	ct, err := Encrypt(ka, []byte("hello"))
	require.NoError(t, err)
	pt, err := Decrypt(kb, ct)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(pt))
}

func TestDecryptRejectsTampering(t *testing.T) {
	key, err := NewSymmetricKey()
	require.NoError(t, err)

	ct, err := Encrypt(key, []byte("payload"))
	require.NoError(t, err)
	ct[len(ct)-1] ^= 0xff
	_, err = Decrypt(key, ct)
	require.Error(t, err)

	_, err = Decrypt(key, []byte{1, 2, 3})
	require.ErrorIs(t, err, ErrShortCiphertext)
}

func TestNoncesDiffer(t *testing.T) {
	key, err := NewSymmetricKey()
	require.NoError(t, err)
	a, err := Encrypt(key, []byte("same"))
	require.NoError(t, err)
	b, err := Encrypt(key, []byte("same"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestBadPublicKey(t *testing.T) {
	k, err := GenerateKeyPair()
	require.NoError(t, err)

	_, err = k.SharedKey("not base64!")
	require.ErrorIs(t, err, ErrBadPublicKey)
	_, err = k.SharedKey("AAAA")
	require.ErrorIs(t, err, ErrBadPublicKey)
}
