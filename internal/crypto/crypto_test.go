package crypto

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

func TestSealOpen(t *testing.T) {
	key := testKey(t)

	testCases := []struct {
		name      string
		plaintext []byte
		aad       []byte
	}{
		{name: "json record", plaintext: []byte(`{"id":"aspirin"}`), aad: []byte("task/1")},
		{name: "unicode", plaintext: []byte("Привет, мир! 🌍"), aad: nil},
		{name: "empty", plaintext: []byte{}, aad: []byte("outcome/2")},
		{name: "large", plaintext: make([]byte, 4096), aad: []byte("patient/3")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sealed, err := Seal(tc.plaintext, key, tc.aad)
			require.NoError(t, err)
			assert.Len(t, sealed, NonceSize+len(tc.plaintext)+16)

			opened, err := Open(sealed, key, tc.aad)
			require.NoError(t, err)
			assert.Equal(t, len(tc.plaintext), len(opened))
			if len(tc.plaintext) > 0 {
				assert.Equal(t, tc.plaintext, opened)
			}
		})
	}
}

func TestOpen_Failures(t *testing.T) {
	key := testKey(t)
	sealed, err := Seal([]byte("secret"), key, []byte("task/1"))
	require.NoError(t, err)

	_, err = Open(sealed, testKey(t), []byte("task/1"))
	assert.Error(t, err, "wrong key")

	_, err = Open(sealed, key, []byte("task/2"))
	assert.Error(t, err, "record moved to another key")

	tampered := append([]byte(nil), sealed...)
	tampered[len(tampered)-1] ^= 0xff
	_, err = Open(tampered, key, []byte("task/1"))
	assert.Error(t, err, "tampered data")

	_, err = Open([]byte{1, 2, 3}, key, nil)
	assert.ErrorContains(t, err, "too short")

	_, err = Seal([]byte("x"), []byte("short"), nil)
	assert.ErrorContains(t, err, "must be 32 bytes")
}

func TestSeal_Randomness(t *testing.T) {
	key := testKey(t)

	a, err := Seal([]byte("same data"), key, nil)
	require.NoError(t, err)
	b, err := Seal([]byte("same data"), key, nil)
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "nonce должен быть случайным")
}

func TestDeriveKeys(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)
	assert.Len(t, salt, SaltSize)

	keys, err := DeriveKeys("correct horse battery staple", salt)
	require.NoError(t, err)
	assert.Len(t, keys.CheckKey, KeySize)
	assert.Len(t, keys.EncryptionKey, KeySize)
	assert.NotEqual(t, keys.CheckKey, keys.EncryptionKey)

	again, err := DeriveKeys("correct horse battery staple", salt)
	require.NoError(t, err)
	assert.Equal(t, keys.EncryptionKey, again.EncryptionKey, "деривация детерминирована")

	other, err := DeriveKeys("another passphrase", salt)
	require.NoError(t, err)
	assert.NotEqual(t, keys.EncryptionKey, other.EncryptionKey)

	_, err = DeriveKeys("", salt)
	assert.Error(t, err)
	_, err = DeriveKeys("pass", []byte("short"))
	assert.Error(t, err)
}

func TestHashAndVerifyKey(t *testing.T) {
	key := testKey(t)

	hashed, err := HashKey(key)
	require.NoError(t, err)
	assert.Len(t, hashed, 64)

	assert.NoError(t, VerifyKey(key, hashed))
	assert.ErrorIs(t, VerifyKey(testKey(t), hashed), ErrKeyMismatch)
	assert.Error(t, VerifyKey(key, ""))

	_, err = HashKey(nil)
	assert.Error(t, err)
}
