package solana

import (
	"crypto/ed25519"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeKeypair(t *testing.T, key []byte) []byte {
	values := make([]int, len(key))
	for i, b := range key {
		values[i] = int(b)
	}
	return encodeInts(t, values)
}

func encodeInts(t *testing.T, values []int) []byte {
	raw, err := json.Marshal(values)
	require.NoError(t, err)
	return raw
}

func TestLoadKeypair(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "id.json")
	require.NoError(t, os.WriteFile(path, encodeKeypair(t, priv), 0600))

	loaded, err := LoadKeypair(path)
	require.NoError(t, err)
	assert.Equal(t, priv, loaded)
	assert.Equal(t, priv.Public(), loaded.Public())

	_, err = LoadKeypair(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = LoadKeypair("")
	assert.Error(t, err)
}

func TestParseKeypair_Invalid(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	mismatched := make([]byte, len(priv))
	copy(mismatched, priv)
	mismatched[len(mismatched)-1] ^= 0xff

	outOfRange := make([]int, len(priv))
	for i, b := range priv {
		outOfRange[i] = int(b)
	}
	outOfRange[0] = 256

	for _, raw := range [][]byte{
		[]byte("not json"),
		[]byte(`{"key": 1}`),
		encodeKeypair(t, priv[:32]),
		encodeInts(t, outOfRange),
		encodeKeypair(t, mismatched),
	} {
		_, err := ParseKeypair(raw)
		assert.True(t, errors.Is(err, ErrInvalidKeypairFile), string(raw))
	}
}

func TestParseAddress(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	parsed, err := ParseAddress(base58.Encode(pub))
	require.NoError(t, err)
	assert.EqualValues(t, pub, parsed)

	for _, s := range []string{"", "0OIl", base58.Encode(pub[:31])} {
		_, err := ParseAddress(s)
		assert.True(t, errors.Is(err, ErrInvalidAddress), s)
	}
}

func TestEnvironmentFromName(t *testing.T) {
	assert.Equal(t, EnvironmentDev, EnvironmentFromName("dev"))
	assert.Equal(t, EnvironmentDev, EnvironmentFromName("devnet"))
	assert.Equal(t, EnvironmentTest, EnvironmentFromName("test"))
	assert.Equal(t, EnvironmentProd, EnvironmentFromName("prod"))
	assert.Equal(t, EnvironmentProd, EnvironmentFromName(""))
	assert.Equal(t, EnvironmentProd, EnvironmentFromName("anything"))
}
