package binary

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundTrip(t *testing.T) {
	key := make(ed25519.PublicKey, ed25519.PublicKeySize)
	for i := range key {
		key[i] = byte(i)
	}
	native := uint64(7)

	b := make([]byte, 32+8+1+1+(4+32)+(4+8))

	var offset int
	PutKey32(b[offset:], key, &offset)
	PutUint64(b[offset:], 1234, &offset)
	PutUint8(b[offset:], 9, &offset)
	PutBool(b[offset:], true, &offset)
	PutOptionalKey32(b[offset:], key, &offset, 4)
	PutOptionalUint64(b[offset:], &native, &offset, 4)
	assert.Equal(t, len(b), offset)

	var (
		actualKey      ed25519.PublicKey
		actualUint64   uint64
		actualUint8    uint8
		actualBool     bool
		actualOptional ed25519.PublicKey
		actualNative   *uint64
	)

	offset = 0
	GetKey32(b[offset:], &actualKey, &offset)
	GetUint64(b[offset:], &actualUint64, &offset)
	GetUint8(b[offset:], &actualUint8, &offset)
	GetBool(b[offset:], &actualBool, &offset)
	GetOptionalKey32(b[offset:], &actualOptional, &offset, 4)
	GetOptionalUint64(b[offset:], &actualNative, &offset, 4)
	assert.Equal(t, len(b), offset)

	assert.Equal(t, key, actualKey)
	assert.EqualValues(t, 1234, actualUint64)
	assert.EqualValues(t, 9, actualUint8)
	assert.True(t, actualBool)
	assert.Equal(t, key, actualOptional)
	assert.Equal(t, &native, actualNative)
}

func TestOptionalNone(t *testing.T) {
	b := make([]byte, 4+32+4+8)

	var offset int
	PutOptionalKey32(b[offset:], nil, &offset, 4)
	PutOptionalUint64(b[offset:], nil, &offset, 4)
	assert.Equal(t, make([]byte, len(b)), b)

	var key ed25519.PublicKey
	var native *uint64

	offset = 0
	GetOptionalKey32(b[offset:], &key, &offset, 4)
	GetOptionalUint64(b[offset:], &native, &offset, 4)
	assert.Nil(t, key)
	assert.Nil(t, native)
}
