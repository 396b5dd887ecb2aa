package token

import (
	"crypto/ed25519"
	"testing"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAssociatedAccount(t *testing.T) {
	// Values generated from taken from spl code.
	wallet, err := base58.Decode("4uQeVj5tqViQh7yWWGStvkEG1Zmhx6uasJtWCJziofM")
	require.NoError(t, err)
	mint, err := base58.Decode("8opHzTAnfzRpPEx21XtnrVTX28YQuCpAjcn1PczScKh")
	require.NoError(t, err)
	addr, err := base58.Decode("H7MQwEzt97tUJryocn3qaEoy2ymWstwyEk1i9Yv3EmuZ")
	require.NoError(t, err)

	actual, err := GetAssociatedAccount(wallet, mint)
	require.NoError(t, err)
	assert.EqualValues(t, addr, actual)
}

func TestGetAssociatedAccount_CrossImpl(t *testing.T) {
	assert.EqualValues(t, solanago.TokenProgramID.Bytes(), ProgramKey)
	assert.EqualValues(t, solanago.SPLAssociatedTokenAccountProgramID.Bytes(), AssociatedTokenAccountProgramKey)

	for i := 0; i < 10; i++ {
		wallet, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		mint, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)

		expected, _, err := solanago.FindAssociatedTokenAddress(
			solanago.PublicKeyFromBytes(wallet),
			solanago.PublicKeyFromBytes(mint),
		)
		require.NoError(t, err)

		actual, err := GetAssociatedAccount(wallet, mint)
		require.NoError(t, err)
		assert.EqualValues(t, expected.Bytes(), actual)
	}
}

func TestGetAssociatedAccountForPrograms(t *testing.T) {
	wallet, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	mint, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	otherTokenProgram, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	defaultAddr, err := GetAssociatedAccount(wallet, mint)
	require.NoError(t, err)

	same, err := GetAssociatedAccountForPrograms(wallet, mint, ProgramKey, AssociatedTokenAccountProgramKey)
	require.NoError(t, err)
	assert.Equal(t, defaultAddr, same)

	other, err := GetAssociatedAccountForPrograms(wallet, mint, otherTokenProgram, AssociatedTokenAccountProgramKey)
	require.NoError(t, err)
	assert.NotEqual(t, defaultAddr, other)
}
