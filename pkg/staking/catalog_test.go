package staking

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/nft-staking-cli/pkg/solana"
	"github.com/code-payments/nft-staking-cli/pkg/solana/metadata"
	"github.com/code-payments/nft-staking-cli/pkg/solana/nftstaking"
	"github.com/code-payments/nft-staking-cli/pkg/testutil"
)

func newTestCatalog(env *testEnv) *Catalog {
	return NewCatalog(env.config, NewReader(env.sc, env.config, solana.CommitmentConfirmed))
}

func TestCatalog_GenerateVault(t *testing.T) {
	env := setup(t)
	catalog := newTestCatalog(env)

	res, err := catalog.Resolve(context.Background(), env.payerKey(), GenerateVault{MinPeriod: 100, RewardPeriod: 200})
	require.NoError(t, err)

	expectedVault, err := solana.FindProgramAddress(env.config.Program, []byte("vault"))
	require.NoError(t, err)
	assert.Equal(t, expectedVault, res.Vault)

	ix := res.Instruction
	assert.Equal(t, []byte{0, 100, 0, 0, 0, 0, 0, 0, 0, 200, 0, 0, 0, 0, 0, 0, 0}, ix.Data)
	require.Len(t, ix.Accounts, 4)
	assert.Equal(t, solana.NewAccountMeta(env.payerKey(), true), ix.Accounts[0])
	assert.Equal(t, solana.NewReadonlyAccountMeta(env.config.SystemProgram, false), ix.Accounts[1])
	assert.Equal(t, solana.NewAccountMeta(expectedVault, false), ix.Accounts[2])
	assert.Equal(t, solana.NewReadonlyAccountMeta(env.config.RentSysvar, false), ix.Accounts[3])

	// Offline.
	assert.Zero(t, env.sc.Calls("GetAccountInfo"))
}

func TestCatalog_AddToWhitelist(t *testing.T) {
	env := setup(t)
	catalog := newTestCatalog(env)
	registry := testutil.GenerateSolanaKeys(t, 1)[0]

	res, err := catalog.Resolve(context.Background(), env.payerKey(), AddToWhitelist{Registry: registry, Price: 500})
	require.NoError(t, err)

	expectedWhitelist, err := solana.FindProgramAddress(env.config.Program, []byte("whitelist"), registry)
	require.NoError(t, err)
	assert.Equal(t, expectedWhitelist, res.Whitelist)
	assert.Equal(t, registry, res.Registry)

	assert.Equal(t, []byte{3, 0xf4, 0x01, 0, 0, 0, 0, 0, 0}, res.Instruction.Data)
	require.Len(t, res.Instruction.Accounts, 5)
	assert.Equal(t, expectedWhitelist, res.Instruction.Accounts[2].PublicKey)
	assert.Zero(t, env.sc.Calls("GetAccountInfo"))
}

func TestCatalog_Withdraw(t *testing.T) {
	env := setup(t)
	catalog := newTestCatalog(env)

	res, err := catalog.Resolve(context.Background(), env.payerKey(), Withdraw{Amount: 42})
	require.NoError(t, err)

	ix := res.Instruction
	require.Len(t, ix.Accounts, 9)
	assert.Equal(t, []ed25519.PublicKey{env.payerKey()}, ix.Signers())
	assert.True(t, ix.Accounts[0].IsSigner)

	payerRewards, err := env.config.GetAssociatedAccount(env.payerKey(), env.config.RewardMint)
	require.NoError(t, err)
	vaultRewards, err := env.config.GetAssociatedAccount(res.Vault, env.config.RewardMint)
	require.NoError(t, err)

	assert.Equal(t, payerRewards, ix.Accounts[1].PublicKey)
	assert.Equal(t, vaultRewards, ix.Accounts[2].PublicKey)
	assert.Equal(t, res.Vault, ix.Accounts[3].PublicKey)

	var args nftstaking.WithdrawInstructionArgs
	require.NoError(t, args.Unmarshal(ix.Data))
	assert.EqualValues(t, 42, args.Amount)
}

func TestCatalog_StakeAndUnstake(t *testing.T) {
	env := setup(t)
	catalog := newTestCatalog(env)

	registry := testutil.GenerateSolanaKeys(t, 1)[0]
	nft := env.addNft(t, registry)

	expectedMetadata, _, err := metadata.GetMetadataAddress(&metadata.GetMetadataAddressArgs{Mint: nft})
	require.NoError(t, err)
	expectedWhitelist, err := solana.FindProgramAddress(env.config.Program, []byte("whitelist"), registry)
	require.NoError(t, err)
	expectedStakeRecord, err := solana.FindProgramAddress(env.config.Program, nft)
	require.NoError(t, err)
	payerNft, err := env.config.GetAssociatedAccount(env.payerKey(), nft)
	require.NoError(t, err)

	for _, op := range []Operation{Stake{Nft: nft}, Unstake{Nft: nft}} {
		res, err := catalog.Resolve(context.Background(), env.payerKey(), op)
		require.NoError(t, err)

		assert.Equal(t, expectedMetadata, res.Metadata)
		assert.Equal(t, registry, res.Registry)
		assert.Equal(t, expectedWhitelist, res.Whitelist)
		assert.Equal(t, expectedStakeRecord, res.StakeRecord)

		vaultNft, err := env.config.GetAssociatedAccount(res.Vault, nft)
		require.NoError(t, err)

		ix := res.Instruction
		assert.Equal(t, []byte{byte(op.Type())}, ix.Data)
		assert.Equal(t, []ed25519.PublicKey{env.payerKey()}, ix.Signers())

		switch op.(type) {
		case Stake:
			require.Len(t, ix.Accounts, 12)
			assert.Equal(t, expectedMetadata, ix.Accounts[2].PublicKey)
			assert.Equal(t, payerNft, ix.Accounts[4].PublicKey)
			assert.Equal(t, vaultNft, ix.Accounts[5].PublicKey)
			assert.Equal(t, expectedStakeRecord, ix.Accounts[10].PublicKey)
			assert.Equal(t, expectedWhitelist, ix.Accounts[11].PublicKey)
		case Unstake:
			require.Len(t, ix.Accounts, 15)
			assert.Equal(t, expectedStakeRecord, ix.Accounts[6].PublicKey)
			assert.Equal(t, payerNft, ix.Accounts[10].PublicKey)
			assert.Equal(t, vaultNft, ix.Accounts[11].PublicKey)
			assert.Equal(t, expectedMetadata, ix.Accounts[12].PublicKey)
			assert.Equal(t, expectedWhitelist, ix.Accounts[13].PublicKey)
			assert.Equal(t, env.config.RewardMint, ix.Accounts[14].PublicKey)
		}
	}

	assert.Equal(t, 2, env.sc.Calls("GetAccountInfo"))
}

func TestCatalog_Errors(t *testing.T) {
	env := setup(t)
	catalog := newTestCatalog(env)

	_, err := catalog.Resolve(context.Background(), env.payerKey(), Stake{Nft: make([]byte, 31)})
	assert.Equal(t, KindConfig, Classify(err))

	_, err = catalog.Resolve(context.Background(), env.payerKey(), AddToWhitelist{Price: 1})
	assert.Equal(t, KindConfig, Classify(err))

	_, err = catalog.Resolve(context.Background(), env.payerKey(), Unstake{Nft: testutil.GenerateSolanaKeys(t, 1)[0]})
	assert.True(t, errors.Is(err, ErrAccountNotFound))

	nft := env.addNft(t)
	_, err = catalog.Resolve(context.Background(), env.payerKey(), Stake{Nft: nft})
	assert.True(t, errors.Is(err, ErrMalformedRecord))
}
