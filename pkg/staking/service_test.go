package staking

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/nft-staking-cli/pkg/solana"
	"github.com/code-payments/nft-staking-cli/pkg/solana/nftstaking"
	"github.com/code-payments/nft-staking-cli/pkg/testutil"
)

func TestService_GenerateVault(t *testing.T) {
	env := setup(t)

	outcome, err := env.service.Execute(context.Background(), env.payer, GenerateVault{MinPeriod: 100, RewardPeriod: 200})
	require.NoError(t, err)

	expectedVault, err := solana.FindProgramAddress(env.config.Program, []byte("vault"))
	require.NoError(t, err)
	assert.Equal(t, expectedVault, outcome.Vault)
	assert.EqualValues(t, 1, outcome.Attempts)

	submitted := env.sc.Submitted()
	require.Len(t, submitted, 1)
	assert.Equal(t, outcome.Signature, submitted[0].Signatures[0])
	assert.Equal(t, initialBlockhash, submitted[0].Message.RecentBlockhash)

	ix, err := submitted[0].Message.DecompileInstruction(0)
	require.NoError(t, err)
	assert.EqualValues(t, env.config.Program, ix.Program)

	var args nftstaking.GenerateVaultInstructionArgs
	require.NoError(t, args.Unmarshal(ix.Data))
	assert.EqualValues(t, 100, args.MinPeriod)
	assert.EqualValues(t, 200, args.RewardPeriod)

	assert.Equal(t, 1, env.sc.Calls("GetLatestBlockhash"))
}

func TestService_Stake(t *testing.T) {
	env := setup(t)
	registry := testutil.GenerateSolanaKeys(t, 1)[0]
	nft := env.addNft(t, registry)

	outcome, err := env.service.Execute(context.Background(), env.payer, Stake{Nft: nft})
	require.NoError(t, err)
	assert.Equal(t, registry, outcome.Registry)

	submitted := env.sc.Submitted()
	require.Len(t, submitted, 1)

	ix, err := submitted[0].Message.DecompileInstruction(0)
	require.NoError(t, err)
	require.Len(t, ix.Accounts, 12)
	assert.Equal(t, outcome.Whitelist, ix.Accounts[11].PublicKey)
	assert.Equal(t, outcome.StakeRecord, ix.Accounts[10].PublicKey)
}

func TestService_Errors(t *testing.T) {
	env := setup(t)

	// Metadata without creators fails before anything is submitted.
	nft := env.addNft(t)
	_, err := env.service.Execute(context.Background(), env.payer, Unstake{Nft: nft})
	assert.True(t, errors.Is(err, ErrMalformedRecord))
	assert.Zero(t, env.sc.Calls("SubmitTransaction"))

	env.sc.SetFailure("GetLatestBlockhash", &solana.NetworkError{Method: "getLatestBlockhash", Err: errors.New("timeout")})
	_, err = env.service.Execute(context.Background(), env.payer, Withdraw{Amount: 1})
	assert.Equal(t, KindNetwork, Classify(err))
	assert.Zero(t, env.sc.Calls("SubmitTransaction"))
	env.sc.SetFailure("GetLatestBlockhash", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = env.service.Execute(ctx, env.payer, Withdraw{Amount: 1})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, KindNetwork, Classify(err))
	assert.Zero(t, env.sc.Calls("SubmitTransaction"))

	_, err = env.service.Execute(context.Background(), env.payer[:5], Withdraw{Amount: 1})
	assert.Equal(t, KindSigning, Classify(err))
}

func TestService_VaultInfo(t *testing.T) {
	env := setup(t)

	info, err := env.service.VaultInfo(context.Background())
	require.NoError(t, err)
	assert.Nil(t, info.Contract)
	assert.NotEmpty(t, info.Address)

	vault := env.setVault(t, &nftstaking.ContractDataAccount{MinPeriod: 100, RewardPeriod: 200})
	rewards := env.setTokenAccount(t, vault, env.config.RewardMint, 5000)

	info, err = env.service.VaultInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, vault, info.Address)
	assert.EqualValues(t, 100, info.Contract.MinPeriod)
	assert.Equal(t, rewards, info.RewardAccount)
	assert.EqualValues(t, 5000, info.RewardBalance)
}

func TestService_StakeInfo(t *testing.T) {
	env := setup(t)
	nft := testutil.GenerateSolanaKeys(t, 1)[0]
	staker := env.payerKey()

	_, err := env.service.StakeInfo(context.Background(), nft)
	assert.True(t, errors.Is(err, ErrAccountNotFound))

	env.setVault(t, &nftstaking.ContractDataAccount{MinPeriod: 60, RewardPeriod: 10})
	stakeRecord, _, err := nftstaking.GetStakeRecordAddress(&nftstaking.GetStakeRecordAddressArgs{Nft: nft})
	require.NoError(t, err)
	env.sc.SetAccount(stakeRecord, solana.AccountInfo{
		Owner: env.config.Program,
		Data: (&nftstaking.StakeDataAccount{
			Timestamp: 1000,
			Staker:    staker,
			Active:    true,
		}).Marshal(),
	})

	env.setClock(1030)
	info, err := env.service.StakeInfo(context.Background(), nft)
	require.NoError(t, err)
	assert.Equal(t, stakeRecord, info.Address)
	assert.Equal(t, staker, info.Stake.Staker)
	assert.False(t, info.Unlocked)
	assert.Equal(t, time.Unix(1060, 0), info.UnlocksAt)

	env.setClock(1060)
	info, err = env.service.StakeInfo(context.Background(), nft)
	require.NoError(t, err)
	assert.True(t, info.Unlocked)

	_, err = env.service.StakeInfo(context.Background(), nft[:4])
	assert.Equal(t, KindConfig, Classify(err))
}

func TestService_WhitelistInfo(t *testing.T) {
	env := setup(t)
	registry := testutil.GenerateSolanaKeys(t, 1)[0]

	_, err := env.service.WhitelistInfo(context.Background(), registry)
	assert.True(t, errors.Is(err, ErrAccountNotFound))

	whitelist, err := solana.FindProgramAddress(env.config.Program, []byte("whitelist"), registry)
	require.NoError(t, err)
	env.sc.SetAccount(whitelist, solana.AccountInfo{
		Owner: env.config.Program,
		Data:  (&nftstaking.RateDataAccount{Price: 500}).Marshal(),
	})

	info, err := env.service.WhitelistInfo(context.Background(), registry)
	require.NoError(t, err)
	assert.Equal(t, whitelist, info.Address)
	assert.EqualValues(t, 500, info.Rate.Price)
}
