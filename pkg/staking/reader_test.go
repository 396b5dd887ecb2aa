package staking

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/nft-staking-cli/pkg/solana"
	"github.com/code-payments/nft-staking-cli/pkg/solana/metadata"
	"github.com/code-payments/nft-staking-cli/pkg/solana/nftstaking"
	"github.com/code-payments/nft-staking-cli/pkg/testutil"
)

func TestReader_FetchAccount(t *testing.T) {
	env := setup(t)
	reader := NewReader(env.sc, env.config, solana.CommitmentConfirmed)
	address := testutil.GenerateSolanaKeys(t, 1)[0]

	_, err := reader.FetchAccount(context.Background(), address)
	assert.True(t, errors.Is(err, ErrAccountNotFound))
	assert.Equal(t, KindRemoteState, Classify(err))

	env.sc.SetFailure("GetAccountInfo", &solana.NetworkError{Method: "getAccountInfo", Err: errors.New("timeout")})
	_, err = reader.FetchAccount(context.Background(), address)
	assert.Equal(t, KindNetwork, Classify(err))
}

func TestReader_GetRegistry(t *testing.T) {
	env := setup(t)
	reader := NewReader(env.sc, env.config, solana.CommitmentConfirmed)

	keys := testutil.GenerateSolanaKeys(t, 2)
	candyMachine, artist := keys[0], keys[1]
	nft := env.addNft(t, candyMachine, artist)

	expectedMetadata, _, err := metadata.GetMetadataAddress(&metadata.GetMetadataAddressArgs{Mint: nft})
	require.NoError(t, err)

	metadataAddress, registry, err := reader.GetRegistry(context.Background(), nft)
	require.NoError(t, err)
	assert.Equal(t, expectedMetadata, metadataAddress)
	assert.Equal(t, candyMachine, registry)
}

func TestReader_GetRegistry_Malformed(t *testing.T) {
	env := setup(t)
	reader := NewReader(env.sc, env.config, solana.CommitmentConfirmed)

	// No creators.
	nft := env.addNft(t)
	_, _, err := reader.GetRegistry(context.Background(), nft)
	assert.True(t, errors.Is(err, ErrMalformedRecord))
	assert.Equal(t, KindRemoteState, Classify(err))

	// Not owned by the metadata program.
	nft = env.addNft(t, testutil.GenerateSolanaKeys(t, 1)[0])
	address, _, err := metadata.GetMetadataAddress(&metadata.GetMetadataAddressArgs{Mint: nft})
	require.NoError(t, err)
	info, err := env.sc.GetAccountInfo(context.Background(), address, solana.CommitmentConfirmed)
	require.NoError(t, err)
	info.Owner = env.config.Program
	env.sc.SetAccount(address, info)

	_, _, err = reader.GetRegistry(context.Background(), nft)
	assert.True(t, errors.Is(err, ErrMalformedRecord))

	// Garbage data.
	info.Owner = env.config.MetadataProgram
	info.Data = []byte{4, 1, 2}
	env.sc.SetAccount(address, info)

	_, _, err = reader.GetRegistry(context.Background(), nft)
	assert.True(t, errors.Is(err, ErrMalformedRecord))

	// Missing entirely.
	_, _, err = reader.GetRegistry(context.Background(), testutil.GenerateSolanaKeys(t, 1)[0])
	assert.True(t, errors.Is(err, ErrAccountNotFound))
}

func TestReader_State(t *testing.T) {
	env := setup(t)
	reader := NewReader(env.sc, env.config, solana.CommitmentConfirmed)

	_, _, err := reader.GetVault(context.Background())
	assert.True(t, errors.Is(err, ErrAccountNotFound))

	vault := env.setVault(t, &nftstaking.ContractDataAccount{MinPeriod: 100, RewardPeriod: 200})

	address, contract, err := reader.GetVault(context.Background())
	require.NoError(t, err)
	assert.Equal(t, vault, address)
	assert.EqualValues(t, 100, contract.MinPeriod)
	assert.EqualValues(t, 200, contract.RewardPeriod)

	registry := testutil.GenerateSolanaKeys(t, 1)[0]
	whitelist, _, err := nftstaking.GetWhitelistAddress(&nftstaking.GetWhitelistAddressArgs{Registry: registry})
	require.NoError(t, err)

	// Owned by another program.
	env.sc.SetAccount(whitelist, solana.AccountInfo{
		Owner: env.config.SystemProgram,
		Data:  (&nftstaking.RateDataAccount{Price: 500}).Marshal(),
	})
	_, _, err = reader.GetWhitelistEntry(context.Background(), registry)
	assert.True(t, errors.Is(err, nftstaking.ErrInvalidAccountData))

	env.sc.SetAccount(whitelist, solana.AccountInfo{
		Owner: env.config.Program,
		Data:  (&nftstaking.RateDataAccount{Price: 500}).Marshal(),
	})
	_, rate, err := reader.GetWhitelistEntry(context.Background(), registry)
	require.NoError(t, err)
	assert.EqualValues(t, 500, rate.Price)

	env.setClock(1_700_000_000)
	clock, err := reader.GetClock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.Unix(1_700_000_000, 0), clock.Time())
}

func TestReader_GetTokenBalance(t *testing.T) {
	env := setup(t)
	reader := NewReader(env.sc, env.config, solana.CommitmentConfirmed)
	owner := testutil.GenerateSolanaKeys(t, 1)[0]

	_, balance, err := reader.GetTokenBalance(context.Background(), owner, env.config.RewardMint)
	require.NoError(t, err)
	assert.Zero(t, balance)

	expected := env.setTokenAccount(t, owner, env.config.RewardMint, 1234)

	address, balance, err := reader.GetTokenBalance(context.Background(), owner, env.config.RewardMint)
	require.NoError(t, err)
	assert.Equal(t, expected, address)
	assert.EqualValues(t, 1234, balance)
}
