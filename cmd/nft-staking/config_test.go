package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/nft-staking-cli/pkg/solana"
	"github.com/code-payments/nft-staking-cli/pkg/solana/nftstaking"
	"github.com/code-payments/nft-staking-cli/pkg/testutil"
)

func TestLoadConfig_Defaults(t *testing.T) {
	config, err := loadConfig(newViper(), "")
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), config)
	assert.Equal(t, string(solana.EnvironmentProd), config.Endpoint())

	deployment, err := config.Deployment()
	require.NoError(t, err)
	assert.Equal(t, nftstaking.DefaultConfig(), deployment)

	opts, err := config.Options()
	require.NoError(t, err)
	assert.Equal(t, solana.CommitmentConfirmed, opts.Commitment)
	assert.Equal(t, time.Minute, opts.FreshnessWindow)
	assert.EqualValues(t, 3, opts.StaleRestarts)
	assert.False(t, opts.Confirm)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("NFT_STAKING_ENV", "dev")
	t.Setenv("NFT_STAKING_RPC_TIMEOUT", "5s")
	t.Setenv("NFT_STAKING_STALE_RESTARTS", "7")
	t.Setenv("NFT_STAKING_CONFIRM", "true")
	t.Setenv("NFT_STAKING_COMMITMENT", "finalized")

	config, err := loadConfig(newViper(), "")
	require.NoError(t, err)
	assert.Equal(t, "dev", config.Env)
	assert.Equal(t, 5*time.Second, config.RPCTimeout)
	assert.EqualValues(t, 7, config.StaleRestarts)
	assert.True(t, config.Confirm)
	assert.Equal(t, string(solana.EnvironmentDev), config.Endpoint())

	opts, err := config.Options()
	require.NoError(t, err)
	assert.Equal(t, solana.CommitmentFinalized, opts.Commitment)
}

func TestLoadConfig_File(t *testing.T) {
	program := testutil.GenerateSolanaKeys(t, 1)[0]

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"env: test\n"+
			"freshness_window: 90s\n"+
			"program_id: "+base58.Encode(program)+"\n",
	), 0o600))

	config, err := loadConfig(newViper(), path)
	require.NoError(t, err)
	assert.Equal(t, string(solana.EnvironmentTest), config.Endpoint())
	assert.Equal(t, 90*time.Second, config.FreshnessWindow)

	deployment, err := config.Deployment()
	require.NoError(t, err)
	assert.EqualValues(t, program, deployment.Program)
	assert.EqualValues(t, nftstaking.REWARD_MINT, deployment.RewardMint)

	// The environment takes precedence over the file.
	t.Setenv("NFT_STAKING_ENV", "prod")
	config, err = loadConfig(newViper(), path)
	require.NoError(t, err)
	assert.Equal(t, string(solana.EnvironmentProd), config.Endpoint())
}

func TestLoadConfig_MissingFile(t *testing.T) {
	config, err := loadConfig(newViper(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), config)
}

func TestConfig_Endpoint(t *testing.T) {
	config := defaultConfig()
	for env, expected := range map[string]solana.Environment{
		"dev":     solana.EnvironmentDev,
		"devnet":  solana.EnvironmentDev,
		"test":    solana.EnvironmentTest,
		"prod":    solana.EnvironmentProd,
		"unknown": solana.EnvironmentProd,
	} {
		config.Env = env
		assert.Equal(t, string(expected), config.Endpoint(), env)
	}

	config.RPCEndpoint = "http://localhost:8899"
	assert.Equal(t, "http://localhost:8899", config.Endpoint())
}

func TestConfig_Invalid(t *testing.T) {
	config := defaultConfig()
	config.RewardMint = "not-a-key"
	_, err := config.Deployment()
	assert.ErrorIs(t, err, solana.ErrInvalidAddress)
	assert.Contains(t, err.Error(), "reward_mint")

	config = defaultConfig()
	config.TokenProgramID = base58.Encode([]byte{1, 2, 3})
	_, err = config.Deployment()
	assert.ErrorIs(t, err, solana.ErrInvalidAddress)

	config = defaultConfig()
	config.Commitment = "max"
	_, err = config.Options()
	assert.Error(t, err)
}

func TestNormalizeFlag(t *testing.T) {
	for name, expected := range map[string]string{
		"min_period":    "min-period",
		"reward_period": "reward-period",
		"reward-period": "reward-period",
		"candy_machine": "registry",
		"candy-machine": "registry",
		"reward":        "price",
		"rpc_endpoint":  "rpc-endpoint",
		"nft":           "nft",
	} {
		assert.EqualValues(t, expected, normalizeFlag(nil, name), name)
	}
}
