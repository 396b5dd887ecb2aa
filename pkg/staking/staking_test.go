package staking

import (
	"crypto/ed25519"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/code-payments/nft-staking-cli/pkg/solana"
	"github.com/code-payments/nft-staking-cli/pkg/solana/memory"
	"github.com/code-payments/nft-staking-cli/pkg/solana/metadata"
	"github.com/code-payments/nft-staking-cli/pkg/solana/nftstaking"
	"github.com/code-payments/nft-staking-cli/pkg/solana/system"
	"github.com/code-payments/nft-staking-cli/pkg/solana/token"
	"github.com/code-payments/nft-staking-cli/pkg/testutil"
)

var initialBlockhash = solana.Blockhash{1}

type testEnv struct {
	sc      *memory.Client
	config  *nftstaking.Config
	service *Service
	payer   ed25519.PrivateKey
}

func setup(t *testing.T) *testEnv {
	sc := memory.NewClient()
	sc.SetLatestBlockhash(initialBlockhash, 100)

	config := nftstaking.DefaultConfig()

	return &testEnv{
		sc:     sc,
		config: config,
		service: NewService(sc, config, Options{
			Commitment:      solana.CommitmentConfirmed,
			FreshnessWindow: time.Minute,
			StaleRestarts:   DefaultStaleRestarts,
		}),
		payer: testutil.GenerateSolanaKeypair(t),
	}
}

func (e *testEnv) payerKey() ed25519.PublicKey {
	return e.payer.Public().(ed25519.PublicKey)
}

// addNft creates a mint whose metadata lists creators, and returns the mint.
func (e *testEnv) addNft(t *testing.T, creators ...ed25519.PublicKey) ed25519.PublicKey {
	nft := testutil.GenerateSolanaKeys(t, 1)[0]

	record := metadata.Metadata{
		Key:             metadata.KeyMetadataV1,
		UpdateAuthority: testutil.GenerateSolanaKeys(t, 1)[0],
		Mint:            nft,
		Data: metadata.Data{
			Name:   "Staked Ape",
			Symbol: "APE",
		},
	}
	for _, c := range creators {
		record.Data.Creators = append(record.Data.Creators, metadata.Creator{Address: c, Verified: true})
	}
	if record.Data.Creators == nil {
		record.Data.Creators = []metadata.Creator{}
	}

	data, err := record.Marshal()
	require.NoError(t, err)

	address, _, err := metadata.GetMetadataAddress(&metadata.GetMetadataAddressArgs{Mint: nft})
	require.NoError(t, err)

	e.sc.SetAccount(address, solana.AccountInfo{
		Owner: e.config.MetadataProgram,
		Data:  data,
	})
	return nft
}

func (e *testEnv) setVault(t *testing.T, contract *nftstaking.ContractDataAccount) ed25519.PublicKey {
	vault, _, err := nftstaking.GetVaultAddress(&nftstaking.GetVaultAddressArgs{})
	require.NoError(t, err)

	e.sc.SetAccount(vault, solana.AccountInfo{
		Owner: e.config.Program,
		Data:  contract.Marshal(),
	})
	return vault
}

func (e *testEnv) setTokenAccount(t *testing.T, owner, mint ed25519.PublicKey, amount uint64) ed25519.PublicKey {
	address, err := e.config.GetAssociatedAccount(owner, mint)
	require.NoError(t, err)

	account := &token.Account{
		Mint:   mint,
		Owner:  owner,
		Amount: amount,
		State:  token.AccountStateInitialized,
	}
	e.sc.SetAccount(address, solana.AccountInfo{
		Owner: e.config.TokenProgram,
		Data:  account.Marshal(),
	})
	return address
}

func (e *testEnv) setClock(unixTimestamp int64) {
	data := make([]byte, system.ClockSize)
	binary.LittleEndian.PutUint64(data[32:], uint64(unixTimestamp))
	e.sc.SetAccount(system.ClockSysVar, solana.AccountInfo{
		Owner: system.ProgramKey,
		Data:  data,
	})
}
