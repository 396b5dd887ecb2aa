package nftstaking

import (
	"crypto/ed25519"

	"github.com/code-payments/nft-staking-cli/pkg/solana"
)

var (
	VaultPrefix     = []byte("vault")
	WhitelistPrefix = []byte("whitelist")
)

type GetVaultAddressArgs struct {
	Program ed25519.PublicKey
}

// GetVaultAddress returns the program's singleton vault, which holds the
// ContractData and custody of staked NFTs and rewards.
func GetVaultAddress(args *GetVaultAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		programOrDefault(args.Program),
		VaultPrefix,
	)
}

type GetWhitelistAddressArgs struct {
	Program ed25519.PublicKey
	// Registry is the collection's first creator (its candy machine).
	Registry ed25519.PublicKey
}

func GetWhitelistAddress(args *GetWhitelistAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		programOrDefault(args.Program),
		WhitelistPrefix,
		args.Registry,
	)
}

type GetStakeRecordAddressArgs struct {
	Program ed25519.PublicKey
	Nft     ed25519.PublicKey
}

// GetStakeRecordAddress is seeded by the mint alone, so an NFT has a single
// stake record regardless of who staked it.
func GetStakeRecordAddress(args *GetStakeRecordAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		programOrDefault(args.Program),
		args.Nft,
	)
}

func programOrDefault(program ed25519.PublicKey) ed25519.PublicKey {
	if len(program) == 0 {
		return PROGRAM_ID
	}
	return program
}
