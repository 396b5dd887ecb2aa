package nftstaking

import (
	"crypto/ed25519"

	"github.com/code-payments/nft-staking-cli/pkg/solana"
)

type UnstakeInstructionAccounts struct {
	Payer       ed25519.PublicKey
	Nft         ed25519.PublicKey
	Metadata    ed25519.PublicKey
	Vault       ed25519.PublicKey
	StakeRecord ed25519.PublicKey
	Whitelist   ed25519.PublicKey

	// Accrued rewards move from the vault to the payer.
	PayerRewards ed25519.PublicKey
	VaultRewards ed25519.PublicKey

	// The NFT moves from the vault back to the payer.
	PayerNft ed25519.PublicKey
	VaultNft ed25519.PublicKey
}

func NewUnstakeInstruction(
	config *Config,
	accounts *UnstakeInstructionAccounts,
) solana.Instruction {
	var offset int

	data := make([]byte, 1)
	putInstructionType(data, InstructionTypeUnstake, &offset)

	return solana.Instruction{
		Program: config.Program,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.Payer,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  config.SystemProgram,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Nft,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  config.TokenProgram,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  config.RentSysvar,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  config.AssociatedTokenProgram,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.StakeRecord,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Vault,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.PayerRewards,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.VaultRewards,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.PayerNft,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.VaultNft,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Metadata,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Whitelist,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  config.RewardMint,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}
}
