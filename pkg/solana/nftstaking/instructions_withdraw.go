package nftstaking

import (
	"crypto/ed25519"

	"github.com/code-payments/nft-staking-cli/pkg/solana"
)

const (
	WithdrawInstructionArgsSize = 8 // amount
)

type WithdrawInstructionArgs struct {
	Amount uint64
}

type WithdrawInstructionAccounts struct {
	Payer ed25519.PublicKey
	Vault ed25519.PublicKey

	// Associated reward token accounts of the payer and the vault.
	PayerRewards ed25519.PublicKey
	VaultRewards ed25519.PublicKey
}

func NewWithdrawInstruction(
	config *Config,
	accounts *WithdrawInstructionAccounts,
	args *WithdrawInstructionArgs,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte, 1+WithdrawInstructionArgsSize)

	putInstructionType(data, InstructionTypeWithdraw, &offset)
	putUint64(data, args.Amount, &offset)

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
				PublicKey:  accounts.Vault,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  config.RewardMint,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  config.SystemProgram,
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
		},
	}
}

func (obj *WithdrawInstructionArgs) Unmarshal(data []byte) error {
	if len(data) != 1+WithdrawInstructionArgsSize {
		return ErrInvalidInstructionData
	}

	var offset int
	if err := getInstructionType(data, InstructionTypeWithdraw, &offset); err != nil {
		return err
	}

	getUint64(data, &obj.Amount, &offset)
	return nil
}
