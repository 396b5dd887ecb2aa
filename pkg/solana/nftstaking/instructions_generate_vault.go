package nftstaking

import (
	"crypto/ed25519"

	"github.com/code-payments/nft-staking-cli/pkg/solana"
)

const (
	GenerateVaultInstructionArgsSize = (8 + // min_period
		8) // reward_period
)

type GenerateVaultInstructionArgs struct {
	MinPeriod    uint64
	RewardPeriod uint64
}

type GenerateVaultInstructionAccounts struct {
	Payer ed25519.PublicKey
	Vault ed25519.PublicKey
}

func NewGenerateVaultInstruction(
	config *Config,
	accounts *GenerateVaultInstructionAccounts,
	args *GenerateVaultInstructionArgs,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte, 1+GenerateVaultInstructionArgsSize)

	putInstructionType(data, InstructionTypeGenerateVault, &offset)
	putUint64(data, args.MinPeriod, &offset)
	putUint64(data, args.RewardPeriod, &offset)

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
				PublicKey:  accounts.Vault,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  config.RentSysvar,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}
}

func (obj *GenerateVaultInstructionArgs) Unmarshal(data []byte) error {
	if len(data) != 1+GenerateVaultInstructionArgsSize {
		return ErrInvalidInstructionData
	}

	var offset int
	if err := getInstructionType(data, InstructionTypeGenerateVault, &offset); err != nil {
		return err
	}

	getUint64(data, &obj.MinPeriod, &offset)
	getUint64(data, &obj.RewardPeriod, &offset)
	return nil
}
