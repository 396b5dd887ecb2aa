package nftstaking

import (
	"crypto/ed25519"

	"github.com/code-payments/nft-staking-cli/pkg/solana"
)

const (
	AddToWhitelistInstructionArgsSize = 8 // price
)

type AddToWhitelistInstructionArgs struct {
	// Price is the reward rate paid per staking period for NFTs of the
	// registered collection.
	Price uint64
}

type AddToWhitelistInstructionAccounts struct {
	Payer     ed25519.PublicKey
	Registry  ed25519.PublicKey
	Whitelist ed25519.PublicKey
}

func NewAddToWhitelistInstruction(
	config *Config,
	accounts *AddToWhitelistInstructionAccounts,
	args *AddToWhitelistInstructionArgs,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte, 1+AddToWhitelistInstructionArgsSize)

	putInstructionType(data, InstructionTypeAddToWhitelist, &offset)
	putUint64(data, args.Price, &offset)

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
				PublicKey:  accounts.Registry,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Whitelist,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  config.SystemProgram,
				IsWritable: false,
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

func (obj *AddToWhitelistInstructionArgs) Unmarshal(data []byte) error {
	if len(data) != 1+AddToWhitelistInstructionArgsSize {
		return ErrInvalidInstructionData
	}

	var offset int
	if err := getInstructionType(data, InstructionTypeAddToWhitelist, &offset); err != nil {
		return err
	}

	getUint64(data, &obj.Price, &offset)
	return nil
}
