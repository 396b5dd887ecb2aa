package staking

import (
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/nft-staking-cli/pkg/solana"
	"github.com/code-payments/nft-staking-cli/pkg/solana/nftstaking"
)

// Operation is one of the staking program's instructions along with its
// caller supplied arguments.
type Operation interface {
	Type() nftstaking.InstructionType
	Validate() error
	fmt.Stringer
}

type GenerateVault struct {
	MinPeriod    uint64
	RewardPeriod uint64
}

type AddToWhitelist struct {
	Registry ed25519.PublicKey
	Price    uint64
}

type Stake struct {
	Nft ed25519.PublicKey
}

type Unstake struct {
	Nft ed25519.PublicKey
}

type Withdraw struct {
	Amount uint64
}

func (GenerateVault) Type() nftstaking.InstructionType {
	return nftstaking.InstructionTypeGenerateVault
}

func (AddToWhitelist) Type() nftstaking.InstructionType {
	return nftstaking.InstructionTypeAddToWhitelist
}

func (Stake) Type() nftstaking.InstructionType {
	return nftstaking.InstructionTypeStake
}

func (Unstake) Type() nftstaking.InstructionType {
	return nftstaking.InstructionTypeUnstake
}

func (Withdraw) Type() nftstaking.InstructionType {
	return nftstaking.InstructionTypeWithdraw
}

func (GenerateVault) Validate() error { return nil }
func (Withdraw) Validate() error      { return nil }

func (op AddToWhitelist) Validate() error {
	return validateKey("registry", op.Registry)
}

func (op Stake) Validate() error {
	return validateKey("nft", op.Nft)
}

func (op Unstake) Validate() error {
	return validateKey("nft", op.Nft)
}

func (op GenerateVault) String() string {
	return fmt.Sprintf("generate_vault(min_period=%d, reward_period=%d)", op.MinPeriod, op.RewardPeriod)
}

func (op AddToWhitelist) String() string {
	return fmt.Sprintf("add_to_whitelist(registry=%s, price=%d)", base58.Encode(op.Registry), op.Price)
}

func (op Stake) String() string {
	return fmt.Sprintf("stake(nft=%s)", base58.Encode(op.Nft))
}

func (op Unstake) String() string {
	return fmt.Sprintf("unstake(nft=%s)", base58.Encode(op.Nft))
}

func (op Withdraw) String() string {
	return fmt.Sprintf("withdraw(amount=%d)", op.Amount)
}

func validateKey(name string, key ed25519.PublicKey) error {
	if len(key) != ed25519.PublicKeySize {
		return NewConfigError(errors.Wrapf(solana.ErrInvalidAddress, "%s must be %d bytes", name, ed25519.PublicKeySize))
	}
	return nil
}
