package nftstaking

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/nft-staking-cli/pkg/solana"
	"github.com/code-payments/nft-staking-cli/pkg/solana/metadata"
	"github.com/code-payments/nft-staking-cli/pkg/solana/system"
	"github.com/code-payments/nft-staking-cli/pkg/solana/token"
)

var (
	ErrInvalidProgram         = errors.New("invalid program id")
	ErrInvalidAccountData     = errors.New("unexpected account data")
	ErrInvalidInstructionData = errors.New("unexpected instruction data")
)

var (
	PROGRAM_ADDRESS = mustBase58Decode("AxiFxRWafjidUFpnkfGmAC2iYMdteVZw8WdCrNQtkzL6")
	PROGRAM_ID      = ed25519.PublicKey(PROGRAM_ADDRESS)

	REWARD_MINT = ed25519.PublicKey(mustBase58Decode("Aoz9EBZPZ8oQHnuV8UY5bCV87xJ5DpwFcy84TrRWBCzp"))
)

// Config is a deployment of the staking program along with the programs and
// sysvars its instructions reference.
type Config struct {
	Program                ed25519.PublicKey
	RewardMint             ed25519.PublicKey
	MetadataProgram        ed25519.PublicKey
	SystemProgram          ed25519.PublicKey
	TokenProgram           ed25519.PublicKey
	AssociatedTokenProgram ed25519.PublicKey
	RentSysvar             ed25519.PublicKey
}

// DefaultConfig returns the mainnet deployment.
func DefaultConfig() *Config {
	return &Config{
		Program:                PROGRAM_ID,
		RewardMint:             REWARD_MINT,
		MetadataProgram:        metadata.ProgramKey,
		SystemProgram:          system.ProgramKey,
		TokenProgram:           token.ProgramKey,
		AssociatedTokenProgram: token.AssociatedTokenAccountProgramKey,
		RentSysvar:             system.RentSysVar,
	}
}

// Validate checks that every key is a well formed address.
func (c *Config) Validate() error {
	for _, field := range []struct {
		name string
		key  ed25519.PublicKey
	}{
		{"program", c.Program},
		{"reward mint", c.RewardMint},
		{"metadata program", c.MetadataProgram},
		{"system program", c.SystemProgram},
		{"token program", c.TokenProgram},
		{"associated token program", c.AssociatedTokenProgram},
		{"rent sysvar", c.RentSysvar},
	} {
		if len(field.key) != ed25519.PublicKeySize {
			return errors.Wrap(solana.ErrInvalidAddress, field.name)
		}
	}
	return nil
}

// GetAssociatedAccount returns the associated token account of wallet for
// mint under this deployment's token programs.
func (c *Config) GetAssociatedAccount(wallet, mint ed25519.PublicKey) (ed25519.PublicKey, error) {
	return token.GetAssociatedAccountForPrograms(wallet, mint, c.TokenProgram, c.AssociatedTokenProgram)
}
