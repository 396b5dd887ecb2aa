package staking

import (
	"context"
	"crypto/ed25519"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/nft-staking-cli/pkg/solana"
	"github.com/code-payments/nft-staking-cli/pkg/solana/nftstaking"
)

// Resolution is an operation with every address it references derived and
// its instruction built. Addresses that do not apply to the operation are
// nil.
type Resolution struct {
	Operation   Operation
	Instruction solana.Instruction

	Vault       ed25519.PublicKey
	Whitelist   ed25519.PublicKey
	Registry    ed25519.PublicKey
	Metadata    ed25519.PublicKey
	StakeRecord ed25519.PublicKey
}

// Catalog turns operations into instructions for a deployment of the
// staking program. Stake and Unstake read the NFT's metadata to find its
// collection; all other operations are resolved offline.
type Catalog struct {
	log    *logrus.Entry
	config *nftstaking.Config
	reader *Reader
}

func NewCatalog(config *nftstaking.Config, reader *Reader) *Catalog {
	return &Catalog{
		log:    logrus.StandardLogger().WithField("type", "staking/catalog"),
		config: config,
		reader: reader,
	}
}

func (c *Catalog) Resolve(ctx context.Context, payer ed25519.PublicKey, op Operation) (*Resolution, error) {
	if err := op.Validate(); err != nil {
		return nil, err
	}

	vault, _, err := nftstaking.GetVaultAddress(&nftstaking.GetVaultAddressArgs{
		Program: c.config.Program,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive vault address")
	}

	res := &Resolution{
		Operation: op,
		Vault:     vault,
	}

	switch typed := op.(type) {
	case GenerateVault:
		res.Instruction = nftstaking.NewGenerateVaultInstruction(
			c.config,
			&nftstaking.GenerateVaultInstructionAccounts{
				Payer: payer,
				Vault: vault,
			},
			&nftstaking.GenerateVaultInstructionArgs{
				MinPeriod:    typed.MinPeriod,
				RewardPeriod: typed.RewardPeriod,
			},
		)
	case AddToWhitelist:
		whitelist, _, err := nftstaking.GetWhitelistAddress(&nftstaking.GetWhitelistAddressArgs{
			Program:  c.config.Program,
			Registry: typed.Registry,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to derive whitelist address")
		}

		res.Registry = typed.Registry
		res.Whitelist = whitelist
		res.Instruction = nftstaking.NewAddToWhitelistInstruction(
			c.config,
			&nftstaking.AddToWhitelistInstructionAccounts{
				Payer:     payer,
				Registry:  typed.Registry,
				Whitelist: whitelist,
			},
			&nftstaking.AddToWhitelistInstructionArgs{
				Price: typed.Price,
			},
		)
	case Withdraw:
		payerRewards, vaultRewards, err := c.rewardAccounts(payer, vault)
		if err != nil {
			return nil, err
		}

		res.Instruction = nftstaking.NewWithdrawInstruction(
			c.config,
			&nftstaking.WithdrawInstructionAccounts{
				Payer:        payer,
				Vault:        vault,
				PayerRewards: payerRewards,
				VaultRewards: vaultRewards,
			},
			&nftstaking.WithdrawInstructionArgs{
				Amount: typed.Amount,
			},
		)
	case Stake:
		if err := c.resolveNft(ctx, res, typed.Nft); err != nil {
			return nil, err
		}

		payerNft, vaultNft, err := c.nftAccounts(payer, vault, typed.Nft)
		if err != nil {
			return nil, err
		}

		res.Instruction = nftstaking.NewStakeInstruction(
			c.config,
			&nftstaking.StakeInstructionAccounts{
				Payer:       payer,
				Nft:         typed.Nft,
				Metadata:    res.Metadata,
				Vault:       vault,
				StakeRecord: res.StakeRecord,
				Whitelist:   res.Whitelist,
				PayerNft:    payerNft,
				VaultNft:    vaultNft,
			},
		)
	case Unstake:
		if err := c.resolveNft(ctx, res, typed.Nft); err != nil {
			return nil, err
		}

		payerNft, vaultNft, err := c.nftAccounts(payer, vault, typed.Nft)
		if err != nil {
			return nil, err
		}
		payerRewards, vaultRewards, err := c.rewardAccounts(payer, vault)
		if err != nil {
			return nil, err
		}

		res.Instruction = nftstaking.NewUnstakeInstruction(
			c.config,
			&nftstaking.UnstakeInstructionAccounts{
				Payer:        payer,
				Nft:          typed.Nft,
				Metadata:     res.Metadata,
				Vault:        vault,
				StakeRecord:  res.StakeRecord,
				Whitelist:    res.Whitelist,
				PayerRewards: payerRewards,
				VaultRewards: vaultRewards,
				PayerNft:     payerNft,
				VaultNft:     vaultNft,
			},
		)
	default:
		return nil, errors.Errorf("unsupported operation: %T", op)
	}

	c.log.WithFields(logrus.Fields{
		"operation": op.String(),
		"accounts":  len(res.Instruction.Accounts),
	}).Debug("resolved operation")

	return res, nil
}

// resolveNft fills in the metadata, whitelist and stake record addresses of
// an NFT. The whitelist is keyed by the collection, which is only known once
// the metadata record has been read.
func (c *Catalog) resolveNft(ctx context.Context, res *Resolution, nft ed25519.PublicKey) error {
	metadataAddress, registry, err := c.reader.GetRegistry(ctx, nft)
	if err != nil {
		return err
	}

	whitelist, _, err := nftstaking.GetWhitelistAddress(&nftstaking.GetWhitelistAddressArgs{
		Program:  c.config.Program,
		Registry: registry,
	})
	if err != nil {
		return errors.Wrap(err, "failed to derive whitelist address")
	}

	stakeRecord, _, err := nftstaking.GetStakeRecordAddress(&nftstaking.GetStakeRecordAddressArgs{
		Program: c.config.Program,
		Nft:     nft,
	})
	if err != nil {
		return errors.Wrap(err, "failed to derive stake record address")
	}

	res.Metadata = metadataAddress
	res.Registry = registry
	res.Whitelist = whitelist
	res.StakeRecord = stakeRecord
	return nil
}

func (c *Catalog) nftAccounts(payer, vault, nft ed25519.PublicKey) (payerNft, vaultNft ed25519.PublicKey, err error) {
	if payerNft, err = c.config.GetAssociatedAccount(payer, nft); err != nil {
		return nil, nil, errors.Wrap(err, "failed to derive payer nft account")
	}
	if vaultNft, err = c.config.GetAssociatedAccount(vault, nft); err != nil {
		return nil, nil, errors.Wrap(err, "failed to derive vault nft account")
	}
	return payerNft, vaultNft, nil
}

func (c *Catalog) rewardAccounts(payer, vault ed25519.PublicKey) (payerRewards, vaultRewards ed25519.PublicKey, err error) {
	if payerRewards, err = c.config.GetAssociatedAccount(payer, c.config.RewardMint); err != nil {
		return nil, nil, errors.Wrap(err, "failed to derive payer reward account")
	}
	if vaultRewards, err = c.config.GetAssociatedAccount(vault, c.config.RewardMint); err != nil {
		return nil, nil, errors.Wrap(err, "failed to derive vault reward account")
	}
	return payerRewards, vaultRewards, nil
}
