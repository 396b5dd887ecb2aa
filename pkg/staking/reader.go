package staking

import (
	"bytes"
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/nft-staking-cli/pkg/solana"
	"github.com/code-payments/nft-staking-cli/pkg/solana/metadata"
	"github.com/code-payments/nft-staking-cli/pkg/solana/nftstaking"
	"github.com/code-payments/nft-staking-cli/pkg/solana/system"
	"github.com/code-payments/nft-staking-cli/pkg/solana/token"
)

// Reader fetches and decodes the remote accounts the staking flows depend
// on. Every method performs a single RPC round trip.
type Reader struct {
	log        *logrus.Entry
	sc         solana.Client
	config     *nftstaking.Config
	commitment solana.Commitment
}

func NewReader(sc solana.Client, config *nftstaking.Config, commitment solana.Commitment) *Reader {
	return &Reader{
		log:        logrus.StandardLogger().WithField("type", "staking/reader"),
		sc:         sc,
		config:     config,
		commitment: commitment,
	}
}

// FetchAccount returns the account stored at address, or ErrAccountNotFound.
func (r *Reader) FetchAccount(ctx context.Context, address ed25519.PublicKey) (solana.AccountInfo, error) {
	log := r.log.WithField("address", base58.Encode(address))

	info, err := r.sc.GetAccountInfo(ctx, address, r.commitment)
	if errors.Is(err, solana.ErrNoAccountInfo) {
		return info, errors.Wrapf(ErrAccountNotFound, "account %s", base58.Encode(address))
	} else if err != nil {
		log.WithError(err).Warn("failed to fetch account")
		return info, errors.Wrapf(err, "failed to fetch account %s", base58.Encode(address))
	}

	log.WithField("size", len(info.Data)).Trace("fetched account")
	return info, nil
}

// FetchMetadata returns the token metadata record of an NFT mint.
func (r *Reader) FetchMetadata(ctx context.Context, nft ed25519.PublicKey) (ed25519.PublicKey, *metadata.Metadata, error) {
	address, _, err := metadata.GetMetadataAddress(&metadata.GetMetadataAddressArgs{
		Mint:    nft,
		Program: r.config.MetadataProgram,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to derive metadata address")
	}

	info, err := r.FetchAccount(ctx, address)
	if err != nil {
		return nil, nil, err
	}
	if !bytes.Equal(info.Owner, r.config.MetadataProgram) {
		return nil, nil, errors.Wrapf(ErrMalformedRecord, "metadata %s not owned by the metadata program", base58.Encode(address))
	}

	var record metadata.Metadata
	if err := record.Unmarshal(info.Data); err != nil {
		return nil, nil, errors.Wrapf(err, "metadata %s", base58.Encode(address))
	}
	if len(record.Mint) > 0 && !bytes.Equal(record.Mint, nft) {
		return nil, nil, errors.Wrapf(ErrMalformedRecord, "metadata %s describes a different mint", base58.Encode(address))
	}

	return address, &record, nil
}

// GetRegistry returns the metadata address of an NFT along with its first
// creator, which keys the collection's whitelist entry.
func (r *Reader) GetRegistry(ctx context.Context, nft ed25519.PublicKey) (metadataAddress, registry ed25519.PublicKey, err error) {
	metadataAddress, record, err := r.FetchMetadata(ctx, nft)
	if err != nil {
		return nil, nil, err
	}

	registry, err = record.FirstCreator()
	if err != nil {
		return nil, nil, errors.Wrapf(err, "metadata %s", base58.Encode(metadataAddress))
	}
	return metadataAddress, registry, nil
}

func (r *Reader) GetVault(ctx context.Context) (ed25519.PublicKey, *nftstaking.ContractDataAccount, error) {
	address, _, err := nftstaking.GetVaultAddress(&nftstaking.GetVaultAddressArgs{
		Program: r.config.Program,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to derive vault address")
	}

	var contract nftstaking.ContractDataAccount
	if err := r.fetchState(ctx, address, &contract); err != nil {
		return address, nil, err
	}
	return address, &contract, nil
}

func (r *Reader) GetStakeRecord(ctx context.Context, nft ed25519.PublicKey) (ed25519.PublicKey, *nftstaking.StakeDataAccount, error) {
	address, _, err := nftstaking.GetStakeRecordAddress(&nftstaking.GetStakeRecordAddressArgs{
		Program: r.config.Program,
		Nft:     nft,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to derive stake record address")
	}

	var stake nftstaking.StakeDataAccount
	if err := r.fetchState(ctx, address, &stake); err != nil {
		return address, nil, err
	}
	return address, &stake, nil
}

func (r *Reader) GetWhitelistEntry(ctx context.Context, registry ed25519.PublicKey) (ed25519.PublicKey, *nftstaking.RateDataAccount, error) {
	address, _, err := nftstaking.GetWhitelistAddress(&nftstaking.GetWhitelistAddressArgs{
		Program:  r.config.Program,
		Registry: registry,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to derive whitelist address")
	}

	var rate nftstaking.RateDataAccount
	if err := r.fetchState(ctx, address, &rate); err != nil {
		return address, nil, err
	}
	return address, &rate, nil
}

// GetClock returns the cluster's Clock sysvar.
func (r *Reader) GetClock(ctx context.Context) (*system.Clock, error) {
	info, err := r.FetchAccount(ctx, system.ClockSysVar)
	if err != nil {
		return nil, err
	}

	var clock system.Clock
	if err := clock.Unmarshal(info.Data); err != nil {
		return nil, err
	}
	return &clock, nil
}

// GetTokenBalance returns the balance of owner's associated token account
// for mint, which is zero if the account does not exist yet.
func (r *Reader) GetTokenBalance(ctx context.Context, owner, mint ed25519.PublicKey) (ed25519.PublicKey, uint64, error) {
	address, err := r.config.GetAssociatedAccount(owner, mint)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to derive associated token account")
	}

	balance, err := token.NewClientForProgram(r.sc, mint, r.config.TokenProgram).GetBalance(ctx, address, r.commitment)
	if err != nil {
		return address, 0, errors.Wrapf(err, "token account %s", base58.Encode(address))
	}
	return address, balance, nil
}

type stateRecord interface {
	Unmarshal([]byte) error
}

func (r *Reader) fetchState(ctx context.Context, address ed25519.PublicKey, record stateRecord) error {
	info, err := r.FetchAccount(ctx, address)
	if err != nil {
		return err
	}
	if !bytes.Equal(info.Owner, r.config.Program) {
		return errors.Wrapf(nftstaking.ErrInvalidAccountData, "account %s not owned by the staking program", base58.Encode(address))
	}
	if err := record.Unmarshal(info.Data); err != nil {
		return errors.Wrapf(err, "account %s", base58.Encode(address))
	}
	return nil
}
