package staking

import (
	"context"
	"crypto/ed25519"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/code-payments/nft-staking-cli/pkg/solana"
	"github.com/code-payments/nft-staking-cli/pkg/solana/nftstaking"
)

const (
	DefaultFreshnessWindow = 60 * time.Second
	DefaultStaleRestarts   = 3
)

type Options struct {
	Commitment      solana.Commitment
	FreshnessWindow time.Duration
	StaleRestarts   uint
	// Confirm waits for the transaction to reach Commitment after it has
	// been submitted.
	Confirm bool
}

// Service executes staking operations and reads staking state.
type Service struct {
	log     *logrus.Entry
	config  *nftstaking.Config
	opts    Options
	reader  *Reader
	catalog *Catalog
	driver  *Driver
}

func NewService(sc solana.Client, config *nftstaking.Config, opts Options) *Service {
	if opts.Commitment.Commitment == "" {
		opts.Commitment = solana.CommitmentConfirmed
	}
	if opts.FreshnessWindow <= 0 {
		opts.FreshnessWindow = DefaultFreshnessWindow
	}

	reader := NewReader(sc, config, opts.Commitment)
	return &Service{
		log:     logrus.StandardLogger().WithField("type", "staking/service"),
		config:  config,
		opts:    opts,
		reader:  reader,
		catalog: NewCatalog(config, reader),
		driver: NewDriver(sc, DriverConfig{
			Commitment:      opts.Commitment,
			FreshnessWindow: opts.FreshnessWindow,
			StaleRestarts:   opts.StaleRestarts,
		}),
	}
}

// Outcome is the result of a successfully submitted operation.
type Outcome struct {
	*Resolution
	*Result
}

// Execute resolves op, then assembles, signs and submits it on behalf of
// signer, who also pays the fees. The first blockhash is fetched while the
// operation is being resolved.
func (s *Service) Execute(ctx context.Context, signer ed25519.PrivateKey, op Operation) (*Outcome, error) {
	if len(signer) != ed25519.PrivateKeySize {
		return nil, errors.Wrap(ErrSigning, "malformed signing key")
	}
	payer := signer.Public().(ed25519.PublicKey)

	log := s.log.WithFields(logrus.Fields{
		"operation": op.String(),
		"payer":     base58.Encode(payer),
	})

	var resolution *Resolution
	var token FreshnessToken

	// gctx is cancelled once both fetches return, so it must not outlive them.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		token, err = s.driver.FetchFreshnessToken(gctx)
		return err
	})
	g.Go(func() (err error) {
		resolution, err = s.catalog.Resolve(gctx, payer, op)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	envelope, err := Assemble(payer, resolution.Instruction)
	if err != nil {
		return nil, err
	}

	result, err := s.driver.Execute(ctx, envelope, &token, s.opts.Confirm, signer)
	if err != nil {
		log.WithError(err).Warn("operation failed")
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"signature": result.Signature.String(),
		"attempts":  result.Attempts,
	}).Info("operation submitted")

	return &Outcome{
		Resolution: resolution,
		Result:     result,
	}, nil
}

type VaultInfo struct {
	Address ed25519.PublicKey
	// Contract is nil if the vault has not been generated.
	Contract      *nftstaking.ContractDataAccount
	RewardAccount ed25519.PublicKey
	RewardBalance uint64
}

func (s *Service) VaultInfo(ctx context.Context) (*VaultInfo, error) {
	address, contract, err := s.reader.GetVault(ctx)
	if errors.Is(err, ErrAccountNotFound) {
		return &VaultInfo{Address: address}, nil
	} else if err != nil {
		return nil, err
	}

	rewardAccount, balance, err := s.reader.GetTokenBalance(ctx, address, s.config.RewardMint)
	if err != nil {
		return nil, err
	}

	return &VaultInfo{
		Address:       address,
		Contract:      contract,
		RewardAccount: rewardAccount,
		RewardBalance: balance,
	}, nil
}

type StakeInfo struct {
	Address  ed25519.PublicKey
	Stake    *nftstaking.StakeDataAccount
	Unlocked bool
	// UnlocksAt is when the minimum staking period ends.
	UnlocksAt time.Time
}

// StakeInfo reads the stake record of nft and evaluates its lock against
// the cluster clock.
func (s *Service) StakeInfo(ctx context.Context, nft ed25519.PublicKey) (*StakeInfo, error) {
	if err := (Stake{Nft: nft}).Validate(); err != nil {
		return nil, err
	}

	var (
		address  ed25519.PublicKey
		stake    *nftstaking.StakeDataAccount
		contract *nftstaking.ContractDataAccount
		now      time.Time
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		address, stake, err = s.reader.GetStakeRecord(gctx, nft)
		return err
	})
	g.Go(func() (err error) {
		_, contract, err = s.reader.GetVault(gctx)
		return err
	})
	g.Go(func() error {
		clock, err := s.reader.GetClock(gctx)
		if err != nil {
			return err
		}
		now = clock.Time()
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &StakeInfo{
		Address:   address,
		Stake:     stake,
		Unlocked:  stake.Unlocked(contract, now),
		UnlocksAt: stake.StakedAt().Add(time.Duration(contract.MinPeriod) * time.Second),
	}, nil
}

type WhitelistInfo struct {
	Address ed25519.PublicKey
	Rate    *nftstaking.RateDataAccount
}

func (s *Service) WhitelistInfo(ctx context.Context, registry ed25519.PublicKey) (*WhitelistInfo, error) {
	if err := (AddToWhitelist{Registry: registry}).Validate(); err != nil {
		return nil, err
	}

	address, rate, err := s.reader.GetWhitelistEntry(ctx, registry)
	if err != nil {
		return nil, err
	}

	return &WhitelistInfo{
		Address: address,
		Rate:    rate,
	}, nil
}
