package staking

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/nft-staking-cli/pkg/retry"
	"github.com/code-payments/nft-staking-cli/pkg/solana"
)

// State is the position of a Run in the transaction lifecycle.
type State int

const (
	StateBuilt State = iota
	StateStamped
	StateSigned
	StateSubmitted
	StateConfirmed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateBuilt:
		return "built"
	case StateStamped:
		return "stamped"
	case StateSigned:
		return "signed"
	case StateSubmitted:
		return "submitted"
	case StateConfirmed:
		return "confirmed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FreshnessToken is a recent blockhash, the last block height at which the
// cluster accepts it, and the local deadline after which it is no longer
// trusted for submission.
type FreshnessToken struct {
	Blockhash            solana.Blockhash
	LastValidBlockHeight uint64
	ExpiresAt            time.Time
}

func (t FreshnessToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

type DriverConfig struct {
	Commitment      solana.Commitment
	FreshnessWindow time.Duration
	StaleRestarts   uint
}

// Driver moves envelopes through the lifecycle against a cluster.
type Driver struct {
	log    *logrus.Entry
	sc     solana.Client
	config DriverConfig
	now    func() time.Time
}

func NewDriver(sc solana.Client, config DriverConfig) *Driver {
	return &Driver{
		log:    logrus.StandardLogger().WithField("type", "staking/driver"),
		sc:     sc,
		config: config,
		now:    time.Now,
	}
}

// FetchFreshnessToken returns the latest blockhash, valid for the configured
// freshness window starting now.
func (d *Driver) FetchFreshnessToken(ctx context.Context) (FreshnessToken, error) {
	fetchedAt := d.now()

	latest, err := d.sc.GetLatestBlockhash(ctx, d.config.Commitment)
	if err != nil {
		return FreshnessToken{}, errors.Wrap(err, "failed to get latest blockhash")
	}

	return FreshnessToken{
		Blockhash:            latest.Blockhash,
		LastValidBlockHeight: latest.LastValidBlockHeight,
		ExpiresAt:            fetchedAt.Add(d.config.FreshnessWindow),
	}, nil
}

// Begin starts a Run for envelope in the Built state.
func (d *Driver) Begin(envelope *Envelope) *Run {
	return &Run{
		driver:   d,
		log:      d.log.WithField("fee_payer", base58.Encode(envelope.FeePayer)),
		envelope: envelope,
		state:    StateBuilt,
	}
}

// Run is a single pass of an envelope through the lifecycle. A Run that
// fails with ErrStaleFreshnessToken can be Reset and driven again.
type Run struct {
	driver   *Driver
	log      *logrus.Entry
	envelope *Envelope

	state     State
	token     FreshnessToken
	signature solana.Signature
	status    *solana.SignatureStatus
}

func (r *Run) State() State {
	return r.state
}

func (r *Run) Signature() solana.Signature {
	return r.signature
}

func (r *Run) Status() *solana.SignatureStatus {
	return r.status
}

func (r *Run) transition(from, to State) error {
	if r.state != from {
		return errors.Wrapf(ErrInvalidState, "cannot move to %s from %s", to, r.state)
	}
	r.state = to
	return nil
}

// Stamp sets the envelope's blockhash.
func (r *Run) Stamp(token FreshnessToken) error {
	if err := r.transition(StateBuilt, StateStamped); err != nil {
		return err
	}

	r.token = token
	r.envelope.Transaction.SetBlockhash(token.Blockhash)
	return nil
}

// Sign signs the stamped envelope. The signers must be exactly the keys
// the envelope requires.
func (r *Run) Sign(signers ...ed25519.PrivateKey) error {
	if r.state != StateStamped {
		return errors.Wrapf(ErrInvalidState, "cannot move to %s from %s", StateSigned, r.state)
	}

	txn := &r.envelope.Transaction
	required := txn.RequiredSigners()

	for _, signer := range signers {
		if len(signer) != ed25519.PrivateKeySize {
			return errors.Wrap(ErrSigning, "malformed signing key")
		}
	}
	for _, pub := range required {
		if !hasSigner(signers, pub) {
			return errors.Wrapf(ErrSigning, "no signing key for required signer %s", base58.Encode(pub))
		}
	}

	if err := txn.Sign(signers...); err != nil {
		txn.ClearSignatures()
		return errors.Wrapf(ErrSigning, "%v", err)
	}
	if !txn.IsFullySigned() {
		txn.ClearSignatures()
		return errors.Wrap(ErrSigning, "transaction is not fully signed")
	}

	r.signature = txn.Signatures[0]
	r.state = StateSigned
	return nil
}

// Submit sends the signed envelope. A token that has expired locally, or
// whose last valid block height the cluster has already passed, is reported
// as ErrStaleFreshnessToken without submitting, as is a cluster rejection for
// an unknown blockhash.
func (r *Run) Submit(ctx context.Context) (solana.Signature, error) {
	if r.state != StateSigned {
		return r.signature, errors.Wrapf(ErrInvalidState, "cannot move to %s from %s", StateSubmitted, r.state)
	}

	log := r.log.WithField("signature", r.signature.String())

	if r.token.Expired(r.driver.now()) {
		r.state = StateFailed
		log.Debug("freshness token expired before submission")
		return r.signature, errors.Wrapf(ErrStaleFreshnessToken, "blockhash %s expired at %s", r.token.Blockhash, r.token.ExpiresAt.Format(time.RFC3339))
	}

	height, err := r.driver.sc.GetBlockHeight(ctx, r.driver.config.Commitment)
	if err != nil {
		r.state = StateFailed
		return r.signature, errors.Wrap(err, "failed to get block height")
	}
	if height > r.token.LastValidBlockHeight {
		r.state = StateFailed
		log.WithField("block_height", height).Debug("cluster passed last valid block height")
		return r.signature, errors.Wrapf(ErrStaleFreshnessToken, "blockhash %s valid until block %d, cluster at %d", r.token.Blockhash, r.token.LastValidBlockHeight, height)
	}

	sig, err := r.driver.sc.SubmitTransaction(ctx, r.envelope.Transaction, r.driver.config.Commitment)
	if err != nil {
		r.state = StateFailed

		var txErr *solana.TransactionError
		var networkErr *solana.NetworkError
		switch {
		case errors.As(err, &txErr) && txErr.ErrorKey() == solana.TransactionErrorBlockhashNotFound:
			log.Debug("cluster does not recognize blockhash")
			return sig, errors.Wrapf(ErrStaleFreshnessToken, "blockhash %s not found", r.token.Blockhash)
		case errors.As(err, &networkErr):
			return sig, err
		default:
			log.WithError(err).Warn("transaction rejected")
			return sig, newSubmissionRejectedError(sig, err)
		}
	}

	r.state = StateSubmitted
	log.Debug("transaction submitted")
	return sig, nil
}

// Confirm waits for the submitted transaction to reach the configured
// commitment.
func (r *Run) Confirm(ctx context.Context) (*solana.SignatureStatus, error) {
	if r.state != StateSubmitted {
		return nil, errors.Wrapf(ErrInvalidState, "cannot confirm from %s", r.state)
	}

	status, err := r.driver.sc.GetSignatureStatus(ctx, r.signature, r.driver.config.Commitment)
	if err != nil {
		var networkErr *solana.NetworkError
		switch {
		case errors.As(err, &networkErr):
			return status, errors.Wrap(err, "failed to get signature status")
		case errors.Is(err, solana.ErrSignatureNotFound) || status != nil:
			return status, errors.Wrapf(ErrNotConfirmed, "%s: %v", r.signature, err)
		default:
			return nil, errors.Wrap(err, "failed to get signature status")
		}
	}

	r.status = status
	if status.ErrorResult != nil {
		r.state = StateFailed
		return status, newSubmissionRejectedError(r.signature, status.ErrorResult)
	}

	r.state = StateConfirmed
	return status, nil
}

// Reset returns a run to Built, discarding its blockhash and signatures.
func (r *Run) Reset() {
	r.envelope.Transaction.ClearSignatures()
	r.envelope.Transaction.SetBlockhash(solana.Blockhash{})
	r.token = FreshnessToken{}
	r.signature = solana.Signature{}
	r.status = nil
	r.state = StateBuilt
}

// Result is the outcome of Execute.
type Result struct {
	Signature solana.Signature
	// Status is only set when confirmation was requested.
	Status   *solana.SignatureStatus
	Attempts uint
}

// Execute drives envelope from Built to Submitted, or to Confirmed when
// confirm is set. If the blockhash goes stale the run restarts from Built
// with a fresh token, at most StaleRestarts times. A prefetched token, if
// provided, is used for the first attempt.
func (d *Driver) Execute(ctx context.Context, envelope *Envelope, prefetched *FreshnessToken, confirm bool, signers ...ed25519.PrivateKey) (*Result, error) {
	run := d.Begin(envelope)

	attempts, err := retry.Retry(
		func() error {
			if run.State() != StateBuilt {
				run.Reset()
			}

			var token FreshnessToken
			if prefetched != nil {
				token, prefetched = *prefetched, nil
			} else {
				var err error
				if token, err = d.FetchFreshnessToken(ctx); err != nil {
					return err
				}
			}

			if err := run.Stamp(token); err != nil {
				return err
			}
			if err := run.Sign(signers...); err != nil {
				return err
			}
			_, err := run.Submit(ctx)
			return err
		},
		retry.RetriableErrors(ErrStaleFreshnessToken),
		retry.Limit(d.config.StaleRestarts+1),
		retry.OnRetry(func(attempts uint, err error) {
			d.log.WithError(err).WithField("attempt", attempts).Info("freshness token stale, restarting")
		}),
	)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Signature: run.Signature(),
		Attempts:  attempts,
	}
	if !confirm {
		return result, nil
	}

	result.Status, err = run.Confirm(ctx)
	if err != nil {
		return result, err
	}
	return result, nil
}

func hasSigner(signers []ed25519.PrivateKey, pub ed25519.PublicKey) bool {
	for _, s := range signers {
		if bytes.Equal(s.Public().(ed25519.PublicKey), pub) {
			return true
		}
	}
	return false
}
