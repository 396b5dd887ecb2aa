package staking

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/code-payments/nft-staking-cli/pkg/solana"
	"github.com/code-payments/nft-staking-cli/pkg/solana/metadata"
	"github.com/code-payments/nft-staking-cli/pkg/solana/nftstaking"
	"github.com/code-payments/nft-staking-cli/pkg/solana/system"
	"github.com/code-payments/nft-staking-cli/pkg/solana/token"
)

var (
	ErrSeedTooLong         = solana.ErrMaxSeedLengthExceeded
	ErrTooManySeeds        = solana.ErrTooManySeeds
	ErrDerivationExhausted = solana.ErrNoViableBumpSeed

	ErrAccountNotFound = errors.New("account not found")
	ErrMalformedRecord = metadata.ErrMalformedRecord

	ErrMissingSigner = errors.New("missing required signer")
	ErrInvalidSigner = errors.New("derived address cannot sign")
	ErrSigning       = errors.New("signing failed")

	ErrStaleFreshnessToken = errors.New("stale freshness token")
	ErrNotConfirmed        = errors.New("transaction not confirmed")
	ErrInvalidState        = errors.New("invalid lifecycle state")
)

// Kind is the category of an error as reported to the user.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfig
	KindDerivation
	KindRemoteState
	KindNetwork
	KindSigning
	KindSubmissionRejected
	KindStaleFreshnessToken
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "ConfigError"
	case KindDerivation:
		return "DerivationError"
	case KindRemoteState:
		return "RemoteStateError"
	case KindNetwork:
		return "NetworkError"
	case KindSigning:
		return "SigningError"
	case KindSubmissionRejected:
		return "SubmissionRejected"
	case KindStaleFreshnessToken:
		return "StaleFreshnessToken"
	default:
		return "InternalError"
	}
}

// ConfigError is a bad or missing argument, or an unreadable keypair.
type ConfigError struct {
	Err error
}

func NewConfigError(err error) error {
	if err == nil {
		return nil
	}
	return &ConfigError{Err: err}
}

func (e *ConfigError) Error() string {
	return e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// SubmissionRejectedError is returned when the cluster refuses a transaction,
// either at preflight or when it executes.
type SubmissionRejectedError struct {
	Signature solana.Signature
	Reason    string
	Logs      []string
	Err       error
}

func newSubmissionRejectedError(sig solana.Signature, err error) *SubmissionRejectedError {
	rejected := &SubmissionRejectedError{
		Signature: sig,
		Reason:    err.Error(),
		Err:       err,
	}

	var txErr *solana.TransactionError
	if errors.As(err, &txErr) {
		rejected.Reason = txErr.Error()
		rejected.Logs = txErr.Logs()
	}
	return rejected
}

func (e *SubmissionRejectedError) Error() string {
	msg := fmt.Sprintf("transaction rejected: %s", e.Reason)
	if e.Signature != (solana.Signature{}) {
		msg = fmt.Sprintf("transaction %s rejected: %s", e.Signature, e.Reason)
	}
	if len(e.Logs) == 0 {
		return msg
	}
	return fmt.Sprintf("%s\nprogram logs:\n  %s", msg, strings.Join(e.Logs, "\n  "))
}

func (e *SubmissionRejectedError) Unwrap() error {
	return e.Err
}

// Classify returns the Kind of err.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var configErr *ConfigError
	var rejectedErr *SubmissionRejectedError
	var networkErr *solana.NetworkError

	switch {
	case errors.Is(err, ErrStaleFreshnessToken):
		return KindStaleFreshnessToken
	case errors.As(err, &configErr),
		errors.Is(err, solana.ErrInvalidKeypairFile),
		errors.Is(err, solana.ErrInvalidAddress):
		return KindConfig
	case errors.As(err, &rejectedErr):
		return KindSubmissionRejected
	case errors.Is(err, ErrSigning),
		errors.Is(err, ErrMissingSigner),
		errors.Is(err, ErrInvalidSigner):
		return KindSigning
	case errors.Is(err, ErrSeedTooLong),
		errors.Is(err, ErrTooManySeeds),
		errors.Is(err, ErrDerivationExhausted):
		return KindDerivation
	case errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrMalformedRecord),
		errors.Is(err, nftstaking.ErrInvalidAccountData),
		errors.Is(err, token.ErrAccountNotFound),
		errors.Is(err, token.ErrInvalidTokenAccount),
		errors.Is(err, system.ErrInvalidClock):
		return KindRemoteState
	case errors.As(err, &networkErr),
		errors.Is(err, ErrNotConfirmed),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return KindNetwork
	default:
		return KindUnknown
	}
}
