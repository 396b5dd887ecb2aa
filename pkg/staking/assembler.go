package staking

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/nft-staking-cli/pkg/solana"
)

// Envelope is an unsigned transaction and the fee payer it was compiled for.
type Envelope struct {
	FeePayer    ed25519.PublicKey
	Transaction solana.Transaction
}

// Assemble compiles instructions into an unsigned legacy transaction paid
// for by feePayer.
//
// Every instruction must name feePayer as a signer, and every signer must be
// a key that can sign: derived addresses are off curve and are rejected with
// ErrInvalidSigner.
func Assemble(feePayer ed25519.PublicKey, instructions ...solana.Instruction) (*Envelope, error) {
	if len(feePayer) != ed25519.PublicKeySize {
		return nil, errors.Wrap(ErrMissingSigner, "fee payer not set")
	}
	if len(instructions) == 0 {
		return nil, errors.New("no instructions to assemble")
	}

	for i, ix := range instructions {
		if len(ix.Accounts) == 0 {
			return nil, errors.Wrapf(ErrMissingSigner, "instruction %d has no accounts", i)
		}

		var hasFeePayer bool
		for _, signer := range ix.Signers() {
			if !solana.IsOnCurve(signer) {
				return nil, errors.Wrapf(ErrInvalidSigner, "instruction %d signer %s", i, base58.Encode(signer))
			}
			if bytes.Equal(signer, feePayer) {
				hasFeePayer = true
			}
		}
		if !hasFeePayer {
			return nil, errors.Wrapf(ErrMissingSigner, "instruction %d does not include fee payer %s as a signer", i, base58.Encode(feePayer))
		}
	}

	return &Envelope{
		FeePayer:    feePayer,
		Transaction: solana.NewLegacyTransaction(feePayer, instructions...),
	}, nil
}
