package token

import (
	"bytes"
	"context"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/nft-staking-cli/pkg/solana"
)

var (
	// ErrAccountNotFound indicates there is no account for the given address.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidTokenAccount indicates that a Solana account exists at the
	// given address, but it is either not initialized, or not configured correctly.
	ErrInvalidTokenAccount = errors.New("invalid token account")
)

// Client reads token accounts of a single mint.
type Client struct {
	sc      solana.Client
	mint    ed25519.PublicKey
	program ed25519.PublicKey
}

// NewClient creates a new Client for mint, owned by the default token program.
func NewClient(sc solana.Client, mint ed25519.PublicKey) *Client {
	return NewClientForProgram(sc, mint, ProgramKey)
}

// NewClientForProgram creates a new Client for mint, owned by program.
func NewClientForProgram(sc solana.Client, mint, program ed25519.PublicKey) *Client {
	return &Client{
		sc:      sc,
		mint:    mint,
		program: program,
	}
}

func (c *Client) Mint() ed25519.PublicKey {
	return c.mint
}

// GetAccount returns the token account info for the specified account.
//
// If the account is not initialized, or belongs to a different
// mint, then ErrInvalidTokenAccount is returned.
func (c *Client) GetAccount(ctx context.Context, accountID ed25519.PublicKey, commitment solana.Commitment) (*Account, error) {
	accountInfo, err := c.sc.GetAccountInfo(ctx, accountID, commitment)
	if errors.Is(err, solana.ErrNoAccountInfo) {
		return nil, ErrAccountNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to get account info")
	}

	if !bytes.Equal(accountInfo.Owner, c.program) {
		return nil, errors.Wrap(ErrInvalidTokenAccount, "not owned by the token program")
	}

	var account Account
	if err := account.Unmarshal(accountInfo.Data); err != nil {
		return nil, err
	}

	if !bytes.Equal(c.mint, account.Mint) {
		return nil, errors.Wrap(ErrInvalidTokenAccount, "mint mismatch")
	}

	return &account, nil
}

// GetBalance returns the token balance of accountID, or zero if the
// account has not been created yet.
func (c *Client) GetBalance(ctx context.Context, accountID ed25519.PublicKey, commitment solana.Commitment) (uint64, error) {
	account, err := c.GetAccount(ctx, accountID, commitment)
	if err == ErrAccountNotFound {
		return 0, nil
	} else if err != nil {
		return 0, err
	}

	return account.Amount, nil
}
