// Package memory provides an in-memory solana.Client for tests.
//
// Submitted transactions are validated the way a node's preflight would
// validate them before execution: the blockhash must be one the client
// has handed out and is still within its validity window, and every
// required signature must verify.
package memory

import (
	"context"
	"crypto/ed25519"
	"sync"

	"github.com/mr-tron/base58"

	"github.com/code-payments/nft-staking-cli/pkg/solana"
)

// SubmitHook is invoked for every transaction that passes validation. A
// non-nil error is returned to the submitter instead of the signature. The
// hook runs with the client locked and must not call back into it.
type SubmitHook func(txn solana.Transaction) error

type Client struct {
	sync.Mutex

	accounts    map[string]solana.AccountInfo
	blockHeight uint64
	blockhashes map[solana.Blockhash]uint64
	latest      solana.LatestBlockhash
	statuses    map[solana.Signature]*solana.SignatureStatus
	submitted   []solana.Transaction
	calls       map[string]int
	failures    map[string]error
	submitHook  SubmitHook
}

func NewClient() *Client {
	return &Client{
		accounts:    make(map[string]solana.AccountInfo),
		blockhashes: make(map[solana.Blockhash]uint64),
		statuses:    make(map[solana.Signature]*solana.SignatureStatus),
		calls:       make(map[string]int),
		failures:    make(map[string]error),
	}
}

// SetAccount stores info at address, replacing any existing account.
func (c *Client) SetAccount(address ed25519.PublicKey, info solana.AccountInfo) {
	c.Lock()
	defer c.Unlock()

	c.accounts[base58.Encode(address)] = info
}

// SetLatestBlockhash makes bh the blockhash returned by GetLatestBlockhash.
// Previously issued blockhashes stay valid until the block height passes
// their last valid height.
func (c *Client) SetLatestBlockhash(bh solana.Blockhash, lastValidBlockHeight uint64) {
	c.Lock()
	defer c.Unlock()

	c.latest = solana.LatestBlockhash{
		Blockhash:            bh,
		LastValidBlockHeight: lastValidBlockHeight,
	}
	c.blockhashes[bh] = lastValidBlockHeight
}

func (c *Client) SetBlockHeight(height uint64) {
	c.Lock()
	defer c.Unlock()

	c.blockHeight = height
}

// ExpireBlockhash forgets bh, as if the cluster had advanced past it.
func (c *Client) ExpireBlockhash(bh solana.Blockhash) {
	c.Lock()
	defer c.Unlock()

	delete(c.blockhashes, bh)
}

func (c *Client) SetSignatureStatus(sig solana.Signature, status *solana.SignatureStatus) {
	c.Lock()
	defer c.Unlock()

	c.statuses[sig] = status
}

func (c *Client) SetSubmitHook(hook SubmitHook) {
	c.Lock()
	defer c.Unlock()

	c.submitHook = hook
}

// SetFailure makes every subsequent call of method fail with err. A nil err
// clears the failure.
func (c *Client) SetFailure(method string, err error) {
	c.Lock()
	defer c.Unlock()

	if err == nil {
		delete(c.failures, method)
		return
	}
	c.failures[method] = err
}

// Submitted returns the transactions accepted so far.
func (c *Client) Submitted() []solana.Transaction {
	c.Lock()
	defer c.Unlock()

	return append([]solana.Transaction(nil), c.submitted...)
}

// Calls returns the number of times method was invoked, successful or not.
func (c *Client) Calls(method string) int {
	c.Lock()
	defer c.Unlock()

	return c.calls[method]
}

// begin records a call of method. A done ctx fails the call the way the RPC
// client reports an abandoned request.
func (c *Client) begin(ctx context.Context, method string) error {
	c.calls[method]++
	if err := ctx.Err(); err != nil {
		return &solana.NetworkError{Method: method, Err: err}
	}
	return c.failures[method]
}

func (c *Client) GetAccountInfo(ctx context.Context, address ed25519.PublicKey, _ solana.Commitment) (solana.AccountInfo, error) {
	c.Lock()
	defer c.Unlock()

	if err := c.begin(ctx, "GetAccountInfo"); err != nil {
		return solana.AccountInfo{}, err
	}

	info, ok := c.accounts[base58.Encode(address)]
	if !ok {
		return solana.AccountInfo{}, solana.ErrNoAccountInfo
	}

	info.Data = append([]byte(nil), info.Data...)
	return info, nil
}

func (c *Client) GetBlockHeight(ctx context.Context, _ solana.Commitment) (uint64, error) {
	c.Lock()
	defer c.Unlock()

	if err := c.begin(ctx, "GetBlockHeight"); err != nil {
		return 0, err
	}
	return c.blockHeight, nil
}

func (c *Client) GetLatestBlockhash(ctx context.Context, _ solana.Commitment) (solana.LatestBlockhash, error) {
	c.Lock()
	defer c.Unlock()

	if err := c.begin(ctx, "GetLatestBlockhash"); err != nil {
		return solana.LatestBlockhash{}, err
	}
	return c.latest, nil
}

// GetSignatureStatus returns the stored status without polling.
func (c *Client) GetSignatureStatus(ctx context.Context, sig solana.Signature, _ solana.Commitment) (*solana.SignatureStatus, error) {
	c.Lock()
	defer c.Unlock()

	if err := c.begin(ctx, "GetSignatureStatus"); err != nil {
		return nil, err
	}

	status, ok := c.statuses[sig]
	if !ok {
		return nil, solana.ErrSignatureNotFound
	}
	return status, nil
}

func (c *Client) GetSignatureStatuses(ctx context.Context, sigs []solana.Signature) ([]*solana.SignatureStatus, error) {
	c.Lock()
	defer c.Unlock()

	if err := c.begin(ctx, "GetSignatureStatuses"); err != nil {
		return nil, err
	}

	statuses := make([]*solana.SignatureStatus, len(sigs))
	for i, sig := range sigs {
		statuses[i] = c.statuses[sig]
	}
	return statuses, nil
}

func (c *Client) SubmitTransaction(ctx context.Context, txn solana.Transaction, _ solana.Commitment) (solana.Signature, error) {
	c.Lock()
	defer c.Unlock()

	var sig solana.Signature
	if len(txn.Signatures) > 0 {
		sig = txn.Signatures[0]
	}

	if err := c.begin(ctx, "SubmitTransaction"); err != nil {
		return sig, err
	}

	lastValid, ok := c.blockhashes[txn.Message.RecentBlockhash]
	if !ok || c.blockHeight > lastValid {
		return sig, solana.NewTransactionError(solana.TransactionErrorBlockhashNotFound)
	}
	if !txn.IsFullySigned() {
		return sig, solana.NewTransactionError(solana.TransactionErrorSignatureFailure)
	}
	for _, submitted := range c.submitted {
		if submitted.Signatures[0] == sig {
			return sig, solana.NewTransactionError(solana.TransactionErrorAlreadyProcessed)
		}
	}

	if c.submitHook != nil {
		if err := c.submitHook(txn); err != nil {
			return sig, err
		}
	}

	c.submitted = append(c.submitted, txn)
	if _, ok := c.statuses[sig]; !ok {
		c.statuses[sig] = &solana.SignatureStatus{
			ConfirmationStatus: "processed",
			Confirmations:      new(int),
		}
	}

	return sig, nil
}
