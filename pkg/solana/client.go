package solana

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/ybbus/jsonrpc"

	"github.com/code-payments/nft-staking-cli/pkg/rate"
	"github.com/code-payments/nft-staking-cli/pkg/retry"
	"github.com/code-payments/nft-staking-cli/pkg/retry/backoff"
)

const (
	// todo: we can retrieve these from the Syscall account
	//       but they're unlikely to change.
	ticksPerSec  = 160
	ticksPerSlot = 64
	slotsPerSec  = ticksPerSec / ticksPerSlot

	// PollRate is the rate at which blocks should be polled at.
	PollRate = (time.Second / slotsPerSec) / 2

	// Poll rate is ~2x the slot rate, and we want to wait ~32 slots
	sigStatusPollLimit = 2 * 32

	// Reference: https://github.com/solana-labs/solana/blob/71e9958e061493d7545bd28d4ac7a85aaed6ffbb/client/src/rpc_custom_error.rs#L11
	rpcNodeUnhealthyCode = -32005
)

type Commitment struct {
	Commitment string `json:"commitment"`
}

const (
	confirmationStatusProcessed = "processed"
	confirmationStatusConfirmed = "confirmed"
	confirmationStatusFinalized = "finalized"
)

var (
	CommitmentProcessed = Commitment{Commitment: confirmationStatusProcessed}
	CommitmentConfirmed = Commitment{Commitment: confirmationStatusConfirmed}
	CommitmentFinalized = Commitment{Commitment: confirmationStatusFinalized}
)

// CommitmentFromName returns the commitment level with the provided name.
func CommitmentFromName(name string) (Commitment, error) {
	switch name {
	case confirmationStatusProcessed:
		return CommitmentProcessed, nil
	case confirmationStatusConfirmed:
		return CommitmentConfirmed, nil
	case confirmationStatusFinalized:
		return CommitmentFinalized, nil
	default:
		return Commitment{}, errors.Errorf("unknown commitment level: %q", name)
	}
}

var (
	ErrNoAccountInfo     = errors.New("no account info")
	ErrSignatureNotFound = errors.New("signature not found")
	ErrMalformedResponse = errors.New("malformed rpc response")
)

// NetworkError indicates an RPC call did not produce a usable response:
// the transport failed, the call timed out or was cancelled, the node kept
// refusing service, or it answered with an error or a payload that could not
// be decoded.
type NetworkError struct {
	Method string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s(): network error: %v", e.Method, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// AccountInfo contains the Solana account information (not to be confused with a TokenAccount)
type AccountInfo struct {
	Data       []byte
	Owner      ed25519.PublicKey
	Lamports   uint64
	Executable bool
}

// LatestBlockhash is a recent blockhash along with the last block height at
// which a transaction referencing it will be accepted.
type LatestBlockhash struct {
	Blockhash            Blockhash
	LastValidBlockHeight uint64
}

type SignatureStatus struct {
	Slot        uint64
	ErrorResult *TransactionError

	// Confirmations will be nil if the transaction has been rooted.
	Confirmations      *int
	ConfirmationStatus string
}

func (s SignatureStatus) Confirmed() bool {
	if s.Finalized() {
		return true
	}

	if s.ConfirmationStatus == confirmationStatusConfirmed {
		return true
	}

	return *s.Confirmations >= 1
}

func (s SignatureStatus) Finalized() bool {
	return s.Confirmations == nil || s.ConfirmationStatus == confirmationStatusFinalized
}

// Client provides an interaction with the Solana JSON RPC API.
//
// Reference: https://docs.solana.com/apps/jsonrpc-api
type Client interface {
	GetAccountInfo(context.Context, ed25519.PublicKey, Commitment) (AccountInfo, error)
	GetBlockHeight(context.Context, Commitment) (uint64, error)
	GetLatestBlockhash(context.Context, Commitment) (LatestBlockhash, error)
	GetSignatureStatus(context.Context, Signature, Commitment) (*SignatureStatus, error)
	GetSignatureStatuses(context.Context, []Signature) ([]*SignatureStatus, error)
	SubmitTransaction(context.Context, Transaction, Commitment) (Signature, error)
}

var (
	errRateLimited  = errors.New("rate limited")
	errServiceError = errors.New("service error")
)

type client struct {
	log     *logrus.Entry
	client  jsonrpc.RPCClient
	retrier retry.Retrier
	limiter rate.Limiter
}

// New returns a client using the specified endpoint.
func New(endpoint string) Client {
	return NewWithRPCOptions(endpoint, nil)
}

// NewWithTimeout returns a client whose calls fail with a NetworkError if the
// node does not respond within the timeout.
func NewWithTimeout(endpoint string, timeout time.Duration) Client {
	return NewWithRPCOptions(endpoint, &jsonrpc.RPCClientOpts{
		HTTPClient: &http.Client{Timeout: timeout},
	})
}

// NewWithLimiter returns a client with a request timeout whose requests are
// paced per RPC method by limiter.
func NewWithLimiter(endpoint string, timeout time.Duration, limiter rate.Limiter) Client {
	c := NewWithTimeout(endpoint, timeout).(*client)
	c.limiter = limiter
	return c
}

// NewWithRPCOptions returns a client configured with the specified RPC options.
func NewWithRPCOptions(endpoint string, opts *jsonrpc.RPCClientOpts) Client {
	return &client{
		log:     logrus.StandardLogger().WithField("type", "solana/client"),
		client:  jsonrpc.NewClientWithOpts(endpoint, opts),
		limiter: &rate.NoLimiter{},
		retrier: retry.NewRetrier(
			retry.RetriableErrors(errRateLimited, errServiceError),
			retry.Limit(3),
			retry.BackoffWithJitter(backoff.BinaryExponential(time.Second), 10*time.Second, 0.1),
		),
	}
}

// call invokes method and decodes its result into out. Every failure is
// returned as a *NetworkError; an error response from the node remains
// reachable through errors.As as a *jsonrpc.RPCError.
func (c *client) call(ctx context.Context, out interface{}, method string, params ...interface{}) error {
	_, err := c.retrier.Retry(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.limiter.Wait(ctx, method); err != nil {
			return err
		}

		err := c.callFor(ctx, out, method, params...)
		if err == nil {
			return nil
		}

		return c.handleRpcError(method, err)
	})
	if err == nil {
		return nil
	}

	return &NetworkError{Method: method, Err: err}
}

// callFor is jsonrpc.RPCClient.CallFor bounded by ctx. The underlying
// request cannot be aborted, so it is left to finish against the HTTP
// client timeout once ctx is done.
func (c *client) callFor(ctx context.Context, out interface{}, method string, params ...interface{}) error {
	type result struct {
		resp *jsonrpc.RPCResponse
		err  error
	}

	ch := make(chan result, 1)
	go func() {
		resp, err := c.client.Call(method, params...)
		ch <- result{resp: resp, err: err}
	}()

	var r result
	select {
	case <-ctx.Done():
		return ctx.Err()
	case r = <-ch:
	}

	if r.err != nil {
		return r.err
	}
	if r.resp == nil {
		return errors.Wrap(ErrMalformedResponse, "empty response")
	}
	if r.resp.Error != nil {
		return r.resp.Error
	}
	if err := r.resp.GetObject(out); err != nil {
		return errors.Wrap(ErrMalformedResponse, err.Error())
	}

	return nil
}

// malformed reports a response that was received but could not be decoded.
func malformed(method string, format string, args ...interface{}) error {
	return &NetworkError{
		Method: method,
		Err:    errors.Wrapf(ErrMalformedResponse, format, args...),
	}
}

func (c *client) handleRpcError(method string, err error) error {
	var code int
	switch e := err.(type) {
	case *jsonrpc.RPCError:
		code = e.Code
	case *jsonrpc.HTTPError:
		code = e.Code
	default:
		return err
	}

	if code == http.StatusTooManyRequests {
		c.log.WithField("method", method).Warn("rate limited")
		return errRateLimited
	}
	if code >= http.StatusInternalServerError || code == rpcNodeUnhealthyCode {
		c.log.WithField("method", method).WithError(err).Warn("service error")
		return errServiceError
	}

	return err
}

func (c *client) GetBlockHeight(ctx context.Context, commitment Commitment) (height uint64, err error) {
	// note: we have to wrap the commitment in an []interface{} otherwise the
	//       solana RPC node complains. Technically this is a violation of the
	//       JSON RPC v2.0 spec.
	if err := c.call(ctx, &height, "getBlockHeight", []interface{}{commitment}); err != nil {
		return 0, errors.Wrapf(err, "getBlockHeight() failed to send request")
	}

	return height, nil
}

func (c *client) GetLatestBlockhash(ctx context.Context, commitment Commitment) (latest LatestBlockhash, err error) {
	type response struct {
		Value struct {
			Blockhash            string `json:"blockhash"`
			LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
		} `json:"value"`
	}

	var resp response
	if err := c.call(ctx, &resp, "getLatestBlockhash", []interface{}{commitment}); err != nil {
		return latest, errors.Wrapf(err, "getLatestBlockhash() failed to send request")
	}

	hashBytes, err := base58.Decode(resp.Value.Blockhash)
	if err != nil {
		return latest, malformed("getLatestBlockhash", "invalid base58 encoded hash: %v", err)
	}
	if len(hashBytes) != len(latest.Blockhash) {
		return latest, malformed("getLatestBlockhash", "invalid blockhash length: %d", len(hashBytes))
	}

	copy(latest.Blockhash[:], hashBytes)
	latest.LastValidBlockHeight = resp.Value.LastValidBlockHeight

	return latest, nil
}

// SubmitTransaction submits the transaction with preflight checks enabled.
//
// If the node rejects the transaction, the returned error is a *TransactionError
// carrying the rejection reason and any program logs.
func (c *client) SubmitTransaction(ctx context.Context, txn Transaction, commitment Commitment) (Signature, error) {
	var sig Signature
	if len(txn.Signatures) == 0 {
		return sig, errors.New("transaction has no signatures")
	}
	sig = txn.Signatures[0]

	config := struct {
		Encoding            string `json:"encoding"`
		SkipPreflight       bool   `json:"skipPreflight"`
		PreflightCommitment string `json:"preflightCommitment"`
	}{
		Encoding:            "base64",
		SkipPreflight:       false,
		PreflightCommitment: commitment.Commitment,
	}

	var sigStr string
	err := c.call(ctx, &sigStr, "sendTransaction", base64.StdEncoding.EncodeToString(txn.Marshal()), config)
	if err != nil {
		var jsonRPCErr *jsonrpc.RPCError
		if errors.As(err, &jsonRPCErr) {
			txResult, parseErr := ParseRPCError(jsonRPCErr)
			if parseErr == nil && txResult != nil {
				return sig, txResult
			}
		}

		return sig, errors.Wrap(err, "sendTransaction() failed")
	}

	if sigStr != "" && sigStr != sig.String() {
		c.log.WithFields(logrus.Fields{
			"expected": sig.String(),
			"actual":   sigStr,
		}).Warn("node returned unexpected signature")
	}

	return sig, nil
}

func (c *client) GetAccountInfo(ctx context.Context, account ed25519.PublicKey, commitment Commitment) (accountInfo AccountInfo, err error) {
	type rpcResponse struct {
		Value *struct {
			Lamports   uint64   `json:"lamports"`
			Owner      string   `json:"owner"`
			Data       []string `json:"data"`
			Executable bool     `json:"executable"`
		} `json:"value"`
	}

	rpcConfig := struct {
		Commitment string `json:"commitment"`
		Encoding   string `json:"encoding"`
	}{
		Commitment: commitment.Commitment,
		Encoding:   "base64",
	}

	var resp rpcResponse
	if err := c.call(ctx, &resp, "getAccountInfo", base58.Encode(account[:]), rpcConfig); err != nil {
		return accountInfo, errors.Wrap(err, "getAccountInfo() failed to send request")
	}

	if resp.Value == nil {
		return accountInfo, ErrNoAccountInfo
	}

	accountInfo.Owner, err = base58.Decode(resp.Value.Owner)
	if err != nil {
		return accountInfo, malformed("getAccountInfo", "invalid base58 encoded owner: %v", err)
	}

	if len(resp.Value.Data) == 0 {
		return accountInfo, malformed("getAccountInfo", "missing account data")
	}
	accountInfo.Data, err = base64.StdEncoding.DecodeString(resp.Value.Data[0])
	if err != nil {
		return accountInfo, malformed("getAccountInfo", "invalid base64 encoded data: %v", err)
	}

	accountInfo.Lamports = resp.Value.Lamports
	accountInfo.Executable = resp.Value.Executable

	return accountInfo, nil
}

// GetSignatureStatus polls the status of sig until it reaches the requested
// commitment, the transaction fails, the poll limit is exhausted, or ctx is
// done.
func (c *client) GetSignatureStatus(ctx context.Context, sig Signature, commitment Commitment) (*SignatureStatus, error) {
	var s *SignatureStatus
	errConfirmationsNotReached := errors.New("confirmations not reached")
	_, err := retry.Retry(
		func() error {
			statuses, err := c.GetSignatureStatuses(ctx, []Signature{sig})
			if err != nil {
				return err
			}

			s = statuses[0]
			if s == nil {
				return ErrSignatureNotFound
			}

			if s.ErrorResult != nil {
				return nil
			}

			switch commitment {
			case CommitmentProcessed:
				return nil
			case CommitmentConfirmed:
				if s.Confirmed() {
					return nil
				}
			case CommitmentFinalized:
				if s.Finalized() {
					return nil
				}
			}

			return errConfirmationsNotReached
		},
		retry.RetriableErrors(ErrSignatureNotFound, errConfirmationsNotReached),
		retry.Limit(sigStatusPollLimit),
		retry.Backoff(backoff.Constant(PollRate), PollRate),
	)

	return s, err
}

func (c *client) GetSignatureStatuses(ctx context.Context, sigs []Signature) ([]*SignatureStatus, error) {
	b58Sigs := make([]string, len(sigs))
	for i := range sigs {
		b58Sigs[i] = base58.Encode(sigs[i][:])
	}

	req := struct {
		SearchTransactionHistory bool `json:"searchTransactionHistory"`
	}{
		SearchTransactionHistory: true,
	}

	type signatureStatus struct {
		Slot               uint64          `json:"slot"`
		Confirmations      *int            `json:"confirmations"`
		ConfirmationStatus string          `json:"confirmationStatus"`
		Err                json.RawMessage `json:"err"`
	}

	type rpcResp struct {
		Context struct {
			Slot int `json:"slot"`
		} `json:"context"`
		Value []*signatureStatus `json:"value"`
	}

	var resp rpcResp
	if err := c.call(ctx, &resp, "getSignatureStatuses", b58Sigs, req); err != nil {
		return nil, errors.Wrap(err, "getSignatureStatuses() failed to send request")
	}

	statuses := make([]*SignatureStatus, len(sigs))
	for i, v := range resp.Value {
		if v == nil || i >= len(statuses) {
			continue
		}

		statuses[i] = &SignatureStatus{}
		statuses[i].Confirmations = v.Confirmations
		statuses[i].ConfirmationStatus = v.ConfirmationStatus
		statuses[i].Slot = v.Slot

		if len(v.Err) > 0 && !bytes.Equal(v.Err, []byte("null")) {
			var txError interface{}
			err := json.NewDecoder(bytes.NewBuffer(v.Err)).Decode(&txError)
			if err != nil {
				return nil, malformed("getSignatureStatuses", "failed to parse transaction result: %v", err)
			}

			statuses[i].ErrorResult, err = ParseTransactionError(txError)
			if err != nil {
				return nil, malformed("getSignatureStatuses", "failed to parse transaction result: %v", err)
			}
		}
	}

	return statuses, nil
}
