// Package rpc provides a minimal JSON-RPC 2.0 client for wallet providers.
// It speaks the subset of the Ethereum RPC surface that an account-managing
// wallet exposes: account authorization, reads, and signed submission.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/cosmospool/cosmospool/internal/chain"
	poolerr "github.com/cosmospool/cosmospool/pkg/errors"
)

// Well-known JSON-RPC and EIP-1193 error codes.
const (
	CodeMethodNotFound = -32601
	CodeUserRejected   = 4001
	CodeUnauthorized   = 4100
	CodeUnsupported    = 4200
)

var (
	// ErrTransport indicates the endpoint could not be reached.
	ErrTransport = &poolerr.PoolError{
		Code:     "RPC_TRANSPORT",
		Message:  "wallet provider unreachable",
		ExitCode: poolerr.ExitUnavailable,
	}

	// ErrRPCResponse indicates an invalid RPC response.
	ErrRPCResponse = &poolerr.PoolError{
		Code:     "RPC_INVALID_RESPONSE",
		Message:  "invalid RPC response",
		ExitCode: poolerr.ExitGeneral,
	}
)

// Error is an error object returned by the endpoint.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// RevertData returns the hex payload some nodes attach to execution errors.
func (e *Error) RevertData() []byte {
	var s string
	if len(e.Data) == 0 || json.Unmarshal(e.Data, &s) != nil {
		return nil
	}
	data, err := hexutil.Decode(s)
	if err != nil {
		return nil
	}
	return data
}

// Recorder receives one observation per call.
type Recorder interface {
	RecordRPCCall(method string, duration time.Duration, err error)
}

// Client is a minimal JSON-RPC client.
type Client struct {
	url        string
	httpClient *http.Client
	limiter    *chain.RateLimiter
	recorder   Recorder
	idCounter  atomic.Uint64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimiter throttles calls through limiter, keyed by the endpoint URL.
func WithRateLimiter(limiter *chain.RateLimiter) Option {
	return func(c *Client) { c.limiter = limiter }
}

// WithRecorder reports every call to r.
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// NewClient creates a new RPC client.
func NewClient(url string, opts ...Option) *Client {
	c := &Client{
		url:        url,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the endpoint URL.
func (c *Client) URL() string {
	return c.url
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      uint64 `json:"id"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *Error          `json:"error,omitempty"`
}

// Call performs a JSON-RPC call and returns the raw result.
func (c *Client) Call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	start := time.Now()
	result, err := c.call(ctx, method, params)
	if c.recorder != nil {
		c.recorder.RecordRPCCall(method, time.Since(start), err)
	}
	return result, err
}

func (c *Client) call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	if params == nil {
		params = []any{}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, c.url); err != nil {
			return nil, err
		}
	}

	body, err := json.Marshal(request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.idCounter.Add(1),
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, poolerr.WithCause(ErrTransport, fmt.Errorf("creating HTTP request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, chain.WrapRetryable(poolerr.WithCause(ErrTransport, fmt.Errorf("sending %s: %w", method, err)))
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, chain.WrapRetryable(poolerr.WithCause(ErrTransport, fmt.Errorf("reading %s response: %w", method, err)))
	}

	if httpResp.StatusCode == http.StatusTooManyRequests {
		return nil, chain.RateLimited(httpResp.Header.Get("Retry-After"))
	}

	var resp response
	if err := json.Unmarshal(respBody, &resp); err != nil {
		if httpResp.StatusCode >= http.StatusInternalServerError {
			return nil, chain.WrapRetryable(fmt.Errorf("HTTP %d from %s", httpResp.StatusCode, method))
		}
		return nil, poolerr.WithCause(ErrRPCResponse, fmt.Errorf("unmarshaling %s response: %w", method, err))
	}

	if resp.Error != nil {
		return nil, resp.Error
	}

	return resp.Result, nil
}

// callInto performs a call and decodes its result into out.
func (c *Client) callInto(ctx context.Context, out any, method string, params ...any) error {
	result, err := c.Call(ctx, method, params...)
	if err != nil {
		return err
	}
	if len(result) == 0 || string(result) == "null" {
		return poolerr.WithDetails(ErrRPCResponse, map[string]string{"method": method, "reason": "empty result"})
	}
	if err := json.Unmarshal(result, out); err != nil {
		return poolerr.WithCause(ErrRPCResponse, fmt.Errorf("parsing %s result: %w", method, err))
	}
	return nil
}

// RequestAccounts asks the wallet to authorize accounts. The wallet may prompt.
func (c *Client) RequestAccounts(ctx context.Context) ([]string, error) {
	var accounts []string
	if err := c.callInto(ctx, &accounts, "eth_requestAccounts"); err != nil {
		return nil, err
	}
	return accounts, nil
}

// Accounts returns the already-authorized accounts without prompting.
func (c *Client) Accounts(ctx context.Context) ([]string, error) {
	var accounts []string
	if err := c.callInto(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, err
	}
	return accounts, nil
}

// ChainID returns the chain ID.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	var id hexutil.Big
	if err := c.callInto(ctx, &id, "eth_chainId"); err != nil {
		return nil, err
	}
	return id.ToInt(), nil
}

// GetBalance returns the balance of an address in wei.
func (c *Client) GetBalance(ctx context.Context, address, block string) (*big.Int, error) {
	if block == "" {
		block = "latest"
	}
	var balance hexutil.Big
	if err := c.callInto(ctx, &balance, "eth_getBalance", address, block); err != nil {
		return nil, err
	}
	return balance.ToInt(), nil
}

// CallMsg holds the parameters of eth_call and eth_sendTransaction.
type CallMsg struct {
	From  *common.Address `json:"from,omitempty"`
	To    *common.Address `json:"to,omitempty"`
	Value *hexutil.Big    `json:"value,omitempty"`
	Data  hexutil.Bytes   `json:"data,omitempty"`
}

// EthCall executes msg against the state at block without creating a transaction.
func (c *Client) EthCall(ctx context.Context, msg CallMsg, block string) ([]byte, error) {
	if block == "" {
		block = "latest"
	}
	var out hexutil.Bytes
	if err := c.callInto(ctx, &out, "eth_call", msg, block); err != nil {
		return nil, err
	}
	return out, nil
}

// SendTransaction asks the wallet to sign and broadcast msg from msg.From.
// Returns the transaction hash.
func (c *Client) SendTransaction(ctx context.Context, msg CallMsg) (common.Hash, error) {
	var hash common.Hash
	if err := c.callInto(ctx, &hash, "eth_sendTransaction", msg); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

// Receipt is the subset of a transaction receipt the deposit flow reads.
type Receipt struct {
	TxHash      common.Hash    `json:"transactionHash"`
	BlockNumber *hexutil.Big   `json:"blockNumber"`
	Status      hexutil.Uint64 `json:"status"`
	GasUsed     hexutil.Uint64 `json:"gasUsed"`
}

// Succeeded reports whether the transaction executed without reverting.
func (r *Receipt) Succeeded() bool {
	return r.Status == 1
}

// GetTransactionReceipt returns the receipt for hash, or nil while the
// transaction is still pending.
func (c *Client) GetTransactionReceipt(ctx context.Context, hash common.Hash) (*Receipt, error) {
	result, err := c.Call(ctx, "eth_getTransactionReceipt", hash)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 || string(result) == "null" {
		return nil, nil //nolint:nilnil // nil receipt means pending
	}

	var receipt Receipt
	if err := json.Unmarshal(result, &receipt); err != nil {
		return nil, poolerr.WithCause(ErrRPCResponse, fmt.Errorf("parsing receipt: %w", err))
	}
	return &receipt, nil
}

// BlockArg formats a block number for use as a block parameter.
func BlockArg(n *big.Int) string {
	if n == nil {
		return "latest"
	}
	return hexutil.EncodeBig(n)
}

// ErrorCode returns the JSON-RPC error code carried by err, if any.
func ErrorCode(err error) (int, bool) {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr.Code, true
	}
	return 0, false
}

// IsMethodNotFound reports whether err says the endpoint lacks the method.
func IsMethodNotFound(err error) bool {
	code, ok := ErrorCode(err)
	if ok && code == CodeMethodNotFound {
		return true
	}
	return ok && strings.Contains(strings.ToLower(err.Error()), "method not found")
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
