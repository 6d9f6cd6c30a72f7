package provider

import (
	"context"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/cosmospool/cosmospool/internal/chain"
	"github.com/cosmospool/cosmospool/internal/chain/eth"
	"github.com/cosmospool/cosmospool/internal/chain/eth/rpc"
	poolerr "github.com/cosmospool/cosmospool/pkg/errors"
)

// Default polling intervals.
const (
	DefaultAccountsPollInterval = 2 * time.Second
	DefaultReceiptPollInterval  = time.Second
	pollRequestTimeout          = 10 * time.Second
)

// Config configures an RPCProvider.
type Config struct {
	URL                  string
	AccountsPollInterval time.Duration
	ReceiptPollInterval  time.Duration
	Retry                chain.RetryConfig
}

// Option configures an RPCProvider.
type Option func(*RPCProvider)

// WithLogger sets the logger.
func WithLogger(l LogWriter) Option {
	return func(p *RPCProvider) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithClientOptions passes options through to the underlying RPC client.
func WithClientOptions(opts ...rpc.Option) Option {
	return func(p *RPCProvider) { p.clientOpts = append(p.clientOpts, opts...) }
}

// RPCProvider implements Provider against a JSON-RPC wallet endpoint.
// Account changes are detected by polling eth_accounts while at least one
// listener is registered.
type RPCProvider struct {
	client          *rpc.Client
	clientOpts      []rpc.Option
	logger          LogWriter
	pollInterval    time.Duration
	receiptInterval time.Duration
	retry           chain.RetryConfig

	mu        sync.Mutex
	listeners map[uint64]func([]string)
	nextID    uint64
	stopPoll  chan struct{}
	closed    bool
	wg        sync.WaitGroup
}

var _ Provider = (*RPCProvider)(nil)

// New creates an RPCProvider. An empty URL yields a provider whose every
// operation fails with ErrProviderUnavailable.
func New(cfg Config, opts ...Option) *RPCProvider {
	p := &RPCProvider{
		logger:          nopLogger{},
		pollInterval:    cfg.AccountsPollInterval,
		receiptInterval: cfg.ReceiptPollInterval,
		retry:           cfg.Retry,
		listeners:       make(map[uint64]func([]string)),
	}
	if p.pollInterval <= 0 {
		p.pollInterval = DefaultAccountsPollInterval
	}
	if p.receiptInterval <= 0 {
		p.receiptInterval = DefaultReceiptPollInterval
	}
	if p.retry.MaxAttempts == 0 {
		p.retry = chain.DefaultRetryConfig()
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.retry.OnRetry == nil {
		p.retry.OnRetry = func(attempt int, delay time.Duration, err error) {
			p.logger.Debug("provider read failed, retry %d in %s: %v", attempt, delay, err)
		}
	}
	if url := strings.TrimSpace(cfg.URL); url != "" {
		p.client = rpc.NewClient(url, p.clientOpts...)
	}
	return p
}

func (p *RPCProvider) available() error {
	if p.client == nil {
		return poolerr.WithDetails(poolerr.ErrProviderUnavailable, map[string]string{
			"reason": "no provider endpoint configured",
		})
	}
	return nil
}

// read runs a side-effect free call with retries for transient failures.
func read[T any](ctx context.Context, p *RPCProvider, op func() (T, error)) (T, error) {
	if err := p.available(); err != nil {
		var zero T
		return zero, err
	}
	v, err := chain.RetryWithConfig(ctx, p.retry, op)
	return v, mapError(err)
}

// RequestAccounts implements Provider. Prompts are never retried.
func (p *RPCProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	if err := p.available(); err != nil {
		return nil, err
	}
	accounts, err := p.client.RequestAccounts(ctx)
	if err != nil {
		return nil, mapWalletError(err)
	}
	return accounts, nil
}

// Accounts implements Provider.
func (p *RPCProvider) Accounts(ctx context.Context) ([]string, error) {
	return read(ctx, p, func() ([]string, error) { return p.client.Accounts(ctx) })
}

// ChainID implements Provider.
func (p *RPCProvider) ChainID(ctx context.Context) (*big.Int, error) {
	return read(ctx, p, func() (*big.Int, error) { return p.client.ChainID(ctx) })
}

// GetBalance implements Provider.
func (p *RPCProvider) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	return read(ctx, p, func() (*big.Int, error) { return p.client.GetBalance(ctx, address, "latest") })
}

// TokenBalance implements Provider using ERC-20 balanceOf.
func (p *RPCProvider) TokenBalance(ctx context.Context, token, owner string) (*big.Int, error) {
	tokenAddr, err := eth.ToCommon(token)
	if err != nil {
		return nil, err
	}
	ownerAddr, err := eth.ToCommon(owner)
	if err != nil {
		return nil, err
	}
	data, err := eth.ERC20.Pack(eth.MethodBalanceOf, ownerAddr)
	if err != nil {
		return nil, err
	}

	out, err := read(ctx, p, func() ([]byte, error) {
		return p.client.EthCall(ctx, rpc.CallMsg{To: &tokenAddr, Data: data}, "latest")
	})
	if err != nil {
		return nil, err
	}
	return eth.ERC20.UnpackUint256(eth.MethodBalanceOf, out)
}

// SendContractCall implements Provider.
func (p *RPCProvider) SendContractCall(ctx context.Context, call ContractCall) (TxHandle, error) {
	if err := p.available(); err != nil {
		return nil, err
	}

	from, err := eth.ToCommon(call.From)
	if err != nil {
		return nil, err
	}
	to, err := eth.ToCommon(call.To)
	if err != nil {
		return nil, err
	}
	data, err := call.Contract.Pack(call.Method, call.Args...)
	if err != nil {
		return nil, err
	}

	msg := rpc.CallMsg{From: &from, To: &to, Data: data}
	if call.Value != nil && call.Value.Sign() > 0 {
		msg.Value = (*hexutil.Big)(new(big.Int).Set(call.Value))
	}

	hash, err := p.client.SendTransaction(ctx, msg)
	if err != nil {
		return nil, mapWalletError(err)
	}
	p.logger.Debug("submitted %s.%s tx=%s from=%s", call.Contract.Name, call.Method, hash.Hex(), from.Hex())

	return &rpcTx{provider: p, hash: hash, msg: msg}, nil
}

// OnAccountsChanged implements Provider.
func (p *RPCProvider) OnAccountsChanged(cb func([]string)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || cb == nil {
		return func() {}
	}

	id := p.nextID
	p.nextID++
	p.listeners[id] = cb
	if len(p.listeners) == 1 && p.client != nil {
		p.startPollLocked()
	}

	var once sync.Once
	return func() {
		once.Do(func() { p.removeListener(id) })
	}
}

func (p *RPCProvider) removeListener(id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.listeners, id)
	if len(p.listeners) == 0 {
		p.stopPollLocked()
	}
}

// ListenerCount returns the number of registered account listeners.
func (p *RPCProvider) ListenerCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.listeners)
}

func (p *RPCProvider) startPollLocked() {
	if p.stopPoll != nil {
		return
	}
	stop := make(chan struct{})
	p.stopPoll = stop
	p.wg.Add(1)
	go p.pollAccounts(stop)
}

func (p *RPCProvider) stopPollLocked() {
	if p.stopPoll != nil {
		close(p.stopPoll)
		p.stopPoll = nil
	}
}

// pollAccounts emits the account list whenever it differs from the last
// successful poll. The baseline is taken as soon as the poller starts.
func (p *RPCProvider) pollAccounts(stop <-chan struct{}) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	var last []string
	baseline := false

	for {
		ctx, cancel := context.WithTimeout(context.Background(), pollRequestTimeout)
		accounts, err := p.client.Accounts(ctx)
		cancel()

		switch {
		case err != nil:
			p.logger.Debug("accounts poll failed: %v", err)
		case !baseline:
			last, baseline = accounts, true
		case !sameAccounts(last, accounts):
			last = accounts
			select {
			case <-stop:
				return
			default:
			}
			p.emit(accounts)
		}

		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

func (p *RPCProvider) emit(accounts []string) {
	p.mu.Lock()
	callbacks := make([]func([]string), 0, len(p.listeners))
	for _, cb := range p.listeners {
		callbacks = append(callbacks, cb)
	}
	p.mu.Unlock()

	p.logger.Debug("accounts changed: %d account(s)", len(accounts))
	for _, cb := range callbacks {
		cb(append([]string(nil), accounts...))
	}
}

func sameAccounts(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !eth.EqualAddress(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Close stops the accounts poller and releases idle connections.
// It must not be called from inside an accounts callback.
func (p *RPCProvider) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.listeners = make(map[uint64]func([]string))
	p.stopPollLocked()
	p.mu.Unlock()

	p.wg.Wait()
	if p.client != nil {
		p.client.Close()
	}
}

type rpcTx struct {
	provider *RPCProvider
	hash     common.Hash
	msg      rpc.CallMsg
}

func (t *rpcTx) Hash() string {
	return t.hash.Hex()
}

// AwaitConfirmation polls for the receipt until it arrives, the provider
// fails, or ctx ends. Transient read failures keep the wait going.
func (t *rpcTx) AwaitConfirmation(ctx context.Context) (*Receipt, error) {
	p := t.provider
	ticker := time.NewTicker(p.receiptInterval)
	defer ticker.Stop()

	for {
		receipt, err := p.client.GetTransactionReceipt(ctx, t.hash)
		switch {
		case ctx.Err() != nil:
			return nil, t.contextError(ctx)
		case err != nil && !chain.IsRetryable(err):
			return nil, mapError(err)
		case err != nil:
			p.logger.Debug("receipt poll for %s failed, will retry: %v", t.Hash(), err)
		case receipt != nil:
			return t.finish(ctx, receipt)
		}

		select {
		case <-ctx.Done():
			return nil, t.contextError(ctx)
		case <-ticker.C:
		}
	}
}

func (t *rpcTx) finish(ctx context.Context, r *rpc.Receipt) (*Receipt, error) {
	out := &Receipt{
		TxHash:  r.TxHash.Hex(),
		Status:  uint64(r.Status),
		GasUsed: uint64(r.GasUsed),
		MinedAt: time.Now(),
	}
	if r.BlockNumber != nil {
		out.BlockNumber = r.BlockNumber.ToInt()
	}
	if r.Succeeded() {
		return out, nil
	}

	details := map[string]string{"tx_hash": t.Hash()}
	if reason := t.revertReason(ctx, out.BlockNumber); reason != "" {
		details["reason"] = reason
	}
	return out, poolerr.WithDetails(poolerr.ErrTransactionReverted, details)
}

// revertReason replays the call at the receipt's block to recover the reason.
func (t *rpcTx) revertReason(ctx context.Context, block *big.Int) string {
	_, err := t.provider.client.EthCall(ctx, t.msg, rpc.BlockArg(block))
	if err == nil {
		return ""
	}

	var rpcErr *rpc.Error
	if !poolerr.As(err, &rpcErr) {
		return ""
	}
	if reason := eth.DecodeRevertReason(rpcErr.RevertData()); reason != "" {
		return reason
	}
	if _, reason, ok := strings.Cut(rpcErr.Message, "execution reverted: "); ok {
		return reason
	}
	return ""
}

func (t *rpcTx) contextError(ctx context.Context) error {
	err := ctx.Err()
	if err == context.DeadlineExceeded { //nolint:errorlint // ctx.Err returns the sentinel directly
		return poolerr.WithDetails(poolerr.WithCause(poolerr.ErrTransactionTimeout, err), map[string]string{
			"tx_hash": t.Hash(),
		})
	}
	return err
}
