// Package providertest provides a scriptable in-memory wallet provider for tests.
package providertest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/cosmospool/cosmospool/internal/provider"
	poolerr "github.com/cosmospool/cosmospool/pkg/errors"
)

// Tx records a contract call submitted through the fake.
type Tx struct {
	Call        provider.ContractCall
	Hash        string
	SubmittedAt time.Time
	ConfirmedAt time.Time
}

// Fake implements provider.Provider in memory.
type Fake struct {
	mu            sync.Mutex
	accounts      []string
	chainID       *big.Int
	balance       *big.Int
	tokenBalances map[string]*big.Int
	requestErr    error
	accountsErr   error
	balanceErr    error
	sendErrs      map[string]error
	confirmErrs   map[string]error
	requestGate   chan struct{}
	confirmGate   chan struct{}
	calls         map[string]int
	txs           []*Tx
	listeners     map[int]func([]string)
	nextListener  int
}

var _ provider.Provider = (*Fake)(nil)

// New returns a Fake wallet authorizing accounts on chain 1.
func New(accounts ...string) *Fake {
	return &Fake{
		accounts:      accounts,
		chainID:       big.NewInt(1),
		balance:       new(big.Int),
		tokenBalances: make(map[string]*big.Int),
		sendErrs:      make(map[string]error),
		confirmErrs:   make(map[string]error),
		calls:         make(map[string]int),
		listeners:     make(map[int]func([]string)),
	}
}

// SetAccounts changes the authorized accounts without emitting an event.
func (f *Fake) SetAccounts(accounts ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts = accounts
}

// SetBalance sets the native balance reported for every account.
func (f *Fake) SetBalance(b *big.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balance = b
}

// SetTokenBalance sets the balance reported for token.
func (f *Fake) SetTokenBalance(token string, b *big.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokenBalances[strings.ToLower(token)] = b
}

// FailRequest makes RequestAccounts fail with err.
func (f *Fake) FailRequest(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requestErr = err
}

// FailAccounts makes Accounts fail with err.
func (f *Fake) FailAccounts(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accountsErr = err
}

// FailBalance makes GetBalance and TokenBalance fail with err.
func (f *Fake) FailBalance(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balanceErr = err
}

// FailSend makes SendContractCall fail with err for method.
func (f *Fake) FailSend(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendErrs[method] = err
}

// FailConfirm makes AwaitConfirmation fail with err for transactions calling method.
func (f *Fake) FailConfirm(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmErrs[method] = err
}

// BlockRequests makes RequestAccounts wait until release is called.
func (f *Fake) BlockRequests() (release func()) {
	gate := make(chan struct{})
	f.mu.Lock()
	f.requestGate = gate
	f.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// HoldConfirmations makes AwaitConfirmation wait until release is called.
func (f *Fake) HoldConfirmations() (release func()) {
	gate := make(chan struct{})
	f.mu.Lock()
	f.confirmGate = gate
	f.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// Calls returns how often the named operation was invoked.
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// Transactions returns copies of all submitted transactions in submission order.
func (f *Fake) Transactions() []Tx {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Tx, 0, len(f.txs))
	for _, tx := range f.txs {
		out = append(out, *tx)
	}
	return out
}

// ListenerCount returns the number of registered account listeners.
func (f *Fake) ListenerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

// EmitAccountsChanged sets the accounts and delivers them to every listener.
func (f *Fake) EmitAccountsChanged(accounts ...string) {
	f.mu.Lock()
	f.accounts = accounts
	callbacks := make([]func([]string), 0, len(f.listeners))
	for _, cb := range f.listeners {
		callbacks = append(callbacks, cb)
	}
	f.mu.Unlock()

	for _, cb := range callbacks {
		cb(append([]string(nil), accounts...))
	}
}

func (f *Fake) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
}

// RequestAccounts implements provider.Provider.
func (f *Fake) RequestAccounts(ctx context.Context) ([]string, error) {
	f.record("RequestAccounts")

	f.mu.Lock()
	gate := f.requestGate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.requestErr != nil {
		return nil, f.requestErr
	}
	return append([]string(nil), f.accounts...), nil
}

// Accounts implements provider.Provider.
func (f *Fake) Accounts(context.Context) ([]string, error) {
	f.record("Accounts")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.accountsErr != nil {
		return nil, f.accountsErr
	}
	return append([]string(nil), f.accounts...), nil
}

// ChainID implements provider.Provider.
func (f *Fake) ChainID(context.Context) (*big.Int, error) {
	f.record("ChainID")
	f.mu.Lock()
	defer f.mu.Unlock()
	return new(big.Int).Set(f.chainID), nil
}

// GetBalance implements provider.Provider.
func (f *Fake) GetBalance(context.Context, string) (*big.Int, error) {
	f.record("GetBalance")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	return new(big.Int).Set(f.balance), nil
}

// TokenBalance implements provider.Provider.
func (f *Fake) TokenBalance(_ context.Context, token, _ string) (*big.Int, error) {
	f.record("TokenBalance")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	if b, ok := f.tokenBalances[strings.ToLower(token)]; ok {
		return new(big.Int).Set(b), nil
	}
	return new(big.Int), nil
}

// OnAccountsChanged implements provider.Provider.
func (f *Fake) OnAccountsChanged(cb func([]string)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextListener
	f.nextListener++
	f.listeners[id] = cb

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.listeners, id)
		})
	}
}

// SendContractCall implements provider.Provider.
func (f *Fake) SendContractCall(_ context.Context, call provider.ContractCall) (provider.TxHandle, error) {
	f.record("SendContractCall")
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.sendErrs[call.Method]; err != nil {
		return nil, err
	}
	if !call.Contract.HasMethod(call.Method) {
		return nil, poolerr.WithDetails(poolerr.ErrInvalidInput, map[string]string{"method": call.Method})
	}

	tx := &Tx{
		Call:        call,
		Hash:        fmt.Sprintf("0x%064x", len(f.txs)+1),
		SubmittedAt: time.Now(),
	}
	f.txs = append(f.txs, tx)
	return &handle{fake: f, tx: tx}, nil
}

// Close implements provider.Provider.
func (f *Fake) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = make(map[int]func([]string))
}

type handle struct {
	fake *Fake
	tx   *Tx
}

func (h *handle) Hash() string { return h.tx.Hash }

func (h *handle) AwaitConfirmation(ctx context.Context) (*provider.Receipt, error) {
	f := h.fake
	f.record("AwaitConfirmation")

	f.mu.Lock()
	gate := f.confirmGate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, poolerr.WithCause(poolerr.ErrTransactionTimeout, ctx.Err())
			}
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.confirmErrs[h.tx.Call.Method]; err != nil {
		return nil, err
	}

	// Keep confirmation strictly after submission even on coarse clocks.
	now := time.Now()
	if !now.After(h.tx.SubmittedAt) {
		now = h.tx.SubmittedAt.Add(time.Nanosecond)
	}
	h.tx.ConfirmedAt = now
	return &provider.Receipt{
		TxHash:      h.tx.Hash,
		BlockNumber: big.NewInt(int64(len(f.txs))),
		Status:      1,
		GasUsed:     21000,
		MinedAt:     now,
	}, nil
}
