// Package deposit implements the wallet action façade: connect, disconnect,
// balances and the single-sided deposit sequence against the pool contract.
package deposit

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cosmospool/cosmospool/internal/chain"
	"github.com/cosmospool/cosmospool/internal/chain/eth"
	"github.com/cosmospool/cosmospool/internal/notify"
	"github.com/cosmospool/cosmospool/internal/provider"
	"github.com/cosmospool/cosmospool/internal/session"
	poolerr "github.com/cosmospool/cosmospool/pkg/errors"
)

// LogWriter provides logging operations.
type LogWriter interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

// Recorder receives terminal deposit outcomes, typically for metrics.
type Recorder interface {
	RecordDeposit(token, state string, err error)
}

// Config holds dependencies and settings for the deposit service.
type Config struct {
	Store    *session.Store
	Provider provider.Provider
	Sink     notify.Sink
	Logger   LogWriter
	Recorder Recorder
	Guard    Guard // optional; in-process exclusivity always applies

	Pool           string
	Tokens         []Token
	ConfirmTimeout time.Duration // zero waits for receipts indefinitely
}

// Service sequences wallet actions and reports their outcomes.
type Service struct {
	store          *session.Store
	provider       provider.Provider
	sink           notify.Sink
	logger         LogWriter
	recorder       Recorder
	guard          Guard
	pool           string
	tokens         []Token
	confirmTimeout time.Duration

	mu       sync.Mutex
	inflight map[string]State
	hooks    []func(Transition)
}

// NewService creates a new deposit service.
func NewService(cfg *Config) *Service {
	s := &Service{
		store:          cfg.Store,
		provider:       cfg.Provider,
		sink:           cfg.Sink,
		logger:         cfg.Logger,
		recorder:       cfg.Recorder,
		guard:          cfg.Guard,
		pool:           cfg.Pool,
		tokens:         cfg.Tokens,
		confirmTimeout: cfg.ConfirmTimeout,
		inflight:       make(map[string]State),
	}
	if s.logger == nil {
		s.logger = nopLogger{}
	}
	if s.sink == nil {
		s.sink = notify.NewCenter(nil)
	}
	return s
}

// WithTransitionHook registers fn to receive every state change.
func (s *Service) WithTransitionHook(fn func(Transition)) *Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
	return s
}

// Tokens returns the configured tokens.
func (s *Service) Tokens() []Token {
	return append([]Token(nil), s.tokens...)
}

// State returns the state of the sequence in flight for (account, pool),
// or Idle when none is running.
func (s *Service) State(account, pool string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.inflight[guardKey(account, pool)]; ok {
		return st
	}
	return Idle
}

// Connect prompts the wallet for an account. A rejected prompt is not
// announced; the caller already knows the user declined.
func (s *Service) Connect(ctx context.Context) (string, error) {
	address, err := s.store.Connect(ctx)
	switch {
	case err == nil:
		s.sink.Show(notify.Success, "Connected to address "+shortAddress(address), "Wallet Connected")
	case errors.Is(err, poolerr.ErrUserRejected),
		errors.Is(err, context.Canceled):
		// declined or abandoned by the caller
	case errors.Is(err, poolerr.ErrProviderUnavailable):
		s.sink.Show(notify.Error,
			"No wallet provider found. Start a wallet and set provider.rpc or COSMOSPOOL_RPC.",
			"Wallet Not Found")
	default:
		s.sink.Show(notify.Error, "Could not connect to wallet. Please try again.", "Connection Failed")
	}
	return address, err
}

// Disconnect forgets the connected account. It notifies only when something changed.
func (s *Service) Disconnect() bool {
	if !s.store.Disconnect() {
		return false
	}
	s.sink.Show(notify.Info, "Your wallet has been disconnected.", "Wallet Disconnected")
	return true
}

// Balances returns the native balance followed by every configured token balance.
func (s *Service) Balances(ctx context.Context) ([]Balance, error) {
	snap := s.store.Snapshot()
	if !snap.IsConnected {
		return nil, poolerr.ErrNotConnected
	}

	if err := s.store.RefreshBalance(ctx); err != nil {
		return nil, err
	}
	snap = s.store.Snapshot()

	native := chain.NewAmount(nil, session.NativeDecimals)
	if snap.CachedBalance != nil {
		native = *snap.CachedBalance
	}
	out := []Balance{{Symbol: "ETH", Amount: native}}

	for _, t := range s.tokens {
		v, err := s.provider.TokenBalance(ctx, t.Address, snap.Address)
		if err != nil {
			return out, poolerr.Wrap(err, "reading %s balance", t.Symbol)
		}
		out = append(out, Balance{Symbol: t.Symbol, Token: t.Address, Amount: chain.NewAmount(v, t.Decimals)})
	}
	return out, nil
}

// plan is a validated request.
type plan struct {
	account string
	pool    string
	token   Token
	amount  chain.Amount
}

// validate checks a request without any network traffic.
func (s *Service) validate(req Request) (plan, error) {
	token, err := FindToken(s.tokens, req.Token)
	if err != nil {
		return plan{}, err
	}

	amount, err := chain.ParseAmount(req.Amount, token.Decimals)
	if err != nil {
		return plan{token: token}, err
	}
	if !amount.IsPositive() {
		return plan{token: token}, poolerr.WithDetails(poolerr.ErrInvalidAmount, map[string]string{
			"input":  req.Amount,
			"reason": "amount must be greater than zero",
		})
	}

	snap := s.store.Snapshot()
	if !snap.IsConnected {
		return plan{token: token, amount: amount}, poolerr.ErrNotConnected
	}

	poolAddr := req.Pool
	if poolAddr == "" {
		poolAddr = s.pool
	}
	if poolAddr == "" {
		return plan{token: token, amount: amount, account: snap.Address},
			poolerr.WithDetails(poolerr.ErrInvalidAddress, map[string]string{"pool": "", "reason": "no pool configured"})
	}
	pool, err := eth.NormalizeAddress(poolAddr)
	if err != nil {
		return plan{token: token, amount: amount, account: snap.Address}, err
	}

	return plan{account: snap.Address, pool: pool, token: token, amount: amount}, nil
}

// Deposit runs one deposit sequence to a terminal state. Transactions are
// never retried; a failed sequence must be started again from Idle.
func (s *Service) Deposit(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := s.validate(req)
	if err != nil {
		s.rejectInvalid(p, err)
		return &Result{State: Failed, Account: p.account, Pool: p.pool, Token: p.token, Amount: p.amount}, err
	}

	key := guardKey(p.account, p.pool)
	release, err := s.acquire(p)
	if err != nil {
		if errors.Is(err, poolerr.ErrSequenceInProgress) {
			s.sink.Show(notify.Warning, "A deposit into this pool is already in progress.", "Deposit In Progress")
		}
		return nil, err
	}
	defer release()

	r := &run{svc: s, plan: p, key: key, state: Idle, result: &Result{
		Account: p.account,
		Pool:    p.pool,
		Token:   p.token,
		Amount:  p.amount,
	}}
	return r.execute(ctx)
}

// rejectInvalid reports a request that failed validation.
func (s *Service) rejectInvalid(p plan, err error) {
	s.emit(Transition{Account: p.account, Pool: p.pool, Token: p.token.Symbol, From: Idle, To: Validating, At: time.Now()})
	s.emit(Transition{Account: p.account, Pool: p.pool, Token: p.token.Symbol, From: Validating, To: Failed, Err: err, At: time.Now()})

	switch {
	case errors.Is(err, poolerr.ErrNotConnected):
		s.sink.Show(notify.Warning, "Please connect your wallet before adding liquidity to this pool.", "Wallet Required")
	case errors.Is(err, poolerr.ErrInvalidAmount):
		s.sink.Show(notify.Warning, "Enter a valid deposit amount", "Invalid Input")
	default:
		s.sink.Show(notify.Warning, err.Error(), "Invalid Input")
	}
	s.record(p.token.Symbol, Failed, err)
}

// acquire claims (account, pool) in this Service and then in the Guard.
func (s *Service) acquire(p plan) (func(), error) {
	key := guardKey(p.account, p.pool)

	s.mu.Lock()
	if st, busy := s.inflight[key]; busy {
		s.mu.Unlock()
		return nil, poolerr.WithDetails(poolerr.ErrSequenceInProgress, map[string]string{
			"account": p.account,
			"pool":    p.pool,
			"state":   string(st),
		})
	}
	s.inflight[key] = Idle
	s.mu.Unlock()

	if s.guard == nil {
		return func() { s.release(key) }, nil
	}
	unlock, err := s.guard.Acquire(p.account, p.pool)
	if err != nil {
		s.release(key)
		return nil, err
	}
	return func() {
		unlock()
		s.release(key)
	}, nil
}

func (s *Service) release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, key)
}

func (s *Service) setState(key string, st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inflight[key]; ok {
		s.inflight[key] = st
	}
}

func (s *Service) emit(t Transition) {
	s.mu.Lock()
	hooks := append(([]func(Transition))(nil), s.hooks...)
	s.mu.Unlock()
	for _, h := range hooks {
		h(t)
	}
}

func (s *Service) record(token string, st State, err error) {
	if s.recorder != nil {
		s.recorder.RecordDeposit(token, string(st), err)
	}
}

// run is one deposit sequence.
type run struct {
	svc       *Service
	plan      plan
	key       string
	state     State
	result    *Result
	pendingID string
}

func (r *run) transition(to State, txHash string, err error) {
	from := r.state
	r.state = to
	r.result.State = to
	r.svc.setState(r.key, to)
	r.svc.logger.Debug("deposit %s %s: %s -> %s", r.plan.token.Symbol, r.plan.amount, from, to)
	r.svc.emit(Transition{
		Account: r.plan.account,
		Pool:    r.plan.pool,
		Token:   r.plan.token.Symbol,
		From:    from,
		To:      to,
		TxHash:  txHash,
		Err:     err,
		At:      time.Now(),
	})
}

func (r *run) execute(ctx context.Context) (*Result, error) {
	r.transition(Validating, "", nil)

	// Last point where the caller may walk away without side effects.
	if err := ctx.Err(); err != nil {
		r.transition(Idle, "", err)
		return r.result, err
	}

	r.pendingID = r.svc.sink.Show(notify.Info, "Transaction initiated. Please confirm in your wallet.", "Transaction Pending")

	token := r.plan.token
	value := r.plan.amount.Value

	tokenAddr := common.HexToAddress(token.Address)
	poolAddr := common.HexToAddress(r.plan.pool)

	if token.WrapNative {
		r.transition(Wrapping, "", nil)
		call := provider.ContractCall{
			From: r.plan.account, To: token.Address,
			Contract: eth.WETH, Method: eth.MethodWrap, Value: value,
		}
		if _, err := r.step(ctx, StepWrap, call, poolerr.ErrWrapFailed, ""); err != nil {
			return r.fail(err)
		}
	}

	if token.RequiresApproval {
		r.transition(Approving, "", nil)
		call := provider.ContractCall{
			From: r.plan.account, To: token.Address,
			Contract: eth.ERC20, Method: eth.MethodApprove,
			Args: []any{poolAddr, new(big.Int).Set(value)},
		}
		if _, err := r.step(ctx, StepApprove, call, poolerr.ErrApprovalFailed, ""); err != nil {
			return r.fail(err)
		}
	}

	call := provider.ContractCall{
		From: r.plan.account, To: r.plan.pool,
		Contract: eth.Pool, Method: eth.MethodDepositSingle,
		Args: []any{tokenAddr, new(big.Int).Set(value)},
	}
	if token.DepositMethod != "" {
		call.Method = token.DepositMethod
		call.Args = []any{new(big.Int).Set(value)}
	}

	r.transition(Submitting, "", nil)
	hash, err := r.step(ctx, StepDeposit, call, poolerr.ErrDepositFailed, Confirming)
	if err != nil {
		return r.fail(err)
	}
	r.result.TxHash = hash

	return r.succeed()
}

// step submits call and waits for its receipt. When confirmState is set the
// machine moves there between submission and confirmation.
func (r *run) step(ctx context.Context, kind StepKind, call provider.ContractCall, sentinel *poolerr.PoolError, confirmState State) (string, error) {
	tx, err := r.svc.provider.SendContractCall(ctx, call)
	if err != nil {
		return "", stepError(sentinel, kind, "", err)
	}

	rec := StepRecord{Kind: kind, TxHash: tx.Hash(), SubmittedAt: time.Now()}
	r.result.Steps = append(r.result.Steps, rec)
	idx := len(r.result.Steps) - 1

	if confirmState != "" {
		r.result.TxHash = tx.Hash()
		r.transition(confirmState, tx.Hash(), nil)
	}

	waitCtx := ctx
	if r.svc.confirmTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, r.svc.confirmTimeout)
		defer cancel()
	}

	if _, err := tx.AwaitConfirmation(waitCtx); err != nil {
		return tx.Hash(), stepError(sentinel, kind, tx.Hash(), err)
	}
	r.result.Steps[idx].ConfirmedAt = time.Now()
	r.svc.logger.Debug("%s confirmed: %s", kind, tx.Hash())
	return tx.Hash(), nil
}

func (r *run) fail(err error) (*Result, error) {
	r.svc.sink.Remove(r.pendingID)
	r.transition(Failed, r.result.TxHash, err)

	heading := "Deposit Error"
	switch {
	case errors.Is(err, poolerr.ErrWrapFailed):
		heading = "Wrap Failed"
	case errors.Is(err, poolerr.ErrApprovalFailed):
		heading = "Approval Failed"
	}
	r.svc.sink.Show(notify.Error, failureMessage(err), heading)
	r.svc.logger.Error("deposit %s %s failed: %v", r.plan.amount, r.plan.token.Symbol, err)
	r.svc.record(r.plan.token.Symbol, Failed, err)
	return r.result, err
}

func (r *run) succeed() (*Result, error) {
	r.svc.sink.Remove(r.pendingID)
	r.transition(Succeeded, r.result.TxHash, nil)
	r.svc.sink.Show(notify.Success,
		fmt.Sprintf("Deposited %s %s", r.plan.amount, r.plan.token.Symbol),
		"Deposit Successful")
	r.svc.record(r.plan.token.Symbol, Succeeded, nil)
	return r.result, nil
}

// stepError wraps err in the step's sentinel, keeping the revert reason and hash.
func stepError(sentinel *poolerr.PoolError, kind StepKind, txHash string, err error) error {
	details := map[string]string{"step": string(kind)}
	if txHash != "" {
		details["tx_hash"] = txHash
	}
	if reason := poolerr.Detail(err, "reason"); reason != "" {
		details["reason"] = reason
	}
	return poolerr.WithDetails(poolerr.WithCause(sentinel, err), details)
}

func failureMessage(err error) string {
	if reason := poolerr.Detail(err, "reason"); reason != "" {
		return reason
	}
	switch {
	case errors.Is(err, poolerr.ErrUserRejected):
		return "Transaction rejected in wallet."
	case errors.Is(err, poolerr.ErrTransactionTimeout):
		return "Timed out waiting for confirmation. The transaction may still be mined."
	case errors.Is(err, context.Canceled):
		return "Stopped waiting for confirmation. The transaction may still be mined."
	}
	return "Transaction failed. Please try again."
}

func guardKey(account, pool string) string {
	return strings.ToLower(account) + "|" + strings.ToLower(pool)
}

func shortAddress(a string) string {
	if len(a) < 10 {
		return a
	}
	return a[:6] + "..." + a[len(a)-4:]
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Error(string, ...any) {}
