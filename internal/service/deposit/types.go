package deposit

import (
	"strings"
	"time"

	"github.com/cosmospool/cosmospool/internal/chain"
	poolerr "github.com/cosmospool/cosmospool/pkg/errors"
)

// State is a position in the deposit state machine.
type State string

// Deposit states. Wrapping and Approving are skipped when the token does not need them.
const (
	Idle       State = "idle"
	Validating State = "validating"
	Wrapping   State = "wrapping"
	Approving  State = "approving"
	Submitting State = "submitting"
	Confirming State = "confirming"
	Succeeded  State = "succeeded"
	Failed     State = "failed"
)

// Terminal reports whether s ends a sequence.
func (s State) Terminal() bool {
	return s == Succeeded || s == Failed
}

// TokenKind selects which side of the pool a deposit funds.
type TokenKind string

// Token kinds.
const (
	Volatile TokenKind = "volatile" // wrapped native currency
	Stable   TokenKind = "stable"   // USDC-like stable token
)

// Token describes a depositable token.
type Token struct {
	Kind             TokenKind
	Symbol           string
	Address          string
	Decimals         int
	RequiresApproval bool
	WrapNative       bool
	DepositMethod    string // pool method taking only the amount; empty uses depositSingle
}

// Request is a single deposit request.
type Request struct {
	Token  string // token kind or symbol
	Amount string // decimal amount in whole tokens
	Pool   string // optional; defaults to the configured pool
}

// StepKind names an on-chain step.
type StepKind string

// Step kinds.
const (
	StepWrap    StepKind = "wrap"
	StepApprove StepKind = "approve"
	StepDeposit StepKind = "deposit"
)

// StepRecord captures one submitted transaction.
type StepRecord struct {
	Kind        StepKind
	TxHash      string
	SubmittedAt time.Time
	ConfirmedAt time.Time
}

// Result is the outcome of a deposit sequence.
type Result struct {
	State   State
	TxHash  string // deposit transaction hash once submitted
	Account string
	Pool    string
	Token   Token
	Amount  chain.Amount
	Steps   []StepRecord
}

// Step returns the record for kind, if that step ran.
func (r *Result) Step(kind StepKind) (StepRecord, bool) {
	for _, s := range r.Steps {
		if s.Kind == kind {
			return s, true
		}
	}
	return StepRecord{}, false
}

// Transition is delivered to hooks on every state change.
type Transition struct {
	Account string
	Pool    string
	Token   string
	From    State
	To      State
	TxHash  string
	Err     error
	At      time.Time
}

// Balance is a balance line for the connected account.
type Balance struct {
	Symbol string
	Token  string // empty for the native currency
	Amount chain.Amount
}

// FindToken looks a token up by kind or symbol, case-insensitively.
func FindToken(tokens []Token, name string) (Token, error) {
	name = strings.TrimSpace(name)
	for _, t := range tokens {
		if strings.EqualFold(string(t.Kind), name) || strings.EqualFold(t.Symbol, name) {
			return t, nil
		}
	}
	return Token{}, poolerr.WithDetails(poolerr.ErrInvalidInput, map[string]string{
		"token":  name,
		"reason": "unknown token",
	})
}
