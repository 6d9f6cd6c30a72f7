// Package provider wraps a wallet provider behind a neutral interface so the
// rest of CosmosPool never speaks JSON-RPC directly.
package provider

import (
	"context"
	"math/big"
	"time"

	"github.com/cosmospool/cosmospool/internal/chain/eth"
)

// Provider is the wallet surface used by the session store and the deposit service.
type Provider interface {
	// RequestAccounts asks the wallet to authorize accounts. It may prompt.
	RequestAccounts(ctx context.Context) ([]string, error)

	// Accounts returns the accounts already authorized. It never prompts.
	Accounts(ctx context.Context) ([]string, error)

	ChainID(ctx context.Context) (*big.Int, error)
	GetBalance(ctx context.Context, address string) (*big.Int, error)
	TokenBalance(ctx context.Context, token, owner string) (*big.Int, error)

	// OnAccountsChanged registers cb for wallet-side account switches.
	// The returned function removes exactly that registration and is idempotent.
	OnAccountsChanged(cb func(accounts []string)) (dispose func())

	SendContractCall(ctx context.Context, call ContractCall) (TxHandle, error)

	Close()
}

// ContractCall describes a state-changing contract invocation.
type ContractCall struct {
	From     string
	To       string
	Contract eth.Contract
	Method   string
	Args     []any
	Value    *big.Int // optional native value
}

// TxHandle tracks a submitted transaction.
type TxHandle interface {
	Hash() string

	// AwaitConfirmation blocks until the receipt is available.
	// A reverted transaction returns its receipt together with ErrTransactionReverted.
	AwaitConfirmation(ctx context.Context) (*Receipt, error)
}

// Receipt is the outcome of a mined transaction.
type Receipt struct {
	TxHash      string
	BlockNumber *big.Int
	Status      uint64
	GasUsed     uint64
	MinedAt     time.Time
}

// LogWriter is the logging surface the provider needs.
type LogWriter interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Error(string, ...any) {}
