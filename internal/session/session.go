// Package session keeps the wallet connection state for CosmosPool.
// A Store is the single source of truth for whether a wallet is connected,
// which account is active, and its last known balance.
package session

import (
	"math/big"

	"github.com/cosmospool/cosmospool/internal/chain"
)

// Session is a point-in-time copy of the connection state.
// Address is non-empty if and only if IsConnected is true.
type Session struct {
	IsConnected   bool
	Address       string
	ChainID       *big.Int      // nil when unknown
	CachedBalance *chain.Amount // nil when unknown
}

// clone returns a deep copy so callers never share big.Int values with the store.
func (s Session) clone() Session {
	out := Session{IsConnected: s.IsConnected, Address: s.Address}
	if s.ChainID != nil {
		out.ChainID = new(big.Int).Set(s.ChainID)
	}
	if s.CachedBalance != nil {
		b := chain.NewAmount(s.CachedBalance.Value, s.CachedBalance.Decimals)
		out.CachedBalance = &b
	}
	return out
}

// Session events reported to the EventRecorder.
const (
	EventConnected      = "connected"
	EventReattached     = "reattached"
	EventAccountChanged = "account_changed"
	EventDisconnected   = "disconnected"
)

// LogWriter is the logging surface the store needs.
type LogWriter interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

// EventRecorder receives session transitions, typically for metrics.
type EventRecorder interface {
	RecordSessionEvent(event string)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Error(string, ...any) {}

type nopRecorder struct{}

func (nopRecorder) RecordSessionEvent(string) {}
