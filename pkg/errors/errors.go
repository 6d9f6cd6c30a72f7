// Package errors provides structured error handling for CosmosPool.
// It defines sentinel errors, exit codes, and helpers for adding
// context, details, and suggestions to errors.
//
//nolint:revive // Package name intentionally shadows stdlib for domain-specific error handling
package errors

import (
	"errors"
	"fmt"
	"sort"
)

// Exit codes returned by the CLI.
const (
	ExitSuccess     = 0 // Successful execution
	ExitGeneral     = 1 // General/unknown error
	ExitInput       = 2 // Invalid input
	ExitRejected    = 3 // User declined a wallet prompt
	ExitNotFound    = 4 // Resource not found
	ExitUnavailable = 5 // No wallet provider reachable
	ExitChain       = 6 // On-chain failure
	ExitBusy        = 7 // Another sequence is in flight
)

// PoolError is the structured error type for CosmosPool.
type PoolError struct {
	Code       string            // Machine-readable error code
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for user
	Cause      error             // Underlying error
	ExitCode   int               // Exit code for CLI
}

func (e *PoolError) Error() string {
	msg := e.Message

	// Include details in error message (sorted for deterministic output)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *PoolError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for PoolError. Two PoolErrors match when their codes match.
func (e *PoolError) Is(target error) bool {
	var t *PoolError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors.
var (
	ErrGeneral = &PoolError{
		Code:     "GENERAL_ERROR",
		Message:  "an error occurred",
		ExitCode: ExitGeneral,
	}

	ErrInvalidInput = &PoolError{
		Code:     "INVALID_INPUT",
		Message:  "invalid input",
		ExitCode: ExitInput,
	}

	ErrNotFound = &PoolError{
		Code:     "NOT_FOUND",
		Message:  "resource not found",
		ExitCode: ExitNotFound,
	}

	// Wallet provider errors.
	ErrProviderUnavailable = &PoolError{
		Code:       "PROVIDER_UNAVAILABLE",
		Message:    "no wallet provider available",
		Suggestion: "Start a wallet provider and set provider.rpc in config.yaml or COSMOSPOOL_RPC",
		ExitCode:   ExitUnavailable,
	}

	ErrUserRejected = &PoolError{
		Code:     "USER_REJECTED",
		Message:  "request rejected in wallet",
		ExitCode: ExitRejected,
	}

	ErrRPC = &PoolError{
		Code:     "RPC_ERROR",
		Message:  "wallet provider request failed",
		ExitCode: ExitGeneral,
	}

	// Local validation errors.
	ErrInvalidAmount = &PoolError{
		Code:     "INVALID_AMOUNT",
		Message:  "invalid amount",
		ExitCode: ExitInput,
	}

	ErrInvalidAddress = &PoolError{
		Code:     "INVALID_ADDRESS",
		Message:  "invalid address format",
		ExitCode: ExitInput,
	}

	ErrInvalidChecksum = &PoolError{
		Code:     "INVALID_CHECKSUM",
		Message:  "invalid address checksum",
		ExitCode: ExitInput,
	}

	ErrNotConnected = &PoolError{
		Code:       "NOT_CONNECTED",
		Message:    "wallet is not connected",
		Suggestion: "Run 'cosmospool connect' first",
		ExitCode:   ExitInput,
	}

	// On-chain errors.
	ErrWrapFailed = &PoolError{
		Code:     "WRAP_FAILED",
		Message:  "wrapping native currency failed",
		ExitCode: ExitChain,
	}

	ErrApprovalFailed = &PoolError{
		Code:     "APPROVAL_FAILED",
		Message:  "token approval failed",
		ExitCode: ExitChain,
	}

	ErrDepositFailed = &PoolError{
		Code:     "DEPOSIT_FAILED",
		Message:  "deposit failed",
		ExitCode: ExitChain,
	}

	ErrTransactionReverted = &PoolError{
		Code:     "TX_REVERTED",
		Message:  "transaction reverted",
		ExitCode: ExitChain,
	}

	ErrTransactionTimeout = &PoolError{
		Code:     "TX_TIMEOUT",
		Message:  "timed out waiting for transaction receipt",
		ExitCode: ExitChain,
	}

	// Concurrency guard.
	ErrSequenceInProgress = &PoolError{
		Code:       "SEQUENCE_IN_PROGRESS",
		Message:    "a deposit is already in progress for this account and pool",
		Suggestion: "Wait for the pending deposit to finish",
		ExitCode:   ExitBusy,
	}

	// Config-specific errors.
	ErrConfigNotFound = &PoolError{
		Code:     "CONFIG_NOT_FOUND",
		Message:  "configuration file not found",
		ExitCode: ExitNotFound,
	}

	ErrConfigInvalid = &PoolError{
		Code:     "CONFIG_INVALID",
		Message:  "configuration file is invalid",
		ExitCode: ExitInput,
	}
)

// New creates a new PoolError with the given code and message.
func New(code, message string) *PoolError {
	return &PoolError{
		Code:     code,
		Message:  message,
		ExitCode: ExitGeneral,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	var pe *PoolError
	if errors.As(err, &pe) {
		return &PoolError{
			Code:       pe.Code,
			Message:    fmt.Sprintf("%s: %s", msg, pe.Message),
			Details:    pe.Details,
			Suggestion: pe.Suggestion,
			Cause:      err,
			ExitCode:   pe.ExitCode,
		}
	}

	return &PoolError{
		Code:     "GENERAL_ERROR",
		Message:  msg,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithCause returns a copy of the sentinel carrying cause as its underlying error.
// The result matches the sentinel and, through Unwrap, the cause.
func WithCause(sentinel *PoolError, cause error) error {
	return &PoolError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		Details:    sentinel.Details,
		Suggestion: sentinel.Suggestion,
		Cause:      cause,
		ExitCode:   sentinel.ExitCode,
	}
}

// WithDetails adds details to an error.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}

	var pe *PoolError
	if errors.As(err, &pe) {
		return &PoolError{
			Code:       pe.Code,
			Message:    pe.Message,
			Details:    details,
			Suggestion: pe.Suggestion,
			Cause:      pe.Cause,
			ExitCode:   pe.ExitCode,
		}
	}

	return &PoolError{
		Code:     "GENERAL_ERROR",
		Message:  err.Error(),
		Details:  details,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithSuggestion adds a suggestion to an error.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}

	var pe *PoolError
	if errors.As(err, &pe) {
		return &PoolError{
			Code:       pe.Code,
			Message:    pe.Message,
			Details:    pe.Details,
			Suggestion: suggestion,
			Cause:      pe.Cause,
			ExitCode:   pe.ExitCode,
		}
	}

	return &PoolError{
		Code:       "GENERAL_ERROR",
		Message:    err.Error(),
		Suggestion: suggestion,
		Cause:      err,
		ExitCode:   ExitGeneral,
	}
}

// Detail returns the named detail of the outermost PoolError in err's chain.
func Detail(err error, key string) string {
	var pe *PoolError
	if errors.As(err, &pe) {
		return pe.Details[key]
	}
	return ""
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var pe *PoolError
	if errors.As(err, &pe) {
		return pe.ExitCode
	}

	return ExitGeneral
}

// Code returns the error code for an error.
func Code(err error) string {
	var pe *PoolError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return "GENERAL_ERROR"
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}
