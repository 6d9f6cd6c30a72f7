package provider

import (
	"context"
	"errors"

	"github.com/cosmospool/cosmospool/internal/chain/eth/rpc"
	poolerr "github.com/cosmospool/cosmospool/pkg/errors"
)

// mapWalletError maps failures of wallet methods (eth_requestAccounts,
// eth_sendTransaction). An unreachable endpoint means there is no wallet.
func mapWalletError(err error) error {
	if err != nil && errors.Is(err, rpc.ErrTransport) && !isContextError(err) {
		return poolerr.WithCause(poolerr.ErrProviderUnavailable, err)
	}
	return mapError(err)
}

// mapError translates transport and JSON-RPC failures of reads into the error
// taxonomy. Context errors pass through untouched.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if isContextError(err) {
		return err
	}

	var pe *poolerr.PoolError
	if errors.As(err, &pe) && isTaxonomy(pe) {
		return err
	}

	if code, ok := rpc.ErrorCode(err); ok {
		switch code {
		case rpc.CodeUserRejected:
			return poolerr.WithCause(poolerr.ErrUserRejected, err)
		case rpc.CodeUnsupported:
			return poolerr.WithCause(poolerr.ErrProviderUnavailable, err)
		}
		if rpc.IsMethodNotFound(err) {
			return poolerr.WithCause(poolerr.ErrProviderUnavailable, err)
		}
		return poolerr.WithCause(poolerr.ErrRPC, err)
	}

	return poolerr.WithCause(poolerr.ErrRPC, err)
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func isTaxonomy(pe *poolerr.PoolError) bool {
	for _, sentinel := range []*poolerr.PoolError{
		poolerr.ErrProviderUnavailable,
		poolerr.ErrUserRejected,
		poolerr.ErrRPC,
		poolerr.ErrInvalidAddress,
		poolerr.ErrInvalidChecksum,
		poolerr.ErrInvalidInput,
		poolerr.ErrTransactionReverted,
		poolerr.ErrTransactionTimeout,
	} {
		if pe.Code == sentinel.Code {
			return true
		}
	}
	return false
}
