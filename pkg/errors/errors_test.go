package errors_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	poolerr "github.com/cosmospool/cosmospool/pkg/errors"
)

var (
	errInner     = errors.New("inner")
	errRootCause = errors.New("root cause")
	errPlain     = errors.New("plain error")
	errPlainCode = errors.New("plain")
)

func TestExitCodes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"success", nil, poolerr.ExitSuccess},
		{"general error", poolerr.ErrGeneral, poolerr.ExitGeneral},
		{"input error", poolerr.ErrInvalidInput, poolerr.ExitInput},
		{"invalid amount", poolerr.ErrInvalidAmount, poolerr.ExitInput},
		{"not connected", poolerr.ErrNotConnected, poolerr.ExitInput},
		{"user rejected", poolerr.ErrUserRejected, poolerr.ExitRejected},
		{"not found error", poolerr.ErrNotFound, poolerr.ExitNotFound},
		{"provider unavailable", poolerr.ErrProviderUnavailable, poolerr.ExitUnavailable},
		{"approval failed", poolerr.ErrApprovalFailed, poolerr.ExitChain},
		{"deposit failed", poolerr.ErrDepositFailed, poolerr.ExitChain},
		{"sequence in progress", poolerr.ErrSequenceInProgress, poolerr.ExitBusy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			code := poolerr.ExitCode(tt.err)
			assert.Equal(t, tt.expected, code)
		})
	}
}

func TestExitCodeWrappedError(t *testing.T) {
	t.Parallel()
	wrapped := poolerr.Wrap(poolerr.ErrUserRejected, "connect")
	code := poolerr.ExitCode(wrapped)
	assert.Equal(t, poolerr.ExitRejected, code)
}

func TestSentinelErrors(t *testing.T) {
	t.Parallel()
	// Verify that wrapping preserves error identity
	for _, sentinel := range []*poolerr.PoolError{
		poolerr.ErrGeneral,
		poolerr.ErrProviderUnavailable,
		poolerr.ErrUserRejected,
		poolerr.ErrRPC,
		poolerr.ErrInvalidAmount,
		poolerr.ErrNotConnected,
		poolerr.ErrApprovalFailed,
		poolerr.ErrDepositFailed,
		poolerr.ErrSequenceInProgress,
	} {
		wrapped := poolerr.Wrap(sentinel, "wrapped")
		require.ErrorIs(t, wrapped, sentinel)
	}
}

func TestErrorCode(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err      error
		expected string
	}{
		{poolerr.ErrGeneral, "GENERAL_ERROR"},
		{poolerr.ErrInvalidInput, "INVALID_INPUT"},
		{poolerr.ErrProviderUnavailable, "PROVIDER_UNAVAILABLE"},
		{poolerr.ErrUserRejected, "USER_REJECTED"},
		{poolerr.ErrRPC, "RPC_ERROR"},
		{poolerr.ErrSequenceInProgress, "SEQUENCE_IN_PROGRESS"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			t.Parallel()
			var pe *poolerr.PoolError
			require.ErrorAs(t, tt.err, &pe)
			assert.Equal(t, tt.expected, pe.Code)
		})
	}
}

func TestWithCause(t *testing.T) {
	t.Parallel()
	err := poolerr.WithCause(poolerr.ErrDepositFailed, errRootCause)

	require.ErrorIs(t, err, poolerr.ErrDepositFailed)
	require.ErrorIs(t, err, errRootCause)
	assert.Equal(t, "deposit failed: root cause", err.Error())
	assert.Equal(t, poolerr.ExitChain, poolerr.ExitCode(err))
	assert.False(t, poolerr.Is(err, poolerr.ErrApprovalFailed))
}

func TestDetail(t *testing.T) {
	t.Parallel()
	err := poolerr.WithDetails(poolerr.ErrDepositFailed, map[string]string{"reason": "pool paused"})
	assert.Equal(t, "pool paused", poolerr.Detail(err, "reason"))
	assert.Empty(t, poolerr.Detail(err, "missing"))
	assert.Empty(t, poolerr.Detail(errPlain, "reason"))
}

func TestWithDetails(t *testing.T) {
	t.Parallel()
	details := map[string]string{
		"required":  "0.5",
		"available": "0.1",
		"symbol":    "USDC",
	}

	err := poolerr.WithDetails(poolerr.ErrInvalidAmount, details)

	var pe *poolerr.PoolError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, details, pe.Details)
}

func TestWithSuggestion(t *testing.T) {
	t.Parallel()
	suggestion := "Check balance with 'cosmospool balance'"
	err := poolerr.WithSuggestion(poolerr.ErrInvalidAmount, suggestion)

	var pe *poolerr.PoolError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, suggestion, pe.Suggestion)
}

func TestWithDetailsAndSuggestion(t *testing.T) {
	t.Parallel()
	details := map[string]string{"key": "value"}
	suggestion := "Try this instead"

	err := poolerr.WithDetails(poolerr.ErrGeneral, details)
	err = poolerr.WithSuggestion(err, suggestion)

	var pe *poolerr.PoolError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, details, pe.Details)
	assert.Equal(t, suggestion, pe.Suggestion)
}

func TestWrap(t *testing.T) {
	t.Parallel()
	wrapped := poolerr.Wrap(poolerr.ErrNotFound, "pool %s", "main")
	assert.Contains(t, wrapped.Error(), "pool main")
	assert.ErrorIs(t, wrapped, poolerr.ErrNotFound)
}

func TestNew(t *testing.T) {
	t.Parallel()
	err := poolerr.New("CUSTOM_ERROR", "custom error message")
	assert.Equal(t, "custom error message", err.Error())

	var pe *poolerr.PoolError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "CUSTOM_ERROR", pe.Code)
}

func TestPoolError_Error(t *testing.T) {
	t.Parallel()

	t.Run("message only", func(t *testing.T) {
		t.Parallel()
		err := &poolerr.PoolError{Code: "TEST", Message: "something failed"}
		assert.Equal(t, "something failed", err.Error())
	})

	t.Run("with details sorted", func(t *testing.T) {
		t.Parallel()
		err := &poolerr.PoolError{
			Code:    "TEST",
			Message: "failed",
			Details: map[string]string{"beta": "2", "alpha": "1"},
		}
		assert.Equal(t, "failed (alpha: 1) (beta: 2)", err.Error())
	})

	t.Run("with cause", func(t *testing.T) {
		t.Parallel()
		err := &poolerr.PoolError{
			Code:    "TEST",
			Message: "outer",
			Cause:   errInner,
		}
		assert.Equal(t, "outer: inner", err.Error())
	})

	t.Run("with details and cause", func(t *testing.T) {
		t.Parallel()
		err := &poolerr.PoolError{
			Code:    "TEST",
			Message: "outer",
			Details: map[string]string{"key": "val"},
			Cause:   errInner,
		}
		assert.Equal(t, "outer (key: val): inner", err.Error())
	})
}

func TestPoolError_Error_deterministic(t *testing.T) {
	t.Parallel()
	err := &poolerr.PoolError{
		Code:    "TEST",
		Message: "msg",
		Details: map[string]string{
			"charlie": "3",
			"alpha":   "1",
			"bravo":   "2",
			"delta":   "4",
		},
	}
	first := err.Error()
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, err.Error(), "Error() output must be deterministic (iteration %d)", i)
	}
}

func TestPoolError_Unwrap(t *testing.T) {
	t.Parallel()

	t.Run("with cause", func(t *testing.T) {
		t.Parallel()
		err := &poolerr.PoolError{Code: "TEST", Message: "wrapper", Cause: errRootCause}
		assert.Equal(t, errRootCause, err.Unwrap())
	})

	t.Run("nil cause", func(t *testing.T) {
		t.Parallel()
		err := &poolerr.PoolError{Code: "TEST", Message: "no cause"}
		assert.NoError(t, err.Unwrap())
	})
}

func TestPoolError_Is(t *testing.T) {
	t.Parallel()

	t.Run("matching code", func(t *testing.T) {
		t.Parallel()
		a := &poolerr.PoolError{Code: "SAME_CODE", Message: "a"}
		b := &poolerr.PoolError{Code: "SAME_CODE", Message: "b"}
		assert.True(t, a.Is(b))
	})

	t.Run("different code", func(t *testing.T) {
		t.Parallel()
		a := &poolerr.PoolError{Code: "CODE_A", Message: "a"}
		b := &poolerr.PoolError{Code: "CODE_B", Message: "b"}
		assert.False(t, a.Is(b))
	})

	t.Run("non-PoolError target", func(t *testing.T) {
		t.Parallel()
		a := &poolerr.PoolError{Code: "TEST", Message: "a"}
		assert.False(t, a.Is(errPlain))
	})
}

func TestAs(t *testing.T) {
	t.Parallel()

	t.Run("PoolError target", func(t *testing.T) {
		t.Parallel()
		err := poolerr.Wrap(poolerr.ErrNotFound, "wrapped")
		var pe *poolerr.PoolError
		assert.True(t, poolerr.As(err, &pe))
		assert.Equal(t, "NOT_FOUND", pe.Code)
	})

	t.Run("non-PoolError", func(t *testing.T) {
		t.Parallel()
		var pe *poolerr.PoolError
		assert.False(t, poolerr.As(errPlain, &pe))
	})
}

func TestIs(t *testing.T) {
	t.Parallel()

	t.Run("matching sentinel", func(t *testing.T) {
		t.Parallel()
		wrapped := poolerr.Wrap(poolerr.ErrNotFound, "context")
		assert.True(t, poolerr.Is(wrapped, poolerr.ErrNotFound))
	})

	t.Run("non-matching", func(t *testing.T) {
		t.Parallel()
		wrapped := poolerr.Wrap(poolerr.ErrNotFound, "context")
		assert.False(t, poolerr.Is(wrapped, poolerr.ErrRPC))
	})

	t.Run("nil error", func(t *testing.T) {
		t.Parallel()
		assert.False(t, poolerr.Is(nil, poolerr.ErrGeneral))
	})
}

func TestCode_edgeCases(t *testing.T) {
	t.Parallel()

	t.Run("PoolError", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "NOT_FOUND", poolerr.Code(poolerr.ErrNotFound))
	})

	t.Run("non-PoolError", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "GENERAL_ERROR", poolerr.Code(errPlainCode))
	})

	t.Run("nil", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "GENERAL_ERROR", poolerr.Code(nil))
	})
}

func TestWrap_edgeCases(t *testing.T) {
	t.Parallel()

	t.Run("nil input", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, poolerr.Wrap(nil, "context"))
	})

	t.Run("non-PoolError", func(t *testing.T) {
		t.Parallel()
		wrapped := poolerr.Wrap(errPlain, "context")
		var pe *poolerr.PoolError
		require.ErrorAs(t, wrapped, &pe)
		assert.Equal(t, "GENERAL_ERROR", pe.Code)
		assert.Equal(t, "context", pe.Message)
		assert.Equal(t, errPlain, pe.Cause)
	})

	t.Run("format args", func(t *testing.T) {
		t.Parallel()
		wrapped := poolerr.Wrap(poolerr.ErrNotFound, "pool %s step %d", "main", 0)
		assert.Contains(t, wrapped.Error(), "pool main step 0")
	})

	t.Run("field preservation", func(t *testing.T) {
		t.Parallel()
		original := poolerr.WithDetails(poolerr.ErrNotFound, map[string]string{"key": "val"})
		original = poolerr.WithSuggestion(original, "try this")
		wrapped := poolerr.Wrap(original, "context")

		var pe *poolerr.PoolError
		require.ErrorAs(t, wrapped, &pe)
		assert.Equal(t, "NOT_FOUND", pe.Code)
		assert.Equal(t, map[string]string{"key": "val"}, pe.Details)
		assert.Equal(t, "try this", pe.Suggestion)
		assert.Equal(t, poolerr.ExitNotFound, pe.ExitCode)
	})
}

func TestWithDetails_edgeCases(t *testing.T) {
	t.Parallel()

	t.Run("nil input", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, poolerr.WithDetails(nil, map[string]string{"k": "v"}))
	})

	t.Run("non-PoolError input", func(t *testing.T) {
		t.Parallel()
		result := poolerr.WithDetails(errPlain, map[string]string{"k": "v"})
		var pe *poolerr.PoolError
		require.ErrorAs(t, result, &pe)
		assert.Equal(t, "GENERAL_ERROR", pe.Code)
		assert.Equal(t, "plain error", pe.Message)
		assert.Equal(t, map[string]string{"k": "v"}, pe.Details)
		assert.Equal(t, errPlain, pe.Cause)
	})
}

func TestWithSuggestion_edgeCases(t *testing.T) {
	t.Parallel()

	t.Run("nil input", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, poolerr.WithSuggestion(nil, "suggestion"))
	})

	t.Run("non-PoolError input", func(t *testing.T) {
		t.Parallel()
		result := poolerr.WithSuggestion(errPlain, "try this")
		var pe *poolerr.PoolError
		require.ErrorAs(t, result, &pe)
		assert.Equal(t, "GENERAL_ERROR", pe.Code)
		assert.Equal(t, "plain error", pe.Message)
		assert.Equal(t, "try this", pe.Suggestion)
		assert.Equal(t, errPlain, pe.Cause)
	})
}

func TestExitCode_nonPoolError(t *testing.T) {
	t.Parallel()
	assert.Equal(t, poolerr.ExitGeneral, poolerr.ExitCode(errPlain))
}
