package cli

import (
	"bytes"
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosmospool/cosmospool/internal/chain"
	"github.com/cosmospool/cosmospool/internal/chain/eth"
	"github.com/cosmospool/cosmospool/internal/config"
	"github.com/cosmospool/cosmospool/internal/metrics"
	"github.com/cosmospool/cosmospool/internal/output"
	"github.com/cosmospool/cosmospool/internal/service/deposit"
	"github.com/cosmospool/cosmospool/internal/session"
)

func TestDepositTokens(t *testing.T) {
	t.Parallel()

	t.Run("single mode ignores deposit methods", func(t *testing.T) {
		t.Parallel()
		c := config.Defaults()
		c.Tokens.Stable.DepositMethod = eth.MethodDepositUSDC

		tokens := depositTokens(c)
		require.Len(t, tokens, 2)
		assert.Equal(t, deposit.Volatile, tokens[0].Kind)
		assert.Equal(t, "WETH", tokens[0].Symbol)
		assert.True(t, tokens[0].WrapNative)
		assert.Equal(t, deposit.Stable, tokens[1].Kind)
		assert.Equal(t, 6, tokens[1].Decimals)
		assert.Empty(t, tokens[1].DepositMethod)
	})

	t.Run("managed mode keeps deposit methods", func(t *testing.T) {
		t.Parallel()
		c := config.Defaults()
		c.Pool.Mode = config.PoolModeManaged
		c.Tokens.Volatile.DepositMethod = eth.MethodDepositWETH
		c.Tokens.Stable.DepositMethod = eth.MethodDepositUSDC

		tokens := depositTokens(c)
		assert.Equal(t, eth.MethodDepositWETH, tokens[0].DepositMethod)
		assert.Equal(t, eth.MethodDepositUSDC, tokens[1].DepositMethod)
	})
}

func TestNewCommandContext(t *testing.T) {
	env := setupCLI(t)

	c := config.Defaults()
	c.Home = t.TempDir()
	c.Metrics.Enabled = false

	cc := NewCommandContext(c, config.NullLogger(), output.NewFormatter(output.FormatText, new(bytes.Buffer)), new(bytes.Buffer))
	t.Cleanup(cc.Close)

	assert.Nil(t, cc.Metrics)
	assert.Same(t, env.fake, cc.Provider)
	assert.False(t, cc.Store.Snapshot().IsConnected)
	assert.Len(t, cc.Deposits.Tokens(), 2)

	c.Metrics.Enabled = true
	withMetrics := NewCommandContext(c, config.NullLogger(), output.NewFormatter(output.FormatText, new(bytes.Buffer)), new(bytes.Buffer))
	t.Cleanup(withMetrics.Close)
	assert.Same(t, metrics.Default, withMetrics.Metrics)
}

func TestNewRPCProvider(t *testing.T) {
	t.Parallel()
	c := config.Defaults()
	p := newRPCProvider(c, config.NullLogger(), metrics.New())
	require.NotNil(t, p)
	p.Close()
}

func TestContextWithTimeout(t *testing.T) {
	t.Parallel()

	t.Run("positive duration sets deadline", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := contextWithTimeout(&cobra.Command{}, context.Background(), time.Minute)
		defer cancel()
		deadline, ok := ctx.Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
	})

	t.Run("zero only cancels", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := contextWithTimeout(&cobra.Command{}, context.Background(), 0)
		_, ok := ctx.Deadline()
		assert.False(t, ok)
		cancel()
		assert.Error(t, ctx.Err())
	})

	t.Run("nil parent falls back to command context", func(t *testing.T) {
		t.Parallel()
		type key struct{}
		cmd := &cobra.Command{}
		cmd.SetContext(context.WithValue(context.Background(), key{}, "v"))

		ctx, cancel := contextWithTimeout(cmd, nil, time.Second) //nolint:staticcheck // exercising nil parent
		defer cancel()
		assert.Equal(t, "v", ctx.Value(key{}))
	})

	t.Run("no contexts at all", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := contextWithTimeout(&cobra.Command{}, nil, time.Second) //nolint:staticcheck // exercising nil parent
		defer cancel()
		assert.NoError(t, ctx.Err())
	})
}

func TestPrintSession(t *testing.T) {
	balance := chain.NewAmount(big.NewInt(1500000000000000000), session.NativeDecimals)
	connected := session.Session{
		IsConnected:   true,
		Address:       testAccount,
		ChainID:       big.NewInt(1),
		CachedBalance: &balance,
	}

	t.Run("text", func(t *testing.T) {
		useGlobals(t, config.Defaults(), output.FormatText, new(bytes.Buffer))
		var buf bytes.Buffer
		require.NoError(t, printSession(&buf, connected))
		assert.Contains(t, buf.String(), "Address:")
		assert.Contains(t, buf.String(), testAccount)
		assert.Contains(t, buf.String(), "1.5 ETH")

		buf.Reset()
		require.NoError(t, printSession(&buf, session.Session{}))
		assert.Equal(t, "Not connected\n", buf.String())
	})

	t.Run("json", func(t *testing.T) {
		useGlobals(t, config.Defaults(), output.FormatJSON, new(bytes.Buffer))
		var buf bytes.Buffer
		require.NoError(t, printSession(&buf, connected))
		assert.JSONEq(t, `{"connected":true,"address":"`+testAccount+`","chain_id":"1","balance":"1.5 ETH"}`, buf.String())

		buf.Reset()
		require.NoError(t, printSession(&buf, session.Session{}))
		assert.JSONEq(t, `{"connected":false}`, buf.String())
	})
}
