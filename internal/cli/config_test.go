package cli

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosmospool/cosmospool/internal/config"
	poolerr "github.com/cosmospool/cosmospool/pkg/errors"
)

func TestGetConfigValue(t *testing.T) {
	t.Parallel()
	c := config.Defaults()
	c.Pool.Address = testPool

	tests := []struct {
		path string
		want string
	}{
		{"provider.rpc", config.DefaultRPCURL},
		{"provider.poll_interval", "2s"},
		{"provider.rate_burst", "5"},
		{"pool.address", testPool},
		{"pool.mode", "single"},
		{"tokens.stable.symbol", "USDC"},
		{"tokens.stable.decimals", "6"},
		{"tokens.volatile.wrap_native", "true"},
		{"metrics.enabled", "true"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			got, err := getConfigValue(c, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetConfigValue_Section(t *testing.T) {
	t.Parallel()
	got, err := getConfigValue(config.Defaults(), "pool")
	require.NoError(t, err)
	assert.Contains(t, got, "mode: single")
	assert.NotContains(t, got, "\n\n")
}

func TestGetConfigValue_UnknownKey(t *testing.T) {
	t.Parallel()
	for _, path := range []string{"nope", "provider.nope", "provider.rpc.deeper", ""} {
		_, err := getConfigValue(config.Defaults(), path)
		require.ErrorIs(t, err, poolerr.ErrNotFound, path)
		assert.Equal(t, path, poolerr.Detail(err, "path"))
	}
}

func TestSetConfigValue(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		path  string
		value string
		check func(t *testing.T, c *config.Config)
	}{
		{"string", "pool.address", testPool, func(t *testing.T, c *config.Config) {
			assert.Equal(t, testPool, c.Pool.Address)
		}},
		{"numeric looking string stays string", "tokens.stable.symbol", "123", func(t *testing.T, c *config.Config) {
			assert.Equal(t, "123", c.Tokens.Stable.Symbol)
		}},
		{"int", "tokens.stable.decimals", "8", func(t *testing.T, c *config.Config) {
			assert.Equal(t, 8, c.Tokens.Stable.Decimals)
		}},
		{"bool", "metrics.enabled", "false", func(t *testing.T, c *config.Config) {
			assert.False(t, c.Metrics.Enabled)
		}},
		{"listen address", "metrics.listen", "127.0.0.1:9464", func(t *testing.T, c *config.Config) {
			assert.Equal(t, "127.0.0.1:9464", c.Metrics.Listen)
		}},
		{"duration", "deposit.confirm_timeout", "5m", func(t *testing.T, c *config.Config) {
			assert.Equal(t, 5*time.Minute, c.Deposit.ConfirmTimeout)
		}},
		{"float", "provider.rate_limit", "2.5", func(t *testing.T, c *config.Config) {
			assert.InDelta(t, 2.5, c.Provider.RateLimit, 0.0001)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			original := config.Defaults()
			updated, err := setConfigValue(original, tt.path, tt.value)
			require.NoError(t, err)
			tt.check(t, updated)

			// Everything else survives the round trip.
			assert.Equal(t, original.Provider.RPC, updated.Provider.RPC)
			assert.Equal(t, original.Tokens.Volatile, updated.Tokens.Volatile)
		})
	}
}

func TestSetConfigValue_LeavesInputUntouched(t *testing.T) {
	t.Parallel()
	original := config.Defaults()
	_, err := setConfigValue(original, "pool.address", testPool)
	require.NoError(t, err)
	assert.Empty(t, original.Pool.Address)
}

func TestSetConfigValue_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		path   string
		value  string
		target error
	}{
		{"section", "provider", "x", poolerr.ErrInvalidInput},
		{"bad int", "tokens.stable.decimals", "six", poolerr.ErrInvalidInput},
		{"bad bool", "metrics.enabled", "maybe", poolerr.ErrInvalidInput},
		{"bad duration", "deposit.confirm_timeout", "soon", poolerr.ErrInvalidInput},
		{"unknown", "pool.nope", "x", poolerr.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := setConfigValue(config.Defaults(), tt.path, tt.value)
			require.ErrorIs(t, err, tt.target)
		})
	}
}

func TestConfigCommands(t *testing.T) {
	env := setupCLI(t)

	err := env.run("config", "init")
	require.ErrorIs(t, err, poolerr.ErrGeneral)

	require.NoError(t, env.run("config", "init", "--force"))
	assert.Contains(t, env.stdout.String(), "Configuration initialized at "+config.Path(env.home))
	info, err := os.Stat(config.Path(env.home))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, env.run("config", "set", "pool.address", testPool))
	assert.Equal(t, "Set pool.address = "+testPool+"\n", env.stdout.String())

	require.NoError(t, env.run("config", "get", "pool.address"))
	assert.Equal(t, testPool+"\n", env.stdout.String())

	saved, err := config.Load(config.Path(env.home))
	require.NoError(t, err)
	assert.Equal(t, testPool, saved.Pool.Address)
}

func TestConfigSet_ValidatesBeforeSaving(t *testing.T) {
	env := setupCLI(t)

	err := env.run("config", "set", "pool.mode", "sideways")
	require.ErrorIs(t, err, poolerr.ErrConfigInvalid)
	assert.Equal(t, "pool.mode", poolerr.Detail(err, "field"))

	err = env.run("config", "set", "pool.mode", "managed")
	require.ErrorIs(t, err, poolerr.ErrConfigInvalid, "managed mode needs deposit methods")

	saved, err := config.Load(config.Path(env.home))
	require.NoError(t, err)
	assert.Equal(t, config.PoolModeSingle, saved.Pool.Mode)
}

func TestConfigShow(t *testing.T) {
	env := setupCLI(t)

	require.NoError(t, env.run("config", "show"))
	assert.Contains(t, env.stdout.String(), testPool)
	assert.Contains(t, env.stdout.String(), "mode: single")

	require.NoError(t, env.run("config", "show", "-o", "json"))
	var tree map[string]any
	require.NoError(t, json.Unmarshal(env.stdout.Bytes(), &tree))
	pool, ok := tree["pool"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, testPool, pool["address"])
	assert.Equal(t, "2s", tree["provider"].(map[string]any)["poll_interval"])
}
