package cli

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cosmospool/cosmospool/internal/config"
	"github.com/cosmospool/cosmospool/internal/metrics"
	"github.com/cosmospool/cosmospool/internal/output"
	"github.com/cosmospool/cosmospool/internal/provider"
	"github.com/cosmospool/cosmospool/internal/provider/providertest"
)

const (
	testAccount  = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	testPool     = "0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb"
	testUSDCAddr = config.DefaultUSDCAddress
)

// cliEnv runs commands against a temporary home and a fake wallet.
type cliEnv struct {
	t      *testing.T
	home   string
	fake   *providertest.Fake
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

// setupCLI writes a config with a pool address into a temporary home and
// routes every provider the CLI builds to one fake wallet.
func setupCLI(t *testing.T, mutate ...func(*config.Config)) *cliEnv {
	t.Helper()

	home := t.TempDir()
	c := config.Defaults()
	c.Home = home
	c.Pool.Address = testPool
	c.Logging.Level = "off"
	c.Logging.File = ""
	c.Output.DefaultFormat = "text"
	c.Metrics.Enabled = false
	for _, fn := range mutate {
		fn(c)
	}
	require.NoError(t, config.Save(c, config.Path(home)))

	// Keep runs off the real home even after "config init --force".
	t.Setenv(config.EnvLogLevel, "off")
	t.Setenv(config.EnvPool, "")

	env := &cliEnv{
		t:      t,
		home:   home,
		fake:   providertest.New(testAccount),
		stdout: new(bytes.Buffer),
		stderr: new(bytes.Buffer),
	}

	origFactory := providerFactory
	origTerminal := stdinIsTerminal
	origConfirm := promptConfirmFn
	origCfg, origLogger, origFormatter := cfg, logger, formatter
	t.Cleanup(func() {
		providerFactory = origFactory
		stdinIsTerminal = origTerminal
		promptConfirmFn = origConfirm
		cfg, logger, formatter = origCfg, origLogger, origFormatter
		resetFlags()
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	providerFactory = func(*config.Config, *config.Logger, *metrics.Metrics) provider.Provider {
		return env.fake
	}
	stdinIsTerminal = func() bool { return false }
	promptConfirmFn = func(string) bool {
		t.Error("unexpected confirmation prompt")
		return false
	}
	return env
}

// resetFlags clears flag variables left over from a previous execution.
func resetFlags() {
	homeDir, outputFormat, verbose, rpcURL, dumpMetrics = "", "auto", false, "", false
	watchMetricsAddr = ""
	depositToken, depositAmount, depositPool, depositYes = "", "", "", false
	configForce = false
}

// run executes the root command with args and the env's home directory.
func (e *cliEnv) run(args ...string) error {
	e.t.Helper()
	return e.runContext(context.Background(), args...)
}

func (e *cliEnv) runContext(ctx context.Context, args ...string) error {
	e.t.Helper()
	resetFlags()
	e.stdout.Reset()
	e.stderr.Reset()
	rootCmd.SetOut(e.stdout)
	rootCmd.SetErr(e.stderr)
	rootCmd.SetArgs(append([]string{"--home", e.home}, args...))
	return rootCmd.ExecuteContext(ctx)
}

// useGlobals sets the package state commands read without running initGlobals.
func useGlobals(t *testing.T, c *config.Config, f output.Format, w *bytes.Buffer) {
	t.Helper()
	origCfg, origLogger, origFormatter := cfg, logger, formatter
	t.Cleanup(func() {
		cfg, logger, formatter = origCfg, origLogger, origFormatter
	})
	cfg = c
	logger = config.NullLogger()
	formatter = output.NewFormatter(f, w)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}
