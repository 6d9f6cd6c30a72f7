// Package cli implements the cosmospool command-line interface.
//
// This package uses global variables to manage CLI state, which is the standard
// pattern for Cobra-based CLI applications. The globals are initialized in
// PersistentPreRunE and cleaned up in PersistentPostRun.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
package cli

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cosmospool/cosmospool/internal/config"
	"github.com/cosmospool/cosmospool/internal/output"
	poolerr "github.com/cosmospool/cosmospool/pkg/errors"
)

var (
	// Global flags
	homeDir      string
	outputFormat string
	verbose      bool
	rpcURL       string
	dumpMetrics  bool

	// Global state initialized in PersistentPreRunE
	cfg       *config.Config
	logger    *config.Logger
	formatter *output.Formatter
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "cosmospool",
	Short: "Wallet session and single-sided deposits for the CosmosPool",
	Long: `cosmospool connects to a wallet provider, keeps track of the connected
account, and deposits a single token into the pool contract.

Volatile deposits wrap native currency first; tokens that need an allowance
are approved and confirmed before the deposit is submitted.`,
	Example: `  cosmospool connect
  cosmospool balance
  cosmospool deposit --token stable --amount 100 --pool 0x...`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return initGlobals()
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		cleanup()
	},
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		if formatter != nil {
			_ = output.FormatError(os.Stderr, err, formatter.Format())
		} else {
			_ = output.FormatError(os.Stderr, err, output.FormatText)
		}
		return err
	}
	return nil
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	return poolerr.ExitCode(err)
}

// initGlobals initializes global configuration, logger, and formatter.
func initGlobals() error {
	// .env in the working directory may itself set COSMOSPOOL_HOME.
	if err := config.LoadDotEnv(); err != nil {
		return poolerr.WithCause(poolerr.ErrConfigInvalid, err)
	}

	home := homeDir
	if home == "" {
		home = os.Getenv(config.EnvHome)
	}
	if home == "" {
		home = config.DefaultHome()
	}
	home = config.ExpandPath(home)

	if err := config.LoadDotEnv(filepath.Join(home, ".env")); err != nil {
		return poolerr.WithCause(poolerr.ErrConfigInvalid, err)
	}

	var err error
	cfg, err = config.Load(config.Path(home))
	switch {
	case err == nil:
	case errors.Is(err, poolerr.ErrConfigNotFound):
		cfg = config.Defaults()
	default:
		return err
	}
	cfg.Home = home

	config.ApplyEnvironment(cfg)

	// Command-line flags win over file and environment.
	if homeDir != "" {
		cfg.Home = config.ExpandPath(homeDir)
	}
	if rpcURL != "" {
		cfg.Provider.RPC = config.SanitizeURL(rpcURL)
	}
	if verbose {
		cfg.Output.Verbose = true
		cfg.Logging.Level = "debug"
	}
	if dumpMetrics {
		cfg.Metrics.Enabled = true
	}
	if outputFormat != "" && outputFormat != "auto" {
		cfg.Output.DefaultFormat = outputFormat
	}

	logLevel := config.ParseLogLevel(cfg.Logging.Level)
	logger, err = config.NewLogger(logLevel, cfg.Logging.File)
	if err != nil {
		// Logging must never block wallet operations.
		logger = config.NullLogger()
	}

	explicitFormat := output.ParseFormat(cfg.Output.DefaultFormat)
	formatter = output.NewFormatter(output.DetectFormat(os.Stdout, explicitFormat), os.Stdout)

	return nil
}

// cleanup releases resources.
func cleanup() {
	if logger != nil {
		_ = logger.Close()
	}
}

// Config returns the global configuration.
func Config() *config.Config {
	return cfg
}

// Logger returns the global logger.
func Logger() *config.Logger {
	return logger
}

// Formatter returns the global output formatter.
func Formatter() *output.Formatter {
	return formatter
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "cosmospool data directory (default: ~/.cosmospool)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "auto", "output format: text, json, auto")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&rpcURL, "rpc", "", "wallet provider JSON-RPC endpoint")
	rootCmd.PersistentFlags().BoolVar(&dumpMetrics, "metrics", false, "print this run's metrics to stderr when the command finishes")

	rootCmd.AddGroup(
		&cobra.Group{ID: "wallet", Title: "Wallet Commands:"},
		&cobra.Group{ID: "pool", Title: "Pool Commands:"},
		&cobra.Group{ID: "other", Title: "Configuration & Tools:"},
	)
}
