// Package config provides configuration management for CosmosPool.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cosmospool/cosmospool/internal/chain"
	"github.com/cosmospool/cosmospool/internal/chain/eth"
	"github.com/cosmospool/cosmospool/internal/fileutil"
	poolerr "github.com/cosmospool/cosmospool/pkg/errors"
)

// Config represents the application configuration.
type Config struct {
	Version  int            `yaml:"version"`
	Home     string         `yaml:"home"`
	Provider ProviderConfig `yaml:"provider"`
	Pool     PoolConfig     `yaml:"pool"`
	Tokens   TokensConfig   `yaml:"tokens"`
	Deposit  DepositConfig  `yaml:"deposit"`
	Output   OutputConfig   `yaml:"output"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ProviderConfig defines how the wallet provider is reached.
type ProviderConfig struct {
	RPC                 string        `yaml:"rpc"`
	PollInterval        time.Duration `yaml:"poll_interval"`
	ReceiptPollInterval time.Duration `yaml:"receipt_poll_interval"`
	RequestTimeout      time.Duration `yaml:"request_timeout"`
	RateLimit           float64       `yaml:"rate_limit"` // requests per second, 0 disables
	RateBurst           int           `yaml:"rate_burst"`
}

// PoolConfig identifies the target pool contract.
type PoolConfig struct {
	Address string `yaml:"address"`
	Mode    string `yaml:"mode"`
}

// Pool modes.
const (
	PoolModeSingle  = "single"  // depositSingle(token, amount) after an explicit approve
	PoolModeManaged = "managed" // per-token deposit methods
)

// TokensConfig holds the two depositable tokens.
type TokensConfig struct {
	Volatile TokenConfig `yaml:"volatile"`
	Stable   TokenConfig `yaml:"stable"`
}

// TokenConfig defines an ERC-20 token accepted by the pool.
type TokenConfig struct {
	Symbol           string `yaml:"symbol"`
	Address          string `yaml:"address"`
	Decimals         int    `yaml:"decimals"`
	RequiresApproval bool   `yaml:"requires_approval"`
	WrapNative       bool   `yaml:"wrap_native"`
	DepositMethod    string `yaml:"deposit_method,omitempty"`
}

// DepositConfig defines deposit sequencing settings.
type DepositConfig struct {
	ConfirmTimeout time.Duration `yaml:"confirm_timeout"` // 0 waits indefinitely
}

// OutputConfig defines output formatting settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	Color         string `yaml:"color"`
	Verbose       bool   `yaml:"verbose"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// MetricsConfig toggles metric collection.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"` // scrape address served by watch, e.g. "127.0.0.1:9464"
}

// Load reads configuration from the specified file.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, poolerr.WithDetails(poolerr.ErrConfigNotFound, map[string]string{"path": path})
		}
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, poolerr.WithDetails(poolerr.WithCause(poolerr.ErrConfigInvalid, err), map[string]string{"path": path})
	}

	return cfg, nil
}

// Save writes configuration to the specified file.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return fileutil.WriteAtomic(path, data, 0o600)
}

// Path returns the default config file path.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// Validate checks addresses, decimals and durations.
func (c *Config) Validate() error {
	if c.Pool.Address != "" && !eth.IsValidAddress(c.Pool.Address) {
		return invalid("pool.address", "not a 20-byte hex address")
	}
	switch c.Pool.Mode {
	case PoolModeSingle, PoolModeManaged:
	default:
		return invalid("pool.mode", fmt.Sprintf("unknown mode %q", c.Pool.Mode))
	}

	if err := c.Tokens.Volatile.validate("tokens.volatile", c.Pool.Mode); err != nil {
		return err
	}
	if err := c.Tokens.Stable.validate("tokens.stable", c.Pool.Mode); err != nil {
		return err
	}

	if c.Provider.PollInterval < 0 || c.Provider.ReceiptPollInterval < 0 {
		return invalid("provider", "poll intervals must not be negative")
	}
	if c.Provider.RateLimit < 0 {
		return invalid("provider.rate_limit", "must not be negative")
	}
	if c.Deposit.ConfirmTimeout < 0 {
		return invalid("deposit.confirm_timeout", "must not be negative")
	}
	return nil
}

func (t TokenConfig) validate(field, mode string) error {
	if strings.TrimSpace(t.Symbol) == "" {
		return invalid(field+".symbol", "required")
	}
	if !eth.IsValidAddress(t.Address) {
		return invalid(field+".address", "not a 20-byte hex address")
	}
	if t.Decimals < 0 || t.Decimals > chain.MaxDecimals {
		return invalid(field+".decimals", fmt.Sprintf("must be between 0 and %d", chain.MaxDecimals))
	}
	if mode == PoolModeManaged && t.DepositMethod == "" {
		return invalid(field+".deposit_method", "required in managed mode")
	}
	if t.DepositMethod != "" && !eth.Pool.HasMethod(t.DepositMethod) {
		return invalid(field+".deposit_method", fmt.Sprintf("pool has no method %q", t.DepositMethod))
	}
	return nil
}

func invalid(field, reason string) error {
	return poolerr.WithDetails(poolerr.ErrConfigInvalid, map[string]string{
		"field":  field,
		"reason": reason,
	})
}

// ExpandPath replaces a leading "~/" with the user's home directory.
func ExpandPath(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}

// DefaultHome returns the default cosmospool home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cosmospool"
	}
	return filepath.Join(home, ".cosmospool")
}
