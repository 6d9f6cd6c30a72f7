package config

import "time"

// DefaultRPCURL is the wallet provider endpoint used when none is configured.
// A local wallet or development node usually listens here.
const DefaultRPCURL = "http://127.0.0.1:8545"

// Mainnet token contracts.
const (
	DefaultWETHAddress = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
	DefaultUSDCAddress = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
)

// Defaults returns the default configuration.
// The pool address is empty; deposits require one from config, env or flags.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    "~/.cosmospool",
		Provider: ProviderConfig{
			RPC:                 DefaultRPCURL,
			PollInterval:        2 * time.Second,
			ReceiptPollInterval: time.Second,
			RequestTimeout:      30 * time.Second,
			RateLimit:           10,
			RateBurst:           5,
		},
		Pool: PoolConfig{
			Mode: PoolModeSingle,
		},
		Tokens: TokensConfig{
			Volatile: TokenConfig{
				Symbol:           "WETH",
				Address:          DefaultWETHAddress,
				Decimals:         18,
				RequiresApproval: true,
				WrapNative:       true,
			},
			Stable: TokenConfig{
				Symbol:           "USDC",
				Address:          DefaultUSDCAddress,
				Decimals:         6,
				RequiresApproval: true,
			},
		},
		Deposit: DepositConfig{
			ConfirmTimeout: 0,
		},
		Output: OutputConfig{
			DefaultFormat: "auto",
			Color:         "auto",
			Verbose:       false,
		},
		Logging: LoggingConfig{
			Level: "error",
			File:  "~/.cosmospool/cosmospool.log",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}
