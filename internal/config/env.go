package config

import (
	"errors"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvHome           = "COSMOSPOOL_HOME"
	EnvRPC            = "COSMOSPOOL_RPC"
	EnvPool           = "COSMOSPOOL_POOL"
	EnvOutputFormat   = "COSMOSPOOL_OUTPUT_FORMAT"
	EnvVerbose        = "COSMOSPOOL_VERBOSE"
	EnvLogLevel       = "COSMOSPOOL_LOG_LEVEL"
	EnvConfirmTimeout = "COSMOSPOOL_CONFIRM_TIMEOUT"
	EnvMetricsListen  = "COSMOSPOOL_METRICS_LISTEN"
	EnvNoColor        = "NO_COLOR"
)

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment. Variables already set are never overridden and missing files
// are skipped. With no paths it reads ".env" in the working directory.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

// ApplyEnvironment applies environment variable overrides to the configuration.
//
//nolint:gocognit,gocyclo // Environment variable overrides require sequential checks
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvHome); v != "" {
		cfg.Home = v
	}

	if v := os.Getenv(EnvRPC); v != "" {
		cfg.Provider.RPC = SanitizeURL(v)
	}

	if v := os.Getenv(EnvPool); v != "" {
		cfg.Pool.Address = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvOutputFormat); v != "" {
		cfg.Output.DefaultFormat = strings.ToLower(v)
	}

	if v := os.Getenv(EnvVerbose); v != "" {
		cfg.Output.Verbose = parseBool(v)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}

	// NO_COLOR disables colored output
	if _, ok := os.LookupEnv(EnvNoColor); ok {
		cfg.Output.Color = "never"
	}

	if v := os.Getenv(EnvMetricsListen); v != "" {
		cfg.Metrics.Listen = strings.TrimSpace(v)
	}

	// Accepts Go durations ("90s") or plain seconds ("90").
	if v := os.Getenv(EnvConfirmTimeout); v != "" {
		if d, ok := parseDuration(v); ok {
			cfg.Deposit.ConfirmTimeout = d
		}
	}
}

// parseBool parses a boolean string value.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "1" || s == "true" || s == "yes" || s == "on" {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}

func parseDuration(s string) (time.Duration, bool) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.Atoi(s); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, false
	}
	return d, true
}

// SanitizeURL trims copy-paste artifacts from a user-provided endpoint URL.
// Whitespace and control characters are removed; a value that does not parse
// as an absolute URL is returned trimmed so validation can report it.
func SanitizeURL(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r <= ' ' || r == 0x7f {
			return -1
		}
		return r
	}, raw)

	u, err := url.Parse(cleaned)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return cleaned
	}
	return u.String()
}
