package cli

import (
	"io"
	"net/http"
	"path/filepath"

	"github.com/cosmospool/cosmospool/internal/chain"
	"github.com/cosmospool/cosmospool/internal/chain/eth/rpc"
	"github.com/cosmospool/cosmospool/internal/config"
	"github.com/cosmospool/cosmospool/internal/metrics"
	"github.com/cosmospool/cosmospool/internal/notify"
	"github.com/cosmospool/cosmospool/internal/output"
	"github.com/cosmospool/cosmospool/internal/provider"
	"github.com/cosmospool/cosmospool/internal/service/deposit"
	"github.com/cosmospool/cosmospool/internal/session"
)

// CommandContext holds dependencies for CLI commands.
type CommandContext struct {
	Config    *config.Config
	Logger    *config.Logger
	Formatter *output.Formatter
	Metrics   *metrics.Metrics // nil when metrics are disabled

	Provider provider.Provider
	Store    *session.Store
	Notifier *notify.Center
	Deposits *deposit.Service

	metricsOut io.Writer // receives a metrics dump on Close when set
}

// providerFactory builds the wallet provider. Tests replace it with a fake.
//
//nolint:gochecknoglobals // swapped in tests
var providerFactory = newRPCProvider

func newRPCProvider(c *config.Config, l *config.Logger, m *metrics.Metrics) provider.Provider {
	clientOpts := []rpc.Option{
		rpc.WithRateLimiter(chain.NewRateLimiter(c.Provider.RateLimit, c.Provider.RateBurst)),
	}
	if c.Provider.RequestTimeout > 0 {
		clientOpts = append(clientOpts, rpc.WithHTTPClient(&http.Client{Timeout: c.Provider.RequestTimeout}))
	}
	if m != nil {
		clientOpts = append(clientOpts, rpc.WithRecorder(m))
	}

	return provider.New(provider.Config{
		URL:                  c.Provider.RPC,
		AccountsPollInterval: c.Provider.PollInterval,
		ReceiptPollInterval:  c.Provider.ReceiptPollInterval,
	}, provider.WithLogger(l), provider.WithClientOptions(clientOpts...))
}

// NewCommandContext wires the provider, session store, notification center
// and deposit service from configuration. Notifications are written to notices.
func NewCommandContext(
	cfg *config.Config,
	logger *config.Logger,
	formatter *output.Formatter,
	notices io.Writer,
) *CommandContext {
	c := &CommandContext{
		Config:    cfg,
		Logger:    logger,
		Formatter: formatter,
	}
	if cfg.Metrics.Enabled {
		c.Metrics = metrics.Default
	}

	c.Provider = providerFactory(cfg, logger, c.Metrics)

	storeOpts := []session.Option{session.WithLogger(logger)}
	centerOpts := []notify.Option{notify.WithLogger(logger), notify.WithAutoClose(0)}
	var recorder deposit.Recorder
	if c.Metrics != nil {
		storeOpts = append(storeOpts, session.WithEventRecorder(c.Metrics))
		centerOpts = append(centerOpts, notify.WithRecorder(c.Metrics))
		recorder = c.Metrics
	}

	addresses := session.NewFileAddressStore(filepath.Join(cfg.Home, session.DefaultFileName))
	c.Store = session.NewStore(c.Provider, addresses, storeOpts...)
	c.Notifier = notify.NewCenter(notices, centerOpts...)
	c.Deposits = deposit.NewService(&deposit.Config{
		Store:          c.Store,
		Provider:       c.Provider,
		Sink:           c.Notifier,
		Logger:         logger,
		Recorder:       recorder,
		Guard:          deposit.NewFileGuard(cfg.Home),
		Pool:           cfg.Pool.Address,
		Tokens:         depositTokens(cfg),
		ConfirmTimeout: cfg.Deposit.ConfirmTimeout,
	})
	return c
}

// Close stops background work and releases the provider. With --metrics it
// then prints everything this run recorded.
func (c *CommandContext) Close() {
	c.Store.Close()
	c.Notifier.Close()
	c.Provider.Close()

	if c.metricsOut != nil && c.Metrics != nil {
		if err := c.Metrics.WriteText(c.metricsOut); err != nil {
			c.Logger.Error("writing metrics: %v", err)
		}
	}
}

// depositTokens converts configured tokens. Managed pools deposit through
// per-token methods; single pools use depositSingle.
func depositTokens(c *config.Config) []deposit.Token {
	conv := func(kind deposit.TokenKind, t config.TokenConfig) deposit.Token {
		tok := deposit.Token{
			Kind:             kind,
			Symbol:           t.Symbol,
			Address:          t.Address,
			Decimals:         t.Decimals,
			RequiresApproval: t.RequiresApproval,
			WrapNative:       t.WrapNative,
		}
		if c.Pool.Mode == config.PoolModeManaged {
			tok.DepositMethod = t.DepositMethod
		}
		return tok
	}
	return []deposit.Token{
		conv(deposit.Volatile, c.Tokens.Volatile),
		conv(deposit.Stable, c.Tokens.Stable),
	}
}
