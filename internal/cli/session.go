package cli

import (
	"context"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cosmospool/cosmospool/internal/output"
	"github.com/cosmospool/cosmospool/internal/session"
	poolerr "github.com/cosmospool/cosmospool/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect a wallet account",
	Long: `Ask the wallet provider to authorize an account and make the first
authorized account the active session. The address is remembered so later
commands reattach without prompting.`,
	Example: `  cosmospool connect
  cosmospool connect --rpc http://127.0.0.1:8545`,
	RunE: runConnect,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var disconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Forget the connected account",
	Long: `Forget the connected account locally. Authorization granted inside the
wallet is not revoked.`,
	Example: `  cosmospool disconnect`,
	RunE:    runDisconnect,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show the current session",
	Long:    `Silently reattach to the remembered account, if still authorized, and show the session.`,
	Example: `  cosmospool status -o json`,
	RunE:    runStatus,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow account changes in the wallet",
	Long: `Reattach to the remembered account and print the session every time the
wallet switches or revokes accounts. Stops on interrupt.

With --metrics-addr (or metrics.listen) the metrics of this process are served
for Prometheus at http://<addr>/metrics while it runs.`,
	Example: `  cosmospool watch
  cosmospool watch --metrics-addr 127.0.0.1:9464`,
	RunE: runWatch,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var watchMetricsAddr string

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	for _, c := range []*cobra.Command{connectCmd, disconnectCmd, statusCmd, watchCmd} {
		c.GroupID = "wallet"
		rootCmd.AddCommand(c)
	}
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (default: metrics.listen)")
}

// sessionView is the printable form of a session.
type sessionView struct {
	Connected bool   `json:"connected"`
	Address   string `json:"address,omitempty"`
	ChainID   string `json:"chain_id,omitempty"`
	Balance   string `json:"balance,omitempty"`
}

func newSessionView(s session.Session) sessionView {
	v := sessionView{Connected: s.IsConnected, Address: s.Address}
	if s.ChainID != nil {
		v.ChainID = s.ChainID.String()
	}
	if s.CachedBalance != nil {
		v.Balance = s.CachedBalance.String() + " ETH"
	}
	return v
}

func printSession(w io.Writer, s session.Session) error {
	v := newSessionView(s)
	f := output.NewFormatter(formatter.Format(), w)
	if f.IsJSON() {
		return f.Print(v)
	}
	if !v.Connected {
		return f.Println("Not connected")
	}
	return f.Fields(
		output.Field{Key: "address", Label: "Address", Value: v.Address},
		output.Field{Key: "chain_id", Label: "Chain ID", Value: v.ChainID},
		output.Field{Key: "balance", Label: "Balance", Value: v.Balance},
	)
}

// commandContext builds the command's dependencies and silently restores
// any remembered session.
func commandContext(cmd *cobra.Command) (*CommandContext, context.Context) {
	cc := NewCommandContext(cfg, logger, formatter, cmd.ErrOrStderr())
	if dumpMetrics {
		cc.metricsOut = cmd.ErrOrStderr()
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cc.Store.Initialize(ctx)
	return cc, ctx
}

func runConnect(cmd *cobra.Command, _ []string) error {
	cc, ctx := commandContext(cmd)
	defer cc.Close()

	if snap := cc.Store.Snapshot(); snap.IsConnected {
		logger.Debug("already connected as %s", snap.Address)
		return printSession(cmd.OutOrStdout(), snap)
	}

	if _, err := cc.Deposits.Connect(ctx); err != nil {
		return err
	}
	return printSession(cmd.OutOrStdout(), cc.Store.Snapshot())
}

func runDisconnect(cmd *cobra.Command, _ []string) error {
	cc, _ := commandContext(cmd)
	defer cc.Close()

	changed := cc.Deposits.Disconnect()
	if formatter.IsJSON() {
		return cmdFormatter(cmd).Print(map[string]bool{"disconnected": changed})
	}
	if !changed {
		outln(cmd.OutOrStdout(), "Not connected")
	}
	return nil
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cc, _ := commandContext(cmd)
	defer cc.Close()
	return printSession(cmd.OutOrStdout(), cc.Store.Snapshot())
}

func runWatch(cmd *cobra.Command, _ []string) error {
	addr := watchMetricsAddr
	if addr == "" {
		addr = cfg.Metrics.Listen
	}
	if addr != "" {
		cfg.Metrics.Enabled = true
	}

	cc, ctx := commandContext(cmd)
	defer cc.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if addr != "" {
		srv, err := cc.Metrics.Listen(addr)
		if err != nil {
			return poolerr.WithCause(poolerr.ErrGeneral, err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("stopping metrics server: %v", err)
			}
		}()
		output.Infof(cmd.ErrOrStderr(), "Serving metrics on %s", srv.URL())
	}

	w := cmd.OutOrStdout()
	updates := make(chan session.Session, 8)
	unsubscribe := cc.Store.Subscribe(func(s session.Session) {
		select {
		case updates <- s:
		default:
			logger.Debug("watch output is behind; dropping session update")
		}
	})
	defer unsubscribe()

	if err := printSession(w, cc.Store.Snapshot()); err != nil {
		return err
	}
	cc.Store.Watch()

	for {
		select {
		case <-ctx.Done():
			return nil
		case s := <-updates:
			if err := printSession(w, s); err != nil {
				return err
			}
		}
	}
}
