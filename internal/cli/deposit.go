package cli

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cosmospool/cosmospool/internal/output"
	"github.com/cosmospool/cosmospool/internal/service/deposit"
	poolerr "github.com/cosmospool/cosmospool/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	depositToken  string
	depositAmount string
	depositPool   string
	depositYes    bool
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var depositCmd = &cobra.Command{
	Use:   "deposit",
	Short: "Deposit a single token into the pool",
	Long: `Deposit one token into the pool contract from the connected account.

The volatile token is wrapped from native currency first. Tokens that need an
allowance are approved, and the approval is confirmed before the deposit is
submitted. Each step is printed as it happens. Failed transactions are never
retried; run the command again once the cause is fixed.`,
	Example: `  cosmospool deposit --token stable --amount 100
  cosmospool deposit --token volatile --amount 1.5 --pool 0x...
  cosmospool deposit --token USDC --amount 25 -o json`,
	RunE: runDeposit,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	depositCmd.GroupID = "pool"
	rootCmd.AddCommand(depositCmd)

	depositCmd.Flags().StringVarP(&depositToken, "token", "t", "", "token kind (volatile, stable) or symbol (required)")
	depositCmd.Flags().StringVarP(&depositAmount, "amount", "a", "", "amount in whole tokens, e.g. 1.5 (required)")
	depositCmd.Flags().StringVar(&depositPool, "pool", "", "pool contract address (default: pool.address)")
	depositCmd.Flags().BoolVarP(&depositYes, "yes", "y", false, "skip the confirmation prompt")
	_ = depositCmd.MarkFlagRequired("token")
	_ = depositCmd.MarkFlagRequired("amount")
}

// depositView is the JSON form of a deposit result.
type depositView struct {
	State   string              `json:"state"`
	Account string              `json:"account"`
	Pool    string              `json:"pool"`
	Token   string              `json:"token"`
	Amount  string              `json:"amount"`
	TxHash  string              `json:"tx_hash,omitempty"`
	Steps   []stepView          `json:"steps,omitempty"`
	Error   *output.ErrorDetail `json:"error,omitempty"`
}

type stepView struct {
	Kind   string `json:"kind"`
	TxHash string `json:"tx_hash"`
}

func runDeposit(cmd *cobra.Command, _ []string) error {
	if !confirmDeposit() {
		return poolerr.WithDetails(poolerr.ErrUserRejected, map[string]string{"reason": "deposit declined at prompt"})
	}

	cc, ctx := commandContext(cmd)
	defer cc.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := cmd.OutOrStdout()
	if !formatter.IsJSON() {
		cc.Deposits.WithTransitionHook(func(t deposit.Transition) {
			if t.TxHash != "" && t.To == deposit.Confirming {
				out(w, "  %s -> %s (%s)\n", t.From, t.To, t.TxHash)
				return
			}
			out(w, "  %s -> %s\n", t.From, t.To)
		})
	}

	result, err := cc.Deposits.Deposit(ctx, deposit.Request{
		Token:  depositToken,
		Amount: depositAmount,
		Pool:   depositPool,
	})

	// A busy guard never produced a result of its own.
	if result == nil || errors.Is(err, poolerr.ErrSequenceInProgress) {
		return err
	}

	if formatter.IsJSON() {
		view := newDepositView(result)
		if err != nil {
			d := output.Describe(err)
			view.Error = &d
		}
		if printErr := cmdFormatter(cmd).Print(view); printErr != nil {
			return printErr
		}
		return err
	}

	if err != nil {
		return err
	}
	for _, s := range result.Steps {
		out(w, "  %-8s %s\n", s.Kind, s.TxHash)
	}
	return nil
}

// confirmDeposit asks before spending funds when a person is at the terminal.
func confirmDeposit() bool {
	if depositYes || formatter.IsJSON() || !stdinIsTerminal() {
		return true
	}
	pool := depositPool
	if pool == "" {
		pool = cfg.Pool.Address
	}
	return promptConfirmFn(fmt.Sprintf("Deposit %s %s into pool %s?", depositAmount, depositToken, pool))
}

func newDepositView(r *deposit.Result) depositView {
	v := depositView{
		State:   string(r.State),
		Account: r.Account,
		Pool:    r.Pool,
		Token:   r.Token.Symbol,
		Amount:  r.Amount.String(),
		TxHash:  r.TxHash,
	}
	for _, s := range r.Steps {
		v.Steps = append(v.Steps, stepView{Kind: string(s.Kind), TxHash: s.TxHash})
	}
	return v
}
