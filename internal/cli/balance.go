package cli

import (
	"github.com/spf13/cobra"

	"github.com/cosmospool/cosmospool/internal/output"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show native and token balances",
	Long: `Show the native balance of the connected account followed by the balance
of every configured pool token.`,
	Example: `  cosmospool balance
  cosmospool balance -o json`,
	RunE: runBalance,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	balanceCmd.GroupID = "wallet"
	rootCmd.AddCommand(balanceCmd)
}

// balanceView is one balance line in JSON output.
type balanceView struct {
	Symbol  string `json:"symbol"`
	Token   string `json:"token,omitempty"`
	Balance string `json:"balance"`
	Raw     string `json:"raw"`
}

func runBalance(cmd *cobra.Command, _ []string) error {
	cc, ctx := commandContext(cmd)
	defer cc.Close()

	ctx, cancel := contextWithTimeout(cmd, ctx, cfg.Provider.RequestTimeout)
	defer cancel()

	balances, err := cc.Deposits.Balances(ctx)
	if err != nil {
		return err
	}

	address := cc.Store.Snapshot().Address
	if formatter.IsJSON() {
		views := make([]balanceView, 0, len(balances))
		for _, b := range balances {
			views = append(views, balanceView{
				Symbol:  b.Symbol,
				Token:   b.Token,
				Balance: b.Amount.String(),
				Raw:     b.Amount.Value.String(),
			})
		}
		return cmdFormatter(cmd).Print(map[string]any{"address": address, "balances": views})
	}

	w := cmd.OutOrStdout()
	out(w, "Balances for %s\n\n", address)
	table := output.NewTable("TOKEN", "BALANCE", "CONTRACT").AlignRight(1)
	for _, b := range balances {
		contract := b.Token
		if contract == "" {
			contract = "(native)"
		}
		table.AddRow(b.Symbol, b.Amount.String(), contract)
	}
	return table.Render(w)
}
