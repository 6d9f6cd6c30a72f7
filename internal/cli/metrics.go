package cli

import (
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Print collected metrics",
	Long: `Reattach to the remembered session and print every metric collected by
this process in a plain "name{labels} value" form.

Metrics live only as long as the process that records them. To see what a
deposit or connect recorded, add --metrics to that command. To scrape a
long-running process, use watch --metrics-addr.`,
	Example: `  cosmospool metrics
  cosmospool deposit --token stable --amount 100 --metrics
  cosmospool watch --metrics-addr 127.0.0.1:9464`,
	RunE:    runMetrics,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	metricsCmd.GroupID = "other"
	rootCmd.AddCommand(metricsCmd)
}

func runMetrics(cmd *cobra.Command, _ []string) error {
	cc, _ := commandContext(cmd)
	defer cc.Close()

	if cc.Metrics == nil {
		outln(cmd.OutOrStdout(), "Metrics are disabled (metrics.enabled: false)")
		return nil
	}
	return cc.Metrics.WriteText(cmd.OutOrStdout())
}
