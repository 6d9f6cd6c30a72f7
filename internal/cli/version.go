package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// BuildInfo is stamped into the binary at link time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

//nolint:gochecknoglobals // set once from main
var buildInfo BuildInfo

// SetBuildInfo records version details and exposes them through --version.
func SetBuildInfo(info BuildInfo) {
	buildInfo = info
	rootCmd.Version = formatVersion(info)
}

func formatVersion(info BuildInfo) string {
	version, commit, date := info.Version, info.Commit, info.Date
	if version == "" {
		version = "dev"
	}
	if commit == "" {
		commit = "unknown"
	}
	if date == "" {
		date = "unknown"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Show version information",
	Long:    `Print the cosmospool version, the commit it was built from and the Go runtime.`,
	Example: `  cosmospool version
  cosmospool version -o json`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if formatter.IsJSON() {
			return cmdFormatter(cmd).Print(map[string]string{
				"version": formatVersion(buildInfo),
				"go":      runtime.Version(),
			})
		}
		out(cmd.OutOrStdout(), "cosmospool %s %s\n", formatVersion(buildInfo), runtime.Version())
		return nil
	},
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	versionCmd.GroupID = "other"
	rootCmd.AddCommand(versionCmd)
}
