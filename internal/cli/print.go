package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cosmospool/cosmospool/internal/output"
)

// out is a helper for CLI output that ignores write errors (standard pattern for CLI tools).
//
//nolint:errcheck // CLI output writes to stdout are intentionally unchecked
func out(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format, args...)
}

// outln is a helper for CLI output with newline.
//
//nolint:errcheck // CLI output writes to stdout are intentionally unchecked
func outln(w io.Writer, args ...any) {
	fmt.Fprintln(w, args...)
}

// cmdFormatter returns a formatter in the global format writing to the command's output.
func cmdFormatter(cmd *cobra.Command) *output.Formatter {
	return output.NewFormatter(formatter.Format(), cmd.OutOrStdout())
}
