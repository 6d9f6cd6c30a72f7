package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

// contextWithTimeout derives a timeout context from parent, falling back to
// the command context. A non-positive d only adds cancellation.
func contextWithTimeout(cmd *cobra.Command, parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = cmd.Context()
	}
	if parent == nil {
		parent = context.Background()
	}
	if d <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, d)
}
