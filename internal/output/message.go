package output

import (
	"fmt"
	"io"
)

// Message prefixes.
const (
	PrefixInfo    = "ℹ️  "
	PrefixWarn    = "⚠️  "
	PrefixSuccess = "✅ "
	PrefixError   = "❌ "
)

// Infof writes an informational line to w.
func Infof(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintln(w, PrefixInfo+fmt.Sprintf(format, args...))
}

// Warnf writes a warning line to w.
func Warnf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintln(w, PrefixWarn+fmt.Sprintf(format, args...))
}

// Successf writes a success line to w.
func Successf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintln(w, PrefixSuccess+fmt.Sprintf(format, args...))
}
