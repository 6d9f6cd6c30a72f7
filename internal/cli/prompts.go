package cli

import (
	"bufio"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompt hooks, replaced in tests.
//
//nolint:gochecknoglobals // swapped in tests
var (
	promptConfirmFn = func(question string) bool {
		return promptConfirmation(os.Stderr, os.Stdin, question)
	}
	stdinIsTerminal = func() bool {
		return term.IsTerminal(int(os.Stdin.Fd())) //nolint:gosec // G115: Fd() returns uintptr, safe conversion for term.IsTerminal
	}
)

// promptConfirmation asks a yes/no question; anything but y or yes declines.
func promptConfirmation(w io.Writer, r io.Reader, question string) bool {
	out(w, "%s [y/N]: ", question)

	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return false
	}

	response := strings.ToLower(strings.TrimSpace(line))
	return response == "y" || response == "yes"
}
