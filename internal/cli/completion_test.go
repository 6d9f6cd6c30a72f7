package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletion_Shells(t *testing.T) {
	tests := []struct {
		shell string
		want  string
	}{
		{"bash", "__start_cosmospool"},
		{"zsh", "#compdef cosmospool"},
		{"fish", "complete -c cosmospool"},
		{"powershell", "Register-ArgumentCompleter"},
	}

	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			var buf bytes.Buffer
			completionCmd.SetOut(&buf)
			t.Cleanup(func() { completionCmd.SetOut(nil) })

			require.NoError(t, completionCmd.RunE(completionCmd, []string{tt.shell}))
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestCompletion_Args(t *testing.T) {
	require.Error(t, completionCmd.Args(completionCmd, nil))
	require.Error(t, completionCmd.Args(completionCmd, []string{"tcsh"}))
	require.Error(t, completionCmd.Args(completionCmd, []string{"bash", "zsh"}))
	require.NoError(t, completionCmd.Args(completionCmd, []string{"zsh"}))
}

func TestCompletion_ListsCommands(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, rootCmd.GenBashCompletionV2(&buf, true))
	assert.NotEmpty(t, buf.String())
}
