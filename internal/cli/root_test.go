package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootFlags(t *testing.T) {
	flags := rootCmd.Flags()

	autorun := flags.Lookup("autorun")
	require.NotNil(t, autorun)
	assert.Equal(t, "r", autorun.Shorthand)
	assert.NotNil(t, flags.Lookup("mode"))
	assert.NotNil(t, flags.Lookup("metrics-addr"))

	persistent := rootCmd.PersistentFlags()
	assert.NotNil(t, persistent.Lookup("config"))
	assert.NotNil(t, persistent.Lookup("no-color"))
}

func TestSubcommandsRegistered(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"gps", "doctor", "init", "version", "completion"} {
		assert.Contains(t, names, want)
	}
}

func TestRunWithoutTerminal(t *testing.T) {
	var errOut bytes.Buffer
	rootCmd.SetErr(&errOut)
	t.Cleanup(func() { rootCmd.SetErr(nil) })

	// go test pipes the test binary's stdout, so it is never a terminal.
	assert.Equal(t, 1, run(rootCmd, []string{}))
	assert.Contains(t, errOut.String(), "needs an interactive terminal")
}

func TestRunUnknownCommand(t *testing.T) {
	var errOut bytes.Buffer
	rootCmd.SetErr(&errOut)
	t.Cleanup(func() { rootCmd.SetErr(nil) })

	assert.Equal(t, 1, run(rootCmd, []string{"sync"}))
	assert.Contains(t, errOut.String(), "unknown")
}

func TestCompletion(t *testing.T) {
	tests := []struct {
		shell string
		want  string
	}{
		{"bash", "__start_g2console"},
		{"zsh", "#compdef g2console"},
		{"fish", "complete -c g2console"},
		{"powershell", "Register-ArgumentCompleter"},
	}
	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			var out bytes.Buffer
			rootCmd.SetOut(&out)
			t.Cleanup(func() { rootCmd.SetOut(nil) })

			assert.Equal(t, 0, run(rootCmd, []string{"completion", tt.shell}))
			assert.True(t, strings.Contains(out.String(), tt.want), "%s script missing %q", tt.shell, tt.want)
		})
	}
}

func TestCompletionRejectsUnknownShell(t *testing.T) {
	rootCmd.SetErr(&bytes.Buffer{})
	t.Cleanup(func() { rootCmd.SetErr(nil) })
	assert.Equal(t, 1, run(rootCmd, []string{"completion", "tcsh"}))
}
