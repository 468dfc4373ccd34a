package cmd

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/tripalhq/tripal/internal/config"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out.String(), AppVersion) {
		t.Errorf("output missing version %q:\n%s", AppVersion, out.String())
	}
}

// Serve must refuse to start on missing credentials instead of failing
// later inside provider or database setup.
func TestServeCommand_ValidatesConfig(t *testing.T) {
	t.Setenv("TRIPAL_PROVIDER", "googleai")
	t.Setenv("GEMINI_API_KEY", "")

	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs([]string{"serve"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("Execute() = nil, want credential validation error")
	}
	if !errors.Is(err, config.ErrMissingAPIKey) {
		t.Errorf("Execute() = %v, want %v", err, config.ErrMissingAPIKey)
	}
}

func TestSubcommandsRegistered(t *testing.T) {
	want := map[string]bool{"chat": false, "serve": false, "version": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}
