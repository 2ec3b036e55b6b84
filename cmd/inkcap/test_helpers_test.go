package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"inkcap/internal/config"
	"inkcap/internal/testsupport"
)

// writeTestConfig persists the paths section of a test config so CLI commands
// can load it through --config. All other sections fall back to defaults.
func writeTestConfig(t *testing.T, cfg *config.Config) string {
	t.Helper()

	var sb strings.Builder
	sb.WriteString("[paths]\n")
	fmt.Fprintf(&sb, "staging_dir = %q\n", cfg.Paths.StagingDir)
	fmt.Fprintf(&sb, "upload_dir = %q\n", cfg.Paths.UploadDir)
	fmt.Fprintf(&sb, "output_dir = %q\n", cfg.Paths.OutputDir)
	fmt.Fprintf(&sb, "log_dir = %q\n", cfg.Paths.LogDir)
	if cfg.Paths.FontsDir != "" {
		fmt.Fprintf(&sb, "fonts_dir = %q\n", cfg.Paths.FontsDir)
	}
	fmt.Fprintf(&sb, "api_bind = %q\n", cfg.Paths.APIBind)

	path := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
