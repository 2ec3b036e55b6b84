package deps

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}

	if results[1].Available {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatalf("expected detail message for missing binary")
	}

	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}

	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}
}

func TestCheckBinariesEmptyCommand(t *testing.T) {
	results := CheckBinaries([]Requirement{{Name: "Unset"}})
	if len(results) != 1 {
		t.Fatalf("expected one result, got %d", len(results))
	}
	if results[0].Available {
		t.Fatal("expected unset command to be unavailable")
	}
	if results[0].Detail != "command not configured" {
		t.Fatalf("unexpected detail: %s", results[0].Detail)
	}
}

func TestCheckBrowserConfiguredPath(t *testing.T) {
	tmp := t.TempDir()
	browser := filepath.Join(tmp, "chromium")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(browser, script, 0o755); err != nil {
		t.Fatalf("write browser stub: %v", err)
	}

	status := CheckBrowser(browser)
	if !status.Available {
		t.Fatalf("expected configured browser to be available, got detail %q", status.Detail)
	}
	if status.Command != browser {
		t.Fatalf("expected command %q, got %q", browser, status.Command)
	}
	if !status.Optional {
		t.Fatal("expected browser dependency to be optional")
	}
}

func TestCheckBrowserConfiguredPathMissing(t *testing.T) {
	status := CheckBrowser(filepath.Join(t.TempDir(), "no-such-browser"))
	if status.Available {
		t.Fatal("expected missing configured browser to be unavailable")
	}
	if status.Detail == "" {
		t.Fatal("expected detail message for missing browser")
	}
}

func TestCheckBrowserPathFallback(t *testing.T) {
	binDir := t.TempDir()
	browser := filepath.Join(binDir, "chromium")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(browser, script, 0o755); err != nil {
		t.Fatalf("write browser stub: %v", err)
	}
	t.Setenv("PATH", binDir)

	status := CheckBrowser("")
	if !status.Available {
		t.Fatalf("expected PATH fallback to find browser, got detail %q", status.Detail)
	}
	if status.Command != browser {
		t.Fatalf("expected command %q, got %q", browser, status.Command)
	}
}

func TestCheckBrowserNotFound(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	status := CheckBrowser("")
	if status.Available {
		t.Fatal("expected browser resolution to fail")
	}
	if status.Detail == "" {
		t.Fatal("expected detail message when no browser is available")
	}
}
