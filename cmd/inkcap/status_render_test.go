package main

import (
	"strings"
	"testing"
)

func TestRenderStatusLinePlain(t *testing.T) {
	line := renderStatusLine("FFmpeg", statusOK, "Ready", false)
	requireContains(t, line, "FFmpeg:")
	requireContains(t, line, "[OK] Ready")
	if strings.Contains(line, ansiGreen) {
		t.Fatalf("plain output should not carry color codes: %q", line)
	}
}

func TestRenderStatusLineColorized(t *testing.T) {
	line := renderStatusLine("Upload directory", statusError, "missing", true)
	if !strings.HasPrefix(line, ansiRed) {
		t.Fatalf("expected red prefix, got %q", line)
	}
	if !strings.HasSuffix(line, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", line)
	}
	requireContains(t, line, "[ERROR] missing")
}

func TestRenderStatusLineWithoutMessage(t *testing.T) {
	line := renderStatusLine("Daemon", statusWarn, "", false)
	if !strings.HasSuffix(line, "[WARN]") {
		t.Fatalf("expected bare badge, got %q", line)
	}
}

func TestRenderSectionHeaderRuleLength(t *testing.T) {
	var sb strings.Builder
	renderSectionHeader(&sb, "Dependencies", false)
	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and rule, got %d lines", len(lines))
	}
	if lines[0] != "== Dependencies ==" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if len(lines[1]) != len(lines[0]) {
		t.Fatalf("rule length %d does not match header length %d", len(lines[1]), len(lines[0]))
	}
	if strings.Trim(lines[1], "-") != "" {
		t.Fatalf("rule should be dashes, got %q", lines[1])
	}
}

func TestPassKind(t *testing.T) {
	if got := passKind(true, false); got != statusOK {
		t.Fatalf("passing check should be OK, got %v", got)
	}
	if got := passKind(false, false); got != statusError {
		t.Fatalf("failed required check should be ERROR, got %v", got)
	}
	if got := passKind(false, true); got != statusWarn {
		t.Fatalf("failed optional check should be WARN, got %v", got)
	}
}

func TestQueueStatsRowsOrdering(t *testing.T) {
	rows := queueStatsRows(map[string]int{
		"completed": 3,
		"pending":   1,
		"mystery":   2,
		"failed":    0,
	})
	if len(rows) != 3 {
		t.Fatalf("expected zero counts dropped, got %d rows", len(rows))
	}
	if rows[0][0] != "pending" || rows[1][0] != "completed" {
		t.Fatalf("expected lifecycle ordering, got %v", rows)
	}
	if rows[2][0] != "mystery" {
		t.Fatalf("unknown keys should trail, got %v", rows)
	}
}

func TestDependencyDetail(t *testing.T) {
	if got := dependencyDetail(true, "/usr/bin/ffmpeg", ""); got != "Ready (command: /usr/bin/ffmpeg)" {
		t.Fatalf("unexpected detail %q", got)
	}
	if got := dependencyDetail(true, "", ""); got != "Ready" {
		t.Fatalf("unexpected detail %q", got)
	}
	if got := dependencyDetail(false, "whisper", "binary not found"); got != "binary not found" {
		t.Fatalf("unexpected detail %q", got)
	}
	if got := dependencyDetail(false, "whisper", ""); got != "not available" {
		t.Fatalf("unexpected detail %q", got)
	}
}
