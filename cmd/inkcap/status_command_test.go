package main

import (
	"context"
	"path/filepath"
	"testing"

	"inkcap/internal/api"
	"inkcap/internal/logging"
	"inkcap/internal/testsupport"
)

func TestStatusFallsBackToLocalChecks(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	configPath := writeTestConfig(t, cfg)

	out, _, err := runCLI(t, []string{"status"}, configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Not reachable")
	requireContains(t, out, "Dependencies")
	requireContains(t, out, "FFmpeg")
	requireContains(t, out, "Workspace")
	requireContains(t, out, "Queue is empty")
}

func TestStatusReportsDaemonHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.NewJob(t, store, filepath.Join(cfg.Paths.UploadDir, "movie.mp4"))

	server := api.NewServer(cfg, store, nil, nil, logging.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := server.Start(ctx); err != nil {
		t.Fatalf("start api server: %v", err)
	}
	t.Cleanup(server.Stop)

	// Point the CLI at the live listener.
	cfg.Paths.APIBind = server.Addr()
	configPath := writeTestConfig(t, cfg)

	out, _, err := runCLI(t, []string{"status"}, configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Running at "+server.Addr())
	requireContains(t, out, "Stopped")
	requireContains(t, out, "FFmpeg")
	requireContains(t, out, "pending")
}

func TestStatusShowsSeededQueueCounts(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	configPath := writeTestConfig(t, cfg)
	store := testsupport.MustOpenStore(t, cfg)

	testsupport.NewJob(t, store, filepath.Join(cfg.Paths.UploadDir, "one.mp4"))
	testsupport.NewJob(t, store, filepath.Join(cfg.Paths.UploadDir, "two.mp4"))

	out, _, err := runCLI(t, []string{"status"}, configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "pending")
	requireContains(t, out, "2")
}
