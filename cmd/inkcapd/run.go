package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"inkcap/internal/api"
	"inkcap/internal/burnin"
	"inkcap/internal/config"
	"inkcap/internal/daemon"
	"inkcap/internal/deps"
	"inkcap/internal/logging"
	"inkcap/internal/preflight"
	"inkcap/internal/queue"
	"inkcap/internal/textutil"
	"inkcap/internal/transcribe"
	"inkcap/internal/workflow"
)

// run wires configuration, storage, workflow stages, and the HTTP API into a
// daemon and blocks until the context is cancelled.
func run(ctx context.Context, configPath string) error {
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logStartupSnapshot(logger, cfg)

	pidPath := filepath.Join(cfg.Paths.LogDir, "inkcapd.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return err
	}
	defer store.Close()

	transcriber := transcribe.NewTranscriber(cfg, store, logger)
	burner := burnin.NewBurner(cfg, store, logger)

	manager := workflow.NewManager(cfg, store, logger)
	manager.ConfigureStages(workflow.StageSet{
		Transcriber: transcriber,
		Renderer:    burner,
	})

	server := api.NewServer(cfg, store, transcriber, manager.Status, logger)

	d, err := daemon.New(cfg, store, logger, manager, server)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("inkcapd shutting down")
	return nil
}

// logStartupSnapshot records external tool availability and workspace access
// so a fresh log carries enough context to debug a degraded start.
func logStartupSnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}

	attrs := []logging.Attr{logging.String(logging.FieldEventType, "dependency_snapshot")}
	binaries := deps.CheckBinaries(deps.Requirements(cfg))
	binaries = append(binaries, deps.CheckBrowser(cfg.BrowserBinary()))
	for _, dep := range binaries {
		key := textutil.SanitizeToken(dep.Name)
		attrs = append(attrs,
			logging.Bool(key+"_available", dep.Available),
			logging.String(key+"_binary", dep.Command),
		)
	}
	logger.Info("dependency snapshot", logging.Args(attrs...)...)

	for _, check := range preflight.RunAll(cfg) {
		if check.Passed {
			continue
		}
		logger.Warn("workspace check failed",
			logging.String("check", check.Name),
			logging.String("detail", check.Detail),
			logging.String(logging.FieldEventType, "preflight_failed"),
			logging.String(logging.FieldErrorHint, "fix the reported path and restart the daemon"),
		)
	}
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
