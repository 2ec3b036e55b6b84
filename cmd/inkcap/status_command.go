package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"inkcap/internal/api"
	"inkcap/internal/config"
	"inkcap/internal/deps"
	"inkcap/internal/preflight"
	"inkcap/internal/queue"
)

const statusProbeTimeout = 2 * time.Second

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon, dependency, and queue status",
		Long: `Status probes the daemon health endpoint and reports what it says. When no
daemon is reachable the checks run locally against the configured workspace
and queue database instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			if health, probeErr := probeDaemon(cmd.Context(), cfg.Paths.APIBind); probeErr == nil {
				renderDaemonStatus(out, health, cfg.Paths.APIBind, colorize)
				return nil
			}
			return ctx.withStore(func(store *queue.Store) error {
				return renderLocalStatus(cmd.Context(), out, cfg, store, colorize)
			})
		},
	}
}

// probeDaemon fetches /healthz from a running inkcapd. Wildcard binds are
// probed over loopback since that is where the listener is reachable from
// the local host.
func probeDaemon(ctx context.Context, bind string) (*api.HealthResponse, error) {
	host, port, err := net.SplitHostPort(strings.TrimSpace(bind))
	if err != nil {
		return nil, fmt.Errorf("parse api bind %q: %w", bind, err)
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}

	probeCtx, cancel := context.WithTimeout(ctx, statusProbeTimeout)
	defer cancel()

	url := fmt.Sprintf("http://%s/healthz", net.JoinHostPort(host, port))
	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("health probe returned %s", resp.Status)
	}

	var health api.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("decode health response: %w", err)
	}
	return &health, nil
}

func renderDaemonStatus(out io.Writer, health *api.HealthResponse, bind string, colorize bool) {
	renderSectionHeader(out, "Daemon", colorize)
	daemonKind := statusOK
	if health.Status != "ok" {
		daemonKind = statusWarn
	}
	fmt.Fprintln(out, renderStatusLine("Daemon", daemonKind, fmt.Sprintf("Running at %s (%s)", bind, health.Status), colorize))
	if health.Workflow.Running {
		fmt.Fprintln(out, renderStatusLine("Workflow", statusOK, "Running", colorize))
	} else {
		fmt.Fprintln(out, renderStatusLine("Workflow", statusWarn, "Stopped", colorize))
	}
	if health.Workflow.LastError != "" {
		fmt.Fprintln(out, renderStatusLine("Last error", statusWarn, health.Workflow.LastError, colorize))
	}
	for _, stage := range health.Workflow.StageHealth {
		detail := stage.Detail
		if detail == "" && stage.Ready {
			detail = "Ready"
		}
		fmt.Fprintln(out, renderStatusLine("Stage "+stage.Name, passKind(stage.Ready, true), detail, colorize))
	}
	fmt.Fprintln(out)

	renderSectionHeader(out, "Dependencies", colorize)
	for _, dep := range health.Dependencies {
		fmt.Fprintln(out, renderStatusLine(dep.Name, passKind(dep.Available, dep.Optional), dependencyDetail(dep.Available, dep.Command, dep.Detail), colorize))
	}
	fmt.Fprintln(out)

	renderSectionHeader(out, "Workspace", colorize)
	for _, check := range health.Checks {
		fmt.Fprintln(out, renderStatusLine(check.Name, passKind(check.Passed, false), check.Detail, colorize))
	}
	fmt.Fprintln(out)

	renderQueueSection(out, health.Workflow.QueueStats, colorize)
}

func renderLocalStatus(ctx context.Context, out io.Writer, cfg *config.Config, store *queue.Store, colorize bool) error {
	renderSectionHeader(out, "Daemon", colorize)
	fmt.Fprintln(out, renderStatusLine("Daemon", statusWarn, fmt.Sprintf("Not reachable at %s", cfg.Paths.APIBind), colorize))
	fmt.Fprintln(out)

	renderSectionHeader(out, "Dependencies", colorize)
	binaries := deps.CheckBinaries(deps.Requirements(cfg))
	binaries = append(binaries, deps.CheckBrowser(cfg.BrowserBinary()))
	for _, dep := range binaries {
		fmt.Fprintln(out, renderStatusLine(dep.Name, passKind(dep.Available, dep.Optional), dependencyDetail(dep.Available, dep.Command, dep.Detail), colorize))
	}
	fmt.Fprintln(out)

	renderSectionHeader(out, "Workspace", colorize)
	for _, check := range preflight.RunAll(cfg) {
		fmt.Fprintln(out, renderStatusLine(check.Name, passKind(check.Passed, false), check.Detail, colorize))
	}
	fmt.Fprintln(out)

	stats, err := store.Stats(ctx)
	if err != nil {
		return err
	}
	converted := make(map[string]int, len(stats))
	for status, count := range stats {
		converted[string(status)] = count
	}
	renderQueueSection(out, converted, colorize)
	return nil
}

func renderQueueSection(out io.Writer, stats map[string]int, colorize bool) {
	renderSectionHeader(out, "Queue", colorize)
	rows := queueStatsRows(stats)
	if len(rows) == 0 {
		fmt.Fprintln(out, "Queue is empty")
		return
	}
	fmt.Fprint(out, renderTable([]string{"Status", "Count"}, rows, 1))
}

// queueStatsRows orders counts by lifecycle position so the table reads in
// pipeline order; unknown keys sort alphabetically at the end.
func queueStatsRows(stats map[string]int) [][]string {
	rows := make([][]string, 0, len(stats))
	seen := make(map[string]struct{}, len(stats))
	for _, status := range queue.AllStatuses() {
		key := string(status)
		if count, ok := stats[key]; ok && count > 0 {
			rows = append(rows, []string{key, strconv.Itoa(count)})
			seen[key] = struct{}{}
		}
	}
	extras := make([]string, 0)
	for key, count := range stats {
		if _, ok := seen[key]; ok || count == 0 {
			continue
		}
		extras = append(extras, key)
	}
	sort.Strings(extras)
	for _, key := range extras {
		rows = append(rows, []string{key, strconv.Itoa(stats[key])})
	}
	return rows
}

func dependencyDetail(available bool, command, detail string) string {
	if available {
		if command != "" {
			return fmt.Sprintf("Ready (command: %s)", command)
		}
		return "Ready"
	}
	if strings.TrimSpace(detail) == "" {
		return "not available"
	}
	return detail
}
