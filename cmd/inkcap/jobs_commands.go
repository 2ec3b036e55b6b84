package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"inkcap/internal/language"
	"inkcap/internal/queue"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and manage the render queue",
	}

	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	jobsCmd.AddCommand(newJobsRetryCommand(ctx))
	jobsCmd.AddCommand(newJobsRemoveCommand(ctx))
	jobsCmd.AddCommand(newJobsClearCommand(ctx))
	jobsCmd.AddCommand(newJobsResetCommand(ctx))
	jobsCmd.AddCommand(newJobsStatsCommand(ctx))

	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var filterStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs in the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := make([]queue.Status, 0, len(filterStatuses))
			for _, raw := range filterStatuses {
				status, ok := queue.ParseStatus(raw)
				if !ok {
					return fmt.Errorf("unknown status %q", raw)
				}
				statuses = append(statuses, status)
			}
			return ctx.withStore(func(store *queue.Store) error {
				jobs, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if len(jobs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				rows := make([][]string, 0, len(jobs))
				for _, job := range jobs {
					rows = append(rows, []string{
						strconv.FormatInt(job.ID, 10),
						jobTitle(job),
						string(job.Kind),
						string(job.Status),
						formatJobProgress(job),
						job.UpdatedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Title", "Kind", "Status", "Progress", "Updated"},
					rows,
					0,
				))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&filterStatuses, "status", "s", nil, "Filter by job status (repeatable)")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <jobID>",
		Short: "Show one job in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *queue.Store) error {
				job, err := store.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				if job == nil {
					return fmt.Errorf("job %d not found", id)
				}
				out := cmd.OutOrStdout()
				writeJobField(out, "ID", strconv.FormatInt(job.ID, 10))
				writeJobField(out, "Title", jobTitle(job))
				writeJobField(out, "Kind", string(job.Kind))
				writeJobField(out, "Status", string(job.Status))
				writeJobField(out, "Source", job.SourcePath)
				writeJobField(out, "Language", jobLanguage(job))
				writeJobField(out, "Transcript", job.TranscriptPath)
				writeJobField(out, "Subtitle file", job.SubtitleFile)
				writeJobField(out, "Final file", job.FinalFile)
				writeJobField(out, "Strategy", job.Strategy)
				writeJobField(out, "Container", job.Container)
				writeJobField(out, "Progress", formatJobProgress(job))
				writeJobField(out, "Created", job.CreatedAt.Local().Format(time.RFC3339))
				writeJobField(out, "Updated", job.UpdatedAt.Local().Format(time.RFC3339))
				writeJobField(out, "Error", job.ErrorMessage)
				if job.NeedsReview {
					writeJobField(out, "Review reason", job.ReviewReason)
				}
				return nil
			})
		},
	}
}

func newJobsRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [jobID...]",
		Short: "Requeue failed and review jobs",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseJobIDs(args)
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *queue.Store) error {
				out := cmd.OutOrStdout()
				if len(ids) == 0 {
					updated, err := store.Retry(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Requeued %d jobs\n", updated)
					return nil
				}
				for _, id := range ids {
					job, err := store.GetByID(cmd.Context(), id)
					if err != nil {
						return err
					}
					if job == nil {
						fmt.Fprintf(out, "Job %d not found\n", id)
						continue
					}
					updated, err := store.Retry(cmd.Context(), id)
					if err != nil {
						return err
					}
					if updated > 0 {
						fmt.Fprintf(out, "Job %d requeued\n", id)
					} else {
						fmt.Fprintf(out, "Job %d is not in a retryable state\n", id)
					}
				}
				return nil
			})
		},
	}
}

func newJobsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <jobID>...",
		Short: "Remove jobs from the queue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseJobIDs(args)
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *queue.Store) error {
				out := cmd.OutOrStdout()
				for _, id := range ids {
					removed, err := store.Remove(cmd.Context(), id)
					if err != nil {
						return err
					}
					if removed {
						fmt.Fprintf(out, "Removed job %d\n", id)
					} else {
						fmt.Fprintf(out, "Job %d not found\n", id)
					}
				}
				return nil
			})
		},
	}
}

func newJobsClearCommand(ctx *commandContext) *cobra.Command {
	var clearCompleted bool
	var clearFailed bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove jobs in bulk",
		RunE: func(cmd *cobra.Command, args []string) error {
			if clearCompleted && clearFailed {
				return errors.New("specify only one of --completed or --failed")
			}
			return ctx.withStore(func(store *queue.Store) error {
				out := cmd.OutOrStdout()
				switch {
				case clearCompleted:
					removed, err := store.ClearCompleted(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Cleared %d completed jobs\n", removed)
				case clearFailed:
					removed, err := store.ClearFailed(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Cleared %d failed jobs\n", removed)
				default:
					removed, err := store.Clear(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Cleared %d jobs\n", removed)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearCompleted, "completed", false, "Remove only completed jobs")
	cmd.Flags().BoolVar(&clearFailed, "failed", false, "Remove only failed jobs")
	return cmd
}

func newJobsResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-stuck",
		Short: "Return in-flight jobs to the start of their stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				updated, err := store.ResetStuckProcessing(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d jobs\n", updated)
				return nil
			})
		},
	}
}

func newJobsStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show queue counts by lifecycle state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				health, err := store.Health(cmd.Context())
				if err != nil {
					return err
				}
				rows := [][]string{
					{"Pending", strconv.Itoa(health.Pending)},
					{"Processing", strconv.Itoa(health.Processing)},
					{"Review", strconv.Itoa(health.Review)},
					{"Failed", strconv.Itoa(health.Failed)},
					{"Completed", strconv.Itoa(health.Completed)},
					{"Total", strconv.Itoa(health.Total)},
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"State", "Count"}, rows, 1))
				return nil
			})
		},
	}
}

func parseJobID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid job id %q", raw)
	}
	return id, nil
}

func parseJobIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := parseJobID(arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func jobTitle(job *queue.Job) string {
	if title := strings.TrimSpace(job.Title); title != "" {
		return title
	}
	return filepath.Base(job.SourcePath)
}

// jobLanguage renders "English (en)" style labels; jobs without a language
// stay blank so writeJobField skips the line.
func jobLanguage(job *queue.Job) string {
	code := strings.TrimSpace(job.Language)
	if code == "" {
		return ""
	}
	return fmt.Sprintf("%s (%s)", language.DisplayName(code), code)
}

func formatJobProgress(job *queue.Job) string {
	stage := strings.TrimSpace(job.ProgressStage)
	if stage == "" {
		return ""
	}
	if job.ProgressPercent > 0 {
		return fmt.Sprintf("%s (%.0f%%)", stage, job.ProgressPercent)
	}
	return stage
}

func writeJobField(w io.Writer, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	fmt.Fprintf(w, "%-14s %s\n", label+":", value)
}
