package api

import (
	"slices"
	"time"

	"inkcap/internal/deps"
	"inkcap/internal/preflight"
	"inkcap/internal/queue"
	"inkcap/internal/stage"
	"inkcap/internal/workflow"
)

// FromJob converts a queue record to its API representation.
func FromJob(job *queue.Job) Job {
	if job == nil {
		return Job{}
	}

	dto := Job{
		ID:             job.ID,
		SourcePath:     job.SourcePath,
		Title:          job.Title,
		Kind:           string(job.Kind),
		Status:         string(job.Status),
		Language:       job.Language,
		TranscriptPath: job.TranscriptPath,
		Container:      job.Container,
		SubtitleFile:   job.SubtitleFile,
		FinalFile:      job.FinalFile,
		Strategy:       job.Strategy,
		Progress: JobProgress{
			Stage:   job.ProgressStage,
			Percent: job.ProgressPercent,
			Message: job.ProgressMessage,
		},
		ErrorMessage: job.ErrorMessage,
		NeedsReview:  job.NeedsReview,
		ReviewReason: job.ReviewReason,
	}
	if !job.CreatedAt.IsZero() {
		dto.CreatedAt = job.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !job.UpdatedAt.IsZero() {
		dto.UpdatedAt = job.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromJobs converts a slice of queue records into API DTOs.
func FromJobs(jobs []*queue.Job) []Job {
	if len(jobs) == 0 {
		return nil
	}
	out := make([]Job, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, FromJob(job))
	}
	return out
}

// FromStatusSummary converts a workflow status summary to API payload.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	stats := make(map[string]int, len(summary.QueueStats))
	for status, count := range summary.QueueStats {
		stats[string(status)] = count
	}

	wf := WorkflowStatus{
		Running:     summary.Running,
		QueueStats:  stats,
		StageHealth: StageHealthSlice(summary.StageHealth),
	}
	if summary.LastError != "" {
		wf.LastError = summary.LastError
	}
	if summary.LastJob != nil {
		last := FromJob(summary.LastJob)
		wf.LastJob = &last
	}
	return wf
}

// StageHealthSlice converts a stage health map into a deterministic slice.
func StageHealthSlice(health map[string]stage.Health) []StageHealth {
	if len(health) == 0 {
		return nil
	}
	names := make([]string, 0, len(health))
	for name := range health {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]StageHealth, 0, len(names))
	for _, name := range names {
		h := health[name]
		out = append(out, StageHealth{Name: name, Ready: h.Ready, Detail: h.Detail})
	}
	return out
}

// FromDependencies converts dependency probe results into API DTOs.
func FromDependencies(statuses []deps.Status) []DependencyStatus {
	if len(statuses) == 0 {
		return nil
	}
	out := make([]DependencyStatus, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, DependencyStatus{
			Name:        s.Name,
			Command:     s.Command,
			Description: s.Description,
			Optional:    s.Optional,
			Available:   s.Available,
			Detail:      s.Detail,
		})
	}
	return out
}

// FromPreflight converts workspace readiness checks into API DTOs.
func FromPreflight(results []preflight.Result) []PreflightCheck {
	if len(results) == 0 {
		return nil
	}
	out := make([]PreflightCheck, 0, len(results))
	for _, r := range results {
		out = append(out, PreflightCheck{Name: r.Name, Passed: r.Passed, Detail: r.Detail})
	}
	return out
}

// FormatTime converts a time to RFC3339 or returns empty string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
