package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a queue job.
type Status string

const (
	StatusPending      Status = "pending"
	StatusTranscribing Status = "transcribing"
	StatusTranscribed  Status = "transcribed"
	StatusRendering    Status = "rendering"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
	StatusReview       Status = "review"
)

// Kind selects what the render stage produces for a job.
type Kind string

const (
	// KindBurn produces a video with captions composited into the picture.
	KindBurn Kind = "burn"
	// KindMux produces a container with a soft subtitle track.
	KindMux Kind = "mux"
)

// DaemonStopReason is the error message set when jobs are failed due to daemon shutdown.
const DaemonStopReason = "Daemon stopped"

var allStatuses = []Status{
	StatusPending,
	StatusTranscribing,
	StatusTranscribed,
	StatusRendering,
	StatusCompleted,
	StatusFailed,
	StatusReview,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusTranscribing: {},
	StatusRendering:    {},
}

type statusTransition struct {
	from Status
	to   Status
}

// stageRollbackTransitions return interrupted jobs to the last stable status
// so the stage can run again from scratch.
var stageRollbackTransitions = []statusTransition{
	{from: StatusTranscribing, to: StatusPending},
	{from: StatusRendering, to: StatusTranscribed},
}

func processingRollbackTransitions() []statusTransition {
	return stageRollbackTransitions
}

// DatabaseHealth captures diagnostic information about the queue database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    string
	TableExists      bool
	ColumnsPresent   []string
	MissingColumns   []string
	IntegrityCheck   bool
	TotalJobs        int
	Error            string
}

// HealthSummary describes aggregated queue counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Failed     int
	Review     int
	Completed  int
}

// Job represents a caption render job persisted in SQLite.
type Job struct {
	ID              int64
	SourcePath      string
	Title           string
	Kind            Kind
	Status          Status
	Language        string
	TranscriptPath  string
	StyleJSON       string
	Container       string
	SubtitleFile    string
	FinalFile       string
	Strategy        string
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string
	LastHeartbeat   *time.Time
	NeedsReview     bool
	ReviewReason    string
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// ParseKind converts a string into a known Kind, defaulting to burn.
func ParseKind(value string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case KindBurn, "":
		return KindBurn, true
	case KindMux:
		return KindMux, true
	default:
		return KindBurn, false
	}
}

// IsProcessing returns true when the status reflects an in-flight operation.
func (j Job) IsProcessing() bool {
	_, ok := processingStatuses[j.Status]
	return ok
}

// IsProcessingStatus reports whether a status reflects an in-flight operation.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// IsTerminal reports whether a status is an end state for the workflow.
func IsTerminalStatus(status Status) bool {
	switch status {
	case StatusCompleted, StatusFailed, StatusReview:
		return true
	default:
		return false
	}
}

// HasTranscript reports whether the job already carries transcript data, which
// lets the workflow skip the transcription stage.
func (j Job) HasTranscript() bool {
	return strings.TrimSpace(j.TranscriptPath) != ""
}

// InitProgress resets progress fields for a new stage.
// If ProgressStage is currently empty, it is set to the provided stage value;
// otherwise the existing stage is preserved (to support resume scenarios).
// ProgressMessage is set to message, ProgressPercent is reset to 0, and
// ErrorMessage is cleared.
func (j *Job) InitProgress(stage, message string) {
	if j.ProgressStage == "" {
		j.ProgressStage = stage
	}
	j.ProgressMessage = message
	j.ProgressPercent = 0
	j.ErrorMessage = ""
}

// SetProgress updates all three progress fields atomically.
// Use this instead of setting ProgressStage, ProgressPercent, and ProgressMessage individually.
func (j *Job) SetProgress(stage, message string, percent float64) {
	j.ProgressStage = stage
	j.ProgressMessage = message
	j.ProgressPercent = percent
}

// SetProgressComplete sets progress to 100% with the given stage and message.
// Convenience method for stage completion.
func (j *Job) SetProgressComplete(stage, message string) {
	j.SetProgress(stage, message, 100)
}

// SetFailed marks the job as failed with the given error message.
// Clears heartbeat and sets progress fields appropriately.
func (j *Job) SetFailed(message string) {
	j.Status = StatusFailed
	j.ErrorMessage = message
	j.ProgressPercent = 0
	j.ProgressMessage = message
	j.LastHeartbeat = nil
	j.ProgressStage = "Failed"
}

// SetReview parks the job for operator attention. Review jobs keep their
// inputs intact so they can be resubmitted once the underlying problem is
// corrected.
func (j *Job) SetReview(reason string) {
	j.Status = StatusReview
	j.NeedsReview = true
	j.ReviewReason = reason
	j.ErrorMessage = reason
	j.ProgressPercent = 0
	j.ProgressMessage = reason
	j.LastHeartbeat = nil
	j.ProgressStage = "Needs review"
}

// StageKey returns the normalized stage identifier used in API/CLI presentation.
func (s Status) StageKey() string {
	switch s {
	case "":
		return ""
	case StatusPending:
		return "queued"
	case StatusCompleted:
		return "done"
	default:
		return string(s)
	}
}
