package api

import (
	"encoding/json"

	"inkcap/internal/transcript"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// ErrorResponse is the uniform error payload for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// UploadResponse acknowledges a stored upload.
type UploadResponse struct {
	FileName string `json:"fileName"`
	Size     int64  `json:"size"`
}

// TranscribeRequest asks for synchronous transcription of an uploaded file.
type TranscribeRequest struct {
	FileName string `json:"fileName"`
	Language string `json:"language,omitempty"`
}

// TranscribeResponse carries the finished transcript back to the caller.
// Segments reuse the engine's JSON shape so they can be posted straight back
// into render and export requests.
type TranscribeResponse struct {
	Language       string               `json:"language,omitempty"`
	TranscriptFile string               `json:"transcriptFile"`
	Segments       []transcript.Segment `json:"segments"`
}

// ExportRequest asks for a subtitle file built from transcript segments.
// Width and height only matter for formats that embed play resolution.
type ExportRequest struct {
	Segments []transcript.Segment `json:"segments"`
	Style    json.RawMessage      `json:"style,omitempty"`
	Width    int                  `json:"width,omitempty"`
	Height   int                  `json:"height,omitempty"`
}

// ExportResponse points at a finished subtitle file.
type ExportResponse struct {
	FileName    string `json:"fileName"`
	DownloadURL string `json:"downloadUrl"`
	Entries     int    `json:"entries"`
}

// RenderRequest enqueues a render job for an uploaded file. Segments, a
// transcript file name, or neither may be supplied; with neither the job
// starts at the transcription stage. Container picks the output format and
// defaults to the source container for burns and mkv for muxes.
type RenderRequest struct {
	FileName       string               `json:"fileName"`
	Title          string               `json:"title,omitempty"`
	Language       string               `json:"language,omitempty"`
	Container      string               `json:"container,omitempty"`
	TranscriptFile string               `json:"transcriptFile,omitempty"`
	Segments       []transcript.Segment `json:"segments,omitempty"`
	Style          json.RawMessage      `json:"style,omitempty"`
}

// Job describes a queue entry in a transport-friendly format.
type Job struct {
	ID             int64       `json:"id"`
	SourcePath     string      `json:"sourcePath"`
	Title          string      `json:"title"`
	Kind           string      `json:"kind"`
	Status         string      `json:"status"`
	Language       string      `json:"language,omitempty"`
	TranscriptPath string      `json:"transcriptPath,omitempty"`
	Container      string      `json:"container,omitempty"`
	SubtitleFile   string      `json:"subtitleFile,omitempty"`
	FinalFile      string      `json:"finalFile,omitempty"`
	Strategy       string      `json:"strategy,omitempty"`
	Progress       JobProgress `json:"progress"`
	ErrorMessage   string      `json:"errorMessage,omitempty"`
	NeedsReview    bool        `json:"needsReview"`
	ReviewReason   string      `json:"reviewReason,omitempty"`
	CreatedAt      string      `json:"createdAt,omitempty"`
	UpdatedAt      string      `json:"updatedAt,omitempty"`
}

// JobProgress captures stage progress information for a queue entry.
type JobProgress struct {
	Stage   string  `json:"stage"`
	Percent float64 `json:"percent"`
	Message string  `json:"message"`
}

// JobList wraps a slice of jobs for list endpoints.
type JobList struct {
	Jobs []Job `json:"jobs"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running     bool           `json:"running"`
	QueueStats  map[string]int `json:"queueStats"`
	LastError   string         `json:"lastError,omitempty"`
	LastJob     *Job           `json:"lastJob,omitempty"`
	StageHealth []StageHealth  `json:"stageHealth"`
}

// StageHealth mirrors readiness reporting for workflow stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// PreflightCheck reports a single workspace readiness check.
type PreflightCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// HealthResponse aggregates daemon health for API consumers.
type HealthResponse struct {
	Status       string             `json:"status"`
	Workflow     WorkflowStatus     `json:"workflow"`
	Dependencies []DependencyStatus `json:"dependencies"`
	Checks       []PreflightCheck   `json:"checks,omitempty"`
}
