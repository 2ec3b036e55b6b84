package transcribe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	"inkcap/internal/config"
	"inkcap/internal/language"
	"inkcap/internal/logging"
	"inkcap/internal/queue"
	"inkcap/internal/services"
	"inkcap/internal/stage"
	"inkcap/internal/transcript"
)

type commandRunner func(ctx context.Context, name string, args ...string) error

// Transcriber runs the speech-to-text engine against a job's source media and
// stores the resulting transcript next to the job's other working files.
type Transcriber struct {
	store  *queue.Store
	cfg    *config.Config
	logger *slog.Logger
	run    commandRunner
}

// NewTranscriber constructs the transcription handler.
func NewTranscriber(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Transcriber {
	t := &Transcriber{
		store: store,
		cfg:   cfg,
		run:   defaultCommandRunner,
	}
	t.SetLogger(logger)
	return t
}

// SetLogger updates the transcriber's logging destination.
func (t *Transcriber) SetLogger(logger *slog.Logger) {
	t.logger = logging.NewComponentLogger(logger, "transcriber")
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (t *Transcriber) WithCommandRunner(r commandRunner) {
	if t != nil && r != nil {
		t.run = r
	}
}

func (t *Transcriber) Prepare(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, t.logger)
	job.InitProgress("Transcribing", "Starting transcription")
	logger.Debug("starting transcription preparation")
	return nil
}

func (t *Transcriber) Execute(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, t.logger)
	stageStart := time.Now()

	source := strings.TrimSpace(job.SourcePath)
	if source == "" {
		return services.Wrap(
			services.ErrValidation,
			"transcribe",
			"validate inputs",
			"Job has no source media path",
			nil,
		)
	}
	if _, err := os.Stat(source); err != nil {
		return services.Wrap(
			services.ErrInput,
			"transcribe",
			"locate source",
			"Source media file is missing or unreadable",
			err,
		)
	}

	workDir := filepath.Join(job.WorkspaceRoot(t.cfg.Paths.StagingDir), "transcribe")
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return services.Wrap(
			services.ErrConfiguration,
			"transcribe",
			"ensure work dir",
			"Failed to create transcription directory; set staging_dir to a writable path",
			err,
		)
	}

	tr, jsonPath, err := t.Run(ctx, source, workDir, jobLanguage(job, t.cfg))
	if err != nil {
		return err
	}

	if len(tr.Segments) == 0 {
		logger.Warn("transcription produced no segments",
			logging.String("input", source),
			logging.String(logging.FieldEventType, "transcript_empty"),
		)
	}
	if job.Language == "" && tr.Language != "" {
		job.Language = tr.Language
	}

	job.TranscriptPath = jsonPath
	job.SetProgressComplete("Transcribed", fmt.Sprintf("Transcribed %d segments", len(tr.Segments)))
	if err := t.store.UpdateProgress(ctx, job); err != nil {
		logger.Warn("failed to persist transcription progress", logging.Error(err))
	}

	logger.Info("transcription stage summary",
		logging.String("transcript_path", jsonPath),
		logging.Int("segments", len(tr.Segments)),
		logging.Int("words", tr.WordCount()),
		logging.String("language", job.Language),
		logging.Duration("stage_duration", time.Since(stageStart)),
	)
	return nil
}

// Run invokes the speech-to-text engine on a single media file and loads the
// resulting transcript. The transcript JSON is written into outputDir under
// the engine's <basename>.json convention; the returned path points at it.
// lang is an optional ISO 639-1 hint, empty means auto-detect.
func (t *Transcriber) Run(ctx context.Context, source, outputDir, lang string) (*transcript.Transcript, string, error) {
	logger := logging.WithContext(ctx, t.logger)

	binary := t.cfg.TranscribeBinary()
	args := buildArgs(source, outputDir, t.cfg.Transcribe.Model, lang)
	logger.Info("launching transcription",
		logging.String("command", binary+" "+strings.Join(args, " ")),
		logging.String("input", source),
		logging.String("model", t.cfg.Transcribe.Model),
	)

	timeout := time.Duration(t.cfg.Transcribe.TimeoutSeconds) * time.Second
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := t.run(runCtx, binary, args...); err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, "", services.Wrap(
				services.ErrTimeout,
				"transcribe",
				"run engine",
				fmt.Sprintf("Transcription exceeded the %s timeout; raise transcribe.timeout_seconds for long media", timeout),
				err,
			)
		}
		return nil, "", services.Wrap(
			services.ErrExternalTool,
			"transcribe",
			"run engine",
			"Transcription engine failed; check the binary path and model name in config",
			err,
		)
	}

	jsonPath := outputJSONPath(outputDir, source)
	tr, err := transcript.LoadFile(jsonPath)
	if err != nil {
		return nil, "", services.Wrap(
			services.ErrExternalTool,
			"transcribe",
			"read output",
			fmt.Sprintf("Transcription engine did not produce a readable %s", filepath.Base(jsonPath)),
			err,
		)
	}
	return tr, jsonPath, nil
}

// HealthCheck verifies the transcription engine is reachable.
func (t *Transcriber) HealthCheck(ctx context.Context) stage.Health {
	const name = "transcriber"
	if t.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(t.cfg.Paths.StagingDir) == "" {
		return stage.Unhealthy(name, "staging directory not configured")
	}
	binary := strings.TrimSpace(t.cfg.TranscribeBinary())
	if binary == "" {
		return stage.Unhealthy(name, "transcribe binary not configured")
	}
	if _, err := exec.LookPath(binary); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("transcribe binary %q not found", binary))
	}
	return stage.Healthy(name)
}

// jobLanguage picks the language hint for the engine: the job's own language
// wins over the configured default. Empty means auto-detect.
func jobLanguage(job *queue.Job, cfg *config.Config) string {
	if lang := language.ToISO2(job.Language); lang != "" {
		return lang
	}
	return language.ToISO2(cfg.Transcribe.Language)
}

func buildArgs(source, outputDir, model, lang string) []string {
	args := []string{
		source,
		"--model", model,
		"--output_dir", outputDir,
		"--output_format", "json",
		"--word_timestamps", "True",
	}
	if lang != "" {
		args = append(args, "--language", lang)
	}
	return args
}

// outputJSONPath mirrors the engine's convention of writing <basename>.json
// into the output directory.
func outputJSONPath(outputDir, source string) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if base == "" {
		base = "transcript"
	}
	return filepath.Join(outputDir, base+".json")
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
