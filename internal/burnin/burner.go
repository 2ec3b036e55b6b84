package burnin

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

	"inkcap/internal/captions"
	"inkcap/internal/config"
	"inkcap/internal/encoding"
	"inkcap/internal/fileutil"
	"inkcap/internal/logging"
	"inkcap/internal/queue"
	"inkcap/internal/services"
	"inkcap/internal/stage"
	"inkcap/internal/subtitles"
	"inkcap/internal/transcript"
)

// Burner executes the render stage. It turns the job's transcript and style
// into display entries, exports a sidecar SRT next to the final artifact, and
// produces the output video through the strategy pipeline or the soft-mux
// path depending on the job kind.
type Burner struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	pipeline *Pipeline
}

// NewBurner constructs the render stage handler.
func NewBurner(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Burner {
	return NewBurnerWithDependencies(cfg, store, logger, NewPipeline(cfg, logger))
}

// NewBurnerWithDependencies constructs the handler with an injected pipeline
// for tests.
func NewBurnerWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, pipeline *Pipeline) *Burner {
	b := &Burner{
		store:    store,
		cfg:      cfg,
		pipeline: pipeline,
	}
	b.SetLogger(logger)
	return b
}

// SetLogger updates the burner's logging destination.
func (b *Burner) SetLogger(logger *slog.Logger) {
	b.logger = logging.NewComponentLogger(logger, "burner")
	if b.pipeline != nil {
		b.pipeline.SetLogger(logger)
	}
}

func (b *Burner) Prepare(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, b.logger)
	job.InitProgress("Rendering", "Starting render")
	logger.Debug("starting render preparation")
	return nil
}

func (b *Burner) Execute(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, b.logger)
	stageStart := time.Now()

	source := strings.TrimSpace(job.SourcePath)
	if source == "" {
		return services.Wrap(
			services.ErrValidation,
			"render",
			"validate inputs",
			"Job has no source media path",
			nil,
		)
	}
	if _, err := os.Stat(source); err != nil {
		return services.Wrap(
			services.ErrInput,
			"render",
			"validate inputs",
			"Source media is missing or unreadable",
			err,
		)
	}

	style, err := stage.StyleFromJob(job)
	if err != nil {
		return err
	}
	tr, err := stage.TranscriptFromJob(job)
	if err != nil {
		return err
	}
	entries := b.buildEntries(tr, style)

	workRoot := filepath.Join(job.WorkspaceRoot(b.cfg.Paths.StagingDir), "render")
	if err := os.MkdirAll(workRoot, 0o755); err != nil {
		return services.Wrap(
			services.ErrConfiguration,
			"render",
			"prepare workspace",
			"Could not create the render workspace",
			err,
		)
	}

	stem := sourceStem(source)
	sidecar := filepath.Join(b.cfg.Paths.OutputDir, fileutil.UniqueName(stem+".srt"))
	if err := subtitles.WriteSRTFile(sidecar, entries); err != nil {
		return services.Wrap(
			services.ErrTransient,
			"render",
			"write sidecar subtitle",
			"Could not write the subtitle sidecar",
			err,
		)
	}
	job.SubtitleFile = sidecar

	job.SetProgress("Rendering", fmt.Sprintf("Rendering %d caption entries", len(entries)), 25)
	b.persistProgress(ctx, job, logger)

	var result Result
	switch job.Kind {
	case queue.KindMux:
		outputPath := filepath.Join(b.cfg.Paths.OutputDir, fileutil.UniqueName("softsubs_"+stem+".mkv"))
		result, err = b.pipeline.Mux(ctx, source, sidecar, tr.Language, outputPath)
		if err != nil {
			if errors.Is(err, encoding.ErrUnsupportedContainer) {
				return services.Wrap(
					services.ErrValidation,
					"render",
					"mux subtitles",
					"Output container cannot hold a soft subtitle track",
					err,
				)
			}
			return services.Wrap(
				services.ErrExternalTool,
				"render",
				"mux subtitles",
				"ffmpeg could not mux the subtitle track",
				err,
			)
		}
	default:
		outputPath := filepath.Join(b.cfg.Paths.OutputDir, fileutil.UniqueName("subtitled_"+stem+"."+outputContainer(job, source)))
		result, err = b.pipeline.Render(ctx, Request{
			SourcePath: source,
			Entries:    entries,
			Style:      style,
			OutputPath: outputPath,
			WorkRoot:   workRoot,
		})
		if err != nil {
			return services.Wrap(
				services.ErrExternalTool,
				"render",
				"render captions",
				"Every render strategy failed; check the ffmpeg and browser installs",
				err,
			)
		}
	}

	for _, issue := range subtitles.ValidateSRT(sidecar, result.VideoSeconds) {
		logger.Warn("subtitle validation issue",
			logging.String("issue", issue),
			logging.String("subtitle", sidecar),
			logging.String(logging.FieldEventType, "subtitle_validation"),
		)
	}

	job.FinalFile = result.OutputPath
	job.Strategy = string(result.Strategy)
	job.SetProgressComplete("Rendered", fmt.Sprintf("Rendered with %s", result.Strategy))
	b.persistProgress(ctx, job, logger)

	logger.Info("render stage complete",
		logging.Int("entries", len(entries)),
		logging.String("strategy", string(result.Strategy)),
		logging.String("final_file", result.OutputPath),
		logging.String("subtitle_file", sidecar),
		logging.Duration("stage_duration", time.Since(stageStart)),
	)
	return nil
}

// HealthCheck verifies the binaries and directories the render stage depends
// on.
func (b *Burner) HealthCheck(ctx context.Context) stage.Health {
	const name = "render"
	if b.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(b.cfg.Paths.OutputDir) == "" {
		return stage.Unhealthy(name, "output directory not configured")
	}
	for _, bin := range []string{b.cfg.FFmpegBinary(), b.cfg.FFprobeBinary()} {
		if _, err := exec.LookPath(bin); err != nil {
			return stage.Unhealthy(name, fmt.Sprintf("%s not found in PATH", bin))
		}
	}
	if browser := b.cfg.BrowserBinary(); browser != "" {
		if _, err := os.Stat(browser); err != nil {
			return stage.Unhealthy(name, fmt.Sprintf("browser binary %q not accessible", browser))
		}
	}
	return stage.Healthy(name)
}

func (b *Burner) buildEntries(tr *transcript.Transcript, style captions.Style) []captions.Entry {
	builder := captions.NewBuilder(
		captions.WithBreakPunctuation(b.cfg.Captions.PhraseBreakPunctuation),
	)
	return builder.Build(tr.Segments, style)
}

func (b *Burner) persistProgress(ctx context.Context, job *queue.Job, logger *slog.Logger) {
	if b.store == nil {
		return
	}
	if err := b.store.UpdateProgress(ctx, job); err != nil {
		logger.Warn("progress update failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "progress_update_failed"),
		)
	}
}

func sourceStem(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		return "output"
	}
	return stem
}

// outputContainer picks the burn output container: the job's explicit choice
// when present, otherwise the source extension.
func outputContainer(job *queue.Job, source string) string {
	if c := strings.ToLower(strings.TrimSpace(job.Container)); c != "" {
		return strings.TrimPrefix(c, ".")
	}
	if ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(source), ".")); ext != "" {
		return ext
	}
	return "mp4"
}
