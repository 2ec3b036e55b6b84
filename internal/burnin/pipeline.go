package burnin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	"inkcap/internal/captions"
	"inkcap/internal/config"
	"inkcap/internal/encoding"
	"inkcap/internal/fileutil"
	"inkcap/internal/logging"
	"inkcap/internal/media/ffprobe"
	"inkcap/internal/render"
	"inkcap/internal/subtitles"
)

// Strategy identifies which rendering approach produced the final output.
type Strategy string

const (
	// StrategyImageOverlay composites browser-rendered caption images over
	// the video. Highest fidelity: exact fonts, backgrounds, shadows.
	StrategyImageOverlay Strategy = "image_overlay"
	// StrategyMarkupBurn hardcodes a styled ASS file into the video stream.
	StrategyMarkupBurn Strategy = "markup_burn"
	// StrategyLegacyBurn hardcodes the plain SRT with a minimal style
	// override. Terminal fallback; always attempted last.
	StrategyLegacyBurn Strategy = "legacy_burn"
	// StrategySoftMux attaches the subtitle as a selectable track without
	// re-encoding.
	StrategySoftMux Strategy = "soft_mux"
)

// captionRenderer is the image renderer surface the overlay strategy needs.
// render.Renderer satisfies it.
type captionRenderer interface {
	RenderEntries(ctx context.Context, entries []captions.Entry, style captions.Style, width, height int, outDir string) ([]string, error)
}

// probeFunc matches ffprobe.Inspect so tests can supply canned media facts.
type probeFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Request describes one render invocation.
type Request struct {
	SourcePath string
	Entries    []captions.Entry
	Style      captions.Style
	// OutputPath is the final artifact destination. Strategies write there
	// only through the encoder's rename-into-place discipline, so a failed
	// attempt never leaves a partial file.
	OutputPath string
	// WorkRoot is where per-attempt scratch directories are created. Each
	// attempt gets a unique subdirectory removed on every exit path.
	WorkRoot string
}

// Result reports the artifact and the strategy that produced it.
type Result struct {
	OutputPath string
	Strategy   Strategy
	// VideoSeconds is the probed source duration, zero when probing failed.
	VideoSeconds float64
}

// Pipeline renders captions into video by trying strategies in fidelity
// order: image overlay, markup burn, then the plain timed-text burn. A
// strategy failure is contained and the next one runs; only exhausting the
// chain fails the request.
type Pipeline struct {
	cfg      *config.Config
	ffmpeg   *encoding.FFmpeg
	renderer captionRenderer
	probe    probeFunc
	logger   *slog.Logger
}

// NewPipeline constructs the render pipeline with the real browser renderer
// and ffmpeg client.
func NewPipeline(cfg *config.Config, logger *slog.Logger) *Pipeline {
	return NewPipelineWithDependencies(cfg, logger, render.New(cfg, logger), encoding.NewFFmpeg(cfg, logger))
}

// NewPipelineWithDependencies constructs the pipeline with injected
// collaborators for tests.
func NewPipelineWithDependencies(cfg *config.Config, logger *slog.Logger, renderer captionRenderer, ffmpeg *encoding.FFmpeg) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		ffmpeg:   ffmpeg,
		renderer: renderer,
		probe:    ffprobe.Inspect,
		logger:   logging.NewComponentLogger(logger, "burnin"),
	}
}

// SetLogger updates the pipeline's logging destination.
func (p *Pipeline) SetLogger(logger *slog.Logger) {
	if p == nil {
		return
	}
	p.logger = logging.NewComponentLogger(logger, "burnin")
	p.ffmpeg.SetLogger(logger)
}

// WithProbe allows injecting a custom media prober for tests.
func (p *Pipeline) WithProbe(fn probeFunc) {
	if p != nil && fn != nil {
		p.probe = fn
	}
}

type attempt struct {
	strategy Strategy
	run      func(ctx context.Context, workDir string) error
}

// Render drives the fallback chain and returns the first strategy that
// produces an output file.
func (p *Pipeline) Render(ctx context.Context, req Request) (Result, error) {
	logger := logging.WithContext(ctx, p.logger)

	if _, err := os.Stat(req.SourcePath); err != nil {
		return Result{}, fmt.Errorf("source media: %w", err)
	}

	width, height, duration := p.probeSource(ctx, req.SourcePath, logger)
	hasText := hasRenderableText(req.Entries)

	var attempts []attempt
	if hasText && width > 0 && height > 0 {
		attempts = append(attempts,
			attempt{StrategyImageOverlay, func(ctx context.Context, workDir string) error {
				return p.imageOverlay(ctx, req, workDir, width, height, duration)
			}},
			attempt{StrategyMarkupBurn, func(ctx context.Context, workDir string) error {
				return p.markupBurn(ctx, req, workDir, width, height)
			}},
		)
	} else if hasText {
		logger.Warn("source resolution unknown, styled strategies skipped",
			logging.String("source", req.SourcePath),
			logging.String(logging.FieldEventType, "render_strategies_skipped"),
		)
	}
	attempts = append(attempts, attempt{StrategyLegacyBurn, func(ctx context.Context, workDir string) error {
		return p.legacyBurn(ctx, req, workDir)
	}})

	var failures []error
	for _, a := range attempts {
		err := p.attemptStrategy(ctx, a, req)
		if err == nil {
			logger.Info("render strategy succeeded",
				logging.String("strategy", string(a.strategy)),
				logging.String("output", req.OutputPath),
			)
			return Result{OutputPath: req.OutputPath, Strategy: a.strategy, VideoSeconds: duration}, nil
		}
		failures = append(failures, fmt.Errorf("%s: %w", a.strategy, err))
		logger.Warn("render strategy failed, falling back",
			logging.String("strategy", string(a.strategy)),
			logging.Error(err),
			logging.String(logging.FieldEventType, "render_strategy_failed"),
		)
	}
	return Result{}, fmt.Errorf("all render strategies failed: %w", errors.Join(failures...))
}

// Mux attaches an existing subtitle file to the source container without
// re-encoding. lang tags the new track; unresolved values fall back to und.
func (p *Pipeline) Mux(ctx context.Context, sourcePath, subtitlePath, lang, outputPath string) (Result, error) {
	if _, err := os.Stat(sourcePath); err != nil {
		return Result{}, fmt.Errorf("source media: %w", err)
	}
	encCtx, cancel := p.encodeCtx(ctx)
	defer cancel()
	if err := p.ffmpeg.MuxSubtitles(encCtx, sourcePath, subtitlePath, lang, outputPath); err != nil {
		return Result{}, err
	}
	return Result{OutputPath: outputPath, Strategy: StrategySoftMux}, nil
}

// attemptStrategy gives the attempt a unique scratch directory and removes it
// on every exit path, including panics unwinding through the strategy.
func (p *Pipeline) attemptStrategy(ctx context.Context, a attempt, req Request) error {
	workDir := filepath.Join(req.WorkRoot, string(a.strategy)+"-"+fileutil.ShortID())
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)
	return a.run(ctx, workDir)
}

func (p *Pipeline) imageOverlay(ctx context.Context, req Request, workDir string, width, height int, duration float64) error {
	images, err := p.renderer.RenderEntries(ctx, req.Entries, req.Style, width, height, workDir)
	if err != nil {
		return fmt.Errorf("render caption images: %w", err)
	}

	blank := filepath.Join(workDir, "blank.png")
	if err := render.WriteBlankPNG(blank, width, height); err != nil {
		return err
	}
	segments, err := buildTimeline(req.Entries, images, duration, p.gapThreshold(), blank)
	if err != nil {
		return err
	}
	listPath := filepath.Join(workDir, "timeline.txt")
	if err := writeConcatList(listPath, segments); err != nil {
		return err
	}

	track := filepath.Join(workDir, "captions.mov")
	if err := p.runEncode(ctx, func(ctx context.Context) error {
		return p.ffmpeg.CompositeImageSequence(ctx, listPath, track)
	}); err != nil {
		return err
	}
	return p.runEncode(ctx, func(ctx context.Context) error {
		return p.ffmpeg.OverlayTrack(ctx, req.SourcePath, track, req.OutputPath)
	})
}

func (p *Pipeline) markupBurn(ctx context.Context, req Request, workDir string, width, height int) error {
	assPath := filepath.Join(workDir, "captions.ass")
	if err := subtitles.WriteASSFile(assPath, req.Entries, req.Style, width, height); err != nil {
		return err
	}
	return p.runEncode(ctx, func(ctx context.Context) error {
		return p.ffmpeg.BurnSubtitles(ctx, req.SourcePath, assPath, "", req.OutputPath)
	})
}

func (p *Pipeline) legacyBurn(ctx context.Context, req Request, workDir string) error {
	srtPath := filepath.Join(workDir, "captions.srt")
	if err := subtitles.WriteSRTFile(srtPath, req.Entries); err != nil {
		return err
	}
	return p.runEncode(ctx, func(ctx context.Context) error {
		return p.ffmpeg.BurnSubtitles(ctx, req.SourcePath, srtPath, legacyForceStyle(req.Style), req.OutputPath)
	})
}

// probeSource resolves the frame size and duration the styled strategies
// need. Probe failures degrade the request to the legacy strategy instead of
// failing it.
func (p *Pipeline) probeSource(ctx context.Context, path string, logger *slog.Logger) (width, height int, duration float64) {
	probeCtx := ctx
	if timeout := time.Duration(p.cfg.Render.ProbeTimeout) * time.Second; timeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	result, err := p.probe(probeCtx, p.cfg.FFprobeBinary(), path)
	if err != nil {
		logger.Warn("media probe failed",
			logging.String("source", path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "probe_failed"),
		)
		return 0, 0, 0
	}
	w, h, ok := result.VideoDimensions()
	if !ok {
		return 0, 0, result.DurationSeconds()
	}
	return w, h, result.DurationSeconds()
}

func (p *Pipeline) runEncode(ctx context.Context, fn func(context.Context) error) error {
	encCtx, cancel := p.encodeCtx(ctx)
	defer cancel()
	return fn(encCtx)
}

func (p *Pipeline) encodeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := time.Duration(p.cfg.Render.EncodeTimeout) * time.Second
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func (p *Pipeline) gapThreshold() float64 {
	return float64(p.cfg.Render.GapFillThresholdMs) / 1000
}

func hasRenderableText(entries []captions.Entry) bool {
	for _, entry := range entries {
		if strings.TrimSpace(entry.Text) != "" {
			return true
		}
	}
	return false
}

// legacyForceStyle builds the minimal inline override for the plain-text burn
// so the fallback still honors the requested font.
func legacyForceStyle(style captions.Style) string {
	parts := []string{
		fmt.Sprintf("FontName=%s", style.FontFamily),
		fmt.Sprintf("FontSize=%d", int(style.FontSize+0.5)),
	}
	if captions.IsBold(style.FontWeight) {
		parts = append(parts, "Bold=1")
	}
	return strings.Join(parts, ",")
}
