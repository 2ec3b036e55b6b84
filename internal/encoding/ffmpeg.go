package encoding

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"log/slog"

	"inkcap/internal/config"
	"inkcap/internal/language"
	"inkcap/internal/logging"
)

// commandRunner executes an external command and returns its error.
type commandRunner func(ctx context.Context, name string, args ...string) error

// ErrUnsupportedContainer indicates the output container has no soft
// subtitle codec ffmpeg can stream-copy alongside.
var ErrUnsupportedContainer = errors.New("container does not support soft subtitles")

// FFmpeg invokes the ffmpeg binary for compositing, overlay, burn-in, and
// soft-mux operations. Every operation writes to a hidden work file in the
// output directory and renames it into place only after ffmpeg exits cleanly,
// so a failed run never leaves a partial artifact at the final path.
type FFmpeg struct {
	binary string
	run    commandRunner
	logger *slog.Logger
}

// NewFFmpeg constructs an ffmpeg client from config.
func NewFFmpeg(cfg *config.Config, logger *slog.Logger) *FFmpeg {
	return &FFmpeg{
		binary: cfg.FFmpegBinary(),
		run:    defaultCommandRunner,
		logger: logging.NewComponentLogger(logger, "encoding"),
	}
}

// SetLogger updates the client's logging destination.
func (f *FFmpeg) SetLogger(logger *slog.Logger) {
	if f == nil {
		return
	}
	f.logger = logging.NewComponentLogger(logger, "encoding")
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (f *FFmpeg) WithCommandRunner(r commandRunner) {
	if f != nil && r != nil {
		f.run = r
	}
}

// CompositeImageSequence turns a duration-tagged ffconcat image list into a
// single video track. QuickTime Animation with an argb pixel format keeps the
// alpha channel the overlay step depends on.
func (f *FFmpeg) CompositeImageSequence(ctx context.Context, listPath, outputPath string) error {
	work := workPath(outputPath)
	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c:v", "qtrle",
		"-pix_fmt", "argb",
		work,
	}
	return f.execute(ctx, "composite image sequence", args, work, outputPath)
}

// OverlayTrack composites the caption track over the source video. Pixel
// compositing forces a video re-encode; the source audio is stream-copied.
func (f *FFmpeg) OverlayTrack(ctx context.Context, sourcePath, overlayPath, outputPath string) error {
	work := workPath(outputPath)
	args := []string{
		"-y",
		"-i", sourcePath,
		"-i", overlayPath,
		"-filter_complex", "[0:v][1:v]overlay=0:0[vout]",
		"-map", "[vout]",
		"-map", "0:a?",
		"-c:a", "copy",
		work,
	}
	return f.execute(ctx, "overlay caption track", args, work, outputPath)
}

// BurnSubtitles hardcodes a subtitle file into the video stream via the
// subtitles filter. forceStyle, when non-empty, is passed as an inline ASS
// style override.
func (f *FFmpeg) BurnSubtitles(ctx context.Context, sourcePath, subtitlePath, forceStyle, outputPath string) error {
	filter := "subtitles='" + FilterPath(subtitlePath) + "'"
	if forceStyle != "" {
		filter += ":force_style='" + forceStyle + "'"
	}
	work := workPath(outputPath)
	args := []string{
		"-y",
		"-i", sourcePath,
		"-vf", filter,
		"-c:a", "copy",
		work,
	}
	return f.execute(ctx, "burn subtitles", args, work, outputPath)
}

// MuxSubtitles attaches a subtitle file as a soft track without re-encoding
// any existing stream. The subtitle codec follows the output container and
// the track is tagged with the ISO 639-2 form of lang, "und" when it does
// not resolve.
func (f *FFmpeg) MuxSubtitles(ctx context.Context, sourcePath, subtitlePath, lang, outputPath string) error {
	codec, err := subtitleCodec(outputPath)
	if err != nil {
		return fmt.Errorf("mux subtitles: %w", err)
	}
	work := workPath(outputPath)
	args := []string{
		"-y",
		"-i", sourcePath,
		"-i", subtitlePath,
		"-map", "0",
		"-map", "1:0",
		"-c", "copy",
		"-c:s", codec,
		"-metadata:s:s:0", "language=" + language.ToISO3(lang),
		work,
	}
	return f.execute(ctx, "mux subtitles", args, work, outputPath)
}

func (f *FFmpeg) execute(ctx context.Context, op string, args []string, work, outputPath string) error {
	if f.logger != nil {
		f.logger.Debug("running ffmpeg",
			logging.String("operation", op),
			logging.String("output", outputPath),
			logging.String("args", strings.Join(args, " ")),
		)
	}
	if err := f.run(ctx, f.binary, args...); err != nil {
		_ = os.Remove(work)
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := os.Stat(work); err != nil {
		return fmt.Errorf("%s: ffmpeg produced no output: %w", op, err)
	}
	if err := os.Rename(work, outputPath); err != nil {
		_ = os.Remove(work)
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// workPath keeps the container extension so ffmpeg can infer the muxer, but
// hides the file until the rename into place.
func workPath(outputPath string) string {
	return filepath.Join(filepath.Dir(outputPath), ".work-"+filepath.Base(outputPath))
}

// FilterPath escapes a file path for use inside an ffmpeg filter argument.
// Separators are normalized to forward slashes and ':' is escaped so the
// filter parser does not treat it as an option delimiter.
func FilterPath(path string) string {
	escaped := strings.ReplaceAll(path, `\`, "/")
	return strings.ReplaceAll(escaped, ":", `\:`)
}

// SupportsSoftSubtitles reports whether the container has a subtitle codec
// mapping for soft muxing. Accepts bare names ("mkv") and extensions (".mkv").
func SupportsSoftSubtitles(container string) bool {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(container), ".")) {
	case "mp4", "mov", "m4v", "mkv":
		return true
	}
	return false
}

func subtitleCodec(outputPath string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(outputPath), "."))
	switch ext {
	case "mp4", "mov", "m4v":
		return "mov_text", nil
	case "mkv":
		return "srt", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedContainer, ext)
}

// defaultCommandRunner executes ffmpeg and folds its combined output into the
// returned error so failures carry the tool's own diagnostics.
func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
