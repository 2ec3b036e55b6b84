package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	StagingDir      string `toml:"staging_dir"`
	UploadDir       string `toml:"upload_dir"`
	OutputDir       string `toml:"output_dir"`
	LogDir          string `toml:"log_dir"`
	FontsDir        string `toml:"fonts_dir"`
	APIBind         string `toml:"api_bind"`
	APIMaxUploadMiB int    `toml:"api_max_upload_mib"`
}

// Render contains configuration for caption rendering and compositing.
type Render struct {
	GapFillThresholdMs  int     `toml:"gap_fill_threshold_ms"`
	MaxShrinkIterations int     `toml:"max_shrink_iterations"`
	MinFontSize         int     `toml:"min_font_size"`
	ShrinkFactor        float64 `toml:"shrink_factor"`
	MaxWidthFraction    float64 `toml:"max_width_fraction"`
	Concurrency         int     `toml:"concurrency"`
	BrowserPath         string  `toml:"browser_path"`
	EncodeTimeout       int     `toml:"encode_timeout"`
	ProbeTimeout        int     `toml:"probe_timeout"`
}

// Captions contains configuration for caption timing and segmentation.
type Captions struct {
	DefaultMode            string `toml:"default_mode"`
	WordsPerLine           int    `toml:"words_per_line"`
	PhraseBreakPunctuation string `toml:"phrase_break_punctuation"`
}

// Transcribe contains configuration for the speech-to-text engine.
type Transcribe struct {
	Binary         string `toml:"binary"`
	Model          string `toml:"model"`
	Language       string `toml:"language"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Workflow contains configuration for daemon timing and intervals.
type Workflow struct {
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	HeartbeatInterval  int `toml:"heartbeat_interval"`
	HeartbeatTimeout   int `toml:"heartbeat_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Inkcap.
//
// Configuration sections by subsystem:
//   - Paths: working directories and API bind address
//   - Render: caption rendering, shrink-to-fit, and ffmpeg timeouts
//   - Captions: display mode and phrase segmentation defaults
//   - Transcribe: speech-to-text binary, model, and language hint
//   - Workflow: daemon polling intervals and heartbeat timeouts
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Render     Render     `toml:"render"`
	Captions   Captions   `toml:"captions"`
	Transcribe Transcribe `toml:"transcribe"`
	Workflow   Workflow   `toml:"workflow"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/inkcap/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/inkcap/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("inkcap.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.UploadDir, c.Paths.OutputDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name used for compositing and muxing.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

// TranscribeBinary returns the speech-to-text executable name.
func (c *Config) TranscribeBinary() string {
	return c.Transcribe.Binary
}

// BrowserBinary returns the configured browser executable path, or empty to
// let the renderer locate one on its own.
func (c *Config) BrowserBinary() string {
	return strings.TrimSpace(c.Render.BrowserPath)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
