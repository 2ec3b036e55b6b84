package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRender()
	c.normalizeCaptions()
	c.normalizeTranscribe()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		c.Paths.StagingDir = defaultStagingDir
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.UploadDir) == "" {
		c.Paths.UploadDir = defaultUploadDir
	}
	if c.Paths.UploadDir, err = expandPath(c.Paths.UploadDir); err != nil {
		return fmt.Errorf("paths.upload_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.FontsDir) != "" {
		if c.Paths.FontsDir, err = expandPath(c.Paths.FontsDir); err != nil {
			return fmt.Errorf("paths.fonts_dir: %w", err)
		}
	} else {
		c.Paths.FontsDir = ""
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	if c.Paths.APIMaxUploadMiB <= 0 {
		c.Paths.APIMaxUploadMiB = defaultAPIMaxUploadMiB
	}
	return nil
}

func (c *Config) normalizeRender() {
	if c.Render.GapFillThresholdMs < 0 {
		c.Render.GapFillThresholdMs = defaultGapFillThresholdMs
	}
	if c.Render.MaxShrinkIterations <= 0 {
		c.Render.MaxShrinkIterations = defaultMaxShrinkIterations
	}
	if c.Render.MinFontSize <= 0 {
		c.Render.MinFontSize = defaultMinFontSize
	}
	if c.Render.ShrinkFactor <= 0 || c.Render.ShrinkFactor >= 1 {
		c.Render.ShrinkFactor = defaultShrinkFactor
	}
	if c.Render.MaxWidthFraction <= 0 || c.Render.MaxWidthFraction > 1 {
		c.Render.MaxWidthFraction = defaultMaxWidthFraction
	}
	if c.Render.Concurrency <= 0 {
		c.Render.Concurrency = defaultRenderConcurrency
	}
	c.Render.BrowserPath = strings.TrimSpace(c.Render.BrowserPath)
	if c.Render.EncodeTimeout <= 0 {
		c.Render.EncodeTimeout = defaultEncodeTimeout
	}
	if c.Render.ProbeTimeout <= 0 {
		c.Render.ProbeTimeout = defaultProbeTimeout
	}
}

func (c *Config) normalizeCaptions() {
	c.Captions.DefaultMode = strings.ToLower(strings.TrimSpace(c.Captions.DefaultMode))
	if c.Captions.DefaultMode == "" {
		c.Captions.DefaultMode = defaultCaptionMode
	}
	if c.Captions.WordsPerLine <= 0 {
		c.Captions.WordsPerLine = defaultWordsPerLine
	}
	c.Captions.PhraseBreakPunctuation = strings.TrimSpace(c.Captions.PhraseBreakPunctuation)
	if c.Captions.PhraseBreakPunctuation == "" {
		c.Captions.PhraseBreakPunctuation = defaultPhrasePunctuation
	}
}

func (c *Config) normalizeTranscribe() {
	c.Transcribe.Binary = strings.TrimSpace(c.Transcribe.Binary)
	if c.Transcribe.Binary == "" {
		c.Transcribe.Binary = defaultTranscribeBinary
	}
	c.Transcribe.Model = strings.TrimSpace(c.Transcribe.Model)
	if c.Transcribe.Model == "" {
		c.Transcribe.Model = defaultTranscribeModel
	}
	c.Transcribe.Language = strings.ToLower(strings.TrimSpace(c.Transcribe.Language))
	if c.Transcribe.TimeoutSeconds <= 0 {
		c.Transcribe.TimeoutSeconds = defaultTranscribeTimeout
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.QueuePollInterval <= 0 {
		c.Workflow.QueuePollInterval = defaultQueuePollInterval
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = defaultErrorRetryInterval
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		c.Workflow.HeartbeatInterval = defaultHeartbeatInterval
	}
	if c.Workflow.HeartbeatTimeout <= 0 {
		c.Workflow.HeartbeatTimeout = defaultHeartbeatTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
