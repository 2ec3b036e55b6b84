package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateCaptions(); err != nil {
		return err
	}
	if err := c.validateTranscribe(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		return errors.New("paths.staging_dir must be set")
	}
	if strings.TrimSpace(c.Paths.UploadDir) == "" {
		return errors.New("paths.upload_dir must be set")
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	if c.Paths.APIMaxUploadMiB <= 0 {
		return errors.New("paths.api_max_upload_mib must be positive")
	}
	return nil
}

func (c *Config) validateRender() error {
	if c.Render.GapFillThresholdMs < 0 {
		return errors.New("render.gap_fill_threshold_ms must be >= 0")
	}
	if c.Render.MaxShrinkIterations <= 0 {
		return errors.New("render.max_shrink_iterations must be positive")
	}
	if c.Render.MinFontSize <= 0 {
		return errors.New("render.min_font_size must be positive")
	}
	if c.Render.ShrinkFactor <= 0 || c.Render.ShrinkFactor >= 1 {
		return errors.New("render.shrink_factor must be between 0 and 1 exclusive")
	}
	if c.Render.MaxWidthFraction <= 0 || c.Render.MaxWidthFraction > 1 {
		return errors.New("render.max_width_fraction must be between 0 and 1")
	}
	if c.Render.Concurrency <= 0 {
		return errors.New("render.concurrency must be positive")
	}
	return nil
}

func (c *Config) validateCaptions() error {
	switch c.Captions.DefaultMode {
	case "sentence", "word", "phrase":
	default:
		return fmt.Errorf("captions.default_mode must be one of sentence, word, phrase (got %q)", c.Captions.DefaultMode)
	}
	if c.Captions.WordsPerLine < 1 {
		return errors.New("captions.words_per_line must be >= 1")
	}
	if strings.TrimSpace(c.Captions.PhraseBreakPunctuation) == "" {
		return errors.New("captions.phrase_break_punctuation must include at least one character")
	}
	return nil
}

func (c *Config) validateTranscribe() error {
	if strings.TrimSpace(c.Transcribe.Binary) == "" {
		return errors.New("transcribe.binary must be set")
	}
	if strings.TrimSpace(c.Transcribe.Model) == "" {
		return errors.New("transcribe.model must be set")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"render.encode_timeout":         c.Render.EncodeTimeout,
		"render.probe_timeout":          c.Render.ProbeTimeout,
		"transcribe.timeout_seconds":    c.Transcribe.TimeoutSeconds,
		"workflow.queue_poll_interval":  c.Workflow.QueuePollInterval,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
	}); err != nil {
		return err
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		return errors.New("workflow.heartbeat_interval must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= 0 {
		return errors.New("workflow.heartbeat_timeout must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must be greater than workflow.heartbeat_interval")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
