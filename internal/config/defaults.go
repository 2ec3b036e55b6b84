package config

const (
	defaultStagingDir          = "~/.local/share/inkcap/staging"
	defaultUploadDir           = "~/.local/share/inkcap/uploads"
	defaultOutputDir           = "~/.local/share/inkcap/output"
	defaultLogDir              = "~/.local/share/inkcap/logs"
	defaultAPIBind             = "127.0.0.1:7465"
	defaultAPIMaxUploadMiB     = 2048
	defaultGapFillThresholdMs  = 50
	defaultMaxShrinkIterations = 50
	defaultMinFontSize         = 8
	defaultShrinkFactor        = 0.9
	defaultMaxWidthFraction    = 0.94
	defaultRenderConcurrency   = 4
	defaultEncodeTimeout       = 3600
	defaultProbeTimeout        = 300
	defaultCaptionMode         = "sentence"
	defaultWordsPerLine        = 3
	defaultPhrasePunctuation   = ".?!,;:"
	defaultTranscribeBinary    = "whisper"
	defaultTranscribeModel     = "base"
	defaultTranscribeTimeout   = 1800
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultQueuePollInterval   = 5
	defaultErrorRetryInterval  = 10
	defaultHeartbeatInterval   = 15
	defaultHeartbeatTimeout    = 120
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir:      defaultStagingDir,
			UploadDir:       defaultUploadDir,
			OutputDir:       defaultOutputDir,
			LogDir:          defaultLogDir,
			APIBind:         defaultAPIBind,
			APIMaxUploadMiB: defaultAPIMaxUploadMiB,
		},
		Render: Render{
			GapFillThresholdMs:  defaultGapFillThresholdMs,
			MaxShrinkIterations: defaultMaxShrinkIterations,
			MinFontSize:         defaultMinFontSize,
			ShrinkFactor:        defaultShrinkFactor,
			MaxWidthFraction:    defaultMaxWidthFraction,
			Concurrency:         defaultRenderConcurrency,
			EncodeTimeout:       defaultEncodeTimeout,
			ProbeTimeout:        defaultProbeTimeout,
		},
		Captions: Captions{
			DefaultMode:            defaultCaptionMode,
			WordsPerLine:           defaultWordsPerLine,
			PhraseBreakPunctuation: defaultPhrasePunctuation,
		},
		Transcribe: Transcribe{
			Binary:         defaultTranscribeBinary,
			Model:          defaultTranscribeModel,
			TimeoutSeconds: defaultTranscribeTimeout,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			HeartbeatInterval:  defaultHeartbeatInterval,
			HeartbeatTimeout:   defaultHeartbeatTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
