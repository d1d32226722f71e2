package config

const (
	defaultWorkDir            = "~/.local/share/prompter/jobs"
	defaultLogDir             = "~/.local/share/prompter/logs"
	defaultAPIBind            = "127.0.0.1:7419"
	defaultMaxChars           = 200
	defaultMaxUploadMiB       = 50
	defaultRetentionHours     = 24
	defaultOutputName         = "script_slides.pptx"
	defaultBoundaryMarks      = "。．.！!？?"
	defaultConvertBinary      = "soffice"
	defaultRasterBinary       = "pdftoppm"
	defaultAttemptTimeout     = 120
	defaultDPI                = 96
	defaultQueuePollInterval  = 2
	defaultExpireInterval     = 300
	defaultErrorRetryInterval = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogRetentionDays   = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Conversion: Conversion{
			MaxChars:       defaultMaxChars,
			MaxUploadMiB:   defaultMaxUploadMiB,
			RetentionHours: defaultRetentionHours,
			OutputName:     defaultOutputName,
			BoundaryMarks:  defaultBoundaryMarks,
		},
		Renderer: Renderer{
			ConvertBinary:  defaultConvertBinary,
			RasterBinary:   defaultRasterBinary,
			AttemptTimeout: defaultAttemptTimeout,
			DPI:            defaultDPI,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ExpireInterval:     defaultExpireInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
