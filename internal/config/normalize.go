package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeConversion()
	c.normalizeRenderer()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeConversion() {
	if c.Conversion.MaxChars <= 0 {
		c.Conversion.MaxChars = defaultMaxChars
	}
	if c.Conversion.MaxUploadMiB <= 0 {
		c.Conversion.MaxUploadMiB = defaultMaxUploadMiB
	}
	if c.Conversion.RetentionHours <= 0 {
		c.Conversion.RetentionHours = defaultRetentionHours
	}
	c.Conversion.OutputName = strings.TrimSpace(c.Conversion.OutputName)
	if c.Conversion.OutputName == "" {
		c.Conversion.OutputName = defaultOutputName
	}
	if strings.TrimSpace(c.Conversion.BoundaryMarks) == "" {
		c.Conversion.BoundaryMarks = defaultBoundaryMarks
	}
}

func (c *Config) normalizeRenderer() {
	c.Renderer.ConvertBinary = strings.TrimSpace(c.Renderer.ConvertBinary)
	if c.Renderer.ConvertBinary == "" {
		c.Renderer.ConvertBinary = defaultConvertBinary
	}
	c.Renderer.RasterBinary = strings.TrimSpace(c.Renderer.RasterBinary)
	if c.Renderer.RasterBinary == "" {
		c.Renderer.RasterBinary = defaultRasterBinary
	}
	if c.Renderer.AttemptTimeout <= 0 {
		c.Renderer.AttemptTimeout = defaultAttemptTimeout
	}
	if c.Renderer.DPI <= 0 {
		c.Renderer.DPI = defaultDPI
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.QueuePollInterval <= 0 {
		c.Workflow.QueuePollInterval = defaultQueuePollInterval
	}
	if c.Workflow.ExpireInterval <= 0 {
		c.Workflow.ExpireInterval = defaultExpireInterval
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = defaultErrorRetryInterval
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
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
