package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateConversion(); err != nil {
		return err
	}
	if err := c.validateRenderer(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateConversion() error {
	if c.Conversion.MaxChars < 20 {
		return errors.New("conversion.max_chars must be at least 20")
	}
	if c.Conversion.MaxUploadMiB <= 0 {
		return errors.New("conversion.max_upload_mib must be positive")
	}
	if c.Conversion.RetentionHours <= 0 {
		return errors.New("conversion.retention_hours must be positive")
	}
	if !strings.EqualFold(filepath.Ext(c.Conversion.OutputName), ".pptx") {
		return fmt.Errorf("conversion.output_name must end in .pptx, got %q", c.Conversion.OutputName)
	}
	return nil
}

func (c *Config) validateRenderer() error {
	if strings.TrimSpace(c.Renderer.ConvertBinary) == "" {
		return errors.New("renderer.convert_binary must be set")
	}
	if strings.TrimSpace(c.Renderer.RasterBinary) == "" {
		return errors.New("renderer.raster_binary must be set")
	}
	if err := ensurePositiveMap(map[string]int{
		"renderer.attempt_timeout": c.Renderer.AttemptTimeout,
		"renderer.dpi":             c.Renderer.DPI,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	return ensurePositiveMap(map[string]int{
		"workflow.queue_poll_interval":  c.Workflow.QueuePollInterval,
		"workflow.expire_interval":      c.Workflow.ExpireInterval,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
	})
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
