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
	if err := c.validateUpload(); err != nil {
		return err
	}
	if err := c.validateProcessing(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.APIBind) == "" {
		return errors.New("paths.api_bind must be set")
	}
	return nil
}

func (c *Config) validateUpload() error {
	if c.Upload.MaxTotalMB <= 0 {
		return errors.New("upload.max_total_mb must be positive")
	}
	if len(c.Upload.AllowedExtensions) == 0 {
		return errors.New("upload.allowed_extensions must include at least one extension")
	}
	for _, ext := range c.Upload.AllowedExtensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("upload.allowed_extensions entry %q must be a dotted extension", ext)
		}
	}
	return nil
}

func (c *Config) validateProcessing() error {
	if strings.TrimSpace(c.Processing.Command) == "" {
		return errors.New("processing.command must be set")
	}
	if c.Processing.StageTimeoutSeconds < 0 {
		return errors.New("processing.stage_timeout_seconds must be >= 0")
	}
	return nil
}
