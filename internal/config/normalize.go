package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeUpload()
	c.normalizeProcessing()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
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

func (c *Config) normalizeUpload() {
	if c.Upload.MaxTotalMB <= 0 {
		c.Upload.MaxTotalMB = defaultMaxTotalMB
	}
	if len(c.Upload.AllowedExtensions) == 0 {
		c.Upload.AllowedExtensions = defaultAllowedExtensions()
		return
	}
	exts := make([]string, 0, len(c.Upload.AllowedExtensions))
	seen := make(map[string]struct{}, len(c.Upload.AllowedExtensions))
	for _, ext := range c.Upload.AllowedExtensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	if len(exts) == 0 {
		exts = defaultAllowedExtensions()
	}
	c.Upload.AllowedExtensions = exts
}

func (c *Config) normalizeProcessing() {
	c.Processing.Command = strings.TrimSpace(c.Processing.Command)
	if c.Processing.Command == "" {
		if value, ok := os.LookupEnv("PODBENCH_PROCESSOR"); ok {
			c.Processing.Command = strings.TrimSpace(value)
		}
	}
	if c.Processing.Command == "" {
		c.Processing.Command = defaultProcessingCommand
	}
	if c.Processing.StageTimeoutSeconds < 0 {
		c.Processing.StageTimeoutSeconds = defaultStageTimeoutSeconds
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
