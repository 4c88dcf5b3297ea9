package config

const (
	defaultDataDir             = "~/.local/share/podbench"
	defaultLogDir              = "~/.local/share/podbench/logs"
	defaultAPIBind             = "127.0.0.1:8000"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultMaxTotalMB          = 500
	defaultProcessingCommand   = "podbench-processor"
	defaultStageTimeoutSeconds = 7200
	defaultLogRetentionDays    = 60
)

func defaultAllowedExtensions() []string {
	return []string{".wav", ".m4a", ".aifc", ".mp4"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Upload: Upload{
			MaxTotalMB:        defaultMaxTotalMB,
			AllowedExtensions: defaultAllowedExtensions(),
		},
		Processing: Processing{
			Command:             defaultProcessingCommand,
			StageTimeoutSeconds: defaultStageTimeoutSeconds,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
