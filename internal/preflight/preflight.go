package preflight

import (
	"podbench/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the startup checks for the given config. The directory
// checks gate daemon startup; the toolchain check is advisory, since the
// service can serve reads without it.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckProcessorCommand(cfg.Processing.Command),
	}
}

// Fatal reports whether a failed result should prevent the daemon from
// starting. Only the data directory is load-bearing at startup.
func Fatal(result Result) bool {
	return !result.Passed && result.Name == "Data directory"
}
