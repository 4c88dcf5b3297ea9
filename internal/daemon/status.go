package daemon

import (
	"context"
	"os"

	"podbench/internal/api"
	"podbench/internal/logging"
	"podbench/internal/preflight"
)

// Status aggregates runtime information for the status endpoint and CLI.
// Store failures degrade to partial output rather than erroring, so the
// endpoint stays useful while the catalog is misbehaving.
func (d *Daemon) Status(ctx context.Context) api.DaemonStatus {
	status := api.DaemonStatus{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		CatalogDBPath: d.cfg.DatabasePath(),
		LockFilePath:  d.lockPath,
		JobCounts:     map[string]int{},
	}

	if count, err := d.store.EpisodeCount(ctx); err == nil {
		status.EpisodeCount = count
	} else {
		d.logger.Warn("episode count unavailable", logging.Error(err))
	}
	if stats, err := d.store.JobStats(ctx); err == nil {
		for jobStatus, count := range stats {
			status.JobCounts[string(jobStatus)] = count
		}
	} else {
		d.logger.Warn("job stats unavailable", logging.Error(err))
	}

	for _, result := range preflight.RunAll(d.cfg) {
		status.Checks = append(status.Checks, api.CheckResult{
			Name:   result.Name,
			Passed: result.Passed,
			Detail: result.Detail,
		})
	}
	for _, dep := range preflight.CheckSystemDeps(d.cfg.Processing.Command) {
		status.Dependencies = append(status.Dependencies, api.DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		})
	}
	if usage, err := preflight.MeasureDisk(d.cfg.Paths.DataDir); err == nil {
		status.Disk = &api.DiskStatus{
			Path:       usage.Path,
			TotalBytes: usage.TotalBytes,
			FreeBytes:  usage.FreeBytes,
			Detail:     usage.Detail(),
		}
	}
	return status
}
