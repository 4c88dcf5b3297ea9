package preflight

import (
	"fmt"
	"syscall"
)

// DiskUsage reports the capacity of the filesystem holding the data
// directory. Status UIs display it so operators can see headroom before
// ingesting large uploads.
type DiskUsage struct {
	Path       string `json:"path"`
	TotalBytes uint64 `json:"total_bytes"`
	FreeBytes  uint64 `json:"free_bytes"`
}

// MeasureDisk samples the filesystem that holds path.
func MeasureDisk(path string) (DiskUsage, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return DiskUsage{Path: path}, err
	}
	return DiskUsage{
		Path:       path,
		TotalBytes: stat.Blocks * uint64(stat.Bsize),
		FreeBytes:  stat.Bavail * uint64(stat.Bsize),
	}, nil
}

// Detail renders a display-friendly summary for status UIs.
func (d DiskUsage) Detail() string {
	if d.TotalBytes == 0 {
		return "unknown"
	}
	return fmt.Sprintf("%s free of %s", formatBytes(int64(d.FreeBytes)), formatBytes(int64(d.TotalBytes)))
}

func formatBytes(value int64) string {
	const (
		kiB = 1024
		miB = kiB * 1024
		giB = miB * 1024
	)
	switch {
	case value >= giB:
		return fmt.Sprintf("%.2f GiB", float64(value)/float64(giB))
	case value >= miB:
		return fmt.Sprintf("%.2f MiB", float64(value)/float64(miB))
	case value >= kiB:
		return fmt.Sprintf("%.2f KiB", float64(value)/float64(kiB))
	default:
		return fmt.Sprintf("%d B", value)
	}
}
