package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"podbench/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckProcessorCommand verifies the processing toolchain binary resolves.
func CheckProcessorCommand(command string) Result {
	status := deps.CheckProcessor(command)
	if status.Available {
		return Result{Name: status.Name, Passed: true, Detail: status.Command}
	}
	return Result{Name: status.Name, Detail: status.Detail}
}

// CheckSystemDeps evaluates the external binaries the daemon shells out to.
// Both the daemon status payload and the CLI status command use this, so
// the requirements list lives in one place.
func CheckSystemDeps(processingCommand string) []deps.Status {
	return []deps.Status{deps.CheckProcessor(processingCommand)}
}
