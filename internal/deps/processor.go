package deps

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// CheckProcessor reports the processing toolchain binary the pipeline will
// execute. A command carrying a path separator is checked in place; a bare
// name resolves through PATH.
func CheckProcessor(command string) Status {
	result := Status{
		Name:        "Processing toolchain",
		Description: "Executes the audio processing stages",
	}

	command = strings.TrimSpace(command)
	if command == "" {
		result.Detail = "command not configured"
		return result
	}
	result.Command = command

	if strings.ContainsRune(command, os.PathSeparator) {
		info, err := os.Stat(command)
		if err != nil {
			result.Detail = fmt.Sprintf("binary %q not found", command)
			return result
		}
		if !isExecutable(info) {
			result.Detail = fmt.Sprintf("%q is not executable", command)
			return result
		}
		result.Available = true
		return result
	}

	resolved, err := exec.LookPath(command)
	if err != nil {
		result.Detail = fmt.Sprintf("binary %q not found", command)
		return result
	}
	result.Command = resolved
	result.Available = true
	return result
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
