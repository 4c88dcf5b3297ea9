package preflight

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"podbench/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckProcessorCommand(t *testing.T) {
	binDir := t.TempDir()
	processor := filepath.Join(binDir, "podbench-processor")
	if err := os.WriteFile(processor, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write processor stub: %v", err)
	}
	t.Setenv("PATH", binDir)

	result := CheckProcessorCommand("podbench-processor")
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if result.Detail != processor {
		t.Fatalf("expected resolved path detail, got %q", result.Detail)
	}

	missing := CheckProcessorCommand("definitely-not-installed")
	if missing.Passed {
		t.Fatal("expected failure for missing binary")
	}
}

func TestRunAll(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	t.Setenv("PATH", "")

	results := RunAll(&cfg)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if !results[0].Passed || !results[1].Passed {
		t.Fatalf("expected directory checks to pass: %+v", results)
	}
	if results[2].Passed {
		t.Fatal("expected toolchain check to fail with an empty PATH")
	}
	for _, result := range results {
		if Fatal(result) {
			t.Fatalf("no fatal results expected, got %+v", result)
		}
	}

	cfg.Paths.DataDir = filepath.Join(base, "missing")
	results = RunAll(&cfg)
	if !Fatal(results[0]) {
		t.Fatalf("expected missing data directory to be fatal, got %+v", results[0])
	}
}

func TestMeasureDisk(t *testing.T) {
	usage, err := MeasureDisk(t.TempDir())
	if err != nil {
		t.Fatalf("MeasureDisk failed: %v", err)
	}
	if usage.TotalBytes == 0 {
		t.Fatal("expected a non-zero filesystem size")
	}
	if usage.FreeBytes > usage.TotalBytes {
		t.Fatalf("free %d exceeds total %d", usage.FreeBytes, usage.TotalBytes)
	}
	if !strings.Contains(usage.Detail(), "free of") {
		t.Fatalf("unexpected detail %q", usage.Detail())
	}

	missing, err := MeasureDisk(filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatal("expected error for missing path")
	}
	if missing.Detail() != "unknown" {
		t.Fatalf("unexpected detail %q", missing.Detail())
	}
}
