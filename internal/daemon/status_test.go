package daemon_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"podbench/internal/catalog"
	"podbench/internal/testsupport"
)

func TestStatusReportsRuntime(t *testing.T) {
	f := newFixture(t, testsupport.WithStubbedBinaries())

	episode := testsupport.NewEpisode(t, f.store, "Status Check")
	testsupport.CompleteStage(t, f.store, episode.ID, catalog.StagePreprocess, nil)

	status := f.daemon.Status(context.Background())
	if status.Running {
		t.Fatalf("daemon should report not running before Start")
	}
	if status.PID != os.Getpid() {
		t.Fatalf("unexpected pid %d", status.PID)
	}
	if status.CatalogDBPath != f.cfg.DatabasePath() {
		t.Fatalf("unexpected db path %q", status.CatalogDBPath)
	}
	if !strings.HasSuffix(status.LockFilePath, "podbenchd.lock") {
		t.Fatalf("unexpected lock path %q", status.LockFilePath)
	}
	if status.EpisodeCount != 1 {
		t.Fatalf("expected 1 episode, got %d", status.EpisodeCount)
	}
	if status.JobCounts[string(catalog.StatusCompleted)] != 1 {
		t.Fatalf("expected 1 completed job, got %+v", status.JobCounts)
	}

	if len(status.Checks) != 3 {
		t.Fatalf("expected 3 preflight checks, got %d", len(status.Checks))
	}
	for _, check := range status.Checks {
		if !check.Passed {
			t.Fatalf("check %q should pass with stubbed toolchain: %s", check.Name, check.Detail)
		}
	}

	if len(status.Dependencies) != 1 || !status.Dependencies[0].Available {
		t.Fatalf("expected available toolchain dependency, got %+v", status.Dependencies)
	}
	if status.Disk == nil || !strings.Contains(status.Disk.Detail, "free of") {
		t.Fatalf("expected disk headroom detail, got %+v", status.Disk)
	}

	if err := f.daemon.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	status = f.daemon.Status(context.Background())
	if !status.Running {
		t.Fatalf("daemon should report running after Start")
	}
}

func TestStatusReportsConfiguredCommand(t *testing.T) {
	f := newFixture(t, testsupport.WithProcessorCommand("missing-toolchain"))

	status := f.daemon.Status(context.Background())
	if len(status.Dependencies) != 1 {
		t.Fatalf("expected one dependency, got %+v", status.Dependencies)
	}
	dep := status.Dependencies[0]
	if dep.Available {
		t.Fatalf("missing toolchain should be reported unavailable")
	}
	if !strings.Contains(dep.Detail, "missing-toolchain") {
		t.Fatalf("detail should name the configured command, got %q", dep.Detail)
	}
}
