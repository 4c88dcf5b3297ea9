package daemon_test

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"podbench/internal/api"
	"podbench/internal/catalog"
	"podbench/internal/config"
	"podbench/internal/daemon"
	"podbench/internal/events"
	"podbench/internal/layout"
	"podbench/internal/logging"
	"podbench/internal/pipeline"
	"podbench/internal/testsupport"
)

type fixture struct {
	cfg     *config.Config
	store   *catalog.Store
	layout  *layout.Manager
	adapter *testsupport.FakeAdapter
	pipe    *pipeline.Pipeline
	daemon  *daemon.Daemon
}

func newFixture(t *testing.T, opts ...testsupport.ConfigOption) *fixture {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)
	manager := layout.NewManager(cfg.Paths.DataDir)
	adapter := testsupport.NewFakeAdapter()
	hub := events.NewHub(logging.NewNop())
	pipe := pipeline.New(store, manager, adapter, hub, logging.NewNop(), time.Minute)
	t.Cleanup(pipe.Close)

	d, err := daemon.New(cfg, store, manager, pipe, hub, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(d.Stop)

	return &fixture{
		cfg:     cfg,
		store:   store,
		layout:  manager,
		adapter: adapter,
		pipe:    pipe,
		daemon:  d,
	}
}

func (f *fixture) waitForStage(t *testing.T, episodeID string, stage catalog.Stage) {
	t.Helper()
	deadline := time.After(10 * time.Second)
	for {
		episode, err := f.store.GetEpisode(context.Background(), episodeID)
		if err != nil {
			t.Fatalf("GetEpisode: %v", err)
		}
		if episode != nil && episode.StageStatus(stage).IsTerminal() {
			if episode.StageStatus(stage) != catalog.StatusCompleted {
				t.Fatalf("stage %s finished %s", stage, episode.StageStatus(stage))
			}
			return
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for stage %s", stage)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func ingestFile(name, content string) api.IngestFile {
	return api.IngestFile{
		Name: name,
		Size: int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func TestDaemonSingleInstance(t *testing.T) {
	f := newFixture(t)

	if err := f.daemon.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if f.daemon.Addr() == "" {
		t.Fatalf("expected bound API address after Start")
	}

	second, err := daemon.New(f.cfg, f.store, f.layout, f.pipe, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatalf("second instance should not acquire the lock")
	} else if !strings.Contains(err.Error(), "already running") {
		t.Fatalf("unexpected second start error: %v", err)
	}

	f.daemon.Stop()

	if err := second.Start(context.Background()); err != nil {
		t.Fatalf("start after lock release: %v", err)
	}
	second.Stop()
}

func TestDaemonStartTwice(t *testing.T) {
	f := newFixture(t)
	if err := f.daemon.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := f.daemon.Start(context.Background()); err == nil {
		t.Fatalf("second Start on the same daemon should fail")
	}
}
