package testsupport

import (
	"context"
	"testing"

	"podbench/internal/catalog"
	"podbench/internal/config"
)

// MustOpenStore opens a catalog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewEpisode creates an episode for tests using the provided store.
func NewEpisode(t testing.TB, store *catalog.Store, title string) *catalog.Episode {
	t.Helper()

	episode, err := store.NewEpisode(context.Background(), title)
	if err != nil {
		t.Fatalf("store.NewEpisode: %v", err)
	}
	return episode
}

// CompleteStage drives an episode's stage through claim, processing, and a
// completed outcome so tests can satisfy downstream preconditions quickly.
func CompleteStage(t testing.TB, store *catalog.Store, episodeID string, stage catalog.Stage, requires *catalog.Stage) *catalog.Job {
	t.Helper()

	ctx := context.Background()
	job, err := store.ClaimStage(ctx, episodeID, stage, requires)
	if err != nil {
		t.Fatalf("store.ClaimStage(%s): %v", stage, err)
	}
	if err := store.MarkStageProcessing(ctx, job.ID); err != nil {
		t.Fatalf("store.MarkStageProcessing(%s): %v", stage, err)
	}
	if err := store.FinishStage(ctx, job.ID, catalog.StatusCompleted, ""); err != nil {
		t.Fatalf("store.FinishStage(%s): %v", stage, err)
	}
	return job
}
