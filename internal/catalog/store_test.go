package catalog_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"podbench/internal/catalog"
	"podbench/internal/testsupport"
)

func stageRef(stage catalog.Stage) *catalog.Stage {
	return &stage
}

func TestOpenAppliesMigrations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	episode, err := store.NewEpisode(ctx, "Pilot")
	if err != nil {
		t.Fatalf("NewEpisode failed: %v", err)
	}
	if episode.ID == "" {
		t.Fatal("expected episode ID to be assigned")
	}
	for _, stage := range catalog.Stages() {
		if status := episode.Stages.Get(stage); status != catalog.StatusInit {
			t.Fatalf("expected stage %s to start at init, got %s", stage, status)
		}
	}

	fetched, err := store.GetEpisode(ctx, episode.ID)
	if err != nil {
		t.Fatalf("GetEpisode failed: %v", err)
	}
	if fetched == nil || fetched.Title != "Pilot" {
		t.Fatalf("unexpected fetched episode: %#v", fetched)
	}

	missing, err := store.GetEpisode(ctx, "does-not-exist")
	if err != nil {
		t.Fatalf("GetEpisode for missing ID failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing episode, got %#v", missing)
	}
}

func TestUpdateEpisodePersistsMutableFields(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	episode := testsupport.NewEpisode(t, store, "Draft Title")
	episode.Title = "Final Title"
	episode.EditorState = `{"cuts":[{"start":0,"end":12}]}`
	if err := store.UpdateEpisode(ctx, episode); err != nil {
		t.Fatalf("UpdateEpisode failed: %v", err)
	}

	updated, err := store.GetEpisode(ctx, episode.ID)
	if err != nil {
		t.Fatalf("GetEpisode failed: %v", err)
	}
	if updated.Title != "Final Title" {
		t.Fatalf("expected updated title, got %q", updated.Title)
	}
	if updated.EditorState != episode.EditorState {
		t.Fatalf("expected editor state persisted, got %q", updated.EditorState)
	}
	if updated.Stages.Preprocess != catalog.StatusInit {
		t.Fatalf("expected stage statuses untouched, got %s", updated.Stages.Preprocess)
	}

	ghost := *episode
	ghost.ID = "missing"
	if err := store.UpdateEpisode(ctx, &ghost); !errors.Is(err, catalog.ErrEpisodeNotFound) {
		t.Fatalf("expected ErrEpisodeNotFound, got %v", err)
	}
}

func TestListEpisodesOrderingAndPaging(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	var ids []string
	for i := 0; i < 3; i++ {
		episode := testsupport.NewEpisode(t, store, fmt.Sprintf("Episode %d", i))
		ids = append(ids, episode.ID)
		time.Sleep(2 * time.Millisecond)
	}

	newestFirst, err := store.ListEpisodes(ctx, catalog.ListOptions{})
	if err != nil {
		t.Fatalf("ListEpisodes failed: %v", err)
	}
	if len(newestFirst) != 3 {
		t.Fatalf("expected 3 episodes, got %d", len(newestFirst))
	}
	if newestFirst[0].ID != ids[2] || newestFirst[2].ID != ids[0] {
		t.Fatalf("expected newest-first default ordering, got %s,%s,%s", newestFirst[0].ID, newestFirst[1].ID, newestFirst[2].ID)
	}

	oldestFirst, err := store.ListEpisodes(ctx, catalog.ListOptions{SortBy: "created_at", Order: "asc"})
	if err != nil {
		t.Fatalf("ascending list failed: %v", err)
	}
	if oldestFirst[0].ID != ids[0] {
		t.Fatalf("expected oldest first, got %s", oldestFirst[0].ID)
	}

	paged, err := store.ListEpisodes(ctx, catalog.ListOptions{SortBy: "created_at", Order: "asc", Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("paged list failed: %v", err)
	}
	if len(paged) != 1 || paged[0].ID != ids[1] {
		t.Fatalf("expected middle episode, got %#v", paged)
	}

	if _, err := store.ListEpisodes(ctx, catalog.ListOptions{SortBy: "title"}); err == nil {
		t.Fatal("expected unsupported sort key to be rejected")
	}
	if _, err := store.ListEpisodes(ctx, catalog.ListOptions{Order: "sideways"}); err == nil {
		t.Fatal("expected unsupported order to be rejected")
	}

	count, err := store.EpisodeCount(ctx)
	if err != nil {
		t.Fatalf("EpisodeCount failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected count 3, got %d", count)
	}
}

func TestListEpisodesStageFilter(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	a := testsupport.NewEpisode(t, store, "Filtered A")
	testsupport.NewEpisode(t, store, "Filtered B")
	testsupport.CompleteStage(t, store, a.ID, catalog.StagePreprocess, nil)

	completed, err := store.ListEpisodes(ctx, catalog.ListOptions{Stage: catalog.StagePreprocess, Status: catalog.StatusCompleted})
	if err != nil {
		t.Fatalf("filtered list failed: %v", err)
	}
	if len(completed) != 1 || completed[0].ID != a.ID {
		t.Fatalf("expected only episode A, got %#v", completed)
	}

	if _, err := store.ListEpisodes(ctx, catalog.ListOptions{Stage: catalog.StagePreprocess}); err == nil {
		t.Fatal("expected stage filter without status to be rejected")
	}
	if _, err := store.ListEpisodes(ctx, catalog.ListOptions{Status: catalog.StatusCompleted}); err == nil {
		t.Fatal("expected status filter without stage to be rejected")
	}
}

func TestClaimStageLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	episode := testsupport.NewEpisode(t, store, "Lifecycle")

	job, err := store.ClaimStage(ctx, episode.ID, catalog.StagePreprocess, nil)
	if err != nil {
		t.Fatalf("ClaimStage failed: %v", err)
	}
	if job.ID == 0 || job.Status != catalog.StatusPending {
		t.Fatalf("unexpected claimed job: %#v", job)
	}

	claimed, err := store.GetEpisode(ctx, episode.ID)
	if err != nil {
		t.Fatalf("GetEpisode failed: %v", err)
	}
	if claimed.Stages.Preprocess != catalog.StatusPending {
		t.Fatalf("expected pending stage, got %s", claimed.Stages.Preprocess)
	}

	if err := store.MarkStageProcessing(ctx, job.ID); err != nil {
		t.Fatalf("MarkStageProcessing failed: %v", err)
	}
	running, err := store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if running.Status != catalog.StatusProcessing || running.StartedAt == nil {
		t.Fatalf("expected processing job with start time, got %#v", running)
	}
	processing, err := store.GetEpisode(ctx, episode.ID)
	if err != nil {
		t.Fatalf("GetEpisode failed: %v", err)
	}
	if processing.Stages.Preprocess != catalog.StatusProcessing {
		t.Fatalf("expected processing stage, got %s", processing.Stages.Preprocess)
	}

	if err := store.FinishStage(ctx, job.ID, catalog.StatusCompleted, ""); err != nil {
		t.Fatalf("FinishStage failed: %v", err)
	}
	done, err := store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if done.Status != catalog.StatusCompleted || done.FinishedAt == nil || done.ErrorMessage != "" {
		t.Fatalf("unexpected finished job: %#v", done)
	}
	final, err := store.GetEpisode(ctx, episode.ID)
	if err != nil {
		t.Fatalf("GetEpisode failed: %v", err)
	}
	if final.Stages.Preprocess != catalog.StatusCompleted {
		t.Fatalf("expected completed stage, got %s", final.Stages.Preprocess)
	}
}

func TestClaimStageConflicts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	episode := testsupport.NewEpisode(t, store, "Conflicts")

	job, err := store.ClaimStage(ctx, episode.ID, catalog.StagePreprocess, nil)
	if err != nil {
		t.Fatalf("first claim failed: %v", err)
	}

	var conflict *catalog.StageConflictError
	if _, err := store.ClaimStage(ctx, episode.ID, catalog.StagePreprocess, nil); !errors.As(err, &conflict) {
		t.Fatalf("expected StageConflictError while pending, got %v", err)
	}
	if conflict.Status != catalog.StatusPending {
		t.Fatalf("expected pending conflict status, got %s", conflict.Status)
	}

	if err := store.MarkStageProcessing(ctx, job.ID); err != nil {
		t.Fatalf("MarkStageProcessing failed: %v", err)
	}
	if _, err := store.ClaimStage(ctx, episode.ID, catalog.StagePreprocess, nil); !errors.As(err, &conflict) {
		t.Fatalf("expected StageConflictError while processing, got %v", err)
	}
	if conflict.Status != catalog.StatusProcessing {
		t.Fatalf("expected processing conflict status, got %s", conflict.Status)
	}

	if err := store.FinishStage(ctx, job.ID, catalog.StatusFailed, "boom"); err != nil {
		t.Fatalf("FinishStage failed: %v", err)
	}
	retry, err := store.ClaimStage(ctx, episode.ID, catalog.StagePreprocess, nil)
	if err != nil {
		t.Fatalf("expected failed stage to be claimable again, got %v", err)
	}
	if retry.ID == job.ID {
		t.Fatal("expected a fresh job row for the retry")
	}
}

func TestClaimStagePreconditions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	episode := testsupport.NewEpisode(t, store, "Preconditions")

	cases := []struct {
		stage    catalog.Stage
		requires catalog.Stage
	}{
		{catalog.StageEdit, catalog.StagePreprocess},
		{catalog.StagePostprocess, catalog.StageEdit},
		{catalog.StageMetadata, catalog.StagePostprocess},
		{catalog.StageExport, catalog.StageMetadata},
	}
	for _, tc := range cases {
		var precondition *catalog.StagePreconditionError
		_, err := store.ClaimStage(ctx, episode.ID, tc.stage, stageRef(tc.requires))
		if !errors.As(err, &precondition) {
			t.Fatalf("%s: expected StagePreconditionError, got %v", tc.stage, err)
		}
		if precondition.Requires != tc.requires || precondition.Status != catalog.StatusInit {
			t.Fatalf("%s: unexpected precondition detail: %#v", tc.stage, precondition)
		}
	}

	testsupport.CompleteStage(t, store, episode.ID, catalog.StagePreprocess, nil)
	if _, err := store.ClaimStage(ctx, episode.ID, catalog.StageEdit, stageRef(catalog.StagePreprocess)); err != nil {
		t.Fatalf("expected edit claim after preprocess completed, got %v", err)
	}

	if _, err := store.ClaimStage(ctx, "missing", catalog.StagePreprocess, nil); !errors.Is(err, catalog.ErrEpisodeNotFound) {
		t.Fatalf("expected ErrEpisodeNotFound, got %v", err)
	}
}

func TestMarkStageProcessingGuards(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	episode := testsupport.NewEpisode(t, store, "Guards")
	job, err := store.ClaimStage(ctx, episode.ID, catalog.StagePreprocess, nil)
	if err != nil {
		t.Fatalf("ClaimStage failed: %v", err)
	}

	if err := store.MarkStageProcessing(ctx, job.ID); err != nil {
		t.Fatalf("MarkStageProcessing failed: %v", err)
	}
	if err := store.MarkStageProcessing(ctx, job.ID); !errors.Is(err, catalog.ErrStaleJob) {
		t.Fatalf("expected ErrStaleJob on repeat, got %v", err)
	}
	if err := store.MarkStageProcessing(ctx, job.ID+100); !errors.Is(err, catalog.ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}

func TestFinishStageGuards(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	episode := testsupport.NewEpisode(t, store, "Finish Guards")
	job, err := store.ClaimStage(ctx, episode.ID, catalog.StagePreprocess, nil)
	if err != nil {
		t.Fatalf("ClaimStage failed: %v", err)
	}

	if err := store.FinishStage(ctx, job.ID, catalog.StatusPending, ""); err == nil {
		t.Fatal("expected non-terminal status to be rejected")
	}
	if err := store.FinishStage(ctx, job.ID, catalog.StatusFailed, "early"); !errors.Is(err, catalog.ErrStaleJob) {
		t.Fatalf("expected ErrStaleJob before processing, got %v", err)
	}

	if err := store.MarkStageProcessing(ctx, job.ID); err != nil {
		t.Fatalf("MarkStageProcessing failed: %v", err)
	}
	if err := store.FinishStage(ctx, job.ID, catalog.StatusFailed, "external tool exited 1"); err != nil {
		t.Fatalf("FinishStage failed: %v", err)
	}

	failed, err := store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if failed.Status != catalog.StatusFailed || failed.ErrorMessage != "external tool exited 1" {
		t.Fatalf("unexpected failed job: %#v", failed)
	}
	after, err := store.GetEpisode(ctx, episode.ID)
	if err != nil {
		t.Fatalf("GetEpisode failed: %v", err)
	}
	if after.Stages.Preprocess != catalog.StatusFailed {
		t.Fatalf("expected failed stage, got %s", after.Stages.Preprocess)
	}

	if err := store.FinishStage(ctx, job.ID, catalog.StatusCompleted, ""); !errors.Is(err, catalog.ErrStaleJob) {
		t.Fatalf("expected ErrStaleJob on repeat finish, got %v", err)
	}
}

func TestFinishStageCompletedClearsErrorMessage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	episode := testsupport.NewEpisode(t, store, "Clear Message")
	job, err := store.ClaimStage(ctx, episode.ID, catalog.StagePreprocess, nil)
	if err != nil {
		t.Fatalf("ClaimStage failed: %v", err)
	}
	if err := store.MarkStageProcessing(ctx, job.ID); err != nil {
		t.Fatalf("MarkStageProcessing failed: %v", err)
	}
	if err := store.FinishStage(ctx, job.ID, catalog.StatusCompleted, "ignored"); err != nil {
		t.Fatalf("FinishStage failed: %v", err)
	}

	done, err := store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if done.ErrorMessage != "" {
		t.Fatalf("expected cleared error message, got %q", done.ErrorMessage)
	}
}

func TestDeleteEpisodeRemovesJobHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	episode := testsupport.NewEpisode(t, store, "Deleted")
	testsupport.CompleteStage(t, store, episode.ID, catalog.StagePreprocess, nil)

	if err := store.DeleteEpisode(ctx, episode.ID); err != nil {
		t.Fatalf("DeleteEpisode failed: %v", err)
	}

	gone, err := store.GetEpisode(ctx, episode.ID)
	if err != nil {
		t.Fatalf("GetEpisode failed: %v", err)
	}
	if gone != nil {
		t.Fatalf("expected episode removed, got %#v", gone)
	}
	jobs, err := store.JobsForEpisode(ctx, episode.ID)
	if err != nil {
		t.Fatalf("JobsForEpisode failed: %v", err)
	}
	if len(jobs) != 0 {
		t.Fatalf("expected job history removed, got %d jobs", len(jobs))
	}

	if err := store.DeleteEpisode(ctx, episode.ID); !errors.Is(err, catalog.ErrEpisodeNotFound) {
		t.Fatalf("expected ErrEpisodeNotFound on repeat delete, got %v", err)
	}
}

func TestJobHistoryAndStats(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	episode := testsupport.NewEpisode(t, store, "History")

	first, err := store.ClaimStage(ctx, episode.ID, catalog.StagePreprocess, nil)
	if err != nil {
		t.Fatalf("ClaimStage failed: %v", err)
	}
	if err := store.MarkStageProcessing(ctx, first.ID); err != nil {
		t.Fatalf("MarkStageProcessing failed: %v", err)
	}
	if err := store.FinishStage(ctx, first.ID, catalog.StatusFailed, "boom"); err != nil {
		t.Fatalf("FinishStage failed: %v", err)
	}
	second, err := store.ClaimStage(ctx, episode.ID, catalog.StagePreprocess, nil)
	if err != nil {
		t.Fatalf("second claim failed: %v", err)
	}

	jobs, err := store.JobsForEpisode(ctx, episode.ID)
	if err != nil {
		t.Fatalf("JobsForEpisode failed: %v", err)
	}
	if len(jobs) != 2 || jobs[0].ID != first.ID || jobs[1].ID != second.ID {
		t.Fatalf("unexpected job history: %#v", jobs)
	}

	stats, err := store.JobStats(ctx)
	if err != nil {
		t.Fatalf("JobStats failed: %v", err)
	}
	if stats[catalog.StatusFailed] != 1 || stats[catalog.StatusPending] != 1 {
		t.Fatalf("unexpected stats: %#v", stats)
	}
	if _, ok := stats[catalog.StatusProcessing]; !ok {
		t.Fatal("expected zero-valued statuses present in stats")
	}

	missing, err := store.GetJob(ctx, second.ID+50)
	if err != nil {
		t.Fatalf("GetJob for missing ID failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing job, got %#v", missing)
	}
}
