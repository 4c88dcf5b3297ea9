package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"podbench/internal/catalog"
	"podbench/internal/events"
	"podbench/internal/logging"
	"podbench/internal/services"
)

// Executor runs claimed jobs on their own goroutines. Execution contexts
// derive from the executor's root context, never from the request that
// initiated the stage, so a returned response does not cancel the work.
type Executor struct {
	store   *catalog.Store
	hub     *events.Hub
	logger  *slog.Logger
	timeout time.Duration
	run     func(ctx context.Context, episode *catalog.Episode, job *catalog.Job) error

	rootCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func newExecutor(store *catalog.Store, hub *events.Hub, logger *slog.Logger, timeout time.Duration, run func(context.Context, *catalog.Episode, *catalog.Job) error) *Executor {
	rootCtx, cancel := context.WithCancel(context.Background())
	return &Executor{
		store:   store,
		hub:     hub,
		logger:  logger,
		timeout: timeout,
		run:     run,
		rootCtx: rootCtx,
		cancel:  cancel,
	}
}

// Dispatch schedules a claimed job on a new goroutine and returns
// immediately.
func (e *Executor) Dispatch(jobID int64) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.Execute(jobID)
	}()
}

// Close interrupts in-flight executions and waits for their terminal
// statuses to be persisted.
func (e *Executor) Close() {
	e.cancel()
	e.wg.Wait()
}

// Execute runs one claimed job to a terminal status. A job or episode that
// vanished before execution is a silent no-op. Every other path, including
// panics and timeouts, persists exactly one terminal status.
func (e *Executor) Execute(jobID int64) {
	execCtx := e.rootCtx
	cancel := context.CancelFunc(func() {})
	if e.timeout > 0 {
		execCtx, cancel = context.WithTimeout(e.rootCtx, e.timeout)
	}
	defer cancel()

	job, err := e.store.GetJob(execCtx, jobID)
	if err != nil {
		e.logger.Error("load job for execution", logging.Int64(logging.FieldJobID, jobID), logging.Error(err))
		return
	}
	if job == nil {
		e.logger.Debug("job vanished before execution", logging.Int64(logging.FieldJobID, jobID))
		return
	}
	episode, err := e.store.GetEpisode(execCtx, job.EpisodeID)
	if err != nil {
		e.logger.Error("load episode for execution", logging.Int64(logging.FieldJobID, jobID), logging.Error(err))
		return
	}
	if episode == nil {
		e.logger.Debug("episode vanished before execution",
			logging.Int64(logging.FieldJobID, jobID),
			logging.String(logging.FieldEpisodeID, job.EpisodeID),
		)
		return
	}

	execCtx = services.WithEpisodeID(execCtx, episode.ID)
	execCtx = services.WithJobID(execCtx, job.ID)
	execCtx = services.WithStage(execCtx, string(job.Stage))
	logger := logging.WithContext(execCtx, e.logger)

	if err := e.store.MarkStageProcessing(execCtx, job.ID); err != nil {
		logger.Debug("job no longer pending, skipping execution", logging.Error(err))
		return
	}

	logger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))
	e.hub.Publish(events.Event{
		Type:      events.TypeStageStart,
		EpisodeID: episode.ID,
		JobID:     job.ID,
		Stage:     string(job.Stage),
		Status:    string(catalog.StatusProcessing),
	})

	start := time.Now()
	var runErr error
	defer func() {
		if r := recover(); r != nil {
			runErr = fmt.Errorf("stage panicked: %v", r)
		}
		e.finish(execCtx, logger, job, runErr, time.Since(start))
	}()
	runErr = e.run(execCtx, episode, job)
}

func (e *Executor) finish(ctx context.Context, logger *slog.Logger, job *catalog.Job, runErr error, elapsed time.Duration) {
	// The terminal persist must survive a timed-out or cancelled execution
	// context.
	persistCtx := context.WithoutCancel(ctx)

	status := catalog.StatusCompleted
	message := ""
	if runErr != nil {
		status = catalog.StatusFailed
		message = e.failureMessage(runErr)
	}
	if err := e.store.FinishStage(persistCtx, job.ID, status, message); err != nil {
		logger.Error("failed to persist stage result",
			logging.String(logging.FieldEventType, "stage_persist_failed"),
			logging.Error(err),
		)
	}

	event := events.Event{
		EpisodeID: job.EpisodeID,
		JobID:     job.ID,
		Stage:     string(job.Stage),
		Status:    string(status),
	}
	if runErr != nil {
		logger.Error("stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.String("error_message", message),
			logging.Duration("stage_duration", elapsed),
			logging.Error(runErr),
		)
		event.Type = events.TypeStageFailure
		event.ErrorMessage = message
	} else {
		logger.Info("stage completed",
			logging.String(logging.FieldEventType, "stage_complete"),
			logging.Duration("stage_duration", elapsed),
		)
		event.Type = events.TypeStageComplete
	}
	e.hub.Publish(event)
}

func (e *Executor) failureMessage(err error) string {
	if errors.Is(err, context.DeadlineExceeded) && e.timeout > 0 {
		return fmt.Sprintf("stage timed out after %s", e.timeout)
	}
	message := strings.TrimSpace(err.Error())
	if message == "" {
		return "stage failed"
	}
	return message
}
