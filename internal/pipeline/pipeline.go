package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"podbench/internal/catalog"
	"podbench/internal/events"
	"podbench/internal/layout"
	"podbench/internal/logging"
	"podbench/internal/processing"
)

// Pipeline owns the stage table and drives episodes through it. Initiate
// performs the transactional claim; the embedded executor runs the stage in
// the background and persists the outcome.
type Pipeline struct {
	store    *catalog.Store
	layout   *layout.Manager
	adapter  processing.Adapter
	logger   *slog.Logger
	stages   map[catalog.Stage]stageDefinition
	executor *Executor
}

// New wires the stage table and the executor. stageTimeout bounds each
// execution; zero disables the deadline.
func New(store *catalog.Store, lay *layout.Manager, adapter processing.Adapter, hub *events.Hub, logger *slog.Logger, stageTimeout time.Duration) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	p := &Pipeline{
		store:   store,
		layout:  lay,
		adapter: adapter,
		logger:  logging.NewComponentLogger(logger, "pipeline"),
	}
	p.stages = p.buildStages()
	p.executor = newExecutor(store, hub, p.logger, stageTimeout, p.runStage)
	return p
}

// Initiate claims a stage for the episode and dispatches its execution. It
// returns the post-claim episode snapshot and the created job without
// waiting for the execution to start.
func (p *Pipeline) Initiate(ctx context.Context, episodeID string, stage catalog.Stage) (*catalog.Episode, *catalog.Job, error) {
	def, ok := p.stages[stage]
	if !ok {
		return nil, nil, fmt.Errorf("unknown stage %q", stage)
	}

	job, err := p.store.ClaimStage(ctx, episodeID, stage, def.requires)
	if err != nil {
		return nil, nil, err
	}

	p.logger.Info("stage initiated",
		logging.String(logging.FieldEpisodeID, episodeID),
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String(logging.FieldStage, string(stage)),
		logging.String(logging.FieldEventType, "stage_initiated"),
	)
	p.executor.Dispatch(job.ID)

	episode, err := p.store.GetEpisode(ctx, episodeID)
	if err != nil {
		return nil, job, err
	}
	return episode, job, nil
}

// Close waits for in-flight stage executions to persist their outcomes.
// Pending adapter calls are interrupted; their jobs finish as failed.
func (p *Pipeline) Close() {
	p.executor.Close()
}
