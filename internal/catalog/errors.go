package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrEpisodeNotFound reports a stage transition against a missing episode.
	ErrEpisodeNotFound = errors.New("episode not found")
	// ErrJobNotFound reports a stage transition against a missing job.
	ErrJobNotFound = errors.New("job not found")
	// ErrStaleJob reports a guarded transition that lost its expected-status
	// check, typically because the job or episode moved underneath it.
	ErrStaleJob = errors.New("job is not in the expected status")
)

// StagePreconditionError reports an initiation attempt whose required
// predecessor stage has not completed. Status carries the predecessor's
// observed status for diagnostics.
type StagePreconditionError struct {
	Stage    Stage
	Requires Stage
	Status   JobStatus
}

func (e *StagePreconditionError) Error() string {
	return fmt.Sprintf("stage %s requires %s to be completed, but it is %s", e.Stage, e.Requires, e.Status)
}

// StageConflictError reports a lost initiation race: the stage is already
// pending or processing for this episode.
type StageConflictError struct {
	Stage  Stage
	Status JobStatus
}

func (e *StageConflictError) Error() string {
	return fmt.Sprintf("stage %s is already %s", e.Stage, e.Status)
}
