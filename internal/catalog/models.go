package catalog

import (
	"strings"
	"time"
)

// Stage identifies one step of the episode processing pipeline.
type Stage string

const (
	StagePreprocess  Stage = "preprocess"
	StageEdit        Stage = "edit"
	StagePostprocess Stage = "postprocess"
	StageMetadata    Stage = "metadata"
	StageExport      Stage = "export"
)

var allStages = []Stage{
	StagePreprocess,
	StageEdit,
	StagePostprocess,
	StageMetadata,
	StageExport,
}

// stageStatusColumns maps stages to their episode status columns. SQL that
// names a stage column must go through this map.
var stageStatusColumns = map[Stage]string{
	StagePreprocess:  "preprocess_status",
	StageEdit:        "edit_status",
	StagePostprocess: "postprocess_status",
	StageMetadata:    "metadata_status",
	StageExport:      "export_status",
}

// Stages returns the ordered list of pipeline stages.
func Stages() []Stage {
	cp := make([]Stage, len(allStages))
	copy(cp, allStages)
	return cp
}

// ParseStage converts a string into a known Stage.
func ParseStage(value string) (Stage, bool) {
	normalized := Stage(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := stageStatusColumns[normalized]
	return normalized, ok
}

// JobStatus represents the lifecycle of a stage for an episode and of the
// processing job that runs it.
type JobStatus string

const (
	StatusInit       JobStatus = "init"
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

var allStatuses = []JobStatus{
	StatusInit,
	StatusPending,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[JobStatus]struct{} {
	set := make(map[JobStatus]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// ParseJobStatus converts a string into a known JobStatus.
func ParseJobStatus(value string) (JobStatus, bool) {
	normalized := JobStatus(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether the status is a final outcome.
func (s JobStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// StageStatuses carries the per-stage status projection stored on an episode.
type StageStatuses struct {
	Preprocess  JobStatus
	Edit        JobStatus
	Postprocess JobStatus
	Metadata    JobStatus
	Export      JobStatus
}

// Get returns the status of the given stage.
func (s StageStatuses) Get(stage Stage) JobStatus {
	switch stage {
	case StagePreprocess:
		return s.Preprocess
	case StageEdit:
		return s.Edit
	case StagePostprocess:
		return s.Postprocess
	case StageMetadata:
		return s.Metadata
	case StageExport:
		return s.Export
	default:
		return ""
	}
}

// Episode represents a podcast episode persisted in SQLite.
//
// Stage statuses are a projection of pipeline progress and change only
// through the store's transactional stage transitions; Update never touches
// them.
type Episode struct {
	ID          string
	Title       string
	EditorState string
	Stages      StageStatuses
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// StageStatus returns the episode's status for the given stage.
func (e *Episode) StageStatus(stage Stage) JobStatus {
	return e.Stages.Get(stage)
}

// Job represents one attempt at running a stage for an episode.
type Job struct {
	ID           int64
	EpisodeID    string
	Stage        Stage
	Status       JobStatus
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	StartedAt    *time.Time
	FinishedAt   *time.Time
}
