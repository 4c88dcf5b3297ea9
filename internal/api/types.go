package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Episode describes an episode in a transport-friendly format.
type Episode struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	EditorState string        `json:"editor_state,omitempty"`
	Stages      StageStatuses `json:"stages"`
	CreatedAt   string        `json:"created_at,omitempty"`
	UpdatedAt   string        `json:"updated_at,omitempty"`
}

// StageStatuses carries the per-stage status projection.
type StageStatuses struct {
	Preprocess  string `json:"preprocess"`
	Edit        string `json:"edit"`
	Postprocess string `json:"postprocess"`
	Metadata    string `json:"metadata"`
	Export      string `json:"export"`
}

// Job describes one stage-invocation attempt.
type Job struct {
	ID           int64  `json:"id"`
	EpisodeID    string `json:"episode_id"`
	Stage        string `json:"stage"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty"`
	StartedAt    string `json:"started_at,omitempty"`
	FinishedAt   string `json:"finished_at,omitempty"`
}

// EpisodeResponse wraps a single episode.
type EpisodeResponse struct {
	Episode Episode `json:"episode"`
}

// EpisodeListResponse wraps a page of episodes. Total counts all episodes in
// the catalog, not the page.
type EpisodeListResponse struct {
	Episodes []Episode `json:"episodes"`
	Total    int       `json:"total"`
}

// JobListResponse wraps an episode's job history.
type JobListResponse struct {
	Jobs []Job `json:"jobs"`
}

// StageTriggerResponse acknowledges an accepted stage run. The episode
// snapshot reflects the claim, not the outcome.
type StageTriggerResponse struct {
	Episode Episode `json:"episode"`
	Job     Job     `json:"job"`
}

// FileListResponse lists artifact file names inside a stage directory.
type FileListResponse struct {
	Files []string `json:"files"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// CheckResult mirrors a preflight check outcome.
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// DiskStatus reports capacity of the filesystem holding the data directory.
type DiskStatus struct {
	Path       string `json:"path"`
	TotalBytes uint64 `json:"total_bytes"`
	FreeBytes  uint64 `json:"free_bytes"`
	Detail     string `json:"detail"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running       bool               `json:"running"`
	PID           int                `json:"pid"`
	CatalogDBPath string             `json:"catalog_db_path"`
	LockFilePath  string             `json:"lock_file_path"`
	EpisodeCount  int                `json:"episode_count"`
	JobCounts     map[string]int     `json:"job_counts"`
	Checks        []CheckResult      `json:"checks"`
	Dependencies  []DependencyStatus `json:"dependencies"`
	Disk          *DiskStatus        `json:"disk,omitempty"`
}
