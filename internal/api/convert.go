package api

import (
	"time"

	"podbench/internal/catalog"
)

// FromEpisode converts a catalog record to its API representation.
func FromEpisode(episode *catalog.Episode) Episode {
	if episode == nil {
		return Episode{}
	}
	return Episode{
		ID:          episode.ID,
		Title:       episode.Title,
		EditorState: episode.EditorState,
		Stages: StageStatuses{
			Preprocess:  string(episode.Stages.Preprocess),
			Edit:        string(episode.Stages.Edit),
			Postprocess: string(episode.Stages.Postprocess),
			Metadata:    string(episode.Stages.Metadata),
			Export:      string(episode.Stages.Export),
		},
		CreatedAt: FormatTime(episode.CreatedAt),
		UpdatedAt: FormatTime(episode.UpdatedAt),
	}
}

// FromEpisodes converts a slice of catalog records into API DTOs.
func FromEpisodes(episodes []*catalog.Episode) []Episode {
	if len(episodes) == 0 {
		return nil
	}
	out := make([]Episode, 0, len(episodes))
	for _, episode := range episodes {
		out = append(out, FromEpisode(episode))
	}
	return out
}

// FromJob converts a job record to its API representation.
func FromJob(job *catalog.Job) Job {
	if job == nil {
		return Job{}
	}
	dto := Job{
		ID:           job.ID,
		EpisodeID:    job.EpisodeID,
		Stage:        string(job.Stage),
		Status:       string(job.Status),
		ErrorMessage: job.ErrorMessage,
		CreatedAt:    FormatTime(job.CreatedAt),
		UpdatedAt:    FormatTime(job.UpdatedAt),
	}
	if job.StartedAt != nil {
		dto.StartedAt = FormatTime(*job.StartedAt)
	}
	if job.FinishedAt != nil {
		dto.FinishedAt = FormatTime(*job.FinishedAt)
	}
	return dto
}

// FromJobs converts a slice of job records into API DTOs.
func FromJobs(jobs []*catalog.Job) []Job {
	if len(jobs) == 0 {
		return nil
	}
	out := make([]Job, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, FromJob(job))
	}
	return out
}

// FormatTime converts a time to RFC3339 or returns empty string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
