package catalog

import (
	"database/sql"
	"errors"
	"time"
)

const episodeColumns = "id, title, editor_state, preprocess_status, edit_status, postprocess_status, metadata_status, export_status, created_at, updated_at"

const jobColumns = "id, episode_id, stage, status, error_message, created_at, updated_at, started_at, finished_at"

func scanEpisode(scanner interface{ Scan(dest ...any) error }) (*Episode, error) {
	var (
		id          string
		title       string
		editorState sql.NullString
		preprocess  string
		edit        string
		postprocess string
		metadata    string
		export      string
		createdRaw  sql.NullString
		updatedRaw  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&title,
		&editorState,
		&preprocess,
		&edit,
		&postprocess,
		&metadata,
		&export,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	episode := &Episode{
		ID:          id,
		Title:       title,
		EditorState: editorState.String,
		Stages: StageStatuses{
			Preprocess:  JobStatus(preprocess),
			Edit:        JobStatus(edit),
			Postprocess: JobStatus(postprocess),
			Metadata:    JobStatus(metadata),
			Export:      JobStatus(export),
		},
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		episode.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		episode.UpdatedAt = updated
	}
	return episode, nil
}

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id           int64
		episodeID    string
		stage        string
		status       string
		errorMessage sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
		startedRaw   sql.NullString
		finishedRaw  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&episodeID,
		&stage,
		&status,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:           id,
		EpisodeID:    episodeID,
		Stage:        Stage(stage),
		Status:       JobStatus(status),
		ErrorMessage: errorMessage.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		job.UpdatedAt = updated
	}
	if startedRaw.Valid {
		if started, err := parseTimeString(startedRaw.String); err == nil {
			job.StartedAt = &started
		}
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			job.FinishedAt = &finished
		}
	}
	return job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
