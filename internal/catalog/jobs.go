package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

func stageColumn(stage Stage) (string, error) {
	column, ok := stageStatusColumns[stage]
	if !ok {
		return "", fmt.Errorf("unknown stage %q", stage)
	}
	return column, nil
}

func getJobTx(ctx context.Context, tx *sql.Tx, id int64) (*Job, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// GetJob fetches a job by identifier. Returns (nil, nil) when the job does
// not exist.
func (s *Store) GetJob(ctx context.Context, id int64) (*Job, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// JobsForEpisode returns the episode's job history in creation order.
func (s *Store) JobsForEpisode(ctx context.Context, episodeID string) ([]*Job, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE episode_id = ? ORDER BY id`,
		episodeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// ClaimStage atomically moves a stage to pending and records the job that
// will run it. The predecessor check, the conflict check, and both writes
// happen inside one transaction so concurrent initiations of the same stage
// resolve to exactly one claim.
//
// requires names the stage that must be completed first; nil means the stage
// has no predecessor. A violated predecessor yields *StagePreconditionError,
// a stage already pending or processing yields *StageConflictError.
func (s *Store) ClaimStage(ctx context.Context, episodeID string, stage Stage, requires *Stage) (*Job, error) {
	ctx = ensureContext(ctx)
	column, err := stageColumn(stage)
	if err != nil {
		return nil, err
	}

	var claimed *Job
	err = retryOnBusy(ctx, func() error {
		claimed = nil
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin claim tx: %w", err)
		}
		defer func() {
			_ = tx.Rollback()
		}()

		row := tx.QueryRowContext(ctx, `SELECT `+episodeColumns+` FROM episodes WHERE id = ?`, episodeID)
		episode, err := scanEpisode(row)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrEpisodeNotFound
		}
		if err != nil {
			return fmt.Errorf("read episode: %w", err)
		}

		if requires != nil {
			if observed := episode.Stages.Get(*requires); observed != StatusCompleted {
				return &StagePreconditionError{Stage: stage, Requires: *requires, Status: observed}
			}
		}
		if current := episode.Stages.Get(stage); current == StatusPending || current == StatusProcessing {
			return &StageConflictError{Stage: stage, Status: current}
		}

		timestamp := time.Now().UTC().Format(time.RFC3339Nano)
		res, err := tx.ExecContext(
			ctx,
			`UPDATE episodes SET `+column+` = ?, updated_at = ? WHERE id = ? AND `+column+` IN (?, ?, ?)`,
			StatusPending,
			timestamp,
			episodeID,
			StatusInit,
			StatusCompleted,
			StatusFailed,
		)
		if err != nil {
			return fmt.Errorf("claim stage: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("claim stage: %w", err)
		}
		if affected == 0 {
			return &StageConflictError{Stage: stage, Status: episode.Stages.Get(stage)}
		}

		insert, err := tx.ExecContext(
			ctx,
			`INSERT INTO jobs (episode_id, stage, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			episodeID,
			stage,
			StatusPending,
			timestamp,
			timestamp,
		)
		if err != nil {
			return fmt.Errorf("insert job: %w", err)
		}
		jobID, err := insert.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert job: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit claim tx: %w", err)
		}

		created, _ := parseTimeString(timestamp)
		claimed = &Job{
			ID:        jobID,
			EpisodeID: episodeID,
			Stage:     stage,
			Status:    StatusPending,
			CreatedAt: created,
			UpdatedAt: created,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// MarkStageProcessing transitions a pending job and its episode stage column
// to processing in one transaction. ErrStaleJob reports that the job was no
// longer pending or the episode column no longer matched.
func (s *Store) MarkStageProcessing(ctx context.Context, jobID int64) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin processing tx: %w", err)
		}
		defer func() {
			_ = tx.Rollback()
		}()

		job, err := getJobTx(ctx, tx, jobID)
		if err != nil {
			return err
		}
		column, err := stageColumn(job.Stage)
		if err != nil {
			return err
		}

		timestamp := time.Now().UTC().Format(time.RFC3339Nano)
		res, err := tx.ExecContext(
			ctx,
			`UPDATE jobs SET status = ?, started_at = ?, updated_at = ? WHERE id = ? AND status = ?`,
			StatusProcessing,
			timestamp,
			timestamp,
			jobID,
			StatusPending,
		)
		if err != nil {
			return fmt.Errorf("mark job processing: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("mark job processing: %w", err)
		}
		if affected == 0 {
			return ErrStaleJob
		}

		res, err = tx.ExecContext(
			ctx,
			`UPDATE episodes SET `+column+` = ?, updated_at = ? WHERE id = ? AND `+column+` = ?`,
			StatusProcessing,
			timestamp,
			job.EpisodeID,
			StatusPending,
		)
		if err != nil {
			return fmt.Errorf("mark stage processing: %w", err)
		}
		affected, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("mark stage processing: %w", err)
		}
		if affected == 0 {
			return ErrStaleJob
		}

		return tx.Commit()
	})
}

// FinishStage records a job's terminal outcome and mirrors it onto the
// episode stage column in one transaction. errorMessage is stored only for
// failures; a completed job always clears it.
func (s *Store) FinishStage(ctx context.Context, jobID int64, status JobStatus, errorMessage string) error {
	if !status.IsTerminal() {
		return fmt.Errorf("status %q is not terminal", status)
	}
	if status == StatusCompleted {
		errorMessage = ""
	}

	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin finish tx: %w", err)
		}
		defer func() {
			_ = tx.Rollback()
		}()

		job, err := getJobTx(ctx, tx, jobID)
		if err != nil {
			return err
		}
		column, err := stageColumn(job.Stage)
		if err != nil {
			return err
		}

		timestamp := time.Now().UTC().Format(time.RFC3339Nano)
		res, err := tx.ExecContext(
			ctx,
			`UPDATE jobs SET status = ?, error_message = ?, finished_at = ?, updated_at = ? WHERE id = ? AND status = ?`,
			status,
			nullableString(errorMessage),
			timestamp,
			timestamp,
			jobID,
			StatusProcessing,
		)
		if err != nil {
			return fmt.Errorf("finish job: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("finish job: %w", err)
		}
		if affected == 0 {
			return ErrStaleJob
		}

		res, err = tx.ExecContext(
			ctx,
			`UPDATE episodes SET `+column+` = ?, updated_at = ? WHERE id = ? AND `+column+` = ?`,
			status,
			timestamp,
			job.EpisodeID,
			StatusProcessing,
		)
		if err != nil {
			return fmt.Errorf("finish stage: %w", err)
		}
		affected, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("finish stage: %w", err)
		}
		if affected == 0 {
			return ErrStaleJob
		}

		return tx.Commit()
	})
}

// JobStats returns job counts grouped by status. Every known status appears
// in the result, zero-valued when absent.
func (s *Store) JobStats(ctx context.Context) (map[JobStatus]int, error) {
	ctx = ensureContext(ctx)
	stats := make(map[JobStatus]int, len(allStatuses))
	for _, status := range allStatuses {
		stats[status] = 0
	}

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("job stats: %w", err)
		}
		stats[JobStatus(status)] = count
	}
	return stats, rows.Err()
}
