package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ListOptions controls episode listing. SortBy and Order must be one of the
// whitelisted values; Stage and Status filter episodes on a stage's current
// status and must be provided together.
type ListOptions struct {
	Limit  int
	Offset int
	SortBy string
	Order  string
	Stage  Stage
	Status JobStatus
}

const defaultListLimit = 50

var listSortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
}

// NewEpisode inserts an episode with every stage at init and returns the
// stored row.
func (s *Store) NewEpisode(ctx context.Context, title string) (*Episode, error) {
	ctx = ensureContext(ctx)
	id := uuid.New().String()
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO episodes (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		id,
		title,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert episode: %w", err)
	}

	return s.GetEpisode(ctx, id)
}

// GetEpisode fetches an episode by identifier. Returns (nil, nil) when the
// episode does not exist.
func (s *Store) GetEpisode(ctx context.Context, id string) (*Episode, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+episodeColumns+` FROM episodes WHERE id = ?`, id)
	episode, err := scanEpisode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get episode: %w", err)
	}
	return episode, nil
}

// ListEpisodes returns episodes ordered and filtered per opts.
func (s *Store) ListEpisodes(ctx context.Context, opts ListOptions) ([]*Episode, error) {
	ctx = ensureContext(ctx)

	sortBy := strings.ToLower(strings.TrimSpace(opts.SortBy))
	if sortBy == "" {
		sortBy = "created_at"
	}
	sortColumn, ok := listSortColumns[sortBy]
	if !ok {
		return nil, fmt.Errorf("list episodes: unsupported sort key %q", opts.SortBy)
	}

	order := strings.ToLower(strings.TrimSpace(opts.Order))
	switch order {
	case "":
		order = "DESC"
	case "asc":
		order = "ASC"
	case "desc":
		order = "DESC"
	default:
		return nil, fmt.Errorf("list episodes: unsupported order %q", opts.Order)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + episodeColumns + ` FROM episodes`
	args := make([]any, 0, 4)

	hasStage := opts.Stage != ""
	hasStatus := opts.Status != ""
	if hasStage != hasStatus {
		return nil, errors.New("list episodes: stage and status filters must be provided together")
	}
	if hasStage {
		column, ok := stageStatusColumns[opts.Stage]
		if !ok {
			return nil, fmt.Errorf("list episodes: unknown stage %q", opts.Stage)
		}
		if _, ok := statusSet[opts.Status]; !ok {
			return nil, fmt.Errorf("list episodes: unknown status %q", opts.Status)
		}
		query += ` WHERE ` + column + ` = ?`
		args = append(args, opts.Status)
	}

	query += ` ORDER BY ` + sortColumn + ` ` + order + ` LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()

	var episodes []*Episode
	for rows.Next() {
		episode, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		episodes = append(episodes, episode)
	}
	return episodes, rows.Err()
}

// UpdateEpisode persists the mutable episode fields (title and editor state).
// Stage statuses are deliberately excluded; they change only through stage
// transitions.
func (s *Store) UpdateEpisode(ctx context.Context, episode *Episode) error {
	if episode == nil {
		return errors.New("episode is nil")
	}
	ctx = ensureContext(ctx)
	episode.UpdatedAt = time.Now().UTC()
	res, err := s.execWithRetry(
		ctx,
		`UPDATE episodes SET title = ?, editor_state = ?, updated_at = ? WHERE id = ?`,
		episode.Title,
		nullableString(episode.EditorState),
		episode.UpdatedAt.Format(time.RFC3339Nano),
		episode.ID,
	)
	if err != nil {
		return fmt.Errorf("update episode: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update episode: %w", err)
	}
	if affected == 0 {
		return ErrEpisodeNotFound
	}
	return nil
}

// DeleteEpisode removes the episode row and its job history in one
// transaction.
func (s *Store) DeleteEpisode(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin delete tx: %w", err)
		}
		defer func() {
			_ = tx.Rollback()
		}()

		if _, err := tx.ExecContext(ctx, `DELETE FROM jobs WHERE episode_id = ?`, id); err != nil {
			return fmt.Errorf("delete jobs: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM episodes WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete episode: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete episode: %w", err)
		}
		if affected == 0 {
			return ErrEpisodeNotFound
		}
		return tx.Commit()
	})
}

// EpisodeCount returns the total number of episodes.
func (s *Store) EpisodeCount(ctx context.Context) (int, error) {
	ctx = ensureContext(ctx)
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM episodes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count episodes: %w", err)
	}
	return count, nil
}
