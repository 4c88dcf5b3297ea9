package daemon

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"podbench/internal/api"
	"podbench/internal/catalog"
	"podbench/internal/events"
	"podbench/internal/logging"
	"podbench/internal/services"
	"podbench/internal/textutil"
)

var (
	_ api.Ingestor       = (*Daemon)(nil)
	_ api.StatusProvider = (*Daemon)(nil)
)

// Ingest validates uploaded recordings, persists the episode row with its
// source files, and starts the preprocess stage. Validation happens before
// the row exists, so a rejected upload leaves no trace.
func (d *Daemon) Ingest(ctx context.Context, req api.IngestRequest) (*catalog.Episode, *catalog.Job, error) {
	if len(req.Files) == 0 {
		return nil, nil, services.Wrap(services.ErrValidation, "", "ingest", "at least one recording file is required", nil)
	}

	allowed := make(map[string]struct{}, len(d.cfg.Upload.AllowedExtensions))
	for _, ext := range d.cfg.Upload.AllowedExtensions {
		allowed[ext] = struct{}{}
	}
	maxBytes := d.cfg.MaxTotalBytes()

	var total int64
	names := make([]string, 0, len(req.Files))
	seen := make(map[string]struct{}, len(req.Files))
	for _, file := range req.Files {
		name := textutil.NormalizeFileName(file.Name)
		if !textutil.IsSafeFileName(name) {
			return nil, nil, services.Wrap(services.ErrValidation, "", "ingest", fmt.Sprintf("unsafe file name %q", file.Name), nil)
		}
		ext := strings.ToLower(filepath.Ext(name))
		if _, ok := allowed[ext]; !ok {
			return nil, nil, services.Wrap(services.ErrValidation, "", "ingest", fmt.Sprintf("file type %q is not allowed", ext), nil)
		}
		if _, dup := seen[name]; dup {
			return nil, nil, services.Wrap(services.ErrValidation, "", "ingest", fmt.Sprintf("duplicate file name %q", name), nil)
		}
		seen[name] = struct{}{}
		total += file.Size
		if total > maxBytes {
			return nil, nil, api.ErrPayloadTooLarge
		}
		names = append(names, name)
	}

	title := resolveTitle(req.Title, names[0])

	episode, err := d.store.NewEpisode(ctx, title)
	if err != nil {
		return nil, nil, err
	}

	if err := d.writeSources(req.Files, names, episode.ID); err != nil {
		d.discardEpisode(ctx, episode.ID)
		return nil, nil, err
	}

	d.hub.Publish(events.Event{Type: events.TypeEpisodeCreated, EpisodeID: episode.ID})
	d.logger.Info("episode created",
		logging.String(logging.FieldEpisodeID, episode.ID),
		logging.String("title", title),
		logging.Int("files", len(names)),
		logging.Int64("bytes", total),
	)

	snapshot, job, err := d.pipe.Initiate(ctx, episode.ID, catalog.StagePreprocess)
	if err != nil {
		// The episode and its sources are intact; preprocess can be
		// triggered again by hand.
		d.logger.Warn("auto preprocess failed",
			logging.String(logging.FieldEpisodeID, episode.ID),
			logging.Error(err),
		)
		return episode, nil, nil
	}
	return snapshot, job, nil
}

func (d *Daemon) writeSources(files []api.IngestFile, names []string, episodeID string) error {
	sourceDir := d.layout.SourceDir(episodeID)
	if err := os.MkdirAll(sourceDir, 0o755); err != nil {
		return fmt.Errorf("create source dir: %w", err)
	}
	for i, file := range files {
		if err := writeSource(file, filepath.Join(sourceDir, names[i])); err != nil {
			return fmt.Errorf("store %s: %w", names[i], err)
		}
	}
	return nil
}

func writeSource(file api.IngestFile, target string) error {
	reader, err := file.Open()
	if err != nil {
		return err
	}
	defer reader.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, reader); err != nil {
		return err
	}
	return out.Close()
}

// discardEpisode removes a partially ingested episode, tree first.
func (d *Daemon) discardEpisode(ctx context.Context, episodeID string) {
	if err := d.layout.RemoveEpisode(episodeID); err != nil {
		d.logger.Warn("cleanup episode tree", logging.String(logging.FieldEpisodeID, episodeID), logging.Error(err))
	}
	if err := d.store.DeleteEpisode(ctx, episodeID); err != nil {
		d.logger.Warn("cleanup episode row", logging.String(logging.FieldEpisodeID, episodeID), logging.Error(err))
	}
}

func resolveTitle(explicit, firstFile string) string {
	if title := strings.TrimSpace(explicit); title != "" {
		return title
	}
	if title := textutil.DeriveTitle(firstFile); title != "" {
		return title
	}
	return "Episode " + time.Now().UTC().Format("2006-01-02 15:04")
}
