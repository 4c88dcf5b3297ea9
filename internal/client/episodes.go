package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"podbench/internal/api"
	"podbench/internal/catalog"
)

// ListOptions narrows and pages the episode listing.
type ListOptions struct {
	Limit  int
	Offset int
	Sort   string
	Order  string
	Stage  string
	Status string
}

// ListEpisodes fetches a page of episodes.
func (c *Client) ListEpisodes(ctx context.Context, opts ListOptions) (*api.EpisodeListResponse, error) {
	query := url.Values{}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		query.Set("offset", strconv.Itoa(opts.Offset))
	}
	if opts.Sort != "" {
		query.Set("sort", opts.Sort)
	}
	if opts.Order != "" {
		query.Set("order", opts.Order)
	}
	if opts.Stage != "" {
		query.Set("stage", opts.Stage)
	}
	if opts.Status != "" {
		query.Set("status", opts.Status)
	}

	path := "/api/v1/episodes"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var list api.EpisodeListResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, "", &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetEpisode fetches one episode by ID.
func (c *Client) GetEpisode(ctx context.Context, id string) (*api.Episode, error) {
	var resp api.EpisodeResponse
	if err := c.doJSON(ctx, http.MethodGet, episodePath(id), nil, "", &resp); err != nil {
		return nil, err
	}
	return &resp.Episode, nil
}

// CreateEpisode uploads the given local recordings as a new episode. An
// empty title lets the daemon derive one from the first filename.
func (c *Client) CreateEpisode(ctx context.Context, title string, paths []string) (*api.Episode, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("podbench client: at least one recording file is required")
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if trimmed := strings.TrimSpace(title); trimmed != "" {
		if err := writer.WriteField("title", trimmed); err != nil {
			return nil, fmt.Errorf("podbench client: write title field: %w", err)
		}
	}
	for _, path := range paths {
		if err := appendFile(writer, path); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("podbench client: close multipart writer: %w", err)
	}

	var resp api.EpisodeResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/episodes", body, writer.FormDataContentType(), &resp); err != nil {
		return nil, err
	}
	return &resp.Episode, nil
}

func appendFile(writer *multipart.Writer, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("podbench client: open recording: %w", err)
	}
	defer file.Close()

	field, err := writer.CreateFormFile("files", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("podbench client: create file field: %w", err)
	}
	if _, err := io.Copy(field, file); err != nil {
		return fmt.Errorf("podbench client: copy %s: %w", filepath.Base(path), err)
	}
	return nil
}

// TriggerStage asks the daemon to run the named stage on an episode.
func (c *Client) TriggerStage(ctx context.Context, id, stage string) (*api.StageTriggerResponse, error) {
	parsed, ok := catalog.ParseStage(stage)
	if !ok {
		return nil, fmt.Errorf("podbench client: unknown stage %q", stage)
	}

	var resp api.StageTriggerResponse
	if err := c.doJSON(ctx, http.MethodPost, episodePath(id)+"/"+string(parsed), nil, "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteEpisode removes an episode, its jobs, and its artifact tree.
func (c *Client) DeleteEpisode(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, episodePath(id), nil, "", nil)
}

// EpisodeJobs fetches the stage attempt history for an episode.
func (c *Client) EpisodeJobs(ctx context.Context, id string) ([]api.Job, error) {
	var resp api.JobListResponse
	if err := c.doJSON(ctx, http.MethodGet, episodePath(id)+"/jobs", nil, "", &resp); err != nil {
		return nil, err
	}
	return resp.Jobs, nil
}

func episodePath(id string) string {
	return "/api/v1/episodes/" + url.PathEscape(strings.TrimSpace(id))
}
