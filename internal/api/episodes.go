package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"podbench/internal/catalog"
	"podbench/internal/events"
	"podbench/internal/logging"
)

func (s *Server) handleCreateEpisode(w http.ResponseWriter, r *http.Request) {
	if s.ingestor == nil {
		s.writeError(w, http.StatusServiceUnavailable, "ingest unavailable")
		return
	}
	req, err := s.parseIngest(w, r)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	episode, _, err := s.ingestor.Ingest(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, EpisodeResponse{Episode: FromEpisode(episode)})
}

func (s *Server) handleListEpisodes(w http.ResponseWriter, r *http.Request) {
	opts, err := parseListOptions(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	episodes, err := s.store.ListEpisodes(r.Context(), opts)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	total, err := s.store.EpisodeCount(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, EpisodeListResponse{Episodes: FromEpisodes(episodes), Total: total})
}

func parseListOptions(r *http.Request) (catalog.ListOptions, error) {
	query := r.URL.Query()
	opts := catalog.ListOptions{}

	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			return opts, errors.New("limit must be a non-negative integer")
		}
		opts.Limit = value
	}
	if raw := strings.TrimSpace(query.Get("offset")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			return opts, errors.New("offset must be a non-negative integer")
		}
		opts.Offset = value
	}

	switch sortBy := strings.ToLower(strings.TrimSpace(query.Get("sort"))); sortBy {
	case "", "created_at", "updated_at":
		opts.SortBy = sortBy
	default:
		return opts, errors.New("sort must be created_at or updated_at")
	}
	switch order := strings.ToLower(strings.TrimSpace(query.Get("order"))); order {
	case "", "asc", "desc":
		opts.Order = order
	default:
		return opts, errors.New("order must be asc or desc")
	}

	rawStage := strings.TrimSpace(query.Get("stage"))
	rawStatus := strings.TrimSpace(query.Get("status"))
	if (rawStage == "") != (rawStatus == "") {
		return opts, errors.New("stage and status filters must be provided together")
	}
	if rawStage != "" {
		stage, ok := catalog.ParseStage(rawStage)
		if !ok {
			return opts, errors.New("unknown stage filter")
		}
		status, ok := catalog.ParseJobStatus(rawStatus)
		if !ok {
			return opts, errors.New("unknown status filter")
		}
		opts.Stage = stage
		opts.Status = status
	}
	return opts, nil
}

func (s *Server) handleGetEpisode(w http.ResponseWriter, r *http.Request) {
	episode, err := s.loadEpisode(r)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, EpisodeResponse{Episode: FromEpisode(episode)})
}

type updateEpisodeRequest struct {
	Title       *string `json:"title"`
	EditorState *string `json:"editor_state"`
}

func (s *Server) handleUpdateEpisode(w http.ResponseWriter, r *http.Request) {
	var req updateEpisodeRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		s.writeError(w, http.StatusBadRequest, "title must not be empty")
		return
	}

	episode, err := s.loadEpisode(r)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if req.Title != nil {
		episode.Title = strings.TrimSpace(*req.Title)
	}
	if req.EditorState != nil {
		episode.EditorState = *req.EditorState
	}
	if err := s.store.UpdateEpisode(r.Context(), episode); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, EpisodeResponse{Episode: FromEpisode(episode)})
}

func (s *Server) handleDeleteEpisode(w http.ResponseWriter, r *http.Request) {
	episode, err := s.loadEpisode(r)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	// Tree first, row second: a crash in between leaves a visible row
	// pointing at a missing tree instead of an orphaned tree.
	if err := s.layout.RemoveEpisode(episode.ID); err != nil {
		s.writeDomainError(w, err)
		return
	}
	if err := s.store.DeleteEpisode(r.Context(), episode.ID); err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.hub.Publish(events.Event{Type: events.TypeEpisodeDeleted, EpisodeID: episode.ID})
	s.logger.Info("episode deleted",
		logging.String(logging.FieldEpisodeID, episode.ID),
		logging.String(logging.FieldEventType, events.TypeEpisodeDeleted),
	)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEpisodeJobs(w http.ResponseWriter, r *http.Request) {
	episode, err := s.loadEpisode(r)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	jobs, err := s.store.JobsForEpisode(r.Context(), episode.ID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, JobListResponse{Jobs: FromJobs(jobs)})
}

// loadEpisode resolves the {id} path value to a catalog row.
func (s *Server) loadEpisode(r *http.Request) (*catalog.Episode, error) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		return nil, catalog.ErrEpisodeNotFound
	}
	episode, err := s.store.GetEpisode(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if episode == nil {
		return nil, catalog.ErrEpisodeNotFound
	}
	return episode, nil
}
