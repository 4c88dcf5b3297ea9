package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"podbench/internal/catalog"
	"podbench/internal/config"
	"podbench/internal/events"
	"podbench/internal/layout"
	"podbench/internal/logging"
	"podbench/internal/pipeline"
)

// IngestFile is one uploaded recording. Open returns the file content; the
// reader is consumed once while writing the source directory.
type IngestFile struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// IngestRequest carries a validated-not-yet-persisted episode creation.
type IngestRequest struct {
	Title string
	Files []IngestFile
}

// Ingestor creates an episode from uploaded recordings and starts its
// preprocess run. The daemon provides the implementation.
type Ingestor interface {
	Ingest(ctx context.Context, req IngestRequest) (*catalog.Episode, *catalog.Job, error)
}

// StatusProvider reports daemon runtime status for the status endpoint.
type StatusProvider interface {
	Status(ctx context.Context) DaemonStatus
}

// Server exposes the episode catalog and pipeline over HTTP.
type Server struct {
	cfg      *config.Config
	store    *catalog.Store
	layout   *layout.Manager
	pipe     *pipeline.Pipeline
	hub      *events.Hub
	ingestor Ingestor
	status   StatusProvider
	logger   *slog.Logger

	handler  http.Handler
	listener net.Listener
	server   *http.Server
	upgrader websocket.Upgrader
}

// Options carries the server's collaborators.
type Options struct {
	Config   *config.Config
	Store    *catalog.Store
	Layout   *layout.Manager
	Pipeline *pipeline.Pipeline
	Hub      *events.Hub
	Ingestor Ingestor
	Status   StatusProvider
	Logger   *slog.Logger
}

// New builds the HTTP server around the provided collaborators.
func New(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, errors.New("api: config is required")
	}
	if opts.Store == nil {
		return nil, errors.New("api: store is required")
	}
	if opts.Layout == nil {
		return nil, errors.New("api: layout manager is required")
	}
	if opts.Pipeline == nil {
		return nil, errors.New("api: pipeline is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	s := &Server{
		cfg:      opts.Config,
		store:    opts.Store,
		layout:   opts.Layout,
		pipe:     opts.Pipeline,
		hub:      opts.Hub,
		ingestor: opts.Ingestor,
		status:   opts.Status,
		logger:   logging.NewComponentLogger(logger, "api"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	s.handler = s.routes()
	// No read or write timeout: uploads and artifact downloads are large
	// streamed bodies.
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/episodes", s.handleCreateEpisode)
	mux.HandleFunc("GET /api/v1/episodes", s.handleListEpisodes)
	mux.HandleFunc("GET /api/v1/episodes/{id}", s.handleGetEpisode)
	mux.HandleFunc("PATCH /api/v1/episodes/{id}", s.handleUpdateEpisode)
	mux.HandleFunc("DELETE /api/v1/episodes/{id}", s.handleDeleteEpisode)
	mux.HandleFunc("GET /api/v1/episodes/{id}/jobs", s.handleEpisodeJobs)

	mux.HandleFunc("POST /api/v1/episodes/{id}/preprocess", s.stageTrigger(catalog.StagePreprocess))
	mux.HandleFunc("POST /api/v1/episodes/{id}/edit", s.stageTrigger(catalog.StageEdit))
	mux.HandleFunc("POST /api/v1/episodes/{id}/postprocess", s.stageTrigger(catalog.StagePostprocess))
	mux.HandleFunc("POST /api/v1/episodes/{id}/metadata", s.stageTrigger(catalog.StageMetadata))
	mux.HandleFunc("POST /api/v1/episodes/{id}/export", s.stageTrigger(catalog.StageExport))

	mux.HandleFunc("GET /api/v1/episodes/{id}/preprocessed", s.handlePreprocessedList)
	mux.HandleFunc("GET /api/v1/episodes/{id}/preprocessed/{filename}", s.handlePreprocessedFile)
	mux.HandleFunc("GET /api/v1/episodes/{id}/transcript", s.handleTranscript)
	mux.HandleFunc("GET /api/v1/episodes/{id}/edited", s.handleEditedAudio)
	mux.HandleFunc("GET /api/v1/episodes/{id}/postprocessed", s.handlePostprocessedAudio)
	mux.HandleFunc("GET /api/v1/episodes/{id}/annotated-transcript", s.handleAnnotatedTranscript)
	mux.HandleFunc("PUT /api/v1/episodes/{id}/annotated-transcript", s.handleAnnotatedTranscriptPut)
	mux.HandleFunc("GET /api/v1/episodes/{id}/metadata/chapters", s.handleChapters)
	mux.HandleFunc("GET /api/v1/episodes/{id}/metadata/show-notes", s.handleShowNotes)
	mux.HandleFunc("GET /api/v1/episodes/{id}/metadata/audio", s.handleMetadataAudio)
	mux.HandleFunc("GET /api/v1/episodes/{id}/export", s.handleExportDownload)

	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/events", s.handleEvents)

	return mux
}

// Handler exposes the route table, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start binds the configured address and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	bind := strings.TrimSpace(s.cfg.Paths.APIBind)
	if bind == "" {
		return errors.New("api: bind address is empty")
	}
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down, waiting briefly for in-flight requests.
func (s *Server) Stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// Addr reports the bound listen address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.status == nil {
		s.writeError(w, http.StatusServiceUnavailable, "status unavailable")
		return
	}
	s.writeJSON(w, http.StatusOK, s.status.Status(r.Context()))
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		s.writeError(w, http.StatusServiceUnavailable, "event stream unavailable")
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", logging.Error(err))
		return
	}
	s.hub.Register(conn)
	go func() {
		defer s.hub.Unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorBody{Error: message})
}
