package api

import (
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"podbench/internal/catalog"
	"podbench/internal/fileutil"
	"podbench/internal/layout"
	"podbench/internal/logging"
	"podbench/internal/transcript"
)

// artifactContentTypes pins the types for the extensions podbench serves.
// The platform mime table has no entry for .wav or .srt on a stock Linux
// install, so lookups go through this map instead.
var artifactContentTypes = map[string]string{
	".wav":  "audio/wav",
	".aifc": "audio/aiff",
	".m4a":  "audio/mp4",
	".mp4":  "audio/mp4",
	".srt":  "application/x-subrip",
	".txt":  "text/plain; charset=utf-8",
	".json": "application/json",
	".zip":  "application/zip",
}

func contentTypeFor(path string) string {
	if contentType, ok := artifactContentTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return contentType
	}
	return "application/octet-stream"
}

// loadEpisodeWithStage resolves {id} and requires the named stage to have
// completed before its artifacts are visible.
func (s *Server) loadEpisodeWithStage(r *http.Request, stage catalog.Stage) (*catalog.Episode, error) {
	episode, err := s.loadEpisode(r)
	if err != nil {
		return nil, err
	}
	if status := episode.StageStatus(stage); status != catalog.StatusCompleted {
		return nil, &stageGateError{Stage: stage, Status: status}
	}
	return episode, nil
}

// serveFile streams an artifact. ServeContent gives range support, which
// audio players use for scrubbing.
func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, path string) {
	file, err := os.Open(path)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if info.IsDir() {
		s.writeDomainError(w, layout.ErrArtifactNotFound)
		return
	}
	w.Header().Set("Content-Type", contentTypeFor(path))
	http.ServeContent(w, r, info.Name(), info.ModTime(), file)
}

func (s *Server) handlePreprocessedList(w http.ResponseWriter, r *http.Request) {
	episode, err := s.loadEpisodeWithStage(r, catalog.StagePreprocess)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	names, err := fileutil.ListFileNames(s.layout.PreprocessedDir(episode.ID))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, FileListResponse{Files: names})
}

func (s *Server) handlePreprocessedFile(w http.ResponseWriter, r *http.Request) {
	episode, err := s.loadEpisodeWithStage(r, catalog.StagePreprocess)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	path, err := s.layout.SafeJoin(s.layout.PreprocessedDir(episode.ID), r.PathValue("filename"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.serveFile(w, r, path)
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	episode, err := s.loadEpisodeWithStage(r, catalog.StagePreprocess)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	path, err := layout.CombinedTranscript(s.layout.PreprocessedDir(episode.ID))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.serveFile(w, r, path)
}

func (s *Server) handleEditedAudio(w http.ResponseWriter, r *http.Request) {
	episode, err := s.loadEpisodeWithStage(r, catalog.StageEdit)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	path, err := layout.CombinedAudio(s.layout.EpisodeDir(episode.ID))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.serveFile(w, r, path)
}

func (s *Server) handlePostprocessedAudio(w http.ResponseWriter, r *http.Request) {
	episode, err := s.loadEpisodeWithStage(r, catalog.StagePostprocess)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	path, err := layout.CombinedAudio(s.layout.PostprocessedDir(episode.ID))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.serveFile(w, r, path)
}

func (s *Server) handleAnnotatedTranscript(w http.ResponseWriter, r *http.Request) {
	episode, err := s.loadEpisodeWithStage(r, catalog.StagePostprocess)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	path, err := layout.CombinedTranscript(s.layout.PostprocessedDir(episode.ID))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.serveFile(w, r, path)
}

// handleAnnotatedTranscriptPut replaces the postprocessed transcript with an
// annotated revision. The write targets whatever transcript the stage
// produced, so a re-run of postprocess discards the annotations.
func (s *Server) handleAnnotatedTranscriptPut(w http.ResponseWriter, r *http.Request) {
	episode, err := s.loadEpisodeWithStage(r, catalog.StagePostprocess)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxTotalBytes()))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if err := transcript.Validate(body); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	target, err := layout.CombinedTranscript(s.layout.PostprocessedDir(episode.ID))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if err := os.WriteFile(target, body, 0o644); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.logger.Info("annotated transcript replaced",
		logging.String(logging.FieldEpisodeID, episode.ID),
		logging.Int("cues", transcript.CountCues(body)),
		logging.Float64("duration_seconds", transcript.Duration(body)),
	)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleChapters(w http.ResponseWriter, r *http.Request) {
	episode, err := s.loadEpisodeWithStage(r, catalog.StageMetadata)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.serveFile(w, r, s.layout.ChaptersPath(episode.ID))
}

func (s *Server) handleShowNotes(w http.ResponseWriter, r *http.Request) {
	episode, err := s.loadEpisodeWithStage(r, catalog.StageMetadata)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.serveFile(w, r, s.layout.ShowNotesPath(episode.ID))
}

func (s *Server) handleMetadataAudio(w http.ResponseWriter, r *http.Request) {
	episode, err := s.loadEpisodeWithStage(r, catalog.StageMetadata)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	path, err := layout.CombinedAudio(s.layout.MetadataDir(episode.ID))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.serveFile(w, r, path)
}

func (s *Server) handleExportDownload(w http.ResponseWriter, r *http.Request) {
	episode, err := s.loadEpisodeWithStage(r, catalog.StageExport)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	path, err := s.layout.ExportArchive(episode.ID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": filepath.Base(path)})
	w.Header().Set("Content-Disposition", disposition)
	s.serveFile(w, r, path)
}
