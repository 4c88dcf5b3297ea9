package api

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"

	"podbench/internal/catalog"
	"podbench/internal/layout"
	"podbench/internal/logging"
	"podbench/internal/services"
)

// ErrPayloadTooLarge reports an upload whose cumulative size exceeds the
// configured ceiling.
var ErrPayloadTooLarge = errors.New("upload exceeds the configured size ceiling")

// errorBody is the JSON error envelope. Status carries the observed stage
// status on precondition and conflict responses.
type errorBody struct {
	Error  string `json:"error"`
	Status string `json:"status,omitempty"`
}

// stageGateError reports an artifact request whose stage has not completed.
type stageGateError struct {
	Stage  catalog.Stage
	Status catalog.JobStatus
}

func (e *stageGateError) Error() string {
	return fmt.Sprintf("stage %s has not completed (status %s)", e.Stage, e.Status)
}

// writeDomainError maps catalog, layout, and ingest errors onto HTTP
// responses. Anything unrecognized is a 500.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var precondition *catalog.StagePreconditionError
	var conflict *catalog.StageConflictError
	var gate *stageGateError
	var maxBytes *http.MaxBytesError

	switch {
	case errors.As(err, &precondition):
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: precondition.Error(), Status: string(precondition.Status)})
	case errors.As(err, &gate):
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: gate.Error(), Status: string(gate.Status)})
	case errors.As(err, &conflict):
		s.writeJSON(w, http.StatusConflict, errorBody{Error: conflict.Error(), Status: string(conflict.Status)})
	case errors.Is(err, catalog.ErrEpisodeNotFound),
		errors.Is(err, catalog.ErrJobNotFound),
		errors.Is(err, layout.ErrArtifactNotFound),
		errors.Is(err, fs.ErrNotExist):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &maxBytes), errors.Is(err, ErrPayloadTooLarge):
		s.writeError(w, http.StatusRequestEntityTooLarge, ErrPayloadTooLarge.Error())
	case errors.Is(err, layout.ErrUnsafeName), errors.Is(err, services.ErrValidation):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("request failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}
