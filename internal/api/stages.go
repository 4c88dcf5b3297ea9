package api

import (
	"net/http"

	"podbench/internal/catalog"
)

// stageTrigger builds the POST handler for one stage. The claim happens
// inside the catalog transaction, so there is no separate existence check
// to race against.
func (s *Server) stageTrigger(stage catalog.Stage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		episode, job, err := s.pipe.Initiate(r.Context(), r.PathValue("id"), stage)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		s.writeJSON(w, http.StatusAccepted, StageTriggerResponse{
			Episode: FromEpisode(episode),
			Job:     FromJob(job),
		})
	}
}
