package httpx

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/trustedge/integrations/internal/domain/model"
)

type runJobsResponse struct {
	OK      bool              `json:"ok"`
	Summary *model.RunSummary `json:"summary"`
}

// handleRunJobs triggers one worker pass over the due jobs. The optional
// limit query parameter sets the batch size; absent or zero uses the
// configured default, and requests above the ceiling are clamped, not
// rejected.
func (s *Server) handleRunJobs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			WriteError(w, ErrorParams{
				Code:    http.StatusBadRequest,
				ErrCode: "invalid_limit",
				Err:     errors.New("limit must be a non-negative integer"),
			})
			return
		}
		limit = parsed
	}

	summary, err := s.worker.RunDueJobs(r.Context(), limit)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "worker run failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "worker_run_failed",
			Err:     errors.New("worker run failed"),
		})
		return
	}

	WriteJSON(w, http.StatusOK, runJobsResponse{OK: true, Summary: summary})
}
