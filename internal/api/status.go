package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/geochain/geochain/internal/corpus"
)

// CorpusStatus reports document counts; corpus.Store is the production
// implementation.
type CorpusStatus interface {
	Status(ctx context.Context) ([]corpus.SourceCount, int64, error)
}

type statusHandler struct {
	corpus CorpusStatus
	logger *slog.Logger
}

type sourceCountResponse struct {
	SourceName string `json:"source_name"`
	SourceYear string `json:"source_year"`
	Count      int64  `json:"count"`
}

type statusResponse struct {
	TotalDocuments int64                 `json:"total_documents"`
	Sources        []sourceCountResponse `json:"sources"`
}

// dataStatus handles GET /api/v1/data/status.
func (h *statusHandler) dataStatus(w http.ResponseWriter, r *http.Request) {
	counts, total, err := h.corpus.Status(r.Context())
	if err != nil {
		h.logger.Error("corpus status failed", "error", err)
		WriteError(w, http.StatusInternalServerError, "status_failed", "failed to read corpus status", h.logger)
		return
	}

	resp := statusResponse{TotalDocuments: total, Sources: make([]sourceCountResponse, 0, len(counts))}
	for _, c := range counts {
		resp.Sources = append(resp.Sources, sourceCountResponse{
			SourceName: c.SourceName,
			SourceYear: c.SourceYear,
			Count:      c.Count,
		})
	}
	WriteJSON(w, http.StatusOK, resp)
}
