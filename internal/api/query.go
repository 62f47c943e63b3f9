package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/geochain/geochain/internal/engine"
	"github.com/geochain/geochain/internal/retrieval"
)

// maxRequestBody bounds JSON request bodies.
const maxRequestBody = 64 * 1024

// QueryEngine is the answering surface the handlers call. Defined here on
// the consumer side; engine.Engine is the production implementation.
type QueryEngine interface {
	Query(ctx context.Context, question string) (*engine.Answer, error)
	CountrySummary(ctx context.Context, country string) (*engine.Answer, error)
	CompareCountries(ctx context.Context, country1, country2, aspect string) (*engine.Answer, error)
}

type queryHandler struct {
	engine QueryEngine
	logger *slog.Logger
}

type queryRequest struct {
	Question string `json:"question"`
}

type summaryRequest struct {
	Country string `json:"country"`
}

type compareRequest struct {
	Country1 string `json:"country1"`
	Country2 string `json:"country2"`
	Aspect   string `json:"aspect,omitempty"`
}

// decodeJSON reads a bounded JSON body into dst. Writes the error response
// itself and returns false when the body is invalid.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, logger *slog.Logger) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			WriteError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body too large", logger)
			return false
		}
		WriteError(w, http.StatusBadRequest, "invalid_body", "invalid request body", logger)
		return false
	}
	return true
}

// query handles POST /api/v1/query.
func (h *queryHandler) query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	answer, err := h.engine.Query(r.Context(), req.Question)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, answer)
}

// countrySummary handles POST /api/v1/country/summary.
func (h *queryHandler) countrySummary(w http.ResponseWriter, r *http.Request) {
	var req summaryRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	answer, err := h.engine.CountrySummary(r.Context(), req.Country)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, answer)
}

// compareCountries handles POST /api/v1/country/compare.
func (h *queryHandler) compareCountries(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	answer, err := h.engine.CompareCountries(r.Context(), req.Country1, req.Country2, req.Aspect)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, answer)
}

// writeEngineError maps engine errors to HTTP statuses. Validation errors
// are the caller's fault; a total retrieval failure is an upstream outage.
func (h *queryHandler) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrEmptyQuestion):
		WriteError(w, http.StatusBadRequest, "empty_question", "question cannot be empty", h.logger)
	case errors.Is(err, engine.ErrEmptyCountry):
		WriteError(w, http.StatusBadRequest, "empty_country", "country cannot be empty", h.logger)
	case errors.Is(err, retrieval.ErrRetrievalFailed):
		h.logger.Error("retrieval failed for all variants", "error", err)
		WriteError(w, http.StatusServiceUnavailable, "retrieval_failed", "retrieval failed for all query variants", h.logger)
	default:
		h.logger.Error("query failed", "error", err)
		WriteError(w, http.StatusInternalServerError, "query_failed", "failed to answer the question", h.logger)
	}
}
