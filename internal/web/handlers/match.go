package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/propmatch/internal/embeddings"
	"github.com/propmatch/internal/matcher"
)

// Resolver is the slice of the resolution engine the handler needs
type Resolver interface {
	Resolve(ctx context.Context, req matcher.Request) (matcher.Result, error)
}

// MatchHandler serves the resolution endpoint
type MatchHandler struct {
	Resolver Resolver
	Log      zerolog.Logger
}

// MatchRequest is the JSON body of POST /api/match
type MatchRequest struct {
	ListingID   string `json:"listing_id"`
	TeamID      string `json:"team_id"`
	FullAddress string `json:"full_address"`
	PropertyID  string `json:"property_id,omitempty"`
}

// MatchResponse carries the resolution result. PropertyID is null on
// abstention, never the empty string.
type MatchResponse struct {
	PropertyID *string `json:"property_id"`
	Confidence float64 `json:"confidence"`
	Method     string  `json:"method,omitempty"`
}

// Match handles POST /api/match
func (h *MatchHandler) Match(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ListingID == "" || req.TeamID == "" {
		writeError(w, http.StatusBadRequest, "listing_id and team_id are required")
		return
	}

	result, err := h.Resolver.Resolve(r.Context(), matcher.Request{
		ListingID:       req.ListingID,
		TeamID:          req.TeamID,
		FullAddress:     req.FullAddress,
		KnownPropertyID: req.PropertyID,
	})
	if err != nil {
		// Infrastructure failures must be distinguishable from abstention:
		// the caller needs to know resolution was not attempted
		status := http.StatusInternalServerError
		if errors.Is(err, embeddings.ErrModelUnavailable) {
			status = http.StatusServiceUnavailable
		}
		h.Log.Error().Err(err).Str("listing_id", req.ListingID).Msg("resolution failed")
		writeError(w, status, "resolution failed")
		return
	}

	response := MatchResponse{
		Confidence: matcher.RoundConfidence(result.Confidence),
		Method:     result.Method,
	}
	if result.Matched() {
		propertyID := result.PropertyID
		response.PropertyID = &propertyID
	}

	writeJSON(w, http.StatusOK, response)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
