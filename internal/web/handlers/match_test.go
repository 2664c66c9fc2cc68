package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/propmatch/internal/embeddings"
	"github.com/propmatch/internal/matcher"
)

type stubResolver struct {
	result matcher.Result
	err    error
}

func (s *stubResolver) Resolve(ctx context.Context, req matcher.Request) (matcher.Result, error) {
	return s.result, s.err
}

func postMatch(t *testing.T, resolver Resolver, body string) *httptest.ResponseRecorder {
	t.Helper()

	handler := &MatchHandler{Resolver: resolver, Log: zerolog.Nop()}
	req := httptest.NewRequest(http.MethodPost, "/api/match", strings.NewReader(body))
	recorder := httptest.NewRecorder()
	handler.Match(recorder, req)
	return recorder
}

func TestMatchReturnsProperty(t *testing.T) {
	resolver := &stubResolver{result: matcher.Result{
		PropertyID: "P1",
		Confidence: 0.91234567,
		Method:     matcher.MethodFuzzy,
	}}

	recorder := postMatch(t, resolver, `{"listing_id":"L1","team_id":"T1","full_address":"1341 Spring Creek Dr"}`)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}

	var response MatchResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response.PropertyID == nil || *response.PropertyID != "P1" {
		t.Errorf("property_id = %v, want P1", response.PropertyID)
	}
	if response.Confidence != 0.9123 {
		t.Errorf("confidence = %v, want rounded 0.9123", response.Confidence)
	}
}

func TestMatchAbstentionIsNull(t *testing.T) {
	resolver := &stubResolver{result: matcher.Result{Method: matcher.MethodAbstain}}

	recorder := postMatch(t, resolver, `{"listing_id":"L1","team_id":"T1","full_address":"nowhere"}`)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), `"property_id":null`) {
		t.Errorf("abstention body = %s, want property_id null", recorder.Body.String())
	}
}

func TestMatchModelUnavailable(t *testing.T) {
	resolver := &stubResolver{err: embeddings.ErrModelUnavailable}

	recorder := postMatch(t, resolver, `{"listing_id":"L1","team_id":"T1","full_address":"x"}`)

	if recorder.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", recorder.Code)
	}
}

func TestMatchValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"missing listing_id", `{"team_id":"T1"}`},
		{"missing team_id", `{"listing_id":"L1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := postMatch(t, &stubResolver{}, tt.body)
			if recorder.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", recorder.Code)
			}
		})
	}
}
