package matcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/propmatch/internal/embeddings"
	"github.com/propmatch/internal/index"
	"github.com/propmatch/internal/normalize"
	"github.com/propmatch/internal/store"
)

// DefaultMinConfidence is the acceptance bar applied after every stage that
// does not short-circuit at 1.0. The single place "abstain vs. answer" is
// decided.
const DefaultMinConfidence = 0.80

// Match methods, in pipeline order
const (
	MethodPreMatch      = "pre_match"
	MethodExact         = "exact"
	MethodFuzzy         = "fuzzy"
	MethodBuildingExact = "building_exact"
	MethodBuildingFuzzy = "building_fuzzy"
	MethodAbstain       = "abstain"
)

// buildingFuzzyDiscount reflects the residual ambiguity of matching at
// building granularity: several units may share the building
const buildingFuzzyDiscount = 0.9

// buildingExactConfidence is assigned when the unit-stripped addresses match
// exactly; the unit itself remains unverified
const buildingExactConfidence = 0.7

// Config holds the engine's tunables
type Config struct {
	MinConfidence float64
}

// Request is a single listing to resolve
type Request struct {
	ListingID       string
	TeamID          string
	FullAddress     string
	KnownPropertyID string
}

// Result is the resolution outcome. PropertyID is empty on abstention, in
// which case Confidence is always 0.0.
type Result struct {
	PropertyID string
	Confidence float64
	Method     string
}

// Matched reports whether the engine named a property
func (r Result) Matched() bool {
	return r.PropertyID != ""
}

var abstained = Result{Confidence: 0.0, Method: MethodAbstain}

// Engine resolves listings to properties through a staged pipeline:
// pre-match, exact lookup, embedding similarity, building-level fallback,
// abstention. Stages run in strict order and the pipeline terminates at the
// first stage whose confidence clears the acceptance bar.
type Engine struct {
	store    store.Gateway
	cache    *index.Cache
	embedder embeddings.Embedder
	cfg      Config
	log      zerolog.Logger
}

// NewEngine creates a resolution engine. The index cache is passed in rather
// than owned so hosts control its lifecycle and tests can share or replace it.
func NewEngine(gw store.Gateway, cache *index.Cache, embedder embeddings.Embedder, cfg Config, log zerolog.Logger) *Engine {
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = DefaultMinConfidence
	}
	return &Engine{
		store:    gw,
		cache:    cache,
		embedder: embedder,
		cfg:      cfg,
		log:      log,
	}
}

// Resolve runs the staged pipeline for one listing. Domain ambiguity resolves
// to an abstention result; only infrastructure failures (store or embedding
// model unreachable) return an error.
func (e *Engine) Resolve(ctx context.Context, req Request) (Result, error) {
	// A caller-supplied property id is ground truth
	if req.KnownPropertyID != "" {
		return Result{PropertyID: req.KnownPropertyID, Confidence: 1.0, Method: MethodPreMatch}, nil
	}

	// Stage 0: trust an already-resolved listing
	propertyID, err := e.store.GetListingProperty(ctx, req.ListingID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return Result{}, fmt.Errorf("pre-match lookup: %w", err)
	}
	if propertyID != "" {
		return Result{PropertyID: propertyID, Confidence: 1.0, Method: MethodPreMatch}, nil
	}

	// Missing address: nothing to match against
	if normalize.IsBlank(req.FullAddress) {
		return abstained, nil
	}
	canonical, _ := normalize.CanonicalAddress(req.FullAddress)

	// Stage 1: exact canonical address match within the team
	propertyID, err = e.store.FindExact(ctx, req.TeamID, canonical)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return Result{}, fmt.Errorf("exact lookup: %w", err)
	}
	if propertyID != "" {
		return Result{PropertyID: propertyID, Confidence: 1.0, Method: MethodExact}, nil
	}

	// Stage 2: embedding similarity within the team index
	idx, err := e.cache.EnsureBuilt(ctx, req.TeamID)
	if err != nil {
		return Result{}, fmt.Errorf("ensure team index: %w", err)
	}
	if idx.Len() == 0 {
		// No properties for this team at all
		return abstained, nil
	}

	vector, err := e.embedder.Embed(ctx, canonical)
	if err != nil {
		return Result{}, fmt.Errorf("embed listing address: %w", err)
	}

	propertyID, similarity := idx.Top1(vector)
	confidence := cosineToConfidence(similarity)
	if confidence >= e.cfg.MinConfidence {
		return Result{PropertyID: propertyID, Confidence: confidence, Method: MethodFuzzy}, nil
	}

	e.log.Debug().
		Str("listing_id", req.ListingID).
		Str("team_id", req.TeamID).
		Float64("confidence", confidence).
		Msg("fuzzy match below threshold, trying building fallback")

	// Stage 3: retry at building granularity with the unit stripped
	building := normalize.BuildingAddress(canonical)

	propertyID, err = e.store.FindBuilding(ctx, req.TeamID, building)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return Result{}, fmt.Errorf("building lookup: %w", err)
	}
	if propertyID != "" {
		return Result{PropertyID: propertyID, Confidence: buildingExactConfidence, Method: MethodBuildingExact}, nil
	}

	vector, err = e.embedder.Embed(ctx, building)
	if err != nil {
		return Result{}, fmt.Errorf("embed building address: %w", err)
	}

	propertyID, similarity = idx.Top1(vector)
	confidence = cosineToConfidence(similarity) * buildingFuzzyDiscount
	if confidence >= e.cfg.MinConfidence {
		return Result{PropertyID: propertyID, Confidence: confidence, Method: MethodBuildingFuzzy}, nil
	}

	// Stage 4: abstain
	return abstained, nil
}

// cosineToConfidence maps cosine similarity from [-1,1] to [0,1]
func cosineToConfidence(similarity float64) float64 {
	return similarity*0.5 + 0.5
}
