package matcher

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/propmatch/internal/store"
)

// BatchStats summarizes a batch run
type BatchStats struct {
	Total      int
	PreMatched int
	Matched    int
	Abstained  int
}

// BatchProcessor resolves every listing in the store independently and
// writes a CSV of (listing_id, property_id, confidence), one row per listing
// in store order.
type BatchProcessor struct {
	engine *Engine
	store  store.Gateway
	log    zerolog.Logger
}

// NewBatchProcessor creates a batch processor sharing the engine's store
func NewBatchProcessor(engine *Engine, gw store.Gateway, log zerolog.Logger) *BatchProcessor {
	return &BatchProcessor{engine: engine, store: gw, log: log}
}

// Run resolves all listings and streams CSV rows to w. Rows keep the
// listings' store order; resolution of one row never affects another.
func (b *BatchProcessor) Run(ctx context.Context, w io.Writer) (BatchStats, error) {
	listings, err := b.store.ListListings(ctx)
	if err != nil {
		return BatchStats{}, fmt.Errorf("load listings: %w", err)
	}

	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"listing_id", "property_id", "confidence"}); err != nil {
		return BatchStats{}, fmt.Errorf("write csv header: %w", err)
	}

	var stats BatchStats
	for _, listing := range listings {
		stats.Total++

		var result Result
		if listing.PropertyID != "" {
			// Pre-resolved listings are ground truth
			result = Result{PropertyID: listing.PropertyID, Confidence: 1.0, Method: MethodPreMatch}
			stats.PreMatched++
		} else {
			result, err = b.engine.Resolve(ctx, Request{
				ListingID:   listing.ListingID,
				TeamID:      listing.TeamID,
				FullAddress: listing.FullAddress,
			})
			if err != nil {
				return stats, fmt.Errorf("resolve listing %s: %w", listing.ListingID, err)
			}
		}

		if result.Matched() {
			stats.Matched++
		} else {
			stats.Abstained++
		}

		row := []string{
			listing.ListingID,
			result.PropertyID,
			strconv.FormatFloat(RoundConfidence(result.Confidence), 'f', -1, 64),
		}
		if err := writer.Write(row); err != nil {
			return stats, fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return stats, fmt.Errorf("flush csv: %w", err)
	}

	b.log.Info().
		Int("total", stats.Total).
		Int("pre_matched", stats.PreMatched).
		Int("matched", stats.Matched).
		Int("abstained", stats.Abstained).
		Msg("batch resolution complete")

	return stats, nil
}

// RoundConfidence rounds confidence to 4 decimal places for output
func RoundConfidence(confidence float64) float64 {
	return math.Round(confidence*10000) / 10000
}
