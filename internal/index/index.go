package index

import (
	"github.com/propmatch/internal/embeddings"
)

// TeamIndex holds the embedding vectors for every property of one team.
// Immutable once built; concurrent readers need no locking. Property ids are
// kept sorted so ties on similarity resolve to the smallest id.
type TeamIndex struct {
	teamID      string
	propertyIDs []string
	vectors     []float32 // len(propertyIDs) * dimensions, row-major
	dimensions  int
}

// Len returns the number of indexed properties
func (ti *TeamIndex) Len() int {
	return len(ti.propertyIDs)
}

// TeamID returns the team this index belongs to
func (ti *TeamIndex) TeamID() string {
	return ti.teamID
}

// Top1 returns the property with the highest cosine similarity to the query
// vector. Vectors are unit-normalized, so the inner product is the cosine
// similarity and no per-query normalization is needed. Returns ("", -1.0)
// when the index is empty. Ties resolve to the lexicographically smallest
// property id, which is the first one encountered in the sorted scan.
func (ti *TeamIndex) Top1(query []float32) (propertyID string, similarity float64) {
	if len(ti.propertyIDs) == 0 {
		return "", -1.0
	}

	best := -2.0
	bestIdx := 0
	for i := range ti.propertyIDs {
		row := ti.vectors[i*ti.dimensions : (i+1)*ti.dimensions]
		sim := embeddings.Dot(query, row)
		if sim > best {
			best = sim
			bestIdx = i
		}
	}
	return ti.propertyIDs[bestIdx], best
}

// sizeBytes approximates the resident footprint of the index
func (ti *TeamIndex) sizeBytes() int64 {
	size := int64(len(ti.vectors)) * 4
	for _, id := range ti.propertyIDs {
		size += int64(len(id)) + 48
	}
	return size
}
