package index

import (
	"container/list"
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/propmatch/internal/embeddings"
	"github.com/propmatch/internal/normalize"
	"github.com/propmatch/internal/store"
)

// Default memory budgets, overridable through configuration
const (
	DefaultTeamBudgetBytes  = 6 << 20  // ~6 MB per team
	DefaultTotalBudgetBytes = 20 << 20 // ~20 MB across all resident teams
)

// PropertyLister is the slice of the store gateway the cache depends on
type PropertyLister interface {
	ListProperties(ctx context.Context, teamID string) ([]store.Property, error)
}

// Cache lazily builds and retains per-team similarity indexes. Builds are
// coordinated through singleflight so concurrent first requests for the same
// team trigger exactly one build, without serializing requests for different
// teams. Least-recently-used team indexes are evicted once the aggregate
// footprint exceeds the total budget.
type Cache struct {
	lister   PropertyLister
	embedder embeddings.Embedder
	log      zerolog.Logger

	teamBudget  int64
	totalBudget int64

	group singleflight.Group

	mu         sync.Mutex
	entries    map[string]*cacheEntry
	lru        *list.List // front = most recently used
	totalBytes int64
}

type cacheEntry struct {
	index *TeamIndex
	bytes int64
	elem  *list.Element
}

// NewCache creates an index cache. Budgets of zero fall back to the defaults.
func NewCache(lister PropertyLister, embedder embeddings.Embedder, log zerolog.Logger, teamBudget, totalBudget int64) *Cache {
	if teamBudget <= 0 {
		teamBudget = DefaultTeamBudgetBytes
	}
	if totalBudget <= 0 {
		totalBudget = DefaultTotalBudgetBytes
	}
	return &Cache{
		lister:      lister,
		embedder:    embedder,
		log:         log,
		teamBudget:  teamBudget,
		totalBudget: totalBudget,
		entries:     make(map[string]*cacheEntry),
		lru:         list.New(),
	}
}

// EnsureBuilt returns the index for a team, building it on first use. The
// returned index is immutable and safe for concurrent scans.
func (c *Cache) EnsureBuilt(ctx context.Context, teamID string) (*TeamIndex, error) {
	if idx := c.lookup(teamID); idx != nil {
		return idx, nil
	}

	v, err, _ := c.group.Do(teamID, func() (interface{}, error) {
		// Another caller may have completed the build while we waited
		if idx := c.lookup(teamID); idx != nil {
			return idx, nil
		}

		idx, err := c.build(ctx, teamID)
		if err != nil {
			return nil, err
		}
		c.insert(teamID, idx)
		return idx, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*TeamIndex), nil
}

// Invalidate drops a team's index, forcing a rebuild on next use. Called by
// the importer after property rows change.
func (c *Cache) Invalidate(teamID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remove(teamID)
}

// InvalidateAll drops every resident index, for use after a bulk import that
// may touch any number of teams.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
	c.lru.Init()
	c.totalBytes = 0
}

// Stats describes the resident cache state
type Stats struct {
	Teams         int   `json:"teams"`
	ResidentBytes int64 `json:"resident_bytes"`
}

// GetStats returns current cache occupancy
func (c *Cache) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Teams: len(c.entries), ResidentBytes: c.totalBytes}
}

func (c *Cache) build(ctx context.Context, teamID string) (*TeamIndex, error) {
	properties, err := c.lister.ListProperties(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("list properties for team %s: %w", teamID, err)
	}

	dims := c.embedder.Dimension()
	idx := &TeamIndex{teamID: teamID, dimensions: dims}
	if len(properties) == 0 {
		return idx, nil
	}

	// ListProperties returns rows ordered by property_id, which Top1 relies
	// on for deterministic tie-breaking
	texts := make([]string, len(properties))
	idx.propertyIDs = make([]string, len(properties))
	for i, p := range properties {
		canonical := p.AddressCanonical
		if canonical == "" {
			canonical, _ = normalize.CanonicalAddress(p.FullAddress)
		}
		texts[i] = canonical
		idx.propertyIDs[i] = p.PropertyID
	}

	vectors, err := c.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed team %s properties: %w", teamID, err)
	}

	idx.vectors = make([]float32, 0, len(vectors)*dims)
	for _, vector := range vectors {
		idx.vectors = append(idx.vectors, vector...)
	}

	c.log.Debug().
		Str("team_id", teamID).
		Int("properties", idx.Len()).
		Int64("bytes", idx.sizeBytes()).
		Msg("built team index")

	return idx, nil
}

func (c *Cache) lookup(teamID string) *TeamIndex {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[teamID]
	if !ok {
		return nil
	}
	c.lru.MoveToFront(entry.elem)
	return entry.index
}

func (c *Cache) insert(teamID string, idx *TeamIndex) {
	bytes := idx.sizeBytes()
	if bytes > c.teamBudget {
		// The index must still hold every property of the team to be usable,
		// so an oversized team is cached whole and flagged
		c.log.Warn().
			Str("team_id", teamID).
			Int64("bytes", bytes).
			Int64("budget", c.teamBudget).
			Msg("team index exceeds per-team budget")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.remove(teamID)
	entry := &cacheEntry{index: idx, bytes: bytes}
	entry.elem = c.lru.PushFront(teamID)
	c.entries[teamID] = entry
	c.totalBytes += bytes

	// Evict least-recently-used teams until we fit the aggregate budget,
	// never evicting the index we just inserted
	for c.totalBytes > c.totalBudget && c.lru.Len() > 1 {
		oldest := c.lru.Back()
		victim := oldest.Value.(string)
		if victim == teamID {
			break
		}
		c.log.Debug().Str("team_id", victim).Msg("evicting team index")
		c.remove(victim)
	}
}

// remove deletes an entry; callers must hold c.mu
func (c *Cache) remove(teamID string) {
	entry, ok := c.entries[teamID]
	if !ok {
		return
	}
	c.lru.Remove(entry.elem)
	delete(c.entries, teamID)
	c.totalBytes -= entry.bytes
}
