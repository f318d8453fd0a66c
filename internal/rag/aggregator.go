package rag

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"docqa/internal/models"
	"docqa/internal/vectorindex"
	"docqa/pkg/logger"
)

// Aggregator fans a set of queries out to the search capability, merges the
// per-query results and produces a deterministic ranked working set.
type Aggregator struct {
	searcher      vectorindex.Searcher
	maxConcurrent int
	timeout       time.Duration
	log           *logger.Logger
}

// NewAggregator creates an Aggregator. maxConcurrent caps the number of
// searches in flight; timeout bounds each individual search.
func NewAggregator(searcher vectorindex.Searcher, maxConcurrent int, timeout time.Duration, log *logger.Logger) *Aggregator {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Aggregator{
		searcher:      searcher,
		maxConcurrent: maxConcurrent,
		timeout:       timeout,
		log:           log,
	}
}

// Retrieve runs one search per query concurrently, then merges,
// deduplicates, ranks by ascending score (L2 distance) and truncates to
// topK. A failed or timed-out search contributes zero chunks; partial
// results are preserved. The output is a pure function of the per-query
// result lists: results are merged in query order, dedup is
// first-seen-wins, and the sort is stable, so the ranking never depends on
// which search finished first.
func (a *Aggregator) Retrieve(ctx context.Context, queries []string, topK int) []models.Chunk {
	if len(queries) == 0 {
		return []models.Chunk{}
	}

	results := make([][]models.Chunk, len(queries))
	sem := make(chan struct{}, a.maxConcurrent)
	var wg sync.WaitGroup

	for i, q := range queries {
		wg.Add(1)
		go func(i int, query string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			searchCtx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()

			chunks, err := a.searcher.SearchAllDocuments(searchCtx, query, topK)
			if err != nil {
				a.log.Warn(fmt.Sprintf("Search failed for query %q: %v", query, err))
				return
			}
			results[i] = chunks
		}(i, q)
	}
	wg.Wait()

	var merged []models.Chunk
	for _, chunks := range results {
		merged = append(merged, chunks...)
	}

	unique := dedupeChunks(merged)
	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].Score < unique[j].Score
	})

	if len(unique) > topK {
		unique = unique[:topK]
	}
	return unique
}

// dedupeChunks removes duplicates first-seen-wins, preserving the order in
// which distinct chunks first appeared in the merged stream.
func dedupeChunks(chunks []models.Chunk) []models.Chunk {
	seen := make(map[string]struct{}, len(chunks))
	unique := make([]models.Chunk, 0, len(chunks))
	for _, c := range chunks {
		key := chunkKey(c)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, c)
	}
	return unique
}

// chunkKey is the content-identity key for deduplication: the chunk ID when
// present, otherwise the whitespace-normalized lowercased text.
func chunkKey(c models.Chunk) string {
	if c.ChunkID != "" {
		return "id:" + c.ChunkID
	}
	return "text:" + strings.ToLower(strings.Join(strings.Fields(c.Text), " "))
}
