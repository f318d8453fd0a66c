package rag

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/models"
	"docqa/pkg/logger"
)

// fakeSearcher returns canned results per query, optionally after a random
// delay to shuffle completion order.
type fakeSearcher struct {
	results map[string][]models.Chunk
	errs    map[string]error
	jitter  time.Duration
}

func (f *fakeSearcher) SearchAllDocuments(ctx context.Context, query string, topK int) ([]models.Chunk, error) {
	if f.jitter > 0 {
		time.Sleep(time.Duration(rand.Int63n(int64(f.jitter))))
	}
	if err, ok := f.errs[query]; ok {
		return nil, err
	}
	return f.results[query], nil
}

func chunk(id string, score float64) models.Chunk {
	return models.Chunk{DocumentID: "doc", ChunkID: id, Text: "text of " + id, Score: score}
}

func TestRetrieveDeduplicatesFirstSeenWins(t *testing.T) {
	first := models.Chunk{DocumentID: "d1", ChunkID: "c1", Text: "original", Score: 0.5}
	duplicate := models.Chunk{DocumentID: "d1", ChunkID: "c1", Text: "later copy", Score: 0.1}

	searcher := &fakeSearcher{results: map[string][]models.Chunk{
		"q1": {first, chunk("c2", 0.3)},
		"q2": {duplicate, chunk("c3", 0.7)},
	}}
	a := NewAggregator(searcher, 1, time.Second, logger.New("test"))

	got := a.Retrieve(context.Background(), []string{"q1", "q2"}, 10)
	require.Len(t, got, 3)

	// The first-encountered instance survives, with its original score.
	for _, c := range got {
		if c.ChunkID == "c1" {
			assert.Equal(t, "original", c.Text)
			assert.Equal(t, 0.5, c.Score)
		}
	}
}

func TestRetrieveRanksByAscendingScore(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]models.Chunk{
		"q": {chunk("far", 2.0), chunk("near", 0.2), chunk("mid", 1.0)},
	}}
	a := NewAggregator(searcher, 1, time.Second, logger.New("test"))

	got := a.Retrieve(context.Background(), []string{"q"}, 10)
	require.Len(t, got, 3)
	assert.Equal(t, "near", got[0].ChunkID)
	assert.Equal(t, "mid", got[1].ChunkID)
	assert.Equal(t, "far", got[2].ChunkID)
}

func TestRetrieveTruncatesToTopK(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]models.Chunk{
		"q": {chunk("a", 0.1), chunk("b", 0.2), chunk("c", 0.3), chunk("d", 0.4)},
	}}
	a := NewAggregator(searcher, 1, time.Second, logger.New("test"))

	got := a.Retrieve(context.Background(), []string{"q"}, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ChunkID)
	assert.Equal(t, "b", got[1].ChunkID)
}

func TestRetrieveDeterministicUnderConcurrency(t *testing.T) {
	// Equal scores force the tie-break down to first-seen order, which must
	// follow query order regardless of which search returns first.
	searcher := &fakeSearcher{
		results: map[string][]models.Chunk{
			"q1": {chunk("a", 1.0), chunk("b", 1.0)},
			"q2": {chunk("c", 1.0), chunk("a", 1.0)},
			"q3": {chunk("d", 1.0), chunk("e", 0.5)},
		},
		jitter: 5 * time.Millisecond,
	}
	a := NewAggregator(searcher, 3, time.Second, logger.New("test"))

	want := a.Retrieve(context.Background(), []string{"q1", "q2", "q3"}, 10)
	for i := 0; i < 20; i++ {
		got := a.Retrieve(context.Background(), []string{"q1", "q2", "q3"}, 10)
		require.Equal(t, want, got, "run %d diverged", i)
	}

	assert.Equal(t, "e", want[0].ChunkID, "lowest distance ranks first")
}

func TestRetrieveKeepsPartialResultsOnBranchFailure(t *testing.T) {
	searcher := &fakeSearcher{
		results: map[string][]models.Chunk{"ok": {chunk("a", 0.1)}},
		errs:    map[string]error{"bad": errors.New("search backend down")},
	}
	a := NewAggregator(searcher, 2, time.Second, logger.New("test"))

	got := a.Retrieve(context.Background(), []string{"bad", "ok"}, 10)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ChunkID)
}

func TestRetrieveEmptyInput(t *testing.T) {
	a := NewAggregator(&fakeSearcher{}, 2, time.Second, logger.New("test"))

	assert.Empty(t, a.Retrieve(context.Background(), nil, 10))
	assert.Empty(t, a.Retrieve(context.Background(), []string{"q"}, 10))
}

func TestDedupeFallsBackToNormalizedText(t *testing.T) {
	chunks := []models.Chunk{
		{Text: "Same   Passage\nhere", Score: 0.1},
		{Text: "same passage here", Score: 0.2},
		{Text: "different passage", Score: 0.3},
	}

	got := dedupeChunks(chunks)
	require.Len(t, got, 2)
	assert.Equal(t, "Same   Passage\nhere", got[0].Text)
}
