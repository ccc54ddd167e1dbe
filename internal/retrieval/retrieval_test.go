package retrieval

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/philippgille/chromem-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grounding-rag/internal/vectordb"
)

type fakeSearcher struct {
	results []chromem.Result
	err     error
	gotK    int
	gotMode vectordb.SearchMode
}

func (f *fakeSearcher) Search(_ context.Context, _ string, k int, mode vectordb.SearchMode, _ vectordb.SearchParams) ([]chromem.Result, error) {
	f.gotK = k
	f.gotMode = mode
	return f.results, f.err
}

func newTestService(t *testing.T, searcher *fakeSearcher) *Service {
	t.Helper()
	// An existing directory stands in for the persisted index.
	dir := t.TempDir()
	open := func() (Searcher, error) { return searcher, nil }
	return NewService(open, dir, 0.7)
}

func chunk(content, title, entryID string) chromem.Result {
	return chromem.Result{
		Content: content,
		Metadata: map[string]string{
			vectordb.MetaTitle:   title,
			vectordb.MetaEntryID: entryID,
		},
	}
}

func TestGetContextMissingIndex(t *testing.T) {
	open := func() (Searcher, error) {
		t.Fatal("store must not be opened when the index does not exist")
		return nil, nil
	}
	service := NewService(open, filepath.Join(t.TempDir(), "missing"), 0.7)

	result := service.GetContext(context.Background(), "black holes", 3)

	assert.Equal(t, Result{}, result)
}

func TestGetContextEmptyIndex(t *testing.T) {
	service := newTestService(t, &fakeSearcher{})
	result := service.GetContext(context.Background(), "black holes", 3)

	assert.Equal(t, "", result.Context)
	assert.Empty(t, result.Sources)
	assert.Equal(t, 0, result.Coverage)
}

func TestGetContextUsesMMR(t *testing.T) {
	searcher := &fakeSearcher{results: []chromem.Result{chunk("text", "T", "")}}
	service := newTestService(t, searcher)

	service.GetContext(context.Background(), "q", 7)

	assert.Equal(t, vectordb.ModeMMR, searcher.gotMode)
	assert.Equal(t, 7, searcher.gotK)
}

func TestGetContextGroupsSources(t *testing.T) {
	searcher := &fakeSearcher{results: []chromem.Result{
		chunk("chunk one", "Neural Nets Explained", "https://arxiv.org/abs/2401.00001"),
		chunk("chunk two", "Neural Nets Explained", "https://arxiv.org/abs/2401.00001"),
	}}
	service := newTestService(t, searcher)

	result := service.GetContext(context.Background(), "neural nets", 4)

	assert.Equal(t, "chunk one\n\nchunk two", result.Context)
	require.Len(t, result.Sources, 1)
	assert.Equal(t, "Neural Nets Explained", result.Sources[0].Title)
	assert.Equal(t, "https://arxiv.org/abs/2401.00001", result.Sources[0].URL)
	assert.Equal(t, 2, result.Sources[0].Chunks)
	assert.Equal(t, 40, result.Coverage)
}

func TestGetContextSourceOrderAndURLFallback(t *testing.T) {
	searcher := &fakeSearcher{results: []chromem.Result{
		chunk("a", "Paper B", "not-a-url"),
		chunk("b", "Paper A", "https://arxiv.org/abs/1"),
		chunk("c", "Paper B", "not-a-url"),
		chunk("d", "", ""),
	}}
	service := newTestService(t, searcher)

	result := service.GetContext(context.Background(), "q", 4)

	require.Len(t, result.Sources, 3)
	// First-seen order, not alphabetical.
	assert.Equal(t, "Paper B", result.Sources[0].Title)
	assert.Empty(t, result.Sources[0].URL)
	assert.Equal(t, 2, result.Sources[0].Chunks)
	assert.Equal(t, "Paper A", result.Sources[1].Title)
	assert.Equal(t, "https://arxiv.org/abs/1", result.Sources[1].URL)
	assert.Equal(t, vectordb.UnknownTitle, result.Sources[2].Title)
}

func TestGetContextDegradesOnSearchError(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("index corrupted")}
	service := newTestService(t, searcher)

	assert.Equal(t, Result{}, service.GetContext(context.Background(), "q", 3))
}

func TestCoverage(t *testing.T) {
	cases := []struct {
		retrieved int
		want      int
	}{
		{0, 0}, {1, 20}, {2, 40}, {3, 60}, {4, 80}, {5, 100}, {6, 100}, {50, 100},
	}
	prev := -1
	for _, tc := range cases {
		got := coverage(tc.retrieved)
		assert.Equal(t, tc.want, got, "retrieved=%d", tc.retrieved)
		// Monotonically non-decreasing.
		assert.GreaterOrEqual(t, got, prev)
		prev = got
	}
}

func TestRelevantToTopic(t *testing.T) {
	result := Result{Context: "Recent advances in Black Holes suggest..."}

	assert.True(t, RelevantToTopic(result, "black holes"))
	assert.True(t, RelevantToTopic(result, "BLACK HOLES"))
	assert.False(t, RelevantToTopic(result, "quantum computing"))
	assert.False(t, RelevantToTopic(Result{}, "black holes"))
	assert.False(t, RelevantToTopic(result, "  "))
}
