package vectordb

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"testing"

	"github.com/philippgille/chromem-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEmbedding is a deterministic, network-free stand-in for a real
// embedder: a normalized bag-of-words vector, so texts sharing words score
// as similar.
func testEmbedding(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, 16)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(word))
		vec[h.Sum32()%16]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		vec[0] = 1
		return vec, nil
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec, nil
}

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := Open(dir, "science_rag", false, testEmbedding)
	require.NoError(t, err)
	return store, dir
}

func doc(t *testing.T, id, content, title string) chromem.Document {
	t.Helper()
	embedding, err := testEmbedding(context.Background(), content)
	require.NoError(t, err)
	return chromem.Document{
		ID:        id,
		Content:   content,
		Metadata:  map[string]string{MetaTitle: title, MetaEntryID: "https://arxiv.org/abs/" + id},
		Embedding: embedding,
	}
}

func TestAddThenSearchReturnsInserted(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, []chromem.Document{
		doc(t, "1", "black holes emit hawking radiation", "Black Holes"),
		doc(t, "2", "transformers use attention layers", "Transformers"),
		doc(t, "3", "crop rotation improves soil yield", "Agronomy"),
	}))
	require.Equal(t, 3, store.Count())

	results, err := store.Search(ctx, "black holes radiation", 1, ModeSimilarity, SearchParams{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "1", results[0].ID)
}

func TestSearchEmptyCollection(t *testing.T) {
	store, _ := openTestStore(t)

	results, err := store.Search(context.Background(), "anything", 3, ModeMMR, SearchParams{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchCapsKAtCollectionSize(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, []chromem.Document{
		doc(t, "1", "alpha beta gamma", "A"),
		doc(t, "2", "delta epsilon zeta", "B"),
	}))

	results, err := store.Search(ctx, "alpha", 10, ModeSimilarity, SearchParams{})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestThresholdDiscardsWeakMatches(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, []chromem.Document{
		doc(t, "1", "quantum entanglement experiments", "Quantum"),
		doc(t, "2", "medieval trade routes in europe", "History"),
	}))

	results, err := store.Search(ctx, "quantum entanglement experiments", 2,
		ModeSimilarityThreshold, SearchParams{MinSimilarity: 0.9})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "1", results[0].ID)

	// A high enough floor may legitimately return nothing.
	results, err = store.Search(ctx, "unrelated topic entirely", 2,
		ModeSimilarityThreshold, SearchParams{MinSimilarity: 0.99})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMMRSearchReturnsK(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, []chromem.Document{
		doc(t, "1", "neural networks learn representations", "Paper A"),
		doc(t, "2", "neural networks learn features", "Paper A"),
		doc(t, "3", "reinforcement learning agents explore", "Paper B"),
	}))

	results, err := store.Search(ctx, "neural networks", 2, ModeMMR, SearchParams{Lambda: 0.7})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestUnknownSearchMode(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Add(ctx, []chromem.Document{doc(t, "1", "content", "T")}))

	_, err := store.Search(ctx, "q", 1, SearchMode("cosine"), SearchParams{})
	assert.Error(t, err)
}

func TestListTitles(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	untitled := doc(t, "4", "orphaned chunk", "")
	delete(untitled.Metadata, MetaTitle)

	require.NoError(t, store.Add(ctx, []chromem.Document{
		doc(t, "1", "first chunk of b", "Paper B"),
		doc(t, "2", "second chunk of b", "Paper B"),
		doc(t, "3", "chunk of a", "Paper A"),
		untitled,
	}))

	titles, err := store.ListTitles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Paper A", "Paper B", UnknownTitle}, titles)
}

func TestListTitlesEmpty(t *testing.T) {
	store, _ := openTestStore(t)
	titles, err := store.ListTitles(context.Background())
	require.NoError(t, err)
	assert.Empty(t, titles)
}

func TestPersistenceAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := Open(dir, "science_rag", false, testEmbedding)
	require.NoError(t, err)
	require.NoError(t, store.Add(ctx, []chromem.Document{doc(t, "1", "persisted chunk", "T")}))

	reopened, err := Open(dir, "science_rag", false, testEmbedding)
	require.NoError(t, err)
	assert.Equal(t, 1, reopened.Count())
}

func TestResetDeletesAndTolerates(t *testing.T) {
	store, dir := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, []chromem.Document{doc(t, "1", "chunk", "T")}))
	require.True(t, Exists(dir))

	require.NoError(t, store.Reset())
	assert.False(t, Exists(dir))

	// Resetting again, with nothing left on disk, must be a no-op.
	assert.NoError(t, store.Reset())
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	assert.True(t, Exists(dir))
	assert.False(t, Exists(dir+"/nope"))
}
