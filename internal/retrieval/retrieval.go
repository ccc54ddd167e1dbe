// Package retrieval answers free-text queries from the vector store and
// shapes the results for the grounding assembler: concatenated context,
// per-paper source records, and a coverage estimate.
package retrieval

import (
	"context"
	"strings"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"grounding-rag/internal/vectordb"
)

// coverageBaseline is the chunk count treated as full coverage.
const coverageBaseline = 5

// Searcher is the read side of the vector store.
type Searcher interface {
	Search(ctx context.Context, query string, k int, mode vectordb.SearchMode, params vectordb.SearchParams) ([]chromem.Result, error)
}

// OpenFunc opens a fresh store handle. The service re-opens per call so it
// keeps working when another process rebuilds the collection in between.
type OpenFunc func() (Searcher, error)

// Source attributes retrieved chunks back to one paper.
type Source struct {
	Title  string `json:"title"`
	URL    string `json:"url,omitempty"`
	Chunks int    `json:"chunks"`
}

// Result is built fresh on every GetContext call and never persisted.
type Result struct {
	Context string   `json:"context"`
	Sources []Source `json:"sources"`
	// Coverage estimates how much material backs the query, in percent.
	// It is a transparency indicator, not a correctness measure.
	Coverage int `json:"coverage"`
}

type Service struct {
	open      OpenFunc
	indexPath string
	mmrLambda float32
}

func NewService(open OpenFunc, indexPath string, mmrLambda float32) *Service {
	return &Service{open: open, indexPath: indexPath, mmrLambda: mmrLambda}
}

// GetContext runs an MMR search for kChunks chunks and assembles the
// result. A missing index is the normal pre-ingestion state and yields an
// empty Result; upstream failures are logged and degrade to the same empty
// Result rather than surfacing to the caller.
func (s *Service) GetContext(ctx context.Context, query string, kChunks int) Result {
	if !vectordb.Exists(s.indexPath) {
		return Result{}
	}

	store, err := s.open()
	if err != nil {
		log.Error().Err(err).Msg("could not open vector store")
		return Result{}
	}

	results, err := store.Search(ctx, query, kChunks, vectordb.ModeMMR, vectordb.SearchParams{Lambda: s.mmrLambda})
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("retrieval search failed")
		return Result{}
	}
	if len(results) == 0 {
		return Result{}
	}

	return buildResult(results)
}

func buildResult(results []chromem.Result) Result {
	texts := make([]string, 0, len(results))
	var sources []Source
	index := make(map[string]int, len(results))

	for _, r := range results {
		texts = append(texts, r.Content)

		title := strings.TrimSpace(r.Metadata[vectordb.MetaTitle])
		if title == "" {
			title = vectordb.UnknownTitle
		}
		if i, ok := index[title]; ok {
			sources[i].Chunks++
			continue
		}
		url := ""
		if entryID := r.Metadata[vectordb.MetaEntryID]; strings.HasPrefix(entryID, "http") {
			url = entryID
		}
		index[title] = len(sources)
		sources = append(sources, Source{Title: title, URL: url, Chunks: 1})
	}

	return Result{
		Context:  strings.Join(texts, "\n\n"),
		Sources:  sources,
		Coverage: coverage(len(results)),
	}
}

// coverage saturates at 100 once coverageBaseline chunks were retrieved.
func coverage(retrieved int) int {
	pct := retrieved * 100 / coverageBaseline
	if pct > 100 {
		return 100
	}
	return pct
}

// RelevantToTopic is the post-retrieval relevance gate: a cheap,
// case-insensitive substring check of the topic against the retrieved
// context. It guards against off-topic chunks from an under-populated
// index; it is a heuristic, not a correctness guarantee, and belongs to
// the call site rather than GetContext itself.
func RelevantToTopic(r Result, topic string) bool {
	topic = strings.TrimSpace(topic)
	if r.Context == "" || topic == "" {
		return false
	}
	return strings.Contains(strings.ToLower(r.Context), strings.ToLower(topic))
}
