// Package vectordb wraps a persistent chromem-go collection and adds the
// search modes the retrieval layer needs: plain similarity, similarity with
// a score floor, and maximal-marginal-relevance reranking.
package vectordb

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
)

// Metadata keys written at ingestion time and read back by retrieval.
// Normalization happens once on the write path; read sites use these
// constants only.
const (
	MetaTitle     = "title"
	MetaEntryID   = "entry_id"
	MetaAuthors   = "authors"
	MetaPublished = "published"
	MetaChunk     = "chunk"
)

// UnknownTitle is the fallback for chunks whose metadata lacks a title,
// e.g. collections written by older tooling.
const UnknownTitle = "Unknown title"

type SearchMode string

const (
	ModeSimilarity          SearchMode = "similarity"
	ModeSimilarityThreshold SearchMode = "similarity_threshold"
	ModeMMR                 SearchMode = "mmr"
)

// SearchParams tunes the non-default search modes.
type SearchParams struct {
	// Lambda balances relevance against diversity under ModeMMR.
	// Higher favors relevance. Zero means the 0.7 default.
	Lambda float32
	// MinSimilarity discards weaker candidates under ModeSimilarityThreshold.
	MinSimilarity float32
}

const defaultLambda = 0.7

// Store is a handle on one named, disk-persisted collection. Handles are
// cheap to open; callers that need to survive an external rebuild should
// re-open rather than cache one forever.
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
	path       string
	name       string
}

// Open creates or reopens the collection under path. The embedding func is
// used for query embedding on reads and for any document added without a
// precomputed vector.
func Open(path, collection string, compress bool, embed chromem.EmbeddingFunc) (*Store, error) {
	db, err := chromem.NewPersistentDB(path, compress)
	if err != nil {
		return nil, fmt.Errorf("opening vector database: %w", err)
	}
	c, err := db.GetOrCreateCollection(collection, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("opening collection %s: %w", collection, err)
	}
	return &Store{db: db, collection: c, path: path, name: collection}, nil
}

// Exists reports whether a persisted index directory is present on disk.
// Absence is the normal state before the first ingestion.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Add writes the batch in one operation. Chunk construction failures must be
// handled before calling; a batch either lands or the collection is left as
// it was.
func (s *Store) Add(ctx context.Context, docs []chromem.Document) error {
	if len(docs) == 0 {
		return nil
	}
	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("adding documents: %w", err)
	}
	return nil
}

// Count returns the number of stored chunks.
func (s *Store) Count() int {
	return s.collection.Count()
}

// Search embeds the query and returns up to k chunks under the given mode.
// ModeSimilarityThreshold may return fewer than k (possibly zero) results
// rather than padding with weak matches.
func (s *Store) Search(ctx context.Context, query string, k int, mode SearchMode, params SearchParams) ([]chromem.Result, error) {
	total := s.collection.Count()
	if total == 0 || k <= 0 {
		return nil, nil
	}

	switch mode {
	case ModeSimilarity, "":
		return s.query(ctx, query, min(k, total))

	case ModeSimilarityThreshold:
		results, err := s.query(ctx, query, min(k, total))
		if err != nil {
			return nil, err
		}
		kept := results[:0]
		for _, r := range results {
			if r.Similarity >= params.MinSimilarity {
				kept = append(kept, r)
			}
		}
		return kept, nil

	case ModeMMR:
		// Over-fetch so the reranker has distinct candidates to pick from.
		fetch := min(total, max(k*4, 20))
		results, err := s.query(ctx, query, fetch)
		if err != nil {
			return nil, err
		}
		lambda := params.Lambda
		if lambda == 0 {
			lambda = defaultLambda
		}
		return maximalMarginalRelevance(results, lambda, k), nil

	default:
		return nil, fmt.Errorf("unknown search mode %q", mode)
	}
}

func (s *Store) query(ctx context.Context, query string, n int) ([]chromem.Result, error) {
	results, err := s.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryText: query,
		NResults:  n,
	})
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}
	return results, nil
}

// ListTitles returns the sorted unique titles found in stored chunk
// metadata. chromem has no enumeration API, so a full-width query is issued
// and titles are folded from the result metadata.
func (s *Store) ListTitles(ctx context.Context) ([]string, error) {
	total := s.collection.Count()
	if total == 0 {
		return nil, nil
	}

	results, err := s.query(ctx, "indexed paper titles", total)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(results))
	var titles []string
	for _, r := range results {
		title := strings.TrimSpace(r.Metadata[MetaTitle])
		if title == "" {
			title = UnknownTitle
		}
		if _, ok := seen[title]; ok {
			continue
		}
		seen[title] = struct{}{}
		titles = append(titles, title)
	}
	sort.Strings(titles)
	return titles, nil
}

// Reset deletes the entire persisted collection. Missing state is a no-op.
// A directory held open by another process (storage-busy) is logged and
// skipped; reset never brings down the caller.
func (s *Store) Reset() error {
	if err := s.db.DeleteCollection(s.name); err != nil {
		log.Warn().Err(err).Str("collection", s.name).Msg("could not delete collection, skipping")
		return nil
	}
	if err := os.RemoveAll(s.path); err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("index directory busy, skipping removal")
	}
	return nil
}
