// Package ingest turns a research topic into indexed, embedded chunks:
// fetch papers, build one text record per paper, split with overlap, embed,
// and write the whole batch to the vector store in a single add.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/textsplitter"

	"grounding-rag/internal/arxiv"
	"grounding-rag/internal/config"
	"grounding-rag/internal/vectordb"
)

// ErrEmptyTopic rejects ingestion calls whose topic is blank after trimming.
var ErrEmptyTopic = errors.New("ingest: topic must not be empty")

// PaperSource is the external document provider.
type PaperSource interface {
	Search(ctx context.Context, topic string, maxResults int) ([]arxiv.Paper, error)
	FullText(ctx context.Context, paper arxiv.Paper) (string, error)
}

// Indexer is the write side of the vector store.
type Indexer interface {
	Add(ctx context.Context, docs []chromem.Document) error
}

// Status reports the outcome of one ingestion call. Callers branch on the
// fields, not on message text.
type Status struct {
	Topic   string `json:"topic"`
	Indexed int    `json:"indexed"`
	Chunks  int    `json:"chunks"`
	Message string `json:"message"`
}

type Pipeline struct {
	source     PaperSource
	store      Indexer
	embed      chromem.EmbeddingFunc
	cfg        config.IngestConfig
	invalidate func()
}

type Option func(*Pipeline)

// WithCacheInvalidator registers a hook run after a successful write, so any
// externally cached view of the indexed papers can be refreshed.
func WithCacheInvalidator(fn func()) Option {
	return func(p *Pipeline) { p.invalidate = fn }
}

func NewPipeline(source PaperSource, store Indexer, embed chromem.EmbeddingFunc, cfg config.IngestConfig, opts ...Option) *Pipeline {
	p := &Pipeline{source: source, store: store, embed: embed, cfg: cfg}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ingest fetches up to maxDocs papers for the topic and indexes them.
// maxDocs is clamped to the configured ceiling to bound rebuild cost and
// respect upstream rate limits. Zero results leave the index untouched.
// All chunks are embedded before anything is written, so a failure mid-way
// never leaves a partial batch behind.
func (p *Pipeline) Ingest(ctx context.Context, topic string, maxDocs int) (Status, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Status{}, ErrEmptyTopic
	}
	maxDocs = clamp(maxDocs, 1, p.cfg.MaxPapers)

	log.Debug().Str("topic", topic).Int("max_docs", maxDocs).Msg("searching for papers")
	papers, err := p.source.Search(ctx, topic, maxDocs)
	if err != nil {
		return Status{}, fmt.Errorf("searching papers for %q: %w", topic, err)
	}
	if len(papers) == 0 {
		log.Warn().Str("topic", topic).Msg("no papers found")
		return Status{Topic: topic, Message: "no documents found for the given topic"}, nil
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(p.cfg.ChunkSize),
		textsplitter.WithChunkOverlap(p.cfg.ChunkOverlap),
	)

	var docs []chromem.Document
	for _, paper := range papers {
		record := p.buildRecord(ctx, paper)

		chunks, err := splitter.SplitText(record)
		if err != nil {
			return Status{}, fmt.Errorf("splitting %q: %w", paper.Title, err)
		}
		meta := paperMetadata(paper)

		for i, chunk := range chunks {
			embeddingVec, err := p.embed(ctx, chunk)
			if err != nil {
				return Status{}, fmt.Errorf("embedding chunk of %q: %w", paper.Title, err)
			}
			chunkMeta := make(map[string]string, len(meta)+1)
			for k, v := range meta {
				chunkMeta[k] = v
			}
			chunkMeta[vectordb.MetaChunk] = strconv.Itoa(i)

			docs = append(docs, chromem.Document{
				ID:        uuid.NewString(),
				Content:   chunk,
				Metadata:  chunkMeta,
				Embedding: embeddingVec,
			})
		}
	}

	// One atomic add per ingestion call.
	if err := p.store.Add(ctx, docs); err != nil {
		return Status{}, fmt.Errorf("indexing chunks for %q: %w", topic, err)
	}
	if p.invalidate != nil {
		p.invalidate()
	}

	log.Info().Str("topic", topic).Int("papers", len(papers)).Int("chunks", len(docs)).Msg("papers indexed")
	return Status{
		Topic:   topic,
		Indexed: len(papers),
		Chunks:  len(docs),
		Message: fmt.Sprintf("%d paper(s) about %q indexed", len(papers), topic),
	}, nil
}

// buildRecord assembles the text that gets chunked: header fields plus the
// abstract, or the extracted full text when that mode is on. A failed
// full-text fetch degrades to the abstract.
func (p *Pipeline) buildRecord(ctx context.Context, paper arxiv.Paper) string {
	body := paper.Summary
	if p.cfg.FullText {
		text, err := p.source.FullText(ctx, paper)
		if err != nil {
			log.Warn().Err(err).Str("title", paper.Title).Msg("full text unavailable, using abstract")
		} else {
			body = text
		}
	}

	var sb strings.Builder
	sb.WriteString("Title: " + paper.Title + "\n")
	if len(paper.Authors) > 0 {
		sb.WriteString("Authors: " + strings.Join(paper.Authors, ", ") + "\n")
	}
	if !paper.Published.IsZero() {
		sb.WriteString("Published: " + paper.Published.Format("2006-01-02") + "\n")
	}
	sb.WriteString("\n")
	sb.WriteString(body)
	return sb.String()
}

// paperMetadata normalizes paper fields into the flat, scalar-only shape
// the index can store. Author lists are joined; nothing non-scalar is kept.
func paperMetadata(paper arxiv.Paper) map[string]string {
	meta := map[string]string{
		vectordb.MetaTitle:   paper.Title,
		vectordb.MetaEntryID: paper.EntryID,
	}
	if len(paper.Authors) > 0 {
		meta[vectordb.MetaAuthors] = strings.Join(paper.Authors, ", ")
	}
	if !paper.Published.IsZero() {
		meta[vectordb.MetaPublished] = paper.Published.Format("2006-01-02")
	}
	return meta
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
