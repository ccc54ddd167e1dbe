// Package cli wires the grounding engine into user-facing commands. Each
// command is one discrete, blocking action: ingest, retrieve, fetch news,
// or assemble the full grounding context.
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"grounding-rag/internal/arxiv"
	"grounding-rag/internal/config"
	"grounding-rag/internal/embedding"
	"grounding-rag/internal/retrieval"
	"grounding-rag/internal/vectordb"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "grounding-rag",
	Short: "Retrieval-augmented grounding engine for LLM content generation",
	Long: `grounding-rag ingests scientific preprints and financial news, indexes
them for semantic retrieval, and assembles a labeled, source-attributed
grounding context for a text-generation step.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./configs/config.yaml", "path to config file")
}

func Execute() error {
	return rootCmd.Execute()
}

func loadConfig() (*config.Config, error) {
	return config.LoadConfig(configPath)
}

// openStore opens (or creates) the persisted collection with the configured
// embedding provider behind it.
func openStore(cfg *config.Config) (*vectordb.Store, error) {
	embedder, err := embedding.NewEmbedder(&cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("initializing embedder: %w", err)
	}
	return vectordb.Open(cfg.Index.Path, cfg.Index.Collection, cfg.Index.Compress, embedding.Func(embedder))
}

func newPaperSource(cfg *config.Config) *arxiv.Client {
	return arxiv.NewClient(
		arxiv.WithMinInterval(time.Duration(cfg.Ingest.MinIntervalSecs) * time.Second),
	)
}

func newRetrievalService(cfg *config.Config) *retrieval.Service {
	open := func() (retrieval.Searcher, error) {
		return openStore(cfg)
	}
	return retrieval.NewService(open, cfg.Index.Path, cfg.Retrieval.MMRLambda)
}

// deriveChunkCount scales retrieval width with the number of indexed
// papers, so broader collections contribute more distinct chunks.
func deriveChunkCount(cfg *config.Config, store *vectordb.Store, cmd *cobra.Command) int {
	titles, err := store.ListTitles(cmd.Context())
	if err != nil || len(titles) == 0 {
		return cfg.Retrieval.ChunksPerPaper
	}
	return len(titles) * cfg.Retrieval.ChunksPerPaper
}
