package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"grounding-rag/internal/embedding"
	"grounding-rag/internal/helper"
	"grounding-rag/internal/ingest"
)

var ingestMaxPapers int

var ingestCmd = &cobra.Command{
	Use:   "ingest [topic]",
	Short: "Fetch papers for a topic and index them",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().IntVarP(&ingestMaxPapers, "max", "n", 1, "maximum number of papers to index")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	embedder, err := embedding.NewEmbedder(&cfg.Embedding)
	if err != nil {
		return err
	}

	pipeline := ingest.NewPipeline(newPaperSource(cfg), store, embedding.Func(embedder), cfg.Ingest)

	status, err := pipeline.Ingest(cmd.Context(), args[0], ingestMaxPapers)
	if errors.Is(err, ingest.ErrEmptyTopic) {
		return fmt.Errorf("please provide a non-empty research topic")
	}
	if err != nil {
		return err
	}

	helper.PrettyPrint(status)
	return nil
}
