package cli

import (
	"github.com/spf13/cobra"

	"grounding-rag/internal/helper"
	"grounding-rag/internal/vectordb"
)

var contextChunks int

var contextCmd = &cobra.Command{
	Use:   "context [query]",
	Short: "Retrieve grounding context for a query",
	Args:  cobra.ExactArgs(1),
	RunE:  runContext,
}

func init() {
	contextCmd.Flags().IntVarP(&contextChunks, "chunks", "k", 0, "number of chunks to retrieve (0 = derive from indexed papers)")
	rootCmd.AddCommand(contextCmd)
}

func runContext(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	k := contextChunks
	if k <= 0 {
		k = cfg.Retrieval.ChunksPerPaper
		if vectordb.Exists(cfg.Index.Path) {
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			k = deriveChunkCount(cfg, store, cmd)
		}
	}

	service := newRetrievalService(cfg)
	result := service.GetContext(cmd.Context(), args[0], k)

	helper.PrettyPrint(result)
	return nil
}
