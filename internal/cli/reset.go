package cli

import (
	"github.com/spf13/cobra"

	"grounding-rag/internal/vectordb"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the persisted vector index",
	Args:  cobra.NoArgs,
	RunE:  runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if !vectordb.Exists(cfg.Index.Path) {
		cmd.Println("Nothing to reset.")
		return nil
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	if err := store.Reset(); err != nil {
		return err
	}

	cmd.Println("Vector index deleted.")
	return nil
}
