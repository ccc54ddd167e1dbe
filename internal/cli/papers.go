package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"grounding-rag/internal/vectordb"
)

var papersCmd = &cobra.Command{
	Use:   "papers",
	Short: "List the titles of all indexed papers",
	Args:  cobra.NoArgs,
	RunE:  runPapers,
}

func init() {
	rootCmd.AddCommand(papersCmd)
}

func runPapers(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if !vectordb.Exists(cfg.Index.Path) {
		cmd.Println("No papers indexed yet.")
		return nil
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	titles, err := store.ListTitles(cmd.Context())
	if err != nil {
		return err
	}
	if len(titles) == 0 {
		cmd.Println("No papers indexed yet.")
		return nil
	}

	for i, title := range titles {
		cmd.Println(fmt.Sprintf("%d. %s", i+1, title))
	}
	return nil
}
