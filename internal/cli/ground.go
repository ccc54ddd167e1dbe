package cli

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"grounding-rag/internal/finnews"
	"grounding-rag/internal/grounding"
	"grounding-rag/internal/helper"
	"grounding-rag/internal/retrieval"
	"grounding-rag/internal/vectordb"
)

var (
	groundFinanceQuery string
	groundDebug        bool
)

var groundCmd = &cobra.Command{
	Use:   "ground [topic]",
	Short: "Assemble the full grounding context for a topic",
	Long: `Retrieves scientific context for the topic, optionally fetches financial
news, and prints the assembled grounding context together with the
transparency summary handed to the UI layer.`,
	Args: cobra.ExactArgs(1),
	RunE: runGround,
}

func init() {
	groundCmd.Flags().StringVar(&groundFinanceQuery, "finance-query", "", "ticker or topic for financial news (empty disables)")
	groundCmd.Flags().BoolVar(&groundDebug, "debug", false, "log a preview of the assembled context")
	rootCmd.AddCommand(groundCmd)
}

func runGround(cmd *cobra.Command, args []string) error {
	topic := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var ragResult retrieval.Result
	if vectordb.Exists(cfg.Index.Path) {
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		k := deriveChunkCount(cfg, store, cmd)
		ragResult = newRetrievalService(cfg).GetContext(cmd.Context(), topic, k)

		// Heuristic relevance gate: an indexed corpus that never mentions
		// the topic is discarded rather than passed on as grounding.
		if ragResult.Context != "" && !retrieval.RelevantToTopic(ragResult, topic) {
			log.Warn().Str("topic", topic).Msg("retrieved context does not mention topic, discarding")
			ragResult = retrieval.Result{}
		}
	}

	var articles []finnews.Article
	if groundFinanceQuery != "" {
		fetcher := finnews.NewFetcher(cfg.Finance)
		articles = fetcher.FetchMulti(cmd.Context(), groundFinanceQuery, cfg.Finance.MaxArticles)
	}

	assembled := grounding.Assemble(ragResult.Context, finnews.BuildContext(articles), groundDebug)
	summary := grounding.Summarize(ragResult.Context, articles)

	if assembled == "" {
		cmd.Println("No grounding available; generation would run ungrounded.")
	} else {
		fmt.Println(assembled)
	}

	cmd.Println()
	helper.PrettyPrint(summary)
	if len(ragResult.Sources) > 0 {
		helper.PrettyPrint(ragResult.Sources)
	}
	return nil
}
