package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"grounding-rag/internal/finnews"
	"grounding-rag/internal/helper"
)

var (
	newsMaxArticles int
	newsProvider    string
	newsAsContext   bool
)

var newsCmd = &cobra.Command{
	Use:   "news [query]",
	Short: "Fetch financial news for a ticker or topic",
	Args:  cobra.ExactArgs(1),
	RunE:  runNews,
}

func init() {
	newsCmd.Flags().IntVarP(&newsMaxArticles, "max", "n", 0, "maximum number of articles (0 = configured default)")
	newsCmd.Flags().StringVar(&newsProvider, "provider", "", "query a single provider instead of all")
	newsCmd.Flags().BoolVar(&newsAsContext, "context", false, "print the rendered context block instead of JSON")
	rootCmd.AddCommand(newsCmd)
}

func runNews(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	maxArticles := newsMaxArticles
	if maxArticles <= 0 {
		maxArticles = cfg.Finance.MaxArticles
	}

	fetcher := finnews.NewFetcher(cfg.Finance)

	var articles []finnews.Article
	if newsProvider != "" {
		articles = fetcher.Fetch(cmd.Context(), newsProvider, args[0], maxArticles)
	} else {
		articles = fetcher.FetchMulti(cmd.Context(), args[0], maxArticles)
	}

	if newsAsContext {
		fmt.Println(finnews.BuildContext(articles))
		return nil
	}
	helper.PrettyPrint(articles)
	return nil
}
