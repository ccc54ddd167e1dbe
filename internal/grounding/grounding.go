// Package grounding combines whichever retrieval contexts are present into
// one labeled block for the generation step, and produces the UI-facing
// transparency summary describing what was actually used.
package grounding

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"grounding-rag/internal/finnews"
)

// Wire-format constants consumed by the downstream generation step. Stable;
// do not reword without coordinating with the prompt templates.
const (
	scientificHeader = "=== SCIENTIFIC CONTEXT (arXiv papers) ==="
	scientificFooter = "=== END SCIENTIFIC CONTEXT ==="
)

const (
	debugPreviewBudget = 500
	articlePreviewCap  = 5
)

// Summary describes the grounding that backs one generation request.
// Recomputed per request, never persisted.
type Summary struct {
	SourcesUsed           []string          `json:"sources_used"`
	RAGEnabled            bool              `json:"rag_enabled"`
	RAGDocCount           int               `json:"rag_doc_count"`
	FinancialEnabled      bool              `json:"financial_enabled"`
	FinancialArticleCount int               `json:"financial_article_count"`
	FinancialArticles     []finnews.Article `json:"financial_articles"`
	IsGrounded            bool              `json:"is_grounded"`
}

// Assemble labels and concatenates the contexts that are present. The
// scientific block gets its delimiter pair; the financial block already
// carries its own label and is appended verbatim. Both empty means pure
// generation: the result is "". Debug mode emits a bounded preview to the
// log and never alters the returned string.
func Assemble(ragContext, financialContext string, debug bool) string {
	var blocks []string
	if ragContext != "" {
		blocks = append(blocks, scientificHeader+"\n"+ragContext+"\n"+scientificFooter)
	}
	if financialContext != "" {
		blocks = append(blocks, financialContext)
	}
	assembled := strings.Join(blocks, "\n\n")

	if debug {
		var used []string
		if ragContext != "" {
			used = append(used, "scientific")
		}
		if financialContext != "" {
			used = append(used, "financial")
		}
		log.Info().Strs("sources", used).
			Str("preview", truncateRunes(assembled, debugPreviewBudget)).
			Msg("assembled grounding context")
	}

	return assembled
}

// Summarize builds the transparency summary. RAG chunks are counted as the
// non-blank paragraphs of the retrieved documents; the financial article
// preview is capped to bound the payload handed to the UI layer.
func Summarize(ragDocuments string, articles []finnews.Article) Summary {
	ragCount := countParagraphs(ragDocuments)

	summary := Summary{
		SourcesUsed:           []string{},
		RAGEnabled:            ragCount > 0,
		RAGDocCount:           ragCount,
		FinancialEnabled:      len(articles) > 0,
		FinancialArticleCount: len(articles),
		FinancialArticles:     previewArticles(articles),
	}
	summary.IsGrounded = summary.RAGEnabled || summary.FinancialEnabled

	if summary.RAGEnabled {
		summary.SourcesUsed = append(summary.SourcesUsed,
			fmt.Sprintf("arXiv papers (%d chunks)", ragCount))
	}
	if summary.FinancialEnabled {
		summary.SourcesUsed = append(summary.SourcesUsed,
			fmt.Sprintf("Financial News (%d articles)", len(articles)))
	}

	return summary
}

func countParagraphs(text string) int {
	count := 0
	for _, p := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(p) != "" {
			count++
		}
	}
	return count
}

func previewArticles(articles []finnews.Article) []finnews.Article {
	if len(articles) > articlePreviewCap {
		return articles[:articlePreviewCap]
	}
	return articles
}

func truncateRunes(s string, budget int) string {
	runes := []rune(s)
	if len(runes) <= budget {
		return s
	}
	return string(runes[:budget])
}
