// Package finnews fetches real-time financial news from one or more
// providers, merges it into a common article shape, and renders it as a
// labeled grounding-context block. Every failure path degrades to an empty
// article list; nothing here is allowed to sink a request.
package finnews

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"grounding-rag/internal/config"
)

// Article is the normalized shape shared by all providers. Articles are
// deduplicated by URL.
type Article struct {
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
	Provider    string    `json:"provider"`
}

var (
	// ErrNotConfigured marks a provider disabled for lack of a credential.
	ErrNotConfigured = errors.New("finnews: provider credential not configured")
	// ErrRateLimited marks an explicit rate-limit signal from a provider.
	ErrRateLimited = errors.New("finnews: provider rate limit reached")
)

// Provider is one external news feed.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, query string, maxArticles int) ([]Article, error)
}

type Fetcher struct {
	providers []Provider
}

// NewFetcher wires up all known providers. Providers without credentials
// stay registered but disabled; they log and contribute nothing.
func NewFetcher(cfg config.FinanceConfig) *Fetcher {
	client := &http.Client{Timeout: time.Duration(cfg.TimeoutSecs) * time.Second}
	return &Fetcher{providers: []Provider{
		NewAlphaVantage(cfg.AlphaVantageKey, client),
		NewNewsAPI(cfg.NewsAPIKey, client),
	}}
}

// NewFetcherWithProviders is used by tests and custom wiring.
func NewFetcherWithProviders(providers ...Provider) *Fetcher {
	return &Fetcher{providers: providers}
}

// Fetch queries a single provider by name. Provider-side errors, rate
// limits, and missing credentials never propagate; they log and yield an
// empty list so the pipeline degrades gracefully.
func (f *Fetcher) Fetch(ctx context.Context, provider, query string, maxArticles int) []Article {
	for _, p := range f.providers {
		if p.Name() == provider {
			return f.fetchOne(ctx, p, query, maxArticles)
		}
	}
	log.Warn().Str("provider", provider).Msg("unknown news provider")
	return nil
}

// FetchMulti queries every configured provider, concatenates the results,
// deduplicates by URL preserving first-seen order, and truncates to
// maxArticles.
func (f *Fetcher) FetchMulti(ctx context.Context, query string, maxArticles int) []Article {
	var merged []Article
	for _, p := range f.providers {
		merged = append(merged, f.fetchOne(ctx, p, query, maxArticles)...)
	}
	merged = dedupeByURL(merged)
	if len(merged) > maxArticles {
		merged = merged[:maxArticles]
	}
	return merged
}

func (f *Fetcher) fetchOne(ctx context.Context, p Provider, query string, maxArticles int) []Article {
	normalized := NormalizeQuery(query)
	if normalized == "" {
		return nil
	}

	articles, err := p.Fetch(ctx, normalized, maxArticles)
	switch {
	case errors.Is(err, ErrNotConfigured):
		log.Warn().Str("provider", p.Name()).Msg("credential not configured, skipping provider")
		return nil
	case errors.Is(err, ErrRateLimited):
		log.Warn().Str("provider", p.Name()).Msg("provider rate limit reached")
		return nil
	case err != nil:
		log.Error().Err(err).Str("provider", p.Name()).Msg("fetching financial news failed")
		return nil
	}
	log.Info().Str("provider", p.Name()).Int("articles", len(articles)).Str("query", normalized).
		Msg("fetched financial news")
	return articles
}

func dedupeByURL(articles []Article) []Article {
	seen := make(map[string]struct{}, len(articles))
	out := articles[:0]
	for _, a := range articles {
		if _, ok := seen[a.URL]; ok {
			continue
		}
		seen[a.URL] = struct{}{}
		out = append(out, a)
	}
	return out
}

const (
	contextHeader      = "📈 FINANCIAL MARKET CONTEXT (real-time news):"
	contextInstruction = "Use this information as factual grounding for financial content."
	summaryBudget      = 150
)

// BuildContext renders the fixed-format financial block: header line, one
// numbered line per article, and a trailing instruction for the consumer.
// Empty input yields an empty string with no header.
func BuildContext(articles []Article) string {
	if len(articles) == 0 {
		return ""
	}

	lines := make([]string, 0, len(articles)+2)
	lines = append(lines, contextHeader+"\n")
	for i, a := range articles {
		lines = append(lines, fmt.Sprintf("%d. %s - %s... (%s / %s)",
			i+1, a.Title, truncate(a.Summary, summaryBudget), a.Source, a.Provider))
	}
	lines = append(lines, "\n"+contextInstruction+"\n")

	return strings.Join(lines, "\n")
}

func truncate(s string, budget int) string {
	runes := []rune(s)
	if len(runes) <= budget {
		return s
	}
	return string(runes[:budget])
}
