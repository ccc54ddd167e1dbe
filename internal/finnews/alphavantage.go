package finnews

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	alphaVantageName    = "alphavantage"
	alphaVantageBaseURL = "https://www.alphavantage.co/query"
	// Alpha Vantage timestamps look like 20240131T123000.
	alphaVantageTimeLayout = "20060102T150405"
)

// AlphaVantage is the sentiment/news feed, keyed by ticker or topic.
type AlphaVantage struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewAlphaVantage(apiKey string, client *http.Client) *AlphaVantage {
	return &AlphaVantage{apiKey: apiKey, baseURL: alphaVantageBaseURL, client: client}
}

func (p *AlphaVantage) Name() string { return alphaVantageName }

func (p *AlphaVantage) Fetch(ctx context.Context, query string, maxArticles int) ([]Article, error) {
	if p.apiKey == "" {
		return nil, ErrNotConfigured
	}

	params := url.Values{}
	params.Set("function", "NEWS_SENTIMENT")
	params.Set("apikey", p.apiKey)
	params.Set("limit", strconv.Itoa(maxArticles))
	if IsTickerQuery(query) {
		params.Set("tickers", query)
	} else {
		params.Set("topics", query)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("alpha vantage request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, ErrRateLimited
		}
		return nil, fmt.Errorf("alpha vantage returned status %d", resp.StatusCode)
	}

	var payload struct {
		Feed []struct {
			Title         string `json:"title"`
			URL           string `json:"url"`
			Summary       string `json:"summary"`
			Source        string `json:"source"`
			TimePublished string `json:"time_published"`
		} `json:"feed"`
		// Alpha Vantage signals problems in-band with HTTP 200.
		Note         string `json:"Note"`
		Information  string `json:"Information"`
		ErrorMessage string `json:"Error Message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding alpha vantage response: %w", err)
	}

	if payload.ErrorMessage != "" {
		return nil, fmt.Errorf("alpha vantage error: %s", payload.ErrorMessage)
	}
	if payload.Note != "" || payload.Information != "" {
		return nil, ErrRateLimited
	}

	articles := make([]Article, 0, len(payload.Feed))
	for _, item := range payload.Feed {
		if len(articles) == maxArticles {
			break
		}
		published, _ := time.Parse(alphaVantageTimeLayout, item.TimePublished)
		articles = append(articles, Article{
			Title:       item.Title,
			Summary:     item.Summary,
			URL:         item.URL,
			Source:      item.Source,
			PublishedAt: published,
			Provider:    alphaVantageName,
		})
	}
	return articles, nil
}
