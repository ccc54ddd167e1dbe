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
	newsAPIName    = "newsapi"
	newsAPIBaseURL = "https://newsapi.org/v2/everything"
)

// NewsAPI is the general news-search feed, keyed by free text.
type NewsAPI struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewNewsAPI(apiKey string, client *http.Client) *NewsAPI {
	return &NewsAPI{apiKey: apiKey, baseURL: newsAPIBaseURL, client: client}
}

func (p *NewsAPI) Name() string { return newsAPIName }

func (p *NewsAPI) Fetch(ctx context.Context, query string, maxArticles int) ([]Article, error) {
	if p.apiKey == "" {
		return nil, ErrNotConfigured
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("pageSize", strconv.Itoa(maxArticles))
	params.Set("sortBy", "publishedAt")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsapi request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}

	var payload struct {
		Status   string `json:"status"`
		Code     string `json:"code"`
		Message  string `json:"message"`
		Articles []struct {
			Source struct {
				Name string `json:"name"`
			} `json:"source"`
			Title       string `json:"title"`
			Description string `json:"description"`
			URL         string `json:"url"`
			PublishedAt string `json:"publishedAt"`
		} `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding newsapi response: %w", err)
	}

	if payload.Status != "ok" {
		if payload.Code == "rateLimited" {
			return nil, ErrRateLimited
		}
		return nil, fmt.Errorf("newsapi error %s: %s", payload.Code, payload.Message)
	}

	articles := make([]Article, 0, len(payload.Articles))
	for _, item := range payload.Articles {
		if len(articles) == maxArticles {
			break
		}
		published, _ := time.Parse(time.RFC3339, item.PublishedAt)
		articles = append(articles, Article{
			Title:       item.Title,
			Summary:     item.Description,
			URL:         item.URL,
			Source:      item.Source.Name,
			PublishedAt: published,
			Provider:    newsAPIName,
		})
	}
	return articles, nil
}
