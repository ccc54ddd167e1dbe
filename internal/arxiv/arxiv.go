// Package arxiv is a client for the arXiv export API. arXiv is a
// best-effort, rate-limited service: requests are throttled to one every
// few seconds and transient rejections are retried a bounded number of
// times before giving up.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "http://export.arxiv.org/api/query"

// Paper is one retrieved preprint. Immutable once fetched.
type Paper struct {
	Title     string
	Authors   []string
	Published time.Time
	// EntryID is the stable abs-page URL, the paper's external identifier.
	EntryID string
	PDFURL  string
	Summary string
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
}

type Option func(*Client)

// WithBaseURL points the client at a different endpoint, used in tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithMinInterval sets the minimum delay between requests. arXiv asks for
// about three seconds between calls.
func WithMinInterval(d time.Duration) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Every(d), 1) }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(3*time.Second), 1),
		maxRetries: 3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search returns up to maxResults papers matching the free-text topic.
func (c *Client) Search(ctx context.Context, topic string, maxResults int) ([]Paper, error) {
	params := url.Values{}
	params.Set("search_query", "all:"+topic)
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(maxResults))

	body, err := c.get(ctx, c.baseURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("parsing arxiv feed: %w", err)
	}

	papers := make([]Paper, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		title := collapseWhitespace(entry.Title)
		if title == "" {
			continue
		}
		papers = append(papers, Paper{
			Title:     title,
			Authors:   entry.authorNames(),
			Published: entry.publishedTime(),
			EntryID:   strings.TrimSpace(entry.ID),
			PDFURL:    entry.pdfLink(),
			Summary:   collapseWhitespace(entry.Summary),
		})
	}
	return papers, nil
}

// get performs a throttled request, retrying transient rejections (503 and
// 429) with a delay. Hard failures are not retried.
func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("arxiv request: %w", err)
		}
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if readErr != nil {
				return nil, fmt.Errorf("reading arxiv response: %w", readErr)
			}
			return body, nil
		case resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusTooManyRequests:
			delay := retryDelay(resp.Header.Get("Retry-After"), attempt)
			lastErr = fmt.Errorf("arxiv not ready (status %d)", resp.StatusCode)
			log.Warn().Int("status", resp.StatusCode).Int("attempt", attempt).
				Dur("delay", delay).Msg("arxiv rejected request, retrying")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		default:
			return nil, fmt.Errorf("arxiv returned status %d", resp.StatusCode)
		}
	}
	return nil, lastErr
}

func retryDelay(retryAfter string, attempt int) time.Duration {
	if secs, err := strconv.Atoi(retryAfter); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return time.Duration(attempt) * 2 * time.Second
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID        string       `xml:"id"`
	Title     string       `xml:"title"`
	Summary   string       `xml:"summary"`
	Published string       `xml:"published"`
	Authors   []atomAuthor `xml:"author"`
	Links     []atomLink   `xml:"link"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomLink struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
}

func (e atomEntry) authorNames() []string {
	names := make([]string, 0, len(e.Authors))
	for _, a := range e.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func (e atomEntry) publishedTime() time.Time {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(e.Published))
	if err != nil {
		return time.Time{}
	}
	return t
}

func (e atomEntry) pdfLink() string {
	for _, l := range e.Links {
		if l.Title == "pdf" || l.Type == "application/pdf" {
			return l.Href
		}
	}
	return ""
}
