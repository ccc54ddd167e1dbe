package arxiv

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// FullText downloads the paper's PDF and extracts its plain text. Used by
// the full-text source-access mode; the default mode sticks to the
// abstract and never calls this.
func (c *Client) FullText(ctx context.Context, paper Paper) (string, error) {
	if paper.PDFURL == "" {
		return "", fmt.Errorf("paper %q has no PDF link", paper.Title)
	}

	body, err := c.get(ctx, paper.PDFURL)
	if err != nil {
		return "", fmt.Errorf("downloading pdf: %w", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}

	var sb strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			// A single damaged page should not sink the whole paper.
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("no extractable text in pdf for %q", paper.Title)
	}
	return text, nil
}
