package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"oreza-assistant-be/internal/pkg/logger"

	"golang.org/x/net/html"
)

const (
	DefaultPageCharLimit = 3000
	maxBodyBytes         = 2 << 20
)

// HTTPFetcher downloads a page and reduces it to its visible text lines.
type HTTPFetcher struct {
	client *http.Client
	limit  int
	logger logger.ILogger
}

func NewHTTPFetcher(limit int, log logger.ILogger) *HTTPFetcher {
	if limit <= 0 {
		limit = DefaultPageCharLimit
	}
	return &HTTPFetcher{
		client: &http.Client{Timeout: 10 * time.Second},
		limit:  limit,
		logger: log,
	}
}

func (f *HTTPFetcher) FetchText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn(logModule, "Page fetch failed", map[string]interface{}{"url": url, "error": err.Error()})
		return "", fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: HTTP %d", ErrFetchFailed, resp.StatusCode)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("%w: parse: %v", ErrFetchFailed, err)
	}

	return truncateRunes(visibleText(doc), f.limit), nil
}

// visibleText drops page chrome and scripts and keeps one trimmed,
// non-empty line per text fragment.
func visibleText(doc *html.Node) string {
	var lines []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "nav", "footer", "header", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			for _, line := range strings.Split(n.Data, "\n") {
				if line = strings.TrimSpace(line); line != "" {
					lines = append(lines, line)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.Join(lines, "\n")
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
