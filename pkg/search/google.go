package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"oreza-assistant-be/internal/pkg/logger"
)

const (
	logModule = "Search"

	DefaultGoogleEndpoint = "https://www.googleapis.com/customsearch/v1"
	googleMaxResults      = 10
	credentialsURL        = "https://console.cloud.google.com/apis/credentials"
)

// GoogleProvider queries the Custom Search JSON API. Without credentials it
// answers with a single placeholder result explaining the missing setup.
type GoogleProvider struct {
	apiKey   string
	cseID    string
	endpoint string
	client   *http.Client
	logger   logger.ILogger
}

type GoogleOption func(*GoogleProvider)

func WithEndpoint(endpoint string) GoogleOption {
	return func(p *GoogleProvider) { p.endpoint = endpoint }
}

func WithHTTPClient(c *http.Client) GoogleOption {
	return func(p *GoogleProvider) { p.client = c }
}

func NewGoogleProvider(apiKey, cseID string, log logger.ILogger, opts ...GoogleOption) *GoogleProvider {
	p := &GoogleProvider{
		apiKey:   apiKey,
		cseID:    cseID,
		endpoint: DefaultGoogleEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   log,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.MockMode() {
		log.Warn(logModule, "Google Search credentials not found, using mock mode", nil)
	}
	return p
}

func (p *GoogleProvider) MockMode() bool {
	return p.apiKey == "" || p.cseID == ""
}

type googleResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
		Image   struct {
			ContextLink   string `json:"contextLink"`
			ThumbnailLink string `json:"thumbnailLink"`
			Width         int    `json:"width"`
			Height        int    `json:"height"`
		} `json:"image"`
	} `json:"items"`
}

func (p *GoogleProvider) Search(ctx context.Context, query string, n int, kind Kind) ([]Result, error) {
	if p.MockMode() {
		return mockResults(query, kind), nil
	}
	if n <= 0 || n > googleMaxResults {
		n = googleMaxResults
	}

	params := url.Values{}
	params.Set("key", p.apiKey)
	params.Set("cx", p.cseID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(n))
	params.Set("lr", "lang_ja")
	params.Set("hl", "ja")
	params.Set("gl", "jp")
	if kind == KindImage {
		params.Set("searchType", "image")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Error(logModule, "Google Search request failed", map[string]interface{}{"error": err.Error()})
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.logger.Error(logModule, "Google Search API error", map[string]interface{}{"status": resp.StatusCode})
		return nil, fmt.Errorf("%w: HTTP %d", ErrSearchFailed, resp.StatusCode)
	}

	var body googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrSearchFailed, err)
	}

	results := make([]Result, 0, len(body.Items))
	for _, item := range body.Items {
		if kind == KindImage {
			results = append(results, Result{
				Title:       item.Title,
				ImageURL:    item.Link,
				Thumbnail:   item.Image.ThumbnailLink,
				ContextLink: item.Image.ContextLink,
				Width:       item.Image.Width,
				Height:      item.Image.Height,
			})
			continue
		}
		results = append(results, Result{
			Title:   item.Title,
			Snippet: item.Snippet,
			Link:    item.Link,
		})
	}
	if kind != KindImage {
		SortByPriority(results)
	}

	p.logger.Info(logModule, "Search completed", map[string]interface{}{
		"query": query,
		"kind":  kind,
		"count": len(results),
	})
	return results, nil
}

func mockResults(query string, kind Kind) []Result {
	if kind == KindImage {
		return []Result{{
			Title:     "画像検索結果: " + query,
			ImageURL:  "https://via.placeholder.com/300x200?text=Mock+Image",
			Thumbnail: "https://via.placeholder.com/150x100?text=Mock+Thumb",
			Link:      credentialsURL,
		}}
	}
	return []Result{{
		Title:   "検索結果: " + query,
		Snippet: "Google Search APIの認証情報が設定されていません。環境変数 GOOGLE_API_KEY と GOOGLE_CSE_ID を設定してください。",
		Link:    credentialsURL,
	}}
}

var (
	officialDomains    = []string{"instagram.com", "facebook.com", "twitter.com", "x.com", "tiktok.com"}
	majorMusicServices = []string{"spotify.com", "music.apple.com", "music.amazon.", "music.youtube.com", "soundcloud.com"}
	otherMusicServices = []string{"music.line.me", "tidal.com", "deezer.com", "kkbox.com", "mora.jp", "recochoku.jp"}
)

// SortByPriority orders web results: video, official and social, major
// streaming, other streaming, everything else. Stable within a rank.
func SortByPriority(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return priority(results[i]) < priority(results[j])
	})
}

func priority(r Result) int {
	link := strings.ToLower(r.Link)
	title := strings.ToLower(r.Title)

	switch {
	case strings.Contains(link, "youtube.com") || strings.Contains(link, "youtu.be"):
		return 1
	case containsAny(link, officialDomains) || strings.Contains(title, "公式") || strings.Contains(title, "official"):
		return 2
	case containsAny(link, majorMusicServices):
		return 3
	case containsAny(link, otherMusicServices):
		return 4
	}
	return 5
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
