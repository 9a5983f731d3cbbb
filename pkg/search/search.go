// Package search wraps the web/image search backend and the page fetcher
// used to ground answers in fresh information.
package search

import (
	"context"
	"errors"
)

type Kind string

const (
	KindWeb   Kind = "web"
	KindImage Kind = "image"
)

var (
	ErrSearchFailed = errors.New("search: provider failed")
	ErrFetchFailed  = errors.New("search: fetch failed")
)

// Result is one web or image hit. Image hits fill ImageURL and the image
// fields; web hits fill Snippet.
type Result struct {
	Title       string `json:"title"`
	Snippet     string `json:"snippet,omitempty"`
	Link        string `json:"link,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	ContextLink string `json:"context_link,omitempty"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
}

// Provider returns at most n results. Callers treat an error as zero results.
type Provider interface {
	Search(ctx context.Context, query string, n int, kind Kind) ([]Result, error)
}

// Fetcher returns the visible text of a page, capped in size.
type Fetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}
