package search

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/interview-intel/internal/fetch"
)

const serperURL = "https://google.serper.dev/search"

// Serper queries the serper.dev Google results API
type Serper struct {
	baseURL string
	opts    *fetch.Options
}

type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
	TBS string `json:"tbs,omitempty"`
}

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

// NewSerper creates a Serper provider
func NewSerper(apiKey, baseURL string, opts *fetch.Options) (*Serper, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("serper search requires an API key")
	}
	if baseURL == "" {
		baseURL = serperURL
	}
	if opts == nil {
		opts = fetch.DefaultOptions()
	}
	withKey := *opts
	withKey.Headers = map[string]string{"X-API-KEY": apiKey}
	return &Serper{baseURL: baseURL, opts: &withKey}, nil
}

// Name returns the provider name
func (s *Serper) Name() string { return ProviderSerper }

// Search posts one query
func (s *Serper) Search(ctx context.Context, query string, maxResults int, recency time.Duration) ([]Result, error) {
	req := serperRequest{Q: query, Num: clampResults(maxResults)}
	if recency > 0 {
		req.TBS = "qdr:" + windowCode(recency)
	}

	result, err := fetch.PostJSON(ctx, s.baseURL, req, s.opts)
	if err != nil {
		return nil, fmt.Errorf("serper search failed: %w", err)
	}

	var resp serperResponse
	if err := fetch.JSON(result, &resp); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(resp.Organic))
	for _, item := range resp.Organic {
		results = append(results, Result{Title: item.Title, URL: item.Link, Snippet: item.Snippet})
	}
	return results, nil
}
