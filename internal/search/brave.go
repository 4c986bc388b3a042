package search

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/jonathan/interview-intel/internal/fetch"
)

const braveURL = "https://api.search.brave.com/res/v1/web/search"

// Brave queries the Brave Search web API
type Brave struct {
	baseURL string
	opts    *fetch.Options
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// NewBrave creates a Brave provider
func NewBrave(apiKey, baseURL string, opts *fetch.Options) (*Brave, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("brave search requires an API key")
	}
	if baseURL == "" {
		baseURL = braveURL
	}
	if opts == nil {
		opts = fetch.DefaultOptions()
	}
	withKey := *opts
	withKey.Headers = map[string]string{
		"Accept":               "application/json",
		"X-Subscription-Token": apiKey,
	}
	return &Brave{baseURL: baseURL, opts: &withKey}, nil
}

// Name returns the provider name
func (b *Brave) Name() string { return ProviderBrave }

// Search runs one query
func (b *Brave) Search(ctx context.Context, query string, maxResults int, recency time.Duration) ([]Result, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(clampResults(maxResults)))
	if recency > 0 {
		params.Set("freshness", "p"+windowCode(recency))
	}

	result, err := fetch.URL(ctx, b.baseURL+"?"+params.Encode(), b.opts)
	if err != nil {
		return nil, fmt.Errorf("brave search failed: %w", err)
	}

	var resp braveResponse
	if err := fetch.JSON(result, &resp); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(resp.Web.Results))
	for _, item := range resp.Web.Results {
		results = append(results, Result{Title: item.Title, URL: item.URL, Snippet: fetch.CleanText(item.Description)})
	}
	return results, nil
}
