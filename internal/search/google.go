package search

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// Google queries the Programmable Search (Custom Search JSON) API
type Google struct {
	svc *customsearch.Service
	cx  string
}

// NewGoogle creates a Google provider. endpoint overrides the API base URL when set.
func NewGoogle(ctx context.Context, apiKey, cx, endpoint string) (*Google, error) {
	if apiKey == "" || cx == "" {
		return nil, fmt.Errorf("google search requires an API key and a search engine ID (cx)")
	}

	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}

	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create customsearch service: %w", err)
	}
	return &Google{svc: svc, cx: cx}, nil
}

// Name returns the provider name
func (g *Google) Name() string { return ProviderGoogle }

// Search runs one query. The API returns at most 10 items per call.
func (g *Google) Search(ctx context.Context, query string, maxResults int, recency time.Duration) ([]Result, error) {
	call := g.svc.Cse.List().Cx(g.cx).Q(query).Num(int64(min(clampResults(maxResults), 10))).Context(ctx)
	if recency > 0 {
		call = call.DateRestrict(fmt.Sprintf("d%d", days(recency)))
	}

	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("google search failed: %w", err)
	}

	results := make([]Result, 0, len(resp.Items))
	for _, item := range resp.Items {
		results = append(results, Result{
			Title:   item.Title,
			URL:     item.Link,
			Snippet: item.Snippet,
		})
	}
	return results, nil
}
