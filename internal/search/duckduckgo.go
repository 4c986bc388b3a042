package search

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/interview-intel/internal/fetch"
)

const duckDuckGoURL = "https://html.duckduckgo.com/html/"

// DuckDuckGo scrapes the keyless HTML results page
type DuckDuckGo struct {
	baseURL string
	opts    *fetch.Options
}

// NewDuckDuckGo creates a DuckDuckGo provider. baseURL overrides the results page when set.
func NewDuckDuckGo(baseURL string, opts *fetch.Options) *DuckDuckGo {
	if baseURL == "" {
		baseURL = duckDuckGoURL
	}
	return &DuckDuckGo{baseURL: baseURL, opts: opts}
}

// Name returns the provider name
func (d *DuckDuckGo) Name() string { return ProviderDuckDuckGo }

// Search fetches the HTML results page and parses result blocks
func (d *DuckDuckGo) Search(ctx context.Context, query string, maxResults int, recency time.Duration) ([]Result, error) {
	params := url.Values{}
	params.Set("q", query)
	if recency > 0 {
		params.Set("df", windowCode(recency))
	}

	result, err := fetch.URL(ctx, d.baseURL+"?"+params.Encode(), d.opts)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo search failed: %w", err)
	}

	doc, err := fetch.Document(result)
	if err != nil {
		return nil, err
	}
	return parseDuckDuckGo(doc, clampResults(maxResults)), nil
}

func parseDuckDuckGo(doc *goquery.Document, maxResults int) []Result {
	var results []Result
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.HasClass("result--ad") {
			return true
		}
		link := s.Find("a.result__a").First()
		href, ok := link.Attr("href")
		if !ok {
			return true
		}
		target := resolveDuckDuckGoLink(href)
		if target == "" {
			return true
		}
		results = append(results, Result{
			Title:   fetch.CleanText(link.Text()),
			URL:     target,
			Snippet: fetch.CleanText(s.Find(".result__snippet").Text()),
		})
		return len(results) < maxResults
	})
	return results
}

// resolveDuckDuckGoLink unwraps the /l/?uddg= redirect used on result links
func resolveDuckDuckGoLink(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		return target
	}
	if parsed.Scheme == "http" || parsed.Scheme == "https" {
		return href
	}
	return ""
}

// windowCode maps a recency window to the d/w/m/y codes the providers share
func windowCode(recency time.Duration) string {
	switch n := days(recency); {
	case n <= 1:
		return "d"
	case n <= 7:
		return "w"
	case n <= 31:
		return "m"
	default:
		return "y"
	}
}
