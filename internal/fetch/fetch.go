// Package fetch provides the shared HTTP client used by the web search providers.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 15 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; InterviewIntel/1.0)"

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 4 << 20

// Result holds the raw content from a URL fetch.
type Result struct {
	URL         string
	Body        []byte
	ContentType string
	StatusCode  int
}

// Error represents an error during URL fetching.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the fetch behavior.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// URL retrieves a URL with GET.
func URL(ctx context.Context, urlStr string, opts *Options) (*Result, error) {
	return do(ctx, http.MethodGet, urlStr, nil, opts)
}

// PostJSON sends payload as a JSON body and returns the raw response.
func PostJSON(ctx context.Context, urlStr string, payload any, opts *Options) (*Result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to encode request body", Cause: err}
	}

	if opts == nil {
		opts = DefaultOptions()
	}
	withType := *opts
	withType.Headers = make(map[string]string, len(opts.Headers)+1)
	for k, v := range opts.Headers {
		withType.Headers[k] = v
	}
	withType.Headers["Content-Type"] = "application/json"

	return do(ctx, http.MethodPost, urlStr, body, &withType)
}

// JSON decodes a successful response body into out.
func JSON(result *Result, out any) error {
	if err := json.Unmarshal(result.Body, out); err != nil {
		return &Error{URL: result.URL, Message: "failed to decode JSON response", Cause: err}
	}
	return nil
}

// Document parses a fetched HTML body.
func Document(result *Result) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(result.Body))
	if err != nil {
		return nil, &Error{URL: result.URL, Message: "failed to parse HTML", Cause: err}
	}
	return doc, nil
}

// CleanText collapses runs of whitespace to single spaces.
func CleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func do(ctx context.Context, method, urlStr string, body []byte, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	// Validate URL
	parsedURL, err := url.Parse(urlStr)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, &Error{
			URL:     urlStr,
			Message: "invalid URL",
			Cause:   err,
		}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := &http.Client{Timeout: timeout}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, urlStr, reader)
	if err != nil {
		return nil, &Error{
			URL:     urlStr,
			Message: "failed to create request",
			Cause:   err,
		}
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &Error{
			URL:     urlStr,
			Message: "HTTP request failed",
			Cause:   err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &Error{
			URL:     urlStr,
			Message: "failed to read response body",
			Cause:   err,
		}
	}

	result := &Result{
		URL:         urlStr,
		Body:        bodyBytes,
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}

	// Check for non-success status
	if resp.StatusCode != http.StatusOK {
		return result, &Error{
			URL:     urlStr,
			Message: fmt.Sprintf("HTTP status %d", resp.StatusCode),
		}
	}

	return result, nil
}
