// Package discoverytest provides scripted generation and search fakes for pipeline tests.
package discoverytest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonathan/interview-intel/internal/llm"
	"github.com/jonathan/interview-intel/internal/search"
)

// Task names match the first prompt line of each stage prompt
const (
	TaskRoute     = "ROUTE"
	TaskAudit     = "AUDIT"
	TaskArchitect = "ARCHITECT"
	TaskCritic    = "CRITIC"
)

// LLM is a scripted llm.Client. Responses are served in order per task and
// the last response repeats once the script runs out.
type LLM struct {
	mu        sync.Mutex
	responses map[string][]string
	errs      map[string]error
	calls     map[string]int
	prompts   map[string][]string
	delay     time.Duration
}

// NewLLM creates an LLM with no scripted responses
func NewLLM() *LLM {
	return &LLM{
		responses: map[string][]string{},
		errs:      map[string]error{},
		calls:     map[string]int{},
		prompts:   map[string][]string{},
	}
}

// On scripts the responses for a task
func (f *LLM) On(task string, responses ...string) *LLM {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[task] = append(f.responses[task], responses...)
	return f
}

// Fail makes every call for a task return err
func (f *LLM) Fail(task string, err error) *LLM {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[task] = err
	return f
}

// Delay makes every call block for d or until the context ends
func (f *LLM) Delay(d time.Duration) *LLM {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
	return f
}

// Calls returns how often a task was requested
func (f *LLM) Calls(task string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[task]
}

// TotalCalls returns the number of generation requests across all tasks
func (f *LLM) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

// Prompts returns the prompts sent for a task
func (f *LLM) Prompts(task string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts[task]...)
}

// GenerateContent implements llm.Client
func (f *LLM) GenerateContent(ctx context.Context, prompt string, _ llm.ModelTier) (string, error) {
	return f.respond(ctx, prompt)
}

// GenerateJSON implements llm.Client
func (f *LLM) GenerateJSON(ctx context.Context, prompt string, _ llm.ModelTier) (string, error) {
	out, err := f.respond(ctx, prompt)
	if err != nil {
		return "", err
	}
	return llm.CleanJSONBlock(out), nil
}

// GetModel implements llm.Client
func (f *LLM) GetModel(tier llm.ModelTier) string {
	return "fake-" + string(tier)
}

// Close implements llm.Client
func (f *LLM) Close() error {
	return nil
}

func (f *LLM) respond(ctx context.Context, prompt string) (string, error) {
	task := TaskOf(prompt)

	f.mu.Lock()
	f.calls[task]++
	n := f.calls[task]
	f.prompts[task] = append(f.prompts[task], prompt)
	err := f.errs[task]
	responses := f.responses[task]
	delay := f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	if len(responses) == 0 {
		return "", fmt.Errorf("no scripted response for task %q", task)
	}
	return responses[min(n, len(responses))-1], nil
}

// TaskOf extracts the task name from a stage prompt
func TaskOf(prompt string) string {
	first, _, _ := strings.Cut(prompt, "\n")
	return strings.TrimSpace(strings.TrimPrefix(first, "TASK:"))
}

// Search is a scripted search.Provider. Queries without a recency window get the
// General results, queries with one get the Recent results.
type Search struct {
	mu      sync.Mutex
	General []search.Result
	Recent  []search.Result
	Err     error
	queries []string
}

// Search implements search.Provider
func (f *Search) Search(ctx context.Context, query string, maxResults int, recency time.Duration) ([]search.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.Err != nil {
		return nil, f.Err
	}
	results := f.General
	if recency > 0 {
		results = f.Recent
	}
	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}
	return append([]search.Result(nil), results...), nil
}

// Name implements search.Provider
func (f *Search) Name() string {
	return "fake"
}

// Queries returns every query issued so far
func (f *Search) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}
