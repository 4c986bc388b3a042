package discovery

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/interview-intel/internal/llm"
	"github.com/jonathan/interview-intel/internal/prompts"
	"github.com/jonathan/interview-intel/internal/schemas"
)

// promptFile holds the stage prompt templates
const promptFile = "discovery.json"

// Template keys in promptFile, one per generating stage
const (
	routePrompt     = "route-company"
	auditPrompt     = "audit-evidence"
	architectPrompt = "synthesize-profile"
	criticPrompt    = "critique-profile"
)

// CheckPrompts fails when any stage template is missing from the embedded prompt file
func CheckPrompts() error {
	return prompts.Require(promptFile, routePrompt, auditPrompt, architectPrompt, criticPrompt)
}

// noJobDescription stands in for an absent job description in prompts
const noJobDescription = "none provided"

// roleTerms bias a search toward technical roles and are stripped when no job description exists
var roleTerms = map[string]bool{
	"software":    true,
	"engineer":    true,
	"engineering": true,
	"developer":   true,
	"coding":      true,
	"leetcode":    true,
	"programming": true,
	"programmer":  true,
	"swe":         true,
}

var systemDesignPattern = regexp.MustCompile(`(?i)\bsystem\s+design\b`)

type routeResponse struct {
	IsAcronym    bool   `json:"is_acronym"`
	ExpandedName string `json:"expanded_name"`
	RefinedQuery string `json:"refined_query"`
	Industry     string `json:"industry"`
	Location     string `json:"location"`
	Reasoning    string `json:"reasoning"`
}

// Router disambiguates the company name and builds the time-scoped search query
type Router struct {
	client llm.Client
	now    func() time.Time
	logger *zap.Logger
}

// NewRouter creates a Router
func NewRouter(client llm.Client, now func() time.Time, logger *zap.Logger) *Router {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{client: client, now: now, logger: logger}
}

// Run adds the refined query and the industry and location guesses to the state
func (r *Router) Run(ctx context.Context, s PipelineState) PipelineState {
	current := r.now().Year()
	prior := current - 1
	b := s.Builder()

	resp, err := r.route(ctx, s, prior, current)
	if err != nil {
		r.logger.Warn("router fallback", zap.String("company", s.CompanyName), zap.Error(err))
		route := Route{
			Query:    fallbackQuery(s.CompanyName, prior, current),
			Industry: string(ClassifyIndustry(s.JobDescription + " " + s.CompanyName)),
		}
		return b.WithRoute(route).
			Incident(err).
			Logf("ROUTER: fallback query generated due to generation error: %v", err).
			Build()
	}

	route := Route{
		Query:        sanitizeQuery(resp.RefinedQuery, s, prior, current),
		Industry:     strings.TrimSpace(resp.Industry),
		Location:     strings.TrimSpace(resp.Location),
		IsAcronym:    resp.IsAcronym,
		ExpandedName: strings.TrimSpace(resp.ExpandedName),
		Reasoning:    strings.TrimSpace(resp.Reasoning),
	}
	if route.Industry == "" {
		route.Industry = string(ClassifyIndustry(s.JobDescription + " " + s.CompanyName))
	}

	b.WithRoute(route).Logf("ROUTER: identified industry as '%s'. Reasoning: %s", route.Industry, route.Reasoning)
	if route.IsAcronym && route.ExpandedName != "" {
		b.Logf("ROUTER: '%s' treated as short form of '%s'", s.CompanyName, route.ExpandedName)
	}
	if route.Location != "" {
		b.Logf("ROUTER: location guess '%s'", route.Location)
	}
	return b.Logf("ROUTER: query '%s'", route.Query).Build()
}

func (r *Router) route(ctx context.Context, s PipelineState, prior, current int) (*routeResponse, error) {
	if r.client == nil {
		return nil, fmt.Errorf("no generation client configured")
	}

	jd := s.JobDescription
	if jd == "" {
		jd = noJobDescription
	}
	prompt := prompts.Format(prompts.MustGet(promptFile, routePrompt), map[string]string{
		"Company":        s.CompanyName,
		"JobDescription": jd,
		"PriorYear":      strconv.Itoa(prior),
		"CurrentYear":    strconv.Itoa(current),
	})

	raw, err := r.client.GenerateJSON(ctx, prompt, llm.TierLite)
	if err != nil {
		return nil, fmt.Errorf("route generation failed: %w", err)
	}
	return llm.DecodeStructured[routeResponse](raw, schemas.Route)
}

func fallbackQuery(company string, prior, current int) string {
	return fmt.Sprintf("%s interview process %d %d", company, prior, current)
}

// sanitizeQuery enforces the query rules the generation is asked to follow:
// role terms are removed without a job description, the company name is present,
// and both recency years appear.
func sanitizeQuery(query string, s PipelineState, prior, current int) string {
	query = strings.Join(strings.Fields(query), " ")
	if query == "" {
		return fallbackQuery(s.CompanyName, prior, current)
	}

	if !s.HasJobDescription() {
		query = stripRoleTerms(query, s.CompanyName)
		query = systemDesignPattern.ReplaceAllString(query, "")
		query = strings.Join(strings.Fields(query), " ")
	}

	if !strings.Contains(strings.ToLower(query), strings.ToLower(s.CompanyName)) {
		query = s.CompanyName + " " + query
	}

	for _, year := range []int{prior, current} {
		y := strconv.Itoa(year)
		if !strings.Contains(query, y) {
			query += " " + y
		}
	}
	return query
}

// stripRoleTerms drops technical role words unless they are part of the company name
func stripRoleTerms(query, company string) string {
	keep := map[string]bool{}
	for _, tok := range strings.Fields(strings.ToLower(company)) {
		keep[tok] = true
	}

	var out []string
	for _, tok := range strings.Fields(query) {
		word := strings.ToLower(strings.Trim(tok, `"'.,;:()`))
		if roleTerms[word] && !keep[word] {
			continue
		}
		out = append(out, tok)
	}
	return strings.Join(out, " ")
}
