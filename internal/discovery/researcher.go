package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/interview-intel/internal/search"
)

const (
	// sourceConfidence is the base confidence each usable source contributes
	sourceConfidence = 15
	// maxResearchConfidence caps confidence from research volume alone
	maxResearchConfidence = 85
)

// Researcher runs the identity and trends queries and purges content-farm results
type Researcher struct {
	provider            search.Provider
	maxResults          int
	recency             time.Duration
	syntheticConfidence int
	now                 func() time.Time
	logger              *zap.Logger
}

// NewResearcher creates a Researcher
func NewResearcher(provider search.Provider, opts Options, logger *zap.Logger) *Researcher {
	opts = opts.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Researcher{
		provider:            provider,
		maxResults:          opts.MaxResults,
		recency:             opts.Recency,
		syntheticConfidence: opts.SyntheticConfidence,
		now:                 opts.Now,
		logger:              logger,
	}
}

// Run fills the raw evidence. A failed query counts as zero results.
func (r *Researcher) Run(ctx context.Context, s PipelineState) PipelineState {
	b := s.Builder()

	identityQuery := s.Query
	if identityQuery == "" {
		identityQuery = fmt.Sprintf("%s interview process", s.CompanyName)
	}
	trendsQuery := fmt.Sprintf("%s interview experience %d", s.CompanyName, r.now().Year())

	var gathered []Evidence
	for _, q := range []struct {
		query      string
		recency    time.Duration
		provenance Provenance
	}{
		{identityQuery, 0, ProvenanceGeneral},
		{trendsQuery, r.recency, ProvenanceRecent},
	} {
		items, err := r.search(ctx, q.query, q.recency, q.provenance)
		if err != nil {
			r.logger.Warn("search unavailable",
				zap.String("company", s.CompanyName),
				zap.String("query", q.query),
				zap.Error(err))
			b.Incident(err).Logf("RESEARCHER: search unavailable for '%s', treated as zero results", q.query)
			continue
		}
		gathered = append(gathered, items...)
	}

	var evidence []Evidence
	seen := map[string]bool{}
	purged := 0
	for _, e := range gathered {
		key := evidenceKey(e)
		if seen[key] {
			continue
		}
		seen[key] = true
		if IsContentFarm(e.URL) {
			purged++
			b.Logf("PURGE: dropped '%s' (%s) as generic interview content", e.Title, extractDomainFromURL(e.URL))
			continue
		}
		evidence = append(evidence, e)
	}

	if len(evidence) == 0 {
		r.logger.Info("no public information found, switching to synthetic profile",
			zap.String("company", s.CompanyName),
			zap.Int("purged", purged))
		return b.WithResearch(nil, true, r.syntheticConfidence).
			Log("RESEARCHER: no public information found, switching to synthetic profile").
			Build()
	}

	general, recent := 0, 0
	for _, e := range evidence {
		if e.Provenance == ProvenanceRecent {
			recent++
		} else {
			general++
		}
	}
	confidence := min(maxResearchConfidence, len(evidence)*sourceConfidence)
	return b.WithResearch(evidence, false, confidence).
		Logf("RESEARCHER: gathered %d sources (%d general, %d recent, %d purged)", len(evidence), general, recent, purged).
		Build()
}

func (r *Researcher) search(ctx context.Context, query string, recency time.Duration, provenance Provenance) ([]Evidence, error) {
	if r.provider == nil {
		return nil, &SearchUnavailableError{Query: query, Cause: fmt.Errorf("no search provider configured")}
	}

	results, err := r.provider.Search(ctx, query, r.maxResults, recency)
	if err != nil {
		return nil, &SearchUnavailableError{Query: query, Cause: err}
	}

	out := make([]Evidence, 0, len(results))
	for _, res := range results {
		if strings.TrimSpace(res.Title) == "" && strings.TrimSpace(res.Snippet) == "" {
			continue
		}
		out = append(out, Evidence{
			Title:      strings.TrimSpace(res.Title),
			URL:        strings.TrimSpace(res.URL),
			Snippet:    strings.TrimSpace(res.Snippet),
			Provenance: provenance,
		})
	}
	return out, nil
}

// evidenceKey identifies duplicate results across the two queries
func evidenceKey(e Evidence) string {
	if e.URL != "" {
		return strings.TrimSuffix(strings.ToLower(e.URL), "/")
	}
	return "title:" + strings.ToLower(e.Title)
}
