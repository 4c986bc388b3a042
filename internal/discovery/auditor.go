package discovery

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/interview-intel/internal/llm"
	"github.com/jonathan/interview-intel/internal/matching"
	"github.com/jonathan/interview-intel/internal/observability"
	"github.com/jonathan/interview-intel/internal/prompts"
	"github.com/jonathan/interview-intel/internal/schemas"
	"github.com/jonathan/interview-intel/internal/types"
)

const (
	maxConfidenceDelta = 30
	trustedBoost       = 5
	maxTrustedBoost    = 15
)

// genericNameTokens carry no identity on their own. "Zynthex Labs" is identified by "zynthex".
var genericNameTokens = map[string]bool{
	"the": true, "and": true, "of": true, "a": true,
	"labs": true, "lab": true, "solutions": true, "group": true, "systems": true,
	"technologies": true, "technology": true, "tech": true, "services": true,
	"global": true, "international": true, "holdings": true, "partners": true,
	"consulting": true, "software": true, "digital": true, "industries": true,
	"regional": true, "national": true, "center": true, "centre": true,
	"clinic": true, "hospital": true, "health": true, "care": true, "bank": true,
	"agency": true, "studio": true, "studios": true, "media": true,
}

type auditRejection struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

type auditResponse struct {
	IdentityMatch    bool             `json:"identity_match"`
	RelevantIndices  []int            `json:"relevant_indices"`
	Rejected         []auditRejection `json:"rejected"`
	InferredIndustry string           `json:"inferred_industry"`
	ConfidenceBoost  int              `json:"confidence_boost"`
}

// Auditor filters evidence for topic and identity and adjusts confidence
type Auditor struct {
	client              llm.Client
	syntheticConfidence int
	logger              *zap.Logger
	metrics             *observability.Metrics
}

// NewAuditor creates an Auditor
func NewAuditor(client llm.Client, opts Options, logger *zap.Logger, metrics *observability.Metrics) *Auditor {
	opts = opts.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Auditor{
		client:              client,
		syntheticConfidence: opts.SyntheticConfidence,
		logger:              logger,
		metrics:             metrics,
	}
}

// Run produces the audited evidence subset, trail entries and the adjusted confidence
func (a *Auditor) Run(ctx context.Context, s PipelineState) PipelineState {
	b := s.Builder()
	out := AuditOutcome{Industry: s.Industry}

	if s.Synthetic || len(s.RawEvidence) == 0 {
		out.Synthetic = true
		out.Confidence = a.syntheticScore(s.Confidence)
		out.DomainMismatch = a.domainGuard(s, s.Industry, b)
		return b.WithAudit(out).Log("AUDITOR: no evidence to audit").Build()
	}

	survivors := a.screen(s, b)
	if len(survivors) == 0 {
		out.Synthetic = true
		out.Confidence = a.syntheticScore(s.Confidence)
		out.DomainMismatch = a.domainGuard(s, s.Industry, b)
		return b.WithAudit(out).
			Logf("AUDITOR: no evidence mentions '%s', proceeding as synthetic", s.CompanyName).
			Build()
	}

	delta := 0
	resp, err := a.review(ctx, s, survivors)
	switch {
	case err != nil:
		a.logger.Warn("audit review failed, keeping screened evidence",
			zap.String("company", s.CompanyName), zap.Error(err))
		b.Incident(err).Logf("AUDITOR: review unavailable, keeping %d screened sources", len(survivors))
	case !resp.IdentityMatch:
		mismatch := &IdentityMismatchError{Company: s.CompanyName, Reason: mismatchReason(resp)}
		a.logger.Warn("identity mismatch", zap.String("company", s.CompanyName), zap.Error(mismatch))
		a.metrics.ObserveEvidence("all", "identity_mismatch", len(survivors))
		out.Synthetic = true
		out.Confidence = a.syntheticScore(s.Confidence)
		out.DomainMismatch = a.domainGuard(s, s.Industry, b)
		return b.WithAudit(out).
			Incident(mismatch).
			Logf("AUDITOR: IDENTITY MISMATCH, results likely describe a different '%s': %s", s.CompanyName, mismatch.Reason).
			Build()
	default:
		survivors = a.applyReview(survivors, resp, b)
		delta = max(-maxConfidenceDelta, min(maxConfidenceDelta, resp.ConfidenceBoost))
		if inferred := strings.TrimSpace(resp.InferredIndustry); inferred != "" && ClassifyIndustry(out.Industry) == IndustryUnknown {
			out.Industry = inferred
			b.Logf("AUDITOR: inferred industry '%s'", inferred)
		}
	}

	if len(survivors) == 0 {
		out.Synthetic = true
		out.Confidence = a.syntheticScore(s.Confidence)
		out.DomainMismatch = a.domainGuard(s, out.Industry, b)
		return b.WithAudit(out).Log("AUDITOR: every source rejected, proceeding as synthetic").Build()
	}

	survivors, boost := rankTrusted(survivors)
	if boost > 0 {
		b.Logf("AUDITOR: +%d confidence from career-information sources", boost)
	}

	out.Evidence = survivors
	out.Confidence = types.ClampConfidence(s.Confidence+delta+boost, false)
	out.DomainMismatch = a.domainGuard(s, out.Industry, b)
	for _, e := range survivors {
		a.metrics.ObserveEvidence(string(e.Provenance), "kept", 1)
	}
	return b.WithAudit(out).
		Logf("AUDITOR: kept %d of %d sources, confidence %d", len(survivors), len(s.RawEvidence), out.Confidence).
		Build()
}

// screen applies the deterministic noise and identity filters
func (a *Auditor) screen(s PipelineState, b *Builder) []Evidence {
	tokens := distinctiveTokens(s.CompanyName)
	var kept []Evidence
	for i, e := range s.RawEvidence {
		if IsNoise(e) {
			a.metrics.ObserveEvidence(string(e.Provenance), "noise", 1)
			b.Logf("REJECTED [%d] '%s': off-topic content", i, e.Title)
			continue
		}
		if !mentionsAny(e, tokens) {
			a.metrics.ObserveEvidence(string(e.Provenance), "identity", 1)
			b.Logf("REJECTED [%d] '%s': no mention of '%s'", i, e.Title, s.CompanyName)
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

func (a *Auditor) review(ctx context.Context, s PipelineState, evidence []Evidence) (*auditResponse, error) {
	if a.client == nil {
		return nil, fmt.Errorf("no generation client configured")
	}

	jd := s.JobDescription
	if jd == "" {
		jd = noJobDescription
	}
	prompt := prompts.Format(prompts.MustGet(promptFile, auditPrompt), map[string]string{
		"Company":        s.CompanyName,
		"JobDescription": jd,
		"Industry":       orUnknown(s.Industry),
		"Location":       orUnknown(s.Location),
		"Evidence":       EvidenceText(evidence),
	})

	raw, err := a.client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, fmt.Errorf("audit generation failed: %w", err)
	}
	return llm.DecodeStructured[auditResponse](raw, schemas.Audit)
}

// applyReview keeps the indices the review marked relevant, in their original order
func (a *Auditor) applyReview(evidence []Evidence, resp *auditResponse, b *Builder) []Evidence {
	reasons := map[int]string{}
	for _, r := range resp.Rejected {
		reasons[r.Index] = r.Reason
	}
	relevant := map[int]bool{}
	for _, idx := range resp.RelevantIndices {
		if idx >= 0 && idx < len(evidence) {
			relevant[idx] = true
		}
	}

	var kept []Evidence
	for i, e := range evidence {
		if relevant[i] && reasons[i] == "" {
			b.Logf("KEPT [%d] '%s'", i, e.Title)
			kept = append(kept, e)
			continue
		}
		reason := reasons[i]
		if reason == "" {
			reason = "not relevant to the interview process"
		}
		a.metrics.ObserveEvidence(string(e.Provenance), "rejected", 1)
		b.Logf("REJECTED [%d] '%s': %s", i, e.Title, reason)
	}
	return kept
}

// domainGuard flags a technical role at a non-technical company, or the reverse
func (a *Auditor) domainGuard(s PipelineState, industry string, b *Builder) bool {
	if !s.HasJobDescription() {
		return false
	}
	techRole := isTechRole(s.JobDescription)
	switch {
	case techRole && isNonTechCompany(s.CompanyName, industry):
		b.Log("DOMAIN GUARD: flagged technical role at non-technical company, generic technical content not assumed")
		return true
	case !techRole && IsTechIndustry(industry) && IsKnownNonTech(s.JobDescription):
		b.Log("DOMAIN GUARD: flagged non-technical role at technology company, technical rounds not assumed")
		return true
	}
	return false
}

func (a *Auditor) syntheticScore(current int) int {
	if current <= 0 || current > a.syntheticConfidence {
		current = a.syntheticConfidence
	}
	return types.ClampConfidence(current, true)
}

// rankTrusted moves career-site evidence first and returns the confidence boost
func rankTrusted(evidence []Evidence) ([]Evidence, int) {
	out := append([]Evidence(nil), evidence...)
	boost := 0
	for i := range out {
		if IsTrustedDomain(out[i].URL) {
			out[i].Trusted = true
			boost += trustedBoost
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Trusted && !out[j].Trusted
	})
	return out, min(boost, maxTrustedBoost)
}

// distinctiveTokens returns the identifying tokens of a company name.
// When every token is generic all of them are used.
func distinctiveTokens(name string) []string {
	all := strings.Fields(matching.Normalize(name))
	var out []string
	for _, tok := range all {
		if !genericNameTokens[tok] {
			out = append(out, tok)
		}
	}
	if len(out) == 0 {
		return all
	}
	return out
}

// mentionsAny reports whether any token appears as a whole word in the evidence
func mentionsAny(e Evidence, tokens []string) bool {
	if len(tokens) == 0 {
		return true
	}
	text := " " + matching.Normalize(e.Title+" "+e.Snippet+" "+e.URL) + " "
	for _, tok := range tokens {
		if strings.Contains(text, " "+tok+" ") {
			return true
		}
	}
	return false
}

func mismatchReason(resp *auditResponse) string {
	for _, r := range resp.Rejected {
		if strings.TrimSpace(r.Reason) != "" {
			return r.Reason
		}
	}
	return "search results describe a different entity"
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}
