package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/interview-intel/internal/llm"
	"github.com/jonathan/interview-intel/internal/observability"
	"github.com/jonathan/interview-intel/internal/prompts"
	"github.com/jonathan/interview-intel/internal/schemas"
	"github.com/jonathan/interview-intel/internal/types"
)

// Rejection reason prefixes
const (
	RoleForcingPrefix      = "ROLE FORCING DETECTED"
	UnsupportedClaimPrefix = "UNSUPPORTED CLAIM"
)

// UnparsedDraftReason rejects a fallback draft so the architect regenerates
const UnparsedDraftReason = "draft was not valid profile JSON, regenerate it as a single JSON object matching the profile schema"

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

type verdictResponse struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason"`
}

// Critic cross-checks a drafted profile against the evidence
type Critic struct {
	client  llm.Client
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewCritic creates a Critic
func NewCritic(client llm.Client, logger *zap.Logger, metrics *observability.Metrics) *Critic {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Critic{client: client, logger: logger, metrics: metrics}
}

// Run sets the validity flag and rejection reason for the current draft
func (c *Critic) Run(ctx context.Context, s PipelineState) PipelineState {
	b := s.Builder()
	p := s.Profile
	if p == nil {
		return c.reject(b, "no profile was generated")
	}

	if p.IsSynthetic {
		return b.WithVerdict(true, "").Log("CRITIC: synthetic profile approved without review").Build()
	}

	if s.Fallback {
		return c.reject(b, UnparsedDraftReason)
	}

	if reasons := deterministicFindings(s); len(reasons) > 0 {
		return c.reject(b, strings.Join(reasons, "; "))
	}

	v, err := c.review(ctx, s)
	if err != nil {
		c.logger.Warn("critic review unavailable, deterministic checks stand",
			zap.String("company", s.CompanyName), zap.Error(err))
		return b.Incident(err).
			WithVerdict(true, "").
			Log("CRITIC: review unavailable, approved on deterministic checks").
			Build()
	}
	if !v.Approved {
		reason := strings.TrimSpace(v.Reason)
		if reason == "" {
			reason = "profile not supported by evidence"
		}
		return c.reject(b, reason)
	}
	return b.WithVerdict(true, "").Log("CRITIC: approved").Build()
}

func (c *Critic) reject(b *Builder, reason string) PipelineState {
	c.metrics.ObserveRejection()
	return b.WithVerdict(false, reason).Logf("CRITIC REJECTION: %s", reason).Build()
}

func (c *Critic) review(ctx context.Context, s PipelineState) (*verdictResponse, error) {
	if c.client == nil {
		return nil, fmt.Errorf("no generation client configured")
	}

	body, err := json.MarshalIndent(s.Profile, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal profile: %w", err)
	}
	jd := s.JobDescription
	if jd == "" {
		jd = noJobDescription
	}
	prompt := prompts.Format(prompts.MustGet(promptFile, criticPrompt), map[string]string{
		"Industry":       orUnknown(s.Industry),
		"JobDescription": jd,
		"Profile":        string(body),
		"Evidence":       EvidenceText(s.RawEvidence),
	})

	raw, err := c.client.GenerateContent(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, fmt.Errorf("critique generation failed: %w", err)
	}

	if v, err := llm.DecodeStructured[verdictResponse](raw, schemas.Verdict); err == nil {
		return v, nil
	}
	return freeTextVerdict(raw), nil
}

// approvedPattern matches a reply whose first word is APPROVED
var approvedPattern = regexp.MustCompile(`^APPROVED\b`)

// freeTextVerdict reads a prose reply. Anything not opening with APPROVED is a rejection.
func freeTextVerdict(raw string) *verdictResponse {
	text := strings.TrimSpace(raw)
	lead := strings.TrimLeft(strings.ToUpper(text), " \t\r\n*#>\"'`")
	if approvedPattern.MatchString(lead) {
		return &verdictResponse{Approved: true}
	}
	return &verdictResponse{Approved: false, Reason: text}
}

// deterministicFindings runs the role-forcing and unsupported-claim checks
func deterministicFindings(s PipelineState) []string {
	p := s.Profile
	var reasons []string

	if !s.HasJobDescription() && isNonTechCompany(s.CompanyName, s.Industry) {
		var technical []string
		for _, name := range p.RoundNames() {
			if TechnicalRound(name) {
				technical = append(technical, name)
			}
		}
		if len(technical) > 0 && !mentionsTechnicalRounds(evidenceCorpus(s.AuditedEvidence)) {
			reasons = append(reasons, fmt.Sprintf("%s: technical rounds [%s] for a non-technical organization",
				RoleForcingPrefix, strings.Join(technical, ", ")))
		}
	}

	corpus := evidenceCorpus(s.RawEvidence)
	for _, year := range unsupportedYears(p, corpus) {
		reasons = append(reasons, fmt.Sprintf("%s: year %s does not appear in the evidence", UnsupportedClaimPrefix, year))
	}
	if !numbersGrounded(p.ProcessDuration, corpus) {
		reasons = append(reasons, fmt.Sprintf("%s: process duration '%s' does not appear in the evidence",
			UnsupportedClaimPrefix, p.ProcessDuration))
	}
	return reasons
}

// unsupportedYears lists years in the profile text that the evidence never mentions
func unsupportedYears(p *types.CompanyProfile, corpus string) []string {
	seen := map[string]bool{}
	var out []string
	for _, text := range profileText(p) {
		for _, year := range yearPattern.FindAllString(text, -1) {
			if seen[year] {
				continue
			}
			seen[year] = true
			if !strings.Contains(corpus, year) {
				out = append(out, year)
			}
		}
	}
	sort.Strings(out)
	return out
}

// profileText collects the free-text fields a generation could put claims in
func profileText(p *types.CompanyProfile) []string {
	texts := []string{
		p.Size, p.InterviewStyle, p.DifficultyLevel, p.ProcessDuration,
		p.InterviewCount, p.RoleCompanyAlignment,
	}
	texts = append(texts, p.CulturalValues...)
	texts = append(texts, p.RedFlags...)
	texts = append(texts, p.BehavioralQuestions...)
	for _, name := range p.RoundNames() {
		r := p.InterviewRounds[name]
		texts = append(texts, name, r.Focus, r.Style, r.Tips)
		texts = append(texts, r.CommonTopics...)
		texts = append(texts, r.CommonQuestions...)
	}
	return texts
}
