package discovery

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/jonathan/interview-intel/internal/llm"
	"github.com/jonathan/interview-intel/internal/prompts"
	"github.com/jonathan/interview-intel/internal/schemas"
	"github.com/jonathan/interview-intel/internal/types"
)

const (
	maxRounds        = 4
	maxCitations     = 5
	maxExcerptRunes  = 500
	maxFallbackRunes = 500
	recentPrefix     = "[RECENT] "
)

var digitRun = regexp.MustCompile(`\d+`)

// Architect synthesizes a profile from the audited evidence
type Architect struct {
	client llm.Client
	logger *zap.Logger
}

// NewArchitect creates an Architect
func NewArchitect(client llm.Client, logger *zap.Logger) *Architect {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Architect{client: client, logger: logger}
}

// Run drafts a profile. Synthetic states never reach the generation service.
func (a *Architect) Run(ctx context.Context, s PipelineState) PipelineState {
	b := s.Builder()

	if s.Synthetic {
		return b.WithDraft(SyntheticProfile(s)).
			Log("ARCHITECT: no usable evidence, generated industry-standard synthetic profile").
			Build()
	}

	rounds := RoundsForIndustry(s.Industry)
	raw, err := a.generate(ctx, s, rounds)
	var profile *types.CompanyProfile
	if err == nil {
		profile, err = llm.DecodeStructured[types.CompanyProfile](raw, schemas.CompanyProfile)
	}
	if err != nil {
		a.logger.Warn("architect fallback profile",
			zap.String("company", s.CompanyName),
			zap.Int("iteration", s.Iteration),
			zap.Error(err))
		profile = FallbackProfile(s, raw)
		a.finalize(profile, s, b)
		return b.Incident(err).
			WithFallbackDraft(profile).
			Logf("ARCHITECT: generation unusable, wrapped output into fallback profile: %v", err).
			Build()
	}

	a.finalize(profile, s, b)
	return b.WithDraft(profile).
		Logf("ARCHITECT: drafted profile with rounds [%s]", strings.Join(profile.RoundNames(), ", ")).
		Build()
}

func (a *Architect) generate(ctx context.Context, s PipelineState, rounds []string) (string, error) {
	if a.client == nil {
		return "", fmt.Errorf("no generation client configured")
	}

	jd := s.JobDescription
	if jd == "" {
		jd = noJobDescription
	}

	var feedback strings.Builder
	if s.DomainMismatch {
		feedback.WriteString("\nDOMAIN NOTE:\nThe role and the company's industry do not align. Do not default to generic technical rounds.\n")
	}
	if s.Iteration > 0 && s.RejectionReason != "" {
		feedback.WriteString("\nREVIEWER FEEDBACK ON THE PREVIOUS DRAFT (fix every point):\n")
		feedback.WriteString(s.RejectionReason)
		feedback.WriteString("\n")
	}

	prompt := prompts.Format(prompts.MustGet(promptFile, architectPrompt), map[string]string{
		"Company":        s.CompanyName,
		"Industry":       orUnknown(s.Industry),
		"JobDescription": jd,
		"Evidence":       EvidenceText(s.AuditedEvidence),
		"Rounds":         strings.Join(rounds, ", "),
		"Feedback":       feedback.String(),
	})

	raw, err := a.client.GenerateJSON(ctx, prompt, llm.TierAdvanced)
	if err != nil {
		return "", fmt.Errorf("profile generation failed: %w", err)
	}
	return raw, nil
}

// finalize enforces the grounding and round rules on a drafted profile
func (a *Architect) finalize(p *types.CompanyProfile, s PipelineState, b *Builder) {
	if strings.TrimSpace(p.Name) == "" {
		p.Name = s.CompanyName
	}
	if strings.TrimSpace(p.Industry) == "" {
		p.Industry = s.Industry
	}
	for _, field := range []*string{
		&p.Industry, &p.Size, &p.InterviewStyle, &p.DifficultyLevel,
		&p.ProcessDuration, &p.InterviewCount, &p.RoleCompanyAlignment,
	} {
		if strings.TrimSpace(*field) == "" {
			*field = types.NotAvailable
		}
	}

	corpus := evidenceCorpus(s.AuditedEvidence)
	if !numbersGrounded(p.ProcessDuration, corpus) {
		b.Logf("ARCHITECT: dropped unsupported process duration '%s'", p.ProcessDuration)
		p.ProcessDuration = types.NotAvailable
	}
	if !numbersGrounded(p.InterviewCount, corpus) {
		b.Logf("ARCHITECT: dropped unsupported interview count '%s'", p.InterviewCount)
		p.InterviewCount = types.NotAvailable
	}

	order := orderedRounds(p)
	if roleForcingRisk(s) {
		var kept []string
		for _, name := range order {
			if TechnicalRound(name) {
				b.Logf("ARCHITECT: removed technical round '%s' without supporting evidence", name)
				continue
			}
			kept = append(kept, name)
		}
		order = kept
	}
	if len(order) > maxRounds {
		order = order[:maxRounds]
	}
	if len(order) == 0 {
		p.SetRounds([]string{StandardAssessmentRound}, map[string]types.RoundIntel{
			StandardAssessmentRound: standardAssessment(),
		})
	} else {
		p.SetRounds(order, p.InterviewRounds)
	}

	p.Citations = citations(s.AuditedEvidence)
	p.IsSynthetic = s.Synthetic
	p.ConfidenceScore = s.Confidence
	p.ClampConfidence()
}

// SyntheticProfile builds the industry-neutral profile used when no evidence survived
func SyntheticProfile(s PipelineState) *types.CompanyProfile {
	industry := s.Industry
	if strings.TrimSpace(industry) == "" {
		industry = types.NotAvailable
	}
	p := &types.CompanyProfile{
		Name:                 s.CompanyName,
		Industry:             industry,
		Size:                 types.NotAvailable,
		InterviewStyle:       "Industry-standard process; no public information was found for this company",
		DifficultyLevel:      types.NotAvailable,
		ProcessDuration:      types.NotAvailable,
		InterviewCount:       types.NotAvailable,
		RoleCompanyAlignment: types.NotAvailable,
		ConfidenceScore:      s.Confidence,
		IsSynthetic:          true,
	}
	p.SetRounds([]string{StandardAssessmentRound}, map[string]types.RoundIntel{
		StandardAssessmentRound: standardAssessment(),
	})
	p.ClampConfidence()
	return p
}

// FallbackProfile wraps unusable generation output into a minimal profile
func FallbackProfile(s PipelineState, raw string) *types.CompanyProfile {
	p := SyntheticProfile(s)
	p.IsSynthetic = s.Synthetic
	p.ConfidenceScore = s.Confidence
	p.InterviewStyle = types.NotAvailable
	if text := strings.TrimSpace(raw); text != "" {
		p.RoleCompanyAlignment = truncateRunes(text, maxFallbackRunes)
	}
	p.ClampConfidence()
	return p
}

func standardAssessment() types.RoundIntel {
	return types.RoundIntel{
		Focus:        "General competency and role fit",
		CommonTopics: []string{"Relevant experience", "Problem solving", "Motivation for the role"},
		Style:        "Structured conversation",
		Tips:         "Prepare concrete examples from past work using the STAR method",
	}
}

// orderedRounds lists rounds in the draft's stated order, then any others alphabetically
func orderedRounds(p *types.CompanyProfile) []string {
	var order []string
	seen := map[string]bool{}
	for _, name := range p.RoundOrder {
		if _, ok := p.InterviewRounds[name]; ok && !seen[name] {
			seen[name] = true
			order = append(order, name)
		}
	}
	var rest []string
	for name := range p.InterviewRounds {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}

// numbersGrounded reports whether every number in value also appears in the evidence
func numbersGrounded(value, corpus string) bool {
	if value == types.NotAvailable {
		return true
	}
	for _, n := range digitRun.FindAllString(value, -1) {
		if !regexp.MustCompile(`(^|\D)` + n + `(\D|$)`).MatchString(corpus) {
			return false
		}
	}
	return true
}

func citations(evidence []Evidence) []types.Citation {
	if len(evidence) == 0 {
		return nil
	}
	n := min(len(evidence), maxCitations)
	out := make([]types.Citation, 0, n)
	for _, e := range evidence[:n] {
		title := e.Title
		if e.Provenance == ProvenanceRecent {
			title = recentPrefix + title
		}
		out = append(out, types.Citation{
			Title:   title,
			URL:     e.URL,
			Excerpt: truncateRunes(e.Snippet, maxExcerptRunes),
		})
	}
	return out
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
