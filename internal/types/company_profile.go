// Package types provides type definitions for structured data used throughout the interview intelligence system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// NotAvailable is the placeholder for fields the evidence does not support.
const NotAvailable = "not available"

// Confidence bounds for generated profiles.
const (
	MinConfidence          = 0
	MaxConfidence          = 100
	MaxSyntheticConfidence = 20
)

// RoundIntel describes what a single interview round assesses
type RoundIntel struct {
	Focus           string   `json:"focus"`
	CommonTopics    []string `json:"common_topics,omitempty"`
	Style           string   `json:"style,omitempty"`
	Tips            string   `json:"tips,omitempty"`
	CommonQuestions []string `json:"common_questions,omitempty"`
}

// Citation is a piece of evidence a generated profile was built from
type Citation struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Excerpt string `json:"excerpt,omitempty"`
}

// CompanyProfile is the interview intelligence record for one company
type CompanyProfile struct {
	Name                 string                `json:"name"`
	Industry             string                `json:"industry"`
	Size                 string                `json:"size"`
	InterviewStyle       string                `json:"interview_style"`
	DifficultyLevel      string                `json:"difficulty_level"`
	CulturalValues       []string              `json:"cultural_values"`
	InterviewRounds      map[string]RoundIntel `json:"interview_rounds"`
	RoundOrder           []string              `json:"round_order,omitempty"`
	RedFlags             []string              `json:"red_flags"`
	BehavioralQuestions  []string              `json:"behavioral_questions,omitempty"`
	ProcessDuration      string                `json:"average_process_duration"`
	InterviewCount       string                `json:"interview_count"`
	RoleCompanyAlignment string                `json:"role_company_alignment,omitempty"`
	ConfidenceScore      int                   `json:"confidence_score"`
	IsSynthetic          bool                  `json:"is_synthetic"`
	Citations            []Citation            `json:"citations,omitempty"`
}

// RoundNames returns round names in presentation order.
// RoundOrder wins when it names exactly the rounds present; otherwise names are sorted.
func (p *CompanyProfile) RoundNames() []string {
	if len(p.RoundOrder) == len(p.InterviewRounds) {
		ordered := true
		for _, name := range p.RoundOrder {
			if _, ok := p.InterviewRounds[name]; !ok {
				ordered = false
				break
			}
		}
		if ordered {
			return append([]string(nil), p.RoundOrder...)
		}
	}

	names := make([]string, 0, len(p.InterviewRounds))
	for name := range p.InterviewRounds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetRounds replaces the round mapping while keeping the given order
func (p *CompanyProfile) SetRounds(order []string, rounds map[string]RoundIntel) {
	p.InterviewRounds = make(map[string]RoundIntel, len(order))
	p.RoundOrder = make([]string, 0, len(order))
	for _, name := range order {
		round, ok := rounds[name]
		if !ok {
			continue
		}
		if _, dup := p.InterviewRounds[name]; dup {
			continue
		}
		p.InterviewRounds[name] = round
		p.RoundOrder = append(p.RoundOrder, name)
	}
}

// ClampConfidence keeps the score inside [0, 100], and at or below 20 for synthetic profiles
func (p *CompanyProfile) ClampConfidence() {
	p.ConfidenceScore = ClampConfidence(p.ConfidenceScore, p.IsSynthetic)
}

// ClampConfidence bounds a raw confidence score
func ClampConfidence(score int, synthetic bool) int {
	upper := MaxConfidence
	if synthetic {
		upper = MaxSyntheticConfidence
	}
	return max(MinConfidence, min(upper, score))
}

// Clone returns a deep copy so callers cannot mutate shared profiles
func (p *CompanyProfile) Clone() *CompanyProfile {
	if p == nil {
		return nil
	}
	c := *p
	c.CulturalValues = cloneStrings(p.CulturalValues)
	c.RoundOrder = cloneStrings(p.RoundOrder)
	c.RedFlags = cloneStrings(p.RedFlags)
	c.BehavioralQuestions = cloneStrings(p.BehavioralQuestions)
	if p.Citations != nil {
		c.Citations = append([]Citation(nil), p.Citations...)
	}
	if p.InterviewRounds != nil {
		c.InterviewRounds = make(map[string]RoundIntel, len(p.InterviewRounds))
		for name, round := range p.InterviewRounds {
			round.CommonTopics = cloneStrings(round.CommonTopics)
			round.CommonQuestions = cloneStrings(round.CommonQuestions)
			c.InterviewRounds[name] = round
		}
	}
	return &c
}

// DiscoveryRecord wraps a pipeline-produced profile with its audit trail
type DiscoveryRecord struct {
	ID            uuid.UUID      `json:"id"`
	CanonicalName string         `json:"canonical_name"`
	QueryName     string         `json:"query_name"`
	Profile       CompanyProfile `json:"profile"`
	AuditTrail    []string       `json:"audit_trail"`
	CreatedAt     time.Time      `json:"created_at"`
}

// NewDiscoveryRecord builds a record for a freshly resolved profile
func NewDiscoveryRecord(queryName string, profile CompanyProfile, trail []string) DiscoveryRecord {
	canonical := profile.Name
	if canonical == "" {
		canonical = queryName
	}
	return DiscoveryRecord{
		ID:            uuid.New(),
		CanonicalName: canonical,
		QueryName:     queryName,
		Profile:       profile,
		AuditTrail:    cloneStrings(trail),
		CreatedAt:     time.Now().UTC(),
	}
}

// Names returns every name the record may be looked up by
func (r *DiscoveryRecord) Names() []string {
	if r.QueryName == "" || r.QueryName == r.CanonicalName {
		return []string{r.CanonicalName}
	}
	return []string{r.CanonicalName, r.QueryName}
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
