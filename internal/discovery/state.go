// Package discovery runs the multi-stage pipeline that produces interview
// intelligence for companies missing from the curated repository and memory.
package discovery

import (
	"fmt"
	"strings"

	"github.com/jonathan/interview-intel/internal/types"
)

// Provenance tags which research query produced an evidence item
type Provenance string

// Provenance values
const (
	ProvenanceGeneral Provenance = "general"
	ProvenanceRecent  Provenance = "recent"
)

// NoPublicInfoMarker replaces the evidence text when research found nothing usable.
// The architect reads it as license to describe industry-standard practice only.
const NoPublicInfoMarker = "NO PUBLIC INFORMATION FOUND. Describe only industry-standard practice and mark every company-specific field as 'not available'."

// Evidence is a single retrieved search result
type Evidence struct {
	Title      string     `json:"title"`
	URL        string     `json:"url"`
	Snippet    string     `json:"snippet"`
	Provenance Provenance `json:"provenance"`
	Trusted    bool       `json:"trusted,omitempty"`
}

// Route is the router stage output
type Route struct {
	Query        string
	Industry     string
	Location     string
	IsAcronym    bool
	ExpandedName string
	Reasoning    string
}

// AuditOutcome is the auditor stage output
type AuditOutcome struct {
	Evidence       []Evidence
	Confidence     int
	Synthetic      bool
	Industry       string
	DomainMismatch bool
}

// PipelineState is the value threaded through the stages of one invocation.
// Stages never mutate a state they receive; they derive a new one with Builder.
type PipelineState struct {
	CompanyName    string
	JobDescription string

	Industry string
	Location string
	Query    string

	RawEvidence     []Evidence
	AuditedEvidence []Evidence
	Confidence      int
	Synthetic       bool
	DomainMismatch  bool

	Profile         *types.CompanyProfile
	Fallback        bool // draft wrapped from unparseable generation output
	Valid           bool
	RejectionReason string
	Iteration       int

	AuditTrail []string
	Incidents  []error
	Err        error
}

// NewState creates the initial state for one invocation
func NewState(companyName, jobDescription string) PipelineState {
	return PipelineState{
		CompanyName:    strings.TrimSpace(companyName),
		JobDescription: strings.TrimSpace(jobDescription),
	}
}

// HasJobDescription reports whether the caller supplied role context
func (s PipelineState) HasJobDescription() bool {
	return s.JobDescription != ""
}

// Builder starts a derivation of s. Slices are copied so the source state is untouched.
func (s PipelineState) Builder() *Builder {
	next := s
	next.RawEvidence = append([]Evidence(nil), s.RawEvidence...)
	next.AuditedEvidence = append([]Evidence(nil), s.AuditedEvidence...)
	next.AuditTrail = append([]string(nil), s.AuditTrail...)
	next.Incidents = append([]error(nil), s.Incidents...)
	return &Builder{state: next}
}

// Builder derives a new PipelineState. Each With method covers the fields one stage owns.
type Builder struct {
	state PipelineState
}

// WithRoute records the router output
func (b *Builder) WithRoute(r Route) *Builder {
	b.state.Query = r.Query
	b.state.Industry = r.Industry
	b.state.Location = r.Location
	return b
}

// WithResearch records the researcher output
func (b *Builder) WithResearch(evidence []Evidence, synthetic bool, confidence int) *Builder {
	b.state.RawEvidence = append([]Evidence(nil), evidence...)
	b.state.Synthetic = synthetic
	b.state.Confidence = confidence
	return b
}

// WithAudit records the auditor output
func (b *Builder) WithAudit(out AuditOutcome) *Builder {
	b.state.AuditedEvidence = append([]Evidence(nil), out.Evidence...)
	b.state.Confidence = out.Confidence
	b.state.Synthetic = out.Synthetic
	b.state.DomainMismatch = out.DomainMismatch
	if out.Industry != "" {
		b.state.Industry = out.Industry
	}
	return b
}

// WithDraft records the architect output
func (b *Builder) WithDraft(profile *types.CompanyProfile) *Builder {
	b.state.Profile = profile
	b.state.Fallback = false
	return b
}

// WithFallbackDraft records a draft the architect could not parse from generation output
func (b *Builder) WithFallbackDraft(profile *types.CompanyProfile) *Builder {
	b.state.Profile = profile
	b.state.Fallback = true
	return b
}

// WithVerdict records the critic output
func (b *Builder) WithVerdict(valid bool, reason string) *Builder {
	b.state.Valid = valid
	b.state.RejectionReason = reason
	return b
}

// IncrementIteration counts one rejected generation
func (b *Builder) IncrementIteration() *Builder {
	b.state.Iteration++
	return b
}

// Log appends an audit trail entry
func (b *Builder) Log(entry string) *Builder {
	b.state.AuditTrail = append(b.state.AuditTrail, entry)
	return b
}

// Logf appends a formatted audit trail entry
func (b *Builder) Logf(format string, args ...any) *Builder {
	return b.Log(fmt.Sprintf(format, args...))
}

// Incident records a handled error that did not stop the pipeline
func (b *Builder) Incident(err error) *Builder {
	if err != nil {
		b.state.Incidents = append(b.state.Incidents, err)
	}
	return b
}

// WithError sets the terminal error
func (b *Builder) WithError(err error) *Builder {
	b.state.Err = err
	return b
}

// Build returns the derived state
func (b *Builder) Build() PipelineState {
	return b.state
}

// EvidenceText renders evidence as an indexed block for prompts
func EvidenceText(evidence []Evidence) string {
	if len(evidence) == 0 {
		return NoPublicInfoMarker
	}
	var sb strings.Builder
	for i, e := range evidence {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(fmt.Sprintf("[%d] (%s) %s\nURL: %s\n%s", i, e.Provenance, e.Title, e.URL, e.Snippet))
	}
	return sb.String()
}

// evidenceCorpus joins all evidence text for grounding checks
func evidenceCorpus(evidence []Evidence) string {
	var sb strings.Builder
	for _, e := range evidence {
		sb.WriteString(e.Title)
		sb.WriteByte(' ')
		sb.WriteString(e.Snippet)
		sb.WriteByte(' ')
		sb.WriteString(e.URL)
		sb.WriteByte('\n')
	}
	return strings.ToLower(sb.String())
}
