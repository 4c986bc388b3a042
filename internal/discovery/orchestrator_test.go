package discovery

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-intel/internal/discovery/discoverytest"
	"github.com/jonathan/interview-intel/internal/llm"
	"github.com/jonathan/interview-intel/internal/search"
	"github.com/jonathan/interview-intel/internal/types"
)

var fixedNow = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

const (
	routeTech = `{"is_acronym": false, "expanded_name": "", "refined_query": "Zynthex Labs software engineer interview 2025 2026", "industry": "Technology", "location": "", "reasoning": "AI infrastructure startup"}`
	auditAll  = `{"identity_match": true, "relevant_indices": [0, 1, 2], "rejected": [], "inferred_industry": "", "confidence_boost": 5}`
	approve   = `{"approved": true, "reason": ""}`

	architectTech = "```json\n" + `{
  "name": "Zynthex Labs",
  "industry": "Technology",
  "size": "",
  "interview_style": "Practical coding and design",
  "difficulty_level": "Medium",
  "cultural_values": ["Ownership"],
  "round_order": ["Coding", "System Design", "Behavioral"],
  "interview_rounds": {
    "Coding": {"focus": "Python problem solving"},
    "System Design": {"focus": "Distributed systems"},
    "Behavioral": {"focus": "Collaboration"}
  },
  "red_flags": [],
  "average_process_duration": "3-4 weeks",
  "interview_count": "4",
  "role_company_alignment": "Engineering is the core of the product."
}` + "\n```"
)

func techSearch() *discoverytest.Search {
	glassdoor := search.Result{
		Title:   "Zynthex Labs Interview Questions | Glassdoor",
		URL:     "https://www.glassdoor.com/Interview/zynthex.htm",
		Snippet: "Zynthex Labs interview: coding screen then system design. The process took 3 to 4 weeks.",
	}
	return &discoverytest.Search{
		General: []search.Result{
			glassdoor,
			{Title: "Top 50 Python interview questions", URL: "https://www.geeksforgeeks.org/python-questions", Snippet: "Generic list."},
			{Title: "Zynthex Labs engineering blog", URL: "https://zynthex.io/blog/hiring", Snippet: "How we hire engineers at Zynthex."},
		},
		Recent: []search.Result{
			{Title: "Zynthex onsite experience 2026", URL: "https://www.reddit.com/r/cscareerquestions/zynthex", Snippet: "Four rounds in one day at Zynthex in 2026."},
			glassdoor,
		},
	}
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []types.DiscoveryRecord
	err     error
}

func (r *fakeRecorder) Save(_ context.Context, rec types.DiscoveryRecord) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	r.records = append(r.records, rec)
	return true, nil
}

func (r *fakeRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

func newTestOrchestrator(client llm.Client, provider search.Provider, rec Recorder) *Orchestrator {
	return New(Deps{LLM: client, Search: provider, Recorder: rec}, Options{Now: fixedNow})
}

func trailContains(trail []string, substr string) int {
	n := 0
	for _, line := range trail {
		if strings.Contains(line, substr) {
			n++
		}
	}
	return n
}

func TestDiscover_TechCompanyApproved(t *testing.T) {
	fake := discoverytest.NewLLM().
		On(discoverytest.TaskRoute, routeTech).
		On(discoverytest.TaskAudit, auditAll).
		On(discoverytest.TaskArchitect, architectTech).
		On(discoverytest.TaskCritic, approve)
	provider := techSearch()
	rec := &fakeRecorder{}

	out := newTestOrchestrator(fake, provider, rec).
		Discover(context.Background(), "Zynthex Labs", "Software Engineer, Python, distributed systems")

	require.NoError(t, out.Err)
	require.NotNil(t, out.Profile)
	assert.True(t, out.Valid)
	assert.False(t, out.Synthetic)
	assert.True(t, out.Persisted)
	assert.Equal(t, 0, out.Iterations)
	assert.Equal(t, []string{"Coding", "System Design", "Behavioral"}, out.Profile.RoundNames())

	// 3 sources * 15, +5 audit boost, +5 for one career site
	assert.Equal(t, 55, out.Profile.ConfidenceScore)
	assert.Equal(t, "3-4 weeks", out.Profile.ProcessDuration)
	assert.Equal(t, types.NotAvailable, out.Profile.Size)

	require.Len(t, out.Profile.Citations, 3)
	assert.Equal(t, "Zynthex Labs Interview Questions | Glassdoor", out.Profile.Citations[0].Title)
	assert.Equal(t, "[RECENT] Zynthex onsite experience 2026", out.Profile.Citations[2].Title)

	queries := provider.Queries()
	require.Len(t, queries, 2)
	assert.Contains(t, queries[0], "Zynthex Labs")
	assert.Contains(t, queries[0], "2025")
	assert.Contains(t, queries[0], "2026")
	assert.Equal(t, "Zynthex Labs interview experience 2026", queries[1])

	assert.Equal(t, 1, fake.Calls(discoverytest.TaskRoute))
	assert.Equal(t, 1, fake.Calls(discoverytest.TaskAudit))
	assert.Equal(t, 1, fake.Calls(discoverytest.TaskArchitect))
	assert.Equal(t, 1, fake.Calls(discoverytest.TaskCritic))

	assert.Equal(t, 1, trailContains(out.AuditTrail, "PURGE:"))
	assert.Equal(t, 1, trailContains(out.AuditTrail, "CRITIC: approved"))

	require.Equal(t, 1, rec.count())
	assert.Equal(t, "Zynthex Labs", rec.records[0].CanonicalName)
	assert.Equal(t, out.AuditTrail, rec.records[0].AuditTrail)
}

func TestDiscover_NoEvidenceIsSynthetic(t *testing.T) {
	fake := discoverytest.NewLLM().
		On(discoverytest.TaskRoute, `{"is_acronym": false, "refined_query": "Obscure Regional Clinic interview process", "industry": "Healthcare", "location": ""}`)
	rec := &fakeRecorder{}

	out := newTestOrchestrator(fake, &discoverytest.Search{}, rec).
		Discover(context.Background(), "Obscure Regional Clinic", "")

	require.NoError(t, out.Err)
	assert.True(t, out.Valid)
	assert.True(t, out.Synthetic)
	assert.False(t, out.Persisted)
	assert.Equal(t, 0, rec.count())

	assert.Equal(t, DefaultSyntheticConfidence, out.Profile.ConfidenceScore)
	assert.Equal(t, []string{StandardAssessmentRound}, out.Profile.RoundNames())
	assert.Equal(t, types.NotAvailable, out.Profile.ProcessDuration)
	assert.Empty(t, out.Profile.Citations)

	assert.Equal(t, 1, fake.Calls(discoverytest.TaskRoute))
	assert.Equal(t, 0, fake.Calls(discoverytest.TaskAudit))
	assert.Equal(t, 0, fake.Calls(discoverytest.TaskArchitect))
	assert.Equal(t, 0, fake.Calls(discoverytest.TaskCritic))
}

func TestDiscover_SearchUnavailableDegradesToSynthetic(t *testing.T) {
	fake := discoverytest.NewLLM().On(discoverytest.TaskRoute, routeTech)
	provider := &discoverytest.Search{Err: errors.New("connection refused")}

	out := newTestOrchestrator(fake, provider, nil).Discover(context.Background(), "Zynthex Labs", "")

	assert.True(t, out.Synthetic)
	assert.True(t, out.Valid)

	var unavailable *SearchUnavailableError
	found := 0
	for _, err := range out.Incidents {
		if errors.As(err, &unavailable) {
			found++
		}
	}
	assert.Equal(t, 2, found)
	assert.Equal(t, 2, trailContains(out.AuditTrail, "search unavailable"))
}

func TestDiscover_ValidationExhausted(t *testing.T) {
	fake := discoverytest.NewLLM().
		On(discoverytest.TaskRoute, routeTech).
		On(discoverytest.TaskAudit, auditAll).
		On(discoverytest.TaskArchitect, architectTech).
		On(discoverytest.TaskCritic, `{"approved": false, "reason": "round focus too generic"}`)
	rec := &fakeRecorder{}

	out := newTestOrchestrator(fake, techSearch(), rec).
		Discover(context.Background(), "Zynthex Labs", "Software Engineer")

	assert.False(t, out.Valid)
	assert.Equal(t, DefaultMaxIterations, out.Iterations)
	assert.Equal(t, "round focus too generic", out.RejectionReason)
	require.NotNil(t, out.Profile)
	assert.False(t, out.Persisted)
	assert.Equal(t, 0, rec.count())

	var exhausted *ValidationExhaustedError
	require.ErrorAs(t, out.Err, &exhausted)
	assert.Equal(t, 2, exhausted.Iterations)

	assert.Equal(t, 2, fake.Calls(discoverytest.TaskArchitect))
	assert.Equal(t, 2, fake.Calls(discoverytest.TaskCritic))
	assert.Equal(t, 2, trailContains(out.AuditTrail, "CRITIC REJECTION"))

	prompts := fake.Prompts(discoverytest.TaskArchitect)
	assert.NotContains(t, prompts[0], "round focus too generic")
	assert.Contains(t, prompts[1], "round focus too generic")
}

func TestDiscover_ApprovedOnRetry(t *testing.T) {
	fake := discoverytest.NewLLM().
		On(discoverytest.TaskRoute, routeTech).
		On(discoverytest.TaskAudit, auditAll).
		On(discoverytest.TaskArchitect, architectTech).
		On(discoverytest.TaskCritic, `{"approved": false, "reason": "missing tips"}`, approve)

	out := newTestOrchestrator(fake, techSearch(), &fakeRecorder{}).
		Discover(context.Background(), "Zynthex Labs", "Software Engineer")

	assert.True(t, out.Valid)
	assert.Equal(t, 1, out.Iterations)
	assert.NoError(t, out.Err)
	assert.True(t, out.Persisted)
	assert.Equal(t, 2, fake.Calls(discoverytest.TaskArchitect))
}

func TestDiscover_IdentityMismatch(t *testing.T) {
	fake := discoverytest.NewLLM().
		On(discoverytest.TaskRoute, routeTech).
		On(discoverytest.TaskAudit, `{"identity_match": false, "relevant_indices": [], "rejected": [{"index": 0, "reason": "Acronym collision with an unrelated company"}]}`)
	rec := &fakeRecorder{}

	out := newTestOrchestrator(fake, techSearch(), rec).Discover(context.Background(), "Zynthex Labs", "")

	assert.True(t, out.Synthetic)
	assert.LessOrEqual(t, out.Profile.ConfidenceScore, types.MaxSyntheticConfidence)
	assert.Equal(t, []string{StandardAssessmentRound}, out.Profile.RoundNames())
	assert.False(t, out.Persisted)
	assert.Equal(t, 0, fake.Calls(discoverytest.TaskArchitect))

	var mismatch *IdentityMismatchError
	found := false
	for _, err := range out.Incidents {
		if errors.As(err, &mismatch) {
			found = true
			assert.Contains(t, mismatch.Reason, "Acronym collision")
		}
	}
	assert.True(t, found)
	assert.Equal(t, 1, trailContains(out.AuditTrail, "IDENTITY MISMATCH"))
}

func TestDiscover_MalformedGenerationIsNeverPersisted(t *testing.T) {
	fake := discoverytest.NewLLM().
		On(discoverytest.TaskRoute, routeTech).
		On(discoverytest.TaskAudit, auditAll).
		On(discoverytest.TaskArchitect, "I am unable to produce a profile for this company.").
		On(discoverytest.TaskCritic, approve)
	rec := &fakeRecorder{}

	out := newTestOrchestrator(fake, techSearch(), rec).
		Discover(context.Background(), "Zynthex Labs", "Software Engineer")

	require.NotNil(t, out.Profile)
	assert.False(t, out.Valid)
	assert.False(t, out.Synthetic)
	assert.False(t, out.Persisted)
	assert.Equal(t, 0, rec.count())
	assert.Equal(t, UnparsedDraftReason, out.RejectionReason)
	assert.Equal(t, []string{StandardAssessmentRound}, out.Profile.RoundNames())
	assert.Contains(t, out.Profile.RoleCompanyAlignment, "unable to produce a profile")

	var exhausted *ValidationExhaustedError
	require.ErrorAs(t, out.Err, &exhausted)

	assert.Equal(t, DefaultMaxIterations, fake.Calls(discoverytest.TaskArchitect))
	assert.Equal(t, 0, fake.Calls(discoverytest.TaskCritic))

	var malformed *llm.MalformedGenerationError
	found := 0
	for _, err := range out.Incidents {
		if errors.As(err, &malformed) {
			found++
		}
	}
	assert.Equal(t, DefaultMaxIterations, found)
}

func TestDiscover_MalformedGenerationRegenerates(t *testing.T) {
	fake := discoverytest.NewLLM().
		On(discoverytest.TaskRoute, routeTech).
		On(discoverytest.TaskAudit, auditAll).
		On(discoverytest.TaskArchitect, "Here is the profile you asked for: Coding, then Behavioral.", architectTech).
		On(discoverytest.TaskCritic, approve)
	rec := &fakeRecorder{}

	out := newTestOrchestrator(fake, techSearch(), rec).
		Discover(context.Background(), "Zynthex Labs", "Software Engineer")

	require.NoError(t, out.Err)
	assert.True(t, out.Valid)
	assert.Equal(t, 1, out.Iterations)
	assert.Equal(t, []string{"Coding", "System Design", "Behavioral"}, out.Profile.RoundNames())
	assert.NotContains(t, out.Profile.RoleCompanyAlignment, "Here is the profile")

	assert.True(t, out.Persisted)
	require.Equal(t, 1, rec.count())
	assert.Equal(t, "Engineering is the core of the product.", rec.records[0].Profile.RoleCompanyAlignment)

	assert.Equal(t, 2, fake.Calls(discoverytest.TaskArchitect))
	assert.Equal(t, 1, fake.Calls(discoverytest.TaskCritic))
	assert.Contains(t, fake.Prompts(discoverytest.TaskArchitect)[1], UnparsedDraftReason)
}

func TestDiscover_RoleForcingGuard(t *testing.T) {
	fake := discoverytest.NewLLM().
		On(discoverytest.TaskRoute, `{"refined_query": "Harborview Legal Partners software engineer interview", "industry": "Legal"}`).
		On(discoverytest.TaskAudit, `{"identity_match": true, "relevant_indices": [0], "confidence_boost": 0}`).
		On(discoverytest.TaskArchitect, `{
  "name": "Harborview Legal Partners",
  "industry": "Legal",
  "interview_style": "Case discussion",
  "round_order": ["Coding", "Legal Case Analysis", "Behavioral"],
  "interview_rounds": {
    "Coding": {"focus": "LeetCode"},
    "Legal Case Analysis": {"focus": "Contract dispute"},
    "Behavioral": {"focus": "Client handling"}
  }
}`).
		On(discoverytest.TaskCritic, approve)
	provider := &discoverytest.Search{
		General: []search.Result{{
			Title:   "Harborview Legal Partners associate interview",
			URL:     "https://www.glassdoor.com/Interview/harborview.htm",
			Snippet: "Candidates discussed a contract dispute and partner interviews.",
		}},
	}

	out := newTestOrchestrator(fake, provider, nil).Discover(context.Background(), "Harborview Legal Partners", "")

	require.NotNil(t, out.Profile)
	for _, round := range out.Profile.RoundNames() {
		assert.False(t, TechnicalRound(round), round)
	}
	assert.Equal(t, []string{"Legal Case Analysis", "Behavioral"}, out.Profile.RoundNames())
	assert.Equal(t, 1, trailContains(out.AuditTrail, "removed technical round 'Coding'"))

	for _, q := range provider.Queries() {
		assert.NotContains(t, strings.ToLower(q), "software")
		assert.NotContains(t, strings.ToLower(q), "engineer")
	}
}

func TestDiscover_PersistenceFailureIsSwallowed(t *testing.T) {
	fake := discoverytest.NewLLM().
		On(discoverytest.TaskRoute, routeTech).
		On(discoverytest.TaskAudit, auditAll).
		On(discoverytest.TaskArchitect, architectTech).
		On(discoverytest.TaskCritic, approve)
	rec := &fakeRecorder{err: errors.New("disk full")}

	out := newTestOrchestrator(fake, techSearch(), rec).
		Discover(context.Background(), "Zynthex Labs", "Software Engineer")

	assert.True(t, out.Valid)
	assert.NoError(t, out.Err)
	assert.False(t, out.Persisted)
	require.NotEmpty(t, out.Incidents)
	assert.Contains(t, out.Incidents[len(out.Incidents)-1].Error(), "disk full")
}

func TestDiscover_CanceledContext(t *testing.T) {
	fake := discoverytest.NewLLM().On(discoverytest.TaskRoute, routeTech)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := newTestOrchestrator(fake, techSearch(), &fakeRecorder{}).Discover(ctx, "Zynthex Labs", "")

	assert.False(t, out.Valid)
	assert.True(t, out.Synthetic)
	assert.False(t, out.Persisted)
	assert.ErrorIs(t, out.Err, context.Canceled)
	assert.Equal(t, 0, fake.TotalCalls())
	assert.Contains(t, out.RejectionReason, "pipeline aborted")
}

func TestDiscover_TimeoutReturnsBestEffort(t *testing.T) {
	fake := discoverytest.NewLLM().
		On(discoverytest.TaskRoute, routeTech).
		Delay(5 * time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	out := newTestOrchestrator(fake, techSearch(), nil).Discover(ctx, "Zynthex Labs", "")

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.False(t, out.Valid)
	assert.True(t, out.Synthetic)
	assert.ErrorIs(t, out.Err, context.DeadlineExceeded)
	assert.LessOrEqual(t, out.Profile.ConfidenceScore, types.MaxSyntheticConfidence)
}

func TestDiscover_ConfidenceAlwaysInRange(t *testing.T) {
	audits := []string{
		`{"identity_match": true, "relevant_indices": [0, 1, 2], "confidence_boost": 500}`,
		`{"identity_match": true, "relevant_indices": [0, 1, 2], "confidence_boost": -500}`,
	}
	for _, audit := range audits {
		fake := discoverytest.NewLLM().
			On(discoverytest.TaskRoute, routeTech).
			On(discoverytest.TaskAudit, audit).
			On(discoverytest.TaskArchitect, architectTech).
			On(discoverytest.TaskCritic, approve)

		out := newTestOrchestrator(fake, techSearch(), nil).Discover(context.Background(), "Zynthex Labs", "Software Engineer")

		require.NotNil(t, out.Profile)
		assert.GreaterOrEqual(t, out.Profile.ConfidenceScore, types.MinConfidence)
		assert.LessOrEqual(t, out.Profile.ConfidenceScore, types.MaxConfidence)
	}
}
