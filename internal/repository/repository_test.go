package repository

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-intel/internal/matching"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(Options{Matching: matching.DefaultConfig()})
	require.NoError(t, err)
	return repo
}

func TestNew_EmbeddedProfiles(t *testing.T) {
	repo := newTestRepository(t)

	assert.Equal(t, 23, repo.Count())
	companies := repo.Companies()
	assert.IsNonDecreasing(t, companies)
	assert.Contains(t, companies, "Google")
	assert.Contains(t, companies, "Mayo Clinic")
}

func TestResolve_Tiers(t *testing.T) {
	repo := newTestRepository(t)

	tests := []struct {
		name    string
		input   string
		wantKey string
		tier    matching.Tier
	}{
		{"verbatim key", "Google", "Google", matching.TierExact},
		{"case-insensitive", "google", "Google", matching.TierExact},
		{"alias lowercase", "facebook", "Meta", matching.TierAlias},
		{"alias abbreviation", "fb", "Meta", matching.TierAlias},
		{"alias with suffix", "Facebook Inc.", "Meta", matching.TierAlias},
		{"anchor prefix", "Microso", "Microsoft", matching.TierAnchor},
		{"fuzzy typo", "gogle", "Google", matching.TierFuzzy},
		{"substring tail", "Consulting Group", "Boston Consulting Group", matching.TierSubstring},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile, result, ok := repo.Resolve(tt.input)
			require.True(t, ok)
			assert.Equal(t, tt.wantKey, result.Key)
			assert.Equal(t, tt.tier, result.Tier)
			assert.Equal(t, tt.wantKey, profile.Name)
		})
	}
}

func TestLookup_AliasEquivalence(t *testing.T) {
	repo := newTestRepository(t)

	meta := repo.Lookup("Meta")
	require.NotNil(t, meta)
	assert.Equal(t, meta, repo.Lookup("fb"))
	assert.Equal(t, meta, repo.Lookup("Facebook"))
}

func TestLookup_Guards(t *testing.T) {
	repo := newTestRepository(t)

	tests := []struct {
		name  string
		input string
	}{
		{"two letter acronym never anchors to Amazon", "AZ"},
		{"three letters below anchor guard and fuzzy floor", "mic"},
		{"unknown company", "Zynthex Labs"},
		{"obscure clinic", "Obscure Regional Clinic"},
		{"blank", "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, repo.Lookup(tt.input))
			assert.False(t, repo.Contains(tt.input))
		})
	}
}

func TestLookup_ReturnsCopy(t *testing.T) {
	repo := newTestRepository(t)

	first := repo.Lookup("Google")
	require.NotNil(t, first)
	first.CulturalValues[0] = "mutated"
	first.InterviewRounds["Coding"] = first.InterviewRounds["Behavioral"]

	second := repo.Lookup("Google")
	assert.NotEqual(t, "mutated", second.CulturalValues[0])
	assert.Equal(t, "Data structures and algorithms", second.InterviewRounds["Coding"].Focus)
}

func TestCuratedProfiles_Invariants(t *testing.T) {
	repo := newTestRepository(t)

	for _, name := range repo.Companies() {
		profile := repo.Lookup(name)
		require.NotNil(t, profile, name)
		assert.False(t, profile.IsSynthetic, name)
		assert.GreaterOrEqual(t, profile.ConfidenceScore, 0, name)
		assert.LessOrEqual(t, profile.ConfidenceScore, 100, name)
		assert.NotEmpty(t, profile.InterviewRounds, name)
		assert.Len(t, profile.RoundNames(), len(profile.InterviewRounds), name)
	}
}

func TestCuratedProfiles_NonTechHaveNoCodingRounds(t *testing.T) {
	repo := newTestRepository(t)

	for _, name := range []string{"Mayo Clinic", "McKinsey & Company", "Goldman Sachs"} {
		profile := repo.Lookup(name)
		require.NotNil(t, profile, name)
		for _, round := range profile.RoundNames() {
			assert.NotContains(t, round, "Coding", name)
			assert.NotContains(t, round, "System Design", name)
		}
	}
}

func TestInterviewContext(t *testing.T) {
	repo := newTestRepository(t)

	ctx := repo.InterviewContext("Amazon", "Coding")
	assert.Contains(t, ctx, "COMPANY: Amazon (Technology, Large (1M+ employees))")
	assert.Contains(t, ctx, "INTERVIEW DIFFICULTY: High")
	assert.Contains(t, ctx, "CORE VALUES: Customer Obsession, Ownership, Invent and Simplify")
	assert.Contains(t, ctx, "CODING ROUND FOCUS:")
	assert.Contains(t, ctx, "- Primary Focus: Practical algorithms with clean code")
	assert.Contains(t, ctx, "- Common Topics: Trees, Heaps, Object-oriented design")
	assert.Contains(t, ctx, "RED FLAGS TO WATCH: Using we instead of I, Stories without metrics")
	assert.NotContains(t, ctx, "Example Questions")
}

func TestInterviewContext_RoundCaseInsensitive(t *testing.T) {
	repo := newTestRepository(t)

	ctx := repo.InterviewContext("mayo", "clinical case study")
	assert.Contains(t, ctx, "CLINICAL CASE STUDY ROUND FOCUS:")
	assert.Contains(t, ctx, "Clinical reasoning")
}

func TestInterviewContext_UnknownRoundOmitsSection(t *testing.T) {
	repo := newTestRepository(t)

	ctx := repo.InterviewContext("Google", "Case Interview")
	assert.Contains(t, ctx, "COMPANY: Google")
	assert.NotContains(t, ctx, "ROUND FOCUS")
}

func TestInterviewContext_UnknownCompany(t *testing.T) {
	repo := newTestRepository(t)

	assert.Equal(t, "Simulate a professional Technical interview for Zynthex Labs.",
		repo.InterviewContext("Zynthex Labs", "Technical"))
}

func TestBehavioralQuestionsAndValues(t *testing.T) {
	repo := newTestRepository(t)

	assert.NotEmpty(t, repo.BehavioralQuestions("Google"))
	assert.Equal(t, "Focus on the user", repo.CulturalValues("alphabet")[0])
	assert.Nil(t, repo.BehavioralQuestions("Zynthex Labs"))
	assert.Nil(t, repo.CulturalValues("Zynthex Labs"))
}

const overrideFile = `{
  "aliases": {"zl": "Zynthex Labs", "ghost": "Nobody"},
  "companies": {
    "Zynthex Labs": {
      "name": "Zynthex Labs",
      "industry": "Technology",
      "interview_style": "Pairing",
      "interview_rounds": {"Pairing": {"focus": "Collaboration"}},
      "confidence_score": 90
    }
  }
}`

func TestNew_OverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.json")
	require.NoError(t, os.WriteFile(path, []byte(overrideFile), 0o644))

	repo, err := New(Options{Path: path, Matching: matching.DefaultConfig()})
	require.NoError(t, err)

	assert.Equal(t, 1, repo.Count())
	profile := repo.Lookup("zl")
	require.NotNil(t, profile)
	assert.Equal(t, 90, profile.ConfidenceScore)
	assert.Nil(t, repo.Lookup("ghost"))
}

func TestNew_InvalidOverrideFallsBack(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "{broken"},
		{"missing companies", `{"aliases": {}}`},
		{"confidence out of range", `{"companies": {"X": {"name": "X", "industry": "Y", "interview_rounds": {"R": {"focus": "f"}}, "confidence_score": 140}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "profiles.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			repo, err := New(Options{Path: path, Matching: matching.DefaultConfig()})
			require.NoError(t, err)
			assert.Equal(t, 23, repo.Count())
		})
	}
}

func TestNew_MissingOverrideFallsBack(t *testing.T) {
	repo, err := New(Options{Path: filepath.Join(t.TempDir(), "missing.json"), Matching: matching.DefaultConfig()})
	require.NoError(t, err)
	assert.NotNil(t, repo.Lookup("Google"))
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load([]byte(`{"companies": {}}`), matching.DefaultConfig(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation")
}
