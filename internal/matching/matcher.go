package matching

import (
	"sort"
	"strings"
)

// Tier names the matching stage that produced a hit
type Tier string

// Tier constants, in the order they are tried
const (
	TierExact     Tier = "exact"
	TierAlias     Tier = "alias"
	TierAnchor    Tier = "anchor"
	TierFuzzy     Tier = "fuzzy"
	TierSubstring Tier = "substring"
)

// Config holds the thresholds and length guards for tiered matching
type Config struct {
	FuzzyThreshold       float64 `mapstructure:"repository_threshold" validate:"gt=0,lte=1"`
	FuzzyMinLength       int     `mapstructure:"fuzzy_min_length" validate:"gte=1"`
	AnchorMinLength      int     `mapstructure:"anchor_min_length" validate:"gte=1"`
	AnchorMaxRatio       float64 `mapstructure:"anchor_max_ratio" validate:"gte=1"`
	SubstringMinLength   int     `mapstructure:"substring_min_length" validate:"gte=1"`
	SubstringMinCoverage float64 `mapstructure:"substring_min_coverage" validate:"gt=0,lte=1"`
}

// DefaultConfig returns the thresholds used by the curated repository
func DefaultConfig() Config {
	return Config{
		FuzzyThreshold:       0.85,
		FuzzyMinLength:       3,
		AnchorMinLength:      4,
		AnchorMaxRatio:       2.0,
		SubstringMinLength:   4,
		SubstringMinCoverage: 0.6,
	}
}

// Result describes a successful match
type Result struct {
	Key   string  `json:"key"`
	Tier  Tier    `json:"tier"`
	Score float64 `json:"score"`
}

type entry struct {
	key        string
	normalized string
}

// Matcher resolves names against a fixed key set.
// Ties are broken by canonical alphabetical key order so results never depend on map iteration.
type Matcher struct {
	cfg     Config
	entries []entry
	exact   map[string]string
	aliases map[string]string
}

// NewMatcher builds a matcher over keys. Aliases map a nickname to one of the keys;
// aliases pointing at unknown keys are ignored.
func NewMatcher(keys []string, aliases map[string]string, cfg Config) *Matcher {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	m := &Matcher{
		cfg:     cfg,
		entries: make([]entry, 0, len(sorted)),
		exact:   make(map[string]string, len(sorted)),
		aliases: make(map[string]string, len(aliases)),
	}
	for _, key := range sorted {
		if _, dup := m.exact[key]; dup {
			continue
		}
		m.exact[key] = key
		m.entries = append(m.entries, entry{key: key, normalized: Normalize(key)})
	}
	for alias, target := range aliases {
		if _, ok := m.exact[target]; !ok {
			continue
		}
		if n := Normalize(alias); n != "" {
			m.aliases[n] = target
		}
	}
	return m
}

// Keys returns the known keys in alphabetical order
func (m *Matcher) Keys() []string {
	keys := make([]string, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.key
	}
	return keys
}

// Match runs the tiers in order and stops at the first hit
func (m *Matcher) Match(name string) (Result, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Result{}, false
	}

	if r, ok := m.matchExact(name); ok {
		return r, true
	}

	input := Normalize(name)
	if input == "" {
		return Result{}, false
	}

	if target, ok := m.aliases[input]; ok {
		return Result{Key: target, Tier: TierAlias, Score: 1}, true
	}
	if r, ok := m.matchAnchor(input); ok {
		return r, true
	}
	if r, ok := m.matchFuzzy(input); ok {
		return r, true
	}
	return m.matchSubstring(input)
}

func (m *Matcher) matchExact(name string) (Result, bool) {
	if key, ok := m.exact[name]; ok {
		return Result{Key: key, Tier: TierExact, Score: 1}, true
	}
	for _, e := range m.entries {
		if strings.EqualFold(e.key, name) {
			return Result{Key: e.key, Tier: TierExact, Score: 1}, true
		}
	}
	return Result{}, false
}

// matchAnchor accepts keys starting with the input, guarded so short inputs
// cannot claim long unrelated names. Prefers the shortest key.
func (m *Matcher) matchAnchor(input string) (Result, bool) {
	inputLen := Length(input)
	var best *entry
	for i := range m.entries {
		e := &m.entries[i]
		if !strings.HasPrefix(e.normalized, input) {
			continue
		}
		candidateLen := Length(e.normalized)
		if inputLen < m.cfg.AnchorMinLength && float64(candidateLen) > m.cfg.AnchorMaxRatio*float64(inputLen) {
			continue
		}
		if best == nil || candidateLen < Length(best.normalized) {
			best = e
		}
	}
	if best == nil {
		return Result{}, false
	}
	return Result{Key: best.key, Tier: TierAnchor, Score: float64(inputLen) / float64(Length(best.normalized))}, true
}

func (m *Matcher) matchFuzzy(input string) (Result, bool) {
	if Length(input) < m.cfg.FuzzyMinLength {
		return Result{}, false
	}
	candidates := make([]string, len(m.entries))
	for i, e := range m.entries {
		candidates[i] = e.normalized
	}
	idx, score := BestMatch(input, candidates, m.cfg.FuzzyThreshold)
	if idx < 0 {
		return Result{}, false
	}
	return Result{Key: m.entries[idx].key, Tier: TierFuzzy, Score: score}, true
}

// matchSubstring accepts keys containing the input when the input covers
// enough of the key. Prefers the highest coverage.
func (m *Matcher) matchSubstring(input string) (Result, bool) {
	inputLen := Length(input)
	if inputLen < m.cfg.SubstringMinLength {
		return Result{}, false
	}
	bestIdx, bestCoverage := -1, 0.0
	for i, e := range m.entries {
		if !strings.Contains(e.normalized, input) {
			continue
		}
		coverage := float64(inputLen) / float64(Length(e.normalized))
		if coverage < m.cfg.SubstringMinCoverage {
			continue
		}
		if coverage > bestCoverage {
			bestIdx, bestCoverage = i, coverage
		}
	}
	if bestIdx < 0 {
		return Result{}, false
	}
	return Result{Key: m.entries[bestIdx].key, Tier: TierSubstring, Score: bestCoverage}, true
}

// BestMatch returns the index and score of the candidate most similar to input
// with a score at or above threshold, or -1. Candidates must already be normalized.
// On equal scores the earliest candidate wins, so callers pass candidates in
// canonical alphabetical order.
func BestMatch(input string, candidates []string, threshold float64) (int, float64) {
	bestIdx, bestScore := -1, 0.0
	for i, c := range candidates {
		score := Similarity(input, c)
		if score < threshold {
			continue
		}
		if score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	return bestIdx, bestScore
}
