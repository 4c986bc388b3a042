// Package repository provides the curated company profile store with tiered name matching.
package repository

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/interview-intel/internal/matching"
	"github.com/jonathan/interview-intel/internal/schemas"
	"github.com/jonathan/interview-intel/internal/types"
)

//go:embed data/company_profiles.json
var defaultProfiles []byte

// curatedFile is the on-disk layout of a curated profile file
type curatedFile struct {
	Aliases   map[string]string               `json:"aliases"`
	Companies map[string]types.CompanyProfile `json:"companies"`
}

// Options configures a Repository
type Options struct {
	// Path optionally points to a curated file replacing the embedded defaults
	Path     string
	Matching matching.Config
	Logger   *zap.Logger
}

// Repository is a static, in-memory store of curated profiles.
// It performs no I/O after construction and is safe for concurrent reads.
type Repository struct {
	profiles map[string]types.CompanyProfile
	matcher  *matching.Matcher
	logger   *zap.Logger
}

// New loads the curated profiles. A configured file that is missing or fails
// schema validation is logged and the embedded defaults are used instead.
func New(opts Options) (*Repository, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if opts.Path != "" {
		data, err := os.ReadFile(opts.Path)
		if err == nil {
			repo, loadErr := Load(data, opts.Matching, logger)
			if loadErr == nil {
				logger.Info("loaded curated profiles", zap.String("path", opts.Path), zap.Int("companies", repo.Count()))
				return repo, nil
			}
			err = loadErr
		}
		logger.Warn("curated profile file unusable, falling back to embedded profiles",
			zap.String("path", opts.Path), zap.Error(err))
	}

	return Load(defaultProfiles, opts.Matching, logger)
}

// Load builds a repository from curated file content
func Load(data []byte, cfg matching.Config, logger *zap.Logger) (*Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := schemas.Validate(schemas.CuratedProfiles, string(data)); err != nil {
		return nil, fmt.Errorf("curated profiles failed schema validation: %w", err)
	}

	var file curatedFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse curated profiles: %w", err)
	}

	profiles := make(map[string]types.CompanyProfile, len(file.Companies))
	keys := make([]string, 0, len(file.Companies))
	for key, profile := range file.Companies {
		profile.ClampConfidence()
		profiles[key] = profile
		keys = append(keys, key)
	}

	for alias, target := range file.Aliases {
		if _, ok := profiles[target]; !ok {
			logger.Warn("alias points at unknown company", zap.String("alias", alias), zap.String("target", target))
		}
	}

	return &Repository{
		profiles: profiles,
		matcher:  matching.NewMatcher(keys, file.Aliases, cfg),
		logger:   logger,
	}, nil
}

// Resolve returns a copy of the matched profile together with the match details
func (r *Repository) Resolve(name string) (*types.CompanyProfile, matching.Result, bool) {
	result, ok := r.matcher.Match(name)
	if !ok {
		return nil, matching.Result{}, false
	}
	profile, ok := r.profiles[result.Key]
	if !ok {
		return nil, matching.Result{}, false
	}
	r.logger.Debug("repository hit",
		zap.String("company", name),
		zap.String("key", result.Key),
		zap.String("tier", string(result.Tier)),
		zap.Float64("score", result.Score))
	return profile.Clone(), result, true
}

// Lookup returns the curated profile for name, or nil
func (r *Repository) Lookup(name string) *types.CompanyProfile {
	profile, _, ok := r.Resolve(name)
	if !ok {
		return nil
	}
	return profile
}

// Contains reports whether name resolves to a curated profile
func (r *Repository) Contains(name string) bool {
	_, ok := r.matcher.Match(name)
	return ok
}

// Companies returns the curated company keys in alphabetical order
func (r *Repository) Companies() []string {
	return r.matcher.Keys()
}

// Count returns the number of curated companies
func (r *Repository) Count() int {
	return len(r.profiles)
}

// BehavioralQuestions returns company-specific behavioral questions, or nil
func (r *Repository) BehavioralQuestions(name string) []string {
	profile := r.Lookup(name)
	if profile == nil {
		return nil
	}
	return profile.BehavioralQuestions
}

// CulturalValues returns the company's cultural values, or nil
func (r *Repository) CulturalValues(name string) []string {
	profile := r.Lookup(name)
	if profile == nil {
		return nil
	}
	return profile.CulturalValues
}

// InterviewContext renders prompt context for one interview round at a company
func (r *Repository) InterviewContext(name, round string) string {
	profile := r.Lookup(name)
	if profile == nil {
		return fmt.Sprintf("Simulate a professional %s interview for %s.", round, name)
	}
	return RenderContext(profile, round)
}

// RenderContext formats a profile as interviewer prompt context for one round
func RenderContext(profile *types.CompanyProfile, round string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("COMPANY: %s (%s, %s)\n", profile.Name, profile.Industry, profile.Size))
	sb.WriteString(fmt.Sprintf("INTERVIEW DIFFICULTY: %s\n", profile.DifficultyLevel))
	sb.WriteString(fmt.Sprintf("INTERVIEW STYLE: %s", profile.InterviewStyle))

	if len(profile.CulturalValues) > 0 {
		sb.WriteString(fmt.Sprintf("\nCORE VALUES: %s", strings.Join(head(profile.CulturalValues, 3), ", ")))
	}

	if info, ok := findRound(profile, round); ok {
		sb.WriteString(fmt.Sprintf("\n\n%s ROUND FOCUS:", strings.ToUpper(round)))
		focus := info.Focus
		if focus == "" {
			focus = "General assessment"
		}
		sb.WriteString(fmt.Sprintf("\n- Primary Focus: %s", focus))
		if len(info.CommonTopics) > 0 {
			sb.WriteString(fmt.Sprintf("\n- Common Topics: %s", strings.Join(head(info.CommonTopics, 3), ", ")))
		}
		if info.Style != "" {
			sb.WriteString(fmt.Sprintf("\n- Interview Style: %s", info.Style))
		}
		if info.Tips != "" {
			sb.WriteString(fmt.Sprintf("\n- Key Tips: %s", info.Tips))
		}
		if len(info.CommonQuestions) > 0 {
			sb.WriteString(fmt.Sprintf("\n- Example Questions: %s", info.CommonQuestions[0]))
		}
	}

	if len(profile.RedFlags) > 0 {
		sb.WriteString(fmt.Sprintf("\n\nRED FLAGS TO WATCH: %s", strings.Join(head(profile.RedFlags, 2), ", ")))
	}

	return sb.String()
}

// findRound matches round names exactly first, then case-insensitively
func findRound(profile *types.CompanyProfile, round string) (types.RoundIntel, bool) {
	if info, ok := profile.InterviewRounds[round]; ok {
		return info, true
	}
	names := make([]string, 0, len(profile.InterviewRounds))
	for name := range profile.InterviewRounds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if strings.EqualFold(name, round) {
			return profile.InterviewRounds[name], true
		}
	}
	return types.RoundIntel{}, false
}

func head(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
