// Package intelligence resolves a company name to interview intelligence.
//
// Lookups go through the curated repository, then discovery memory, and only then
// the discovery pipeline. Concurrent requests for the same company join one pipeline run.
package intelligence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/jonathan/interview-intel/internal/discovery"
	"github.com/jonathan/interview-intel/internal/matching"
	"github.com/jonathan/interview-intel/internal/observability"
	"github.com/jonathan/interview-intel/internal/types"
)

// DefaultTimeout bounds one discovery pipeline run
const DefaultTimeout = 90 * time.Second

// ErrEmptyName is reported when no company name was given
var ErrEmptyName = errors.New("company name is required")

// ErrNoDiscovery is reported when a name misses every store and no pipeline is configured
var ErrNoDiscovery = errors.New("company not found and discovery is not configured")

// Source names where a profile came from
type Source string

// Source values
const (
	SourceRepository Source = "repository"
	SourceMemory     Source = "memory"
	SourceDiscovery  Source = "discovery"
)

// Repository resolves curated profiles
type Repository interface {
	Resolve(name string) (*types.CompanyProfile, matching.Result, bool)
}

// Memory looks up previously discovered profiles
type Memory interface {
	Lookup(ctx context.Context, name string) (*types.DiscoveryRecord, error)
}

// Discoverer runs the discovery pipeline for an unknown company
type Discoverer interface {
	Discover(ctx context.Context, companyName, jobDescription string) discovery.Outcome
}

// Intelligence is the answer for one company lookup.
// Error is set only when no profile could be produced.
type Intelligence struct {
	Company         string                `json:"company"`
	Profile         *types.CompanyProfile `json:"profile,omitempty"`
	Source          Source                `json:"source,omitempty"`
	MatchTier       matching.Tier         `json:"match_tier,omitempty"`
	MatchedKey      string                `json:"matched_key,omitempty"`
	Valid           bool                  `json:"valid"`
	RejectionReason string                `json:"rejection_reason,omitempty"`
	AuditTrail      []string              `json:"audit_trail,omitempty"`
	Warnings        []string              `json:"warnings,omitempty"`
	Error           string                `json:"error,omitempty"`
}

// Options configures a Service
type Options struct {
	Timeout time.Duration
	Logger  *zap.Logger
	Metrics *observability.Metrics
}

// Service is the single entry point for company intelligence
type Service struct {
	repo       Repository
	memory     Memory
	discoverer Discoverer
	timeout    time.Duration
	logger     *zap.Logger
	metrics    *observability.Metrics
	inflight   singleflight.Group
}

// New creates a Service. Any collaborator may be nil, which skips that stage.
func New(repo Repository, memory Memory, discoverer Discoverer, opts Options) *Service {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Service{
		repo:       repo,
		memory:     memory,
		discoverer: discoverer,
		timeout:    opts.Timeout,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
	}
}

// GetIntelligence returns the profile for a company. It never returns a Go error;
// failures are reported in Intelligence.Error and degraded results in Warnings.
func (s *Service) GetIntelligence(ctx context.Context, companyName, jobDescription string) Intelligence {
	name := strings.TrimSpace(companyName)
	jd := strings.TrimSpace(jobDescription)
	if name == "" {
		return Intelligence{Error: ErrEmptyName.Error()}
	}

	if intel, ok := s.fromRepository(name); ok {
		return intel
	}

	var warnings []string
	intel, ok, err := s.fromMemory(ctx, name)
	if err != nil {
		warnings = append(warnings, err.Error())
	}
	if ok {
		return intel
	}

	if s.discoverer == nil {
		s.metrics.ObserveLookup("miss")
		return Intelligence{Company: name, Warnings: warnings, Error: ErrNoDiscovery.Error()}
	}

	key := matching.Normalize(name) + "\x00" + jd
	v, _, shared := s.inflight.Do(key, func() (any, error) {
		return s.discover(ctx, name, jd), nil
	})
	if shared {
		s.logger.Debug("joined in-flight discovery", zap.String("company", name))
	}

	result := v.(Intelligence)
	result.Profile = result.Profile.Clone()
	result.AuditTrail = append([]string(nil), result.AuditTrail...)
	result.Warnings = append(warnings, result.Warnings...)
	return result
}

func (s *Service) fromRepository(name string) (Intelligence, bool) {
	if s.repo == nil {
		return Intelligence{}, false
	}
	profile, match, ok := s.repo.Resolve(name)
	if !ok {
		return Intelligence{}, false
	}

	s.metrics.ObserveLookup(string(SourceRepository))
	s.logger.Info("resolved from repository",
		zap.String("company", name),
		zap.String("key", match.Key),
		zap.String("tier", string(match.Tier)))
	return Intelligence{
		Company:    name,
		Profile:    profile,
		Source:     SourceRepository,
		MatchTier:  match.Tier,
		MatchedKey: match.Key,
		Valid:      true,
	}, true
}

func (s *Service) fromMemory(ctx context.Context, name string) (Intelligence, bool, error) {
	if s.memory == nil {
		return Intelligence{}, false, nil
	}
	rec, err := s.memory.Lookup(ctx, name)
	if err != nil {
		s.logger.Warn("discovery memory lookup failed", zap.String("company", name), zap.Error(err))
		return Intelligence{}, false, err
	}
	if rec == nil {
		return Intelligence{}, false, nil
	}

	s.metrics.ObserveLookup(string(SourceMemory))
	s.logger.Info("resolved from discovery memory",
		zap.String("company", name),
		zap.String("canonical", rec.CanonicalName))
	return Intelligence{
		Company:    name,
		Profile:    rec.Profile.Clone(),
		Source:     SourceMemory,
		MatchedKey: rec.CanonicalName,
		Valid:      true,
		AuditTrail: append([]string(nil), rec.AuditTrail...),
	}, true, nil
}

// discover runs the pipeline once for every caller joined on the same key
func (s *Service) discover(ctx context.Context, name, jd string) Intelligence {
	// a concurrent run may have persisted this company since the memory check
	if intel, ok, _ := s.fromMemory(ctx, name); ok {
		return intel
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	out := s.discoverer.Discover(ctx, name, jd)
	s.metrics.ObserveLookup(string(SourceDiscovery))
	s.logger.Info("resolved through discovery",
		zap.String("company", name),
		zap.Bool("valid", out.Valid),
		zap.Bool("synthetic", out.Synthetic),
		zap.Bool("persisted", out.Persisted),
		zap.Duration("elapsed", time.Since(start)))

	intel := Intelligence{
		Company:         name,
		Profile:         out.Profile,
		Source:          SourceDiscovery,
		Valid:           out.Valid,
		RejectionReason: out.RejectionReason,
		AuditTrail:      out.AuditTrail,
	}
	if out.Err != nil {
		intel.Warnings = append(intel.Warnings, out.Err.Error())
	}
	for _, incident := range out.Incidents {
		intel.Warnings = append(intel.Warnings, incident.Error())
	}
	if out.Profile == nil {
		intel.Error = fmt.Sprintf("discovery produced no profile for %q", name)
	}
	return intel
}
