package discovery

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/interview-intel/internal/llm"
	"github.com/jonathan/interview-intel/internal/observability"
	"github.com/jonathan/interview-intel/internal/search"
	"github.com/jonathan/interview-intel/internal/types"
)

// Defaults for Options
const (
	DefaultMaxIterations       = 2
	DefaultSyntheticConfidence = 15
	DefaultMaxResults          = 8
	DefaultRecency             = 365 * 24 * time.Hour
)

// Outcome labels recorded in metrics
const (
	OutcomeApproved  = "approved"
	OutcomeSynthetic = "synthetic"
	OutcomeExhausted = "exhausted"
	OutcomeAborted   = "aborted"
)

// Recorder persists validated discoveries
type Recorder interface {
	Save(ctx context.Context, rec types.DiscoveryRecord) (bool, error)
}

// Deps are the collaborators the pipeline is built from
type Deps struct {
	LLM      llm.Client
	Search   search.Provider
	Recorder Recorder
	Logger   *zap.Logger
	Metrics  *observability.Metrics
}

// Options tunes the pipeline
type Options struct {
	MaxIterations       int
	SyntheticConfidence int
	MaxResults          int
	Recency             time.Duration
	Now                 func() time.Time
}

func (o Options) withDefaults() Options {
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.SyntheticConfidence <= 0 {
		o.SyntheticConfidence = DefaultSyntheticConfidence
	}
	o.SyntheticConfidence = types.ClampConfidence(o.SyntheticConfidence, true)
	if o.MaxResults <= 0 {
		o.MaxResults = DefaultMaxResults
	}
	if o.Recency <= 0 {
		o.Recency = DefaultRecency
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Outcome is the result of one pipeline invocation
type Outcome struct {
	Profile         *types.CompanyProfile
	Valid           bool
	RejectionReason string
	Synthetic       bool
	AuditTrail      []string
	Iterations      int
	Persisted       bool
	// Err is set when the profile is a best effort: validation exhausted or the run aborted
	Err       error
	Incidents []error
}

// Orchestrator runs Router, Researcher, Auditor, Architect and Critic in order,
// looping Architect and Critic until approval or the iteration bound.
type Orchestrator struct {
	router     *Router
	researcher *Researcher
	auditor    *Auditor
	architect  *Architect
	critic     *Critic
	recorder   Recorder
	opts       Options
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// New creates an Orchestrator
func New(deps Deps, opts Options) *Orchestrator {
	opts = opts.withDefaults()
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		router:     NewRouter(deps.LLM, opts.Now, logger),
		researcher: NewResearcher(deps.Search, opts, logger),
		auditor:    NewAuditor(deps.LLM, opts, logger, deps.Metrics),
		architect:  NewArchitect(deps.LLM, logger),
		critic:     NewCritic(deps.LLM, logger, deps.Metrics),
		recorder:   deps.Recorder,
		opts:       opts,
		logger:     logger,
		metrics:    deps.Metrics,
	}
}

// MaxIterations returns the Architect and Critic loop bound
func (o *Orchestrator) MaxIterations() int {
	return o.opts.MaxIterations
}

// Discover resolves an unknown company through the full pipeline.
// It always returns a profile; Outcome.Err explains a best-effort result.
func (o *Orchestrator) Discover(ctx context.Context, companyName, jobDescription string) Outcome {
	s := NewState(companyName, jobDescription)
	o.logger.Info("starting discovery", zap.String("company", s.CompanyName), zap.Bool("has_jd", s.HasJobDescription()))

	for _, step := range []struct {
		name string
		run  func(context.Context, PipelineState) PipelineState
	}{
		{"router", o.router.Run},
		{"researcher", o.researcher.Run},
		{"auditor", o.auditor.Run},
	} {
		if err := ctx.Err(); err != nil {
			return o.abort(s, err)
		}
		s = o.stage(ctx, step.name, s, step.run)
	}

	for {
		if err := ctx.Err(); err != nil {
			return o.abort(s, err)
		}
		s = o.stage(ctx, "architect", s, o.architect.Run)
		s = o.stage(ctx, "critic", s, o.critic.Run)
		if err := ctx.Err(); err != nil {
			return o.abort(s, err)
		}
		if s.Valid {
			break
		}
		s = s.Builder().IncrementIteration().Build()
		if s.Iteration >= o.opts.MaxIterations {
			break
		}
	}

	return o.finish(ctx, s)
}

func (o *Orchestrator) stage(ctx context.Context, name string, s PipelineState, run func(context.Context, PipelineState) PipelineState) PipelineState {
	start := time.Now()
	next := run(ctx, s)
	elapsed := time.Since(start)
	o.metrics.ObserveStage(name, elapsed)
	o.logger.Info("stage complete",
		zap.String("company", s.CompanyName),
		zap.String("stage", name),
		zap.Int("iteration", next.Iteration),
		zap.Duration("elapsed", elapsed))
	return next
}

func (o *Orchestrator) finish(ctx context.Context, s PipelineState) Outcome {
	b := s.Builder()
	outcome := OutcomeApproved
	if !s.Valid {
		outcome = OutcomeExhausted
		b.WithError(&ValidationExhaustedError{Iterations: s.Iteration, Reason: s.RejectionReason}).
			Logf("ORCHESTRATOR: returning last draft unvalidated after %d iterations", s.Iteration)
	} else if s.Profile.IsSynthetic {
		outcome = OutcomeSynthetic
	}
	s = b.Build()

	persisted := false
	if s.Valid && !s.Fallback && !s.Profile.IsSynthetic && o.recorder != nil {
		rec := types.NewDiscoveryRecord(s.CompanyName, *s.Profile, s.AuditTrail)
		inserted, err := o.recorder.Save(ctx, rec)
		if err != nil {
			o.logger.Warn("failed to persist discovery", zap.String("company", s.CompanyName), zap.Error(err))
			s = s.Builder().Incident(err).Build()
		}
		persisted = inserted
	}

	o.metrics.ObserveOutcome(outcome)
	o.logger.Info("discovery complete",
		zap.String("company", s.CompanyName),
		zap.String("outcome", outcome),
		zap.Int("confidence", s.Profile.ConfidenceScore),
		zap.Int("iteration", s.Iteration),
		zap.Bool("persisted", persisted))
	return toOutcome(s, persisted)
}

// abort returns a synthetic best effort when the caller's context ends
func (o *Orchestrator) abort(s PipelineState, err error) Outcome {
	o.logger.Warn("discovery aborted", zap.String("company", s.CompanyName), zap.Error(err))
	o.metrics.ObserveOutcome(OutcomeAborted)

	reason := fmt.Sprintf("pipeline aborted: %v", err)
	b := s.Builder()
	b.WithResearch(s.RawEvidence, true, o.opts.SyntheticConfidence)
	s = b.Build()
	return toOutcome(s.Builder().
		WithDraft(SyntheticProfile(s)).
		WithVerdict(false, reason).
		WithError(err).
		Logf("ORCHESTRATOR: %s", reason).
		Build(), false)
}

func toOutcome(s PipelineState, persisted bool) Outcome {
	return Outcome{
		Profile:         s.Profile,
		Valid:           s.Valid,
		RejectionReason: s.RejectionReason,
		Synthetic:       s.Profile != nil && s.Profile.IsSynthetic,
		AuditTrail:      s.AuditTrail,
		Iterations:      s.Iteration,
		Persisted:       persisted,
		Err:             s.Err,
		Incidents:       s.Incidents,
	}
}
