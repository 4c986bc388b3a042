// Package memory persists profiles produced by the discovery pipeline and looks them up
// with a stricter identity policy than the curated repository.
package memory

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/interview-intel/internal/matching"
	"github.com/jonathan/interview-intel/internal/types"
)

// DefaultThreshold is the near-exact similarity required for a fuzzy memory hit
const DefaultThreshold = 0.97

// defaultMinLength disables fuzzy lookups for very short names
const defaultMinLength = 3

// Store is the append-only backing store for discovery records.
// Insert must not overwrite: it returns false when a record with the same
// normalized canonical name already exists.
type Store interface {
	List(ctx context.Context) ([]types.DiscoveryRecord, error)
	Insert(ctx context.Context, rec types.DiscoveryRecord) (bool, error)
	Close() error
}

// Options configures a Memory
type Options struct {
	// Threshold is the minimum similarity for a fuzzy hit, typically 0.95 to 0.98
	Threshold float64
	// MinLength is the shortest normalized name eligible for fuzzy matching
	MinLength int
	Logger    *zap.Logger
}

// Memory applies the lookup and save policy on top of a Store
type Memory struct {
	store     Store
	threshold float64
	minLength int
	logger    *zap.Logger
}

// New creates a Memory over store
func New(store Store, opts Options) *Memory {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.MinLength <= 0 {
		opts.MinLength = defaultMinLength
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Memory{
		store:     store,
		threshold: opts.Threshold,
		minLength: opts.MinLength,
		logger:    opts.Logger,
	}
}

// Threshold returns the configured fuzzy threshold
func (m *Memory) Threshold() float64 {
	return m.threshold
}

// Lookup returns the record matching name, or nil.
// A case-insensitive exact match on the canonical or original query name wins;
// otherwise the most similar name at or above the threshold is used.
func (m *Memory) Lookup(ctx context.Context, name string) (*types.DiscoveryRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	records, err := m.store.List(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "lookup", Message: "failed to list discovery records", Cause: err}
	}

	for i := range records {
		for _, n := range records[i].Names() {
			if strings.EqualFold(strings.TrimSpace(n), name) {
				return &records[i], nil
			}
		}
	}

	input := matching.Normalize(name)
	if matching.Length(input) < m.minLength {
		return nil, nil
	}

	candidates := buildCandidates(records)
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.normalized
	}
	idx, score := matching.BestMatch(input, names, m.threshold)
	if idx < 0 {
		return nil, nil
	}

	rec := &records[candidates[idx].record]
	m.logger.Debug("memory fuzzy hit",
		zap.String("company", name),
		zap.String("canonical", rec.CanonicalName),
		zap.Float64("score", score))
	return rec, nil
}

// Save appends rec unless it is synthetic or its canonical name is already stored.
// Returns whether a new record was written.
func (m *Memory) Save(ctx context.Context, rec types.DiscoveryRecord) (bool, error) {
	if rec.Profile.IsSynthetic {
		m.logger.Info("skipping save of synthetic profile", zap.String("company", rec.CanonicalName))
		return false, nil
	}
	if matching.Normalize(rec.CanonicalName) == "" {
		return false, &PersistenceError{Op: "save", Message: "record has no canonical name"}
	}

	inserted, err := m.store.Insert(ctx, rec)
	if err != nil {
		return false, &PersistenceError{Op: "save", Message: "failed to insert discovery record", Cause: err}
	}
	if !inserted {
		m.logger.Info("discovery record already exists", zap.String("company", rec.CanonicalName))
		return false, nil
	}

	m.logger.Info("saved discovery record",
		zap.String("company", rec.CanonicalName),
		zap.String("id", rec.ID.String()))
	return true, nil
}

// List returns every stored record in insertion order
func (m *Memory) List(ctx context.Context) ([]types.DiscoveryRecord, error) {
	records, err := m.store.List(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "list", Message: "failed to list discovery records", Cause: err}
	}
	return records, nil
}

// Close releases the backing store
func (m *Memory) Close() error {
	return m.store.Close()
}

type candidate struct {
	normalized string
	record     int
}

// buildCandidates lists every lookup name in alphabetical order so equal scores
// resolve to the alphabetically first name.
func buildCandidates(records []types.DiscoveryRecord) []candidate {
	var out []candidate
	for i := range records {
		seen := map[string]bool{}
		for _, n := range records[i].Names() {
			norm := matching.Normalize(n)
			if norm == "" || seen[norm] {
				continue
			}
			seen[norm] = true
			out = append(out, candidate{normalized: norm, record: i})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].normalized < out[j].normalized
	})
	return out
}

// sameCanonical reports whether two names collide under the unique-key rule
func sameCanonical(a, b string) bool {
	return matching.Normalize(a) == matching.Normalize(b)
}
