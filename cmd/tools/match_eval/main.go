// Command match_eval measures how the repository and memory matchers trade precision
// against recall over a sweep of similarity thresholds, using a labelled set of lookups.
//
// Usage:
//
//	go run ./cmd/tools/match_eval
//	go run ./cmd/tools/match_eval --cases cases.json --repository 0.75,0.80,0.85 --memory 0.95,0.97
//
// A false match (a lookup resolving to the wrong company) counts against precision;
// a missed true match counts against recall.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/interview-intel/internal/matching"
	"github.com/jonathan/interview-intel/internal/memory"
	"github.com/jonathan/interview-intel/internal/repository"
	"github.com/jonathan/interview-intel/internal/types"
)

var (
	casesPath            string
	repositoryThresholds []float64
	memoryThresholds     []float64
	showMisses           bool
)

var rootCmd = &cobra.Command{
	Use:          "match_eval",
	Short:        "Evaluate repository and memory matching thresholds",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&casesPath, "cases", "", "JSON file with labelled cases (built-in set when empty)")
	rootCmd.Flags().Float64SliceVar(&repositoryThresholds, "repository", []float64{0.70, 0.75, 0.80, 0.85, 0.90},
		"Repository fuzzy thresholds to evaluate")
	rootCmd.Flags().Float64SliceVar(&memoryThresholds, "memory", []float64{0.90, 0.93, 0.95, 0.97, 0.99},
		"Memory similarity thresholds to evaluate")
	rootCmd.Flags().BoolVar(&showMisses, "misses", false, "List every wrong or missed lookup")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	set := defaultCases()
	if casesPath != "" {
		var err error
		if set, err = loadCases(casesPath); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "=== Repository matcher (%d cases) ===\n", len(set.Repository))
	var repoScores []Score
	for _, threshold := range repositoryThresholds {
		cfg := matching.DefaultConfig()
		cfg.FuzzyThreshold = threshold
		repo, err := repository.New(repository.Options{Matching: cfg, Logger: zap.NewNop()})
		if err != nil {
			return fmt.Errorf("failed to load repository: %w", err)
		}
		repoScores = append(repoScores, evaluate(threshold, set.Repository, repositoryResolver(repo)))
	}
	printScores(out, repoScores)

	fmt.Fprintf(out, "\n=== Memory matcher (%d cases, %d stored) ===\n", len(set.Memory), len(set.Stored))
	store, cleanup, err := seedStore(cmd.Context(), set.Stored)
	if err != nil {
		return err
	}
	defer cleanup()

	var memScores []Score
	for _, threshold := range memoryThresholds {
		mem := memory.New(store, memory.Options{Threshold: threshold})
		memScores = append(memScores, evaluate(threshold, set.Memory, memoryResolver(cmd.Context(), mem)))
	}
	printScores(out, memScores)
	return nil
}

// Score tallies one threshold's results
type Score struct {
	Threshold float64
	// TP is a lookup resolved to the labelled company
	TP int
	// FP is a lookup resolved to a company it should not have
	FP int
	// FN is a labelled match that resolved to nothing or to the wrong company
	FN int
	// TN is an unlabelled lookup that correctly resolved to nothing
	TN     int
	Misses []string
}

// Precision is TP / (TP + FP), or 1 when nothing matched
func (s Score) Precision() float64 {
	if s.TP+s.FP == 0 {
		return 1
	}
	return float64(s.TP) / float64(s.TP+s.FP)
}

// Recall is TP / (TP + FN), or 1 when no case expects a match
func (s Score) Recall() float64 {
	if s.TP+s.FN == 0 {
		return 1
	}
	return float64(s.TP) / float64(s.TP+s.FN)
}

// resolver maps a name to the key it matched
type resolver func(name string) (string, bool)

func evaluate(threshold float64, cases []Case, resolve resolver) Score {
	score := Score{Threshold: threshold}
	for _, c := range cases {
		got, ok := resolve(c.Input)
		switch {
		case ok && got == c.Want:
			score.TP++
		case ok && c.Want == "":
			score.FP++
			score.Misses = append(score.Misses, fmt.Sprintf("%q matched %q, want no match", c.Input, got))
		case ok:
			score.FP++
			score.FN++
			score.Misses = append(score.Misses, fmt.Sprintf("%q matched %q, want %q", c.Input, got, c.Want))
		case c.Want != "":
			score.FN++
			score.Misses = append(score.Misses, fmt.Sprintf("%q matched nothing, want %q", c.Input, c.Want))
		default:
			score.TN++
		}
	}
	return score
}

func repositoryResolver(repo *repository.Repository) resolver {
	return func(name string) (string, bool) {
		_, result, ok := repo.Resolve(name)
		return result.Key, ok
	}
}

func memoryResolver(ctx context.Context, mem *memory.Memory) resolver {
	return func(name string) (string, bool) {
		rec, err := mem.Lookup(ctx, name)
		if err != nil || rec == nil {
			return "", false
		}
		return rec.CanonicalName, true
	}
}

// seedStore writes one approved record per name into a temporary file store
func seedStore(ctx context.Context, names []string) (memory.Store, func(), error) {
	dir, err := os.MkdirTemp("", "match_eval")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	store, err := memory.NewFileStore(filepath.Join(dir, "discoveries.json"))
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	for _, name := range names {
		profile := types.CompanyProfile{Name: name, ConfidenceScore: 70}
		if _, err := store.Insert(ctx, types.NewDiscoveryRecord(name, profile, nil)); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to seed %q: %w", name, err)
		}
	}
	return store, cleanup, nil
}

func printScores(out io.Writer, scores []Score) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "THRESHOLD\tPRECISION\tRECALL\tTP\tFP\tFN\tTN")
	for _, s := range scores {
		fmt.Fprintf(w, "%.2f\t%.3f\t%.3f\t%d\t%d\t%d\t%d\n",
			s.Threshold, s.Precision(), s.Recall(), s.TP, s.FP, s.FN, s.TN)
	}
	_ = w.Flush()

	if !showMisses {
		return
	}
	for _, s := range scores {
		if len(s.Misses) == 0 {
			continue
		}
		fmt.Fprintf(out, "\nthreshold %.2f:\n  %s\n", s.Threshold, strings.Join(s.Misses, "\n  "))
	}
}
