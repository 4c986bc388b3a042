// Package observability provides formatted output for verbose CLI mode and
// Prometheus metrics for the discovery pipeline.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/interview-intel/internal/matching"
	"github.com/jonathan/interview-intel/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintMatch outputs which curated entry a name resolved to and through which tier.
func (p *Printer) PrintMatch(name string, result matching.Result, found bool) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Input:    %s\n", name))
	sb.WriteString(fmt.Sprintf("Normal:   %s\n", matching.Normalize(name)))
	if !found {
		sb.WriteString("Result:   no curated match")
		p.printBox("REPOSITORY LOOKUP", sb.String())
		return
	}
	sb.WriteString(fmt.Sprintf("Matched:  %s\n", result.Key))
	sb.WriteString(fmt.Sprintf("Tier:     %s\n", result.Tier))
	sb.WriteString(fmt.Sprintf("Score:    %.2f", result.Score))
	p.printBox("REPOSITORY LOOKUP", sb.String())
}

// PrintProfile outputs a human-readable summary of an interview intelligence profile.
func (p *Printer) PrintProfile(profile *types.CompanyProfile) {
	if profile == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Company:    %s\n", profile.Name))
	sb.WriteString(fmt.Sprintf("Industry:   %s\n", profile.Industry))
	sb.WriteString(fmt.Sprintf("Size:       %s\n", profile.Size))
	sb.WriteString(fmt.Sprintf("Difficulty: %s\n", profile.DifficultyLevel))
	sb.WriteString(fmt.Sprintf("Duration:   %s\n", profile.ProcessDuration))
	sb.WriteString(fmt.Sprintf("Rounds:     %s\n", profile.InterviewCount))
	confidence := fmt.Sprintf("Confidence: %d/100", profile.ConfidenceScore)
	if profile.IsSynthetic {
		confidence += " (synthetic)"
	}
	sb.WriteString(confidence + "\n")
	sb.WriteString("\n")

	names := profile.RoundNames()
	if len(names) > 0 {
		sb.WriteString("Interview Rounds:\n")
		for i, name := range names {
			sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, name))
			if focus := profile.InterviewRounds[name].Focus; focus != "" {
				sb.WriteString(fmt.Sprintf("     %s\n", focus))
			}
		}
		sb.WriteString("\n")
	}

	writeList(&sb, "Values:", profile.CulturalValues, 3)
	writeList(&sb, "Red Flags:", profile.RedFlags, 3)

	if len(profile.Citations) > 0 {
		sb.WriteString("Sources:\n")
		count := min(len(profile.Citations), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", profile.Citations[i].Title))
		}
		if len(profile.Citations) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(profile.Citations)-maxItemsToShow))
		}
	}

	p.printBox("INTERVIEW INTELLIGENCE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintAuditTrail outputs the accept/reject decisions recorded during discovery.
func (p *Printer) PrintAuditTrail(trail []string) {
	if len(trail) == 0 {
		return
	}

	var sb strings.Builder
	for i, entry := range trail {
		sb.WriteString(entry)
		if i < len(trail)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox(fmt.Sprintf("AUDIT TRAIL (%d entries)", len(trail)), sb.String())
}

// PrintVerdict outputs whether the profile passed validation.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintVerdict(valid bool, reason string) {
	if valid {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "✅ PROFILE VALIDATED")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString("⚠ Returned unvalidated\n")
	for _, part := range strings.Split(reason, "; ") {
		sb.WriteString(fmt.Sprintf("  %s\n", part))
	}
	p.printBox("VALIDATION FAILED", strings.TrimSuffix(sb.String(), "\n"))
}

func writeList(sb *strings.Builder, title string, items []string, limit int) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(title + "\n")
	count := min(len(items), limit)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s\n", items[i]))
	}
	if len(items) > limit {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-limit))
	}
	sb.WriteString("\n")
}

// truncate shortens s to at most n runes, marking the cut with "..."
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
