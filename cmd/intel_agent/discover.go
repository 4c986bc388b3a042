package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/interview-intel/internal/observability"
)

var discoverCmd = &cobra.Command{
	Use:   "discover <company>",
	Short: "Get interview intelligence for any company",
	Long: "Looks the company up in the curated repository and discovery memory, and runs the discovery " +
		"pipeline (route, research, audit, synthesize, validate) when neither knows it.",
	Args: cobra.MinimumNArgs(1),
	RunE: runDiscover,
}

var (
	discoverJD     string
	discoverJDFile string
	discoverJSON   bool
)

func init() {
	discoverCmd.Flags().StringVar(&discoverJD, "jd", "", "Job description text used to tailor the profile")
	discoverCmd.Flags().StringVar(&discoverJDFile, "jd-file", "", "Path to a file containing the job description")
	discoverCmd.Flags().BoolVar(&discoverJSON, "json", false, "Print the result as JSON")
	discoverCmd.MarkFlagsMutuallyExclusive("jd", "jd-file")
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	jd := discoverJD
	if discoverJDFile != "" {
		data, err := os.ReadFile(discoverJDFile)
		if err != nil {
			return fmt.Errorf("failed to read job description %s: %w", discoverJDFile, err)
		}
		jd = string(data)
	}

	a, err := newApp(cmd.Context(), discoveryOptional)
	if err != nil {
		return err
	}
	defer a.Close()

	result := a.intel.GetIntelligence(cmd.Context(), strings.Join(args, " "), jd)

	if discoverJSON {
		if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	} else {
		printer := observability.NewPrinter(cmd.OutOrStdout())
		printer.PrintProfile(result.Profile)
		printer.PrintAuditTrail(result.AuditTrail)
		printer.PrintVerdict(result.Valid, result.RejectionReason)
		for _, w := range result.Warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
		}
	}

	if result.Profile == nil {
		return fmt.Errorf("no intelligence for %q: %s", result.Company, result.Error)
	}
	return nil
}
