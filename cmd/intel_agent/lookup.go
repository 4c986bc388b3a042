package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/interview-intel/internal/observability"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <company>",
	Short: "Resolve a company against the curated repository",
	Long: "Resolves a company name against the curated profiles only and prints the match tier. " +
		"No web research is performed; use discover for unknown companies.",
	Args: cobra.MinimumNArgs(1),
	RunE: runLookup,
}

func init() {
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), discoveryOff)
	if err != nil {
		return err
	}
	defer a.Close()

	name := strings.Join(args, " ")
	printer := observability.NewPrinter(cmd.OutOrStdout())

	profile, result, found := a.repo.Resolve(name)
	printer.PrintMatch(name, result, found)
	if found {
		printer.PrintProfile(profile)
	}
	return nil
}
