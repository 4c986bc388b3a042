package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var companiesCmd = &cobra.Command{
	Use:   "companies",
	Short: "List curated and discovered companies",
	Args:  cobra.NoArgs,
	RunE:  runCompanies,
}

var companiesDiscovered bool

func init() {
	companiesCmd.Flags().BoolVar(&companiesDiscovered, "discovered", false, "Also list companies stored in discovery memory")
	rootCmd.AddCommand(companiesCmd)
}

func runCompanies(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context(), discoveryOff)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Curated companies (%d):\n", a.repo.Count())
	for _, name := range a.repo.Companies() {
		fmt.Fprintf(out, "  %s\n", name)
	}

	if !companiesDiscovered {
		return nil
	}

	records, err := a.memory.List(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nDiscovered companies (%d):\n", len(records))
	for _, rec := range records {
		fmt.Fprintf(out, "  %s (queried as %q, %s)\n", rec.CanonicalName, rec.QueryName, rec.CreatedAt.Format("2006-01-02"))
	}
	return nil
}
