package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/interview-intel/internal/schemas"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a JSON file against an embedded schema",
	Long:  "Validates a company profile (default) or a curated profiles file against its embedded JSON schema.",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

var validateSchema string

func init() {
	validateCmd.Flags().StringVarP(&validateSchema, "schema", "s", string(schemas.CompanyProfile),
		"Schema name: company_profile or curated_profiles")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	if err := schemas.ValidateFile(schemas.Name(validateSchema), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ %s is a valid %s\n", args[0], validateSchema)
	return nil
}
