package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var contextCmd = &cobra.Command{
	Use:   "context <company>",
	Short: "Print interviewer prompt context for one round",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runContext,
}

var contextRound string

func init() {
	contextCmd.Flags().StringVarP(&contextRound, "round", "r", "", "Interview round, e.g. technical or behavioral (required)")
	if err := contextCmd.MarkFlagRequired("round"); err != nil {
		panic(fmt.Sprintf("failed to mark round flag as required: %v", err))
	}
	rootCmd.AddCommand(contextCmd)
}

func runContext(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), discoveryOff)
	if err != nil {
		return err
	}
	defer a.Close()

	_, err = fmt.Fprintln(cmd.OutOrStdout(), a.repo.InterviewContext(strings.Join(args, " "), contextRound))
	return err
}
