package main

import (
	"github.com/spf13/cobra"
)

var detailsCmd = &cobra.Command{
	Use:     "details <url>",
	Short:   "Print a repository's name, description, stars and forks",
	Example: `  repograde details https://github.com/octocat/Hello-World`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cleanup, err := buildAnalyzer(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		details, err := a.Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, details)
	},
}
