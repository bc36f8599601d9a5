package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/repograde/internal/errors"
	"github.com/rohankatakam/repograde/internal/github"
	"github.com/rohankatakam/repograde/internal/models"
	"github.com/rohankatakam/repograde/internal/output"
)

var analyzeFormat string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <owner/repo | url>",
	Short: "Grade one repository and print its report",
	Example: `  repograde analyze octocat/Hello-World
  repograde analyze https://github.com/octocat/Hello-World`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", output.FormatJSON, "output format: json, standard or quiet")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	formatter, err := output.NewFormatter(analyzeFormat)
	if err != nil {
		return errors.ValidationErrorf("%v", err)
	}

	id, err := parseTarget(args[0])
	if err != nil {
		return err
	}

	a, cleanup, err := buildAnalyzer(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := a.Analyze(cmd.Context(), id.Owner, id.Name)
	if err != nil {
		return err
	}
	return formatter.Format(report, cmd.OutOrStdout())
}

// parseTarget accepts owner/repo shorthand or anything ParseRepoURL takes
func parseTarget(arg string) (models.RepositoryID, error) {
	arg = strings.TrimSpace(arg)
	if !strings.Contains(arg, "://") && !strings.Contains(arg, "@") && strings.Count(arg, "/") == 1 {
		owner, name, _ := strings.Cut(arg, "/")
		id := models.RepositoryID{Owner: owner, Name: strings.TrimSuffix(name, ".git")}
		if err := id.Validate(); err != nil {
			return models.RepositoryID{}, errors.ValidationErrorf("expected owner/repo, got %q", arg)
		}
		return id, nil
	}
	return github.ParseRepoURL(arg)
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
