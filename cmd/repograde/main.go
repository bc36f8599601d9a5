package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rohankatakam/repograde/internal/analyzer"
	"github.com/rohankatakam/repograde/internal/config"
	"github.com/rohankatakam/repograde/internal/errors"
	"github.com/rohankatakam/repograde/internal/github"
	"github.com/rohankatakam/repograde/internal/llm"
	"github.com/rohankatakam/repograde/internal/logging"
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	cfgFile string
	verbose bool
	logger  *logging.Logger
	cfg     *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.IsKind(err, errors.KindConfig) {
			fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "repograde",
	Short: "repograde - AI grading for GitHub repositories",
	Long: `repograde looks at a GitHub repository's file tree, README and recent
commits, asks a generative model to grade it, and returns a 0-100 score,
a rating, a short summary and a three step improvement roadmap.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}

		level := logging.ParseLevel(cfg.Log.Level)
		if verbose {
			level = logging.DEBUG
		}
		logger, err = logging.Initialize(logging.Config{
			Level:      level,
			OutputFile: cfg.Log.File,
			JSONFormat: cfg.Log.JSON,
		})
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .repograde/config.yaml or ~/.repograde/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.SetVersionTemplate(`repograde {{.Version}}
Build time: ` + BuildTime + `
Git commit: ` + GitCommit + `
`)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(detailsCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(configureCmd)
}

// buildAnalyzer wires the GitHub client, model and optional quota guard from
// the validated config. The returned cleanup releases the quota store.
func buildAnalyzer(ctx context.Context) (*analyzer.Analyzer, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	log := logger.Logrus()

	source, err := github.NewClient(cfg.GitHub, log)
	if err != nil {
		return nil, nil, err
	}

	model, err := llm.New(ctx, cfg.Model, logger.Slog())
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {}
	if cfg.Quota.RedisAddr != "" {
		limiter, err := llm.NewRateLimiter(ctx, cfg.Quota.RedisAddr, cfg.Quota.RPM, cfg.Quota.RPD)
		if err != nil {
			log.WithError(err).Warn("Quota store unavailable, model calls are not rate limited")
		} else {
			model = llm.Guard(model, limiter, logger.Slog())
			cleanup = func() { limiter.Close() }
		}
	}

	log.WithFields(logrus.Fields{
		"provider": cfg.Model.Provider,
		"model":    model.Name(),
	}).Debug("Analyzer ready")

	a := analyzer.New(source, model,
		analyzer.WithLimits(cfg.Limits),
		analyzer.WithLogger(log),
	)
	return a, cleanup, nil
}
