package analyzer

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rohankatakam/repograde/internal/analysis"
	"github.com/rohankatakam/repograde/internal/config"
	"github.com/rohankatakam/repograde/internal/github"
	"github.com/rohankatakam/repograde/internal/llm"
	"github.com/rohankatakam/repograde/internal/models"
	"github.com/rohankatakam/repograde/internal/prompt"
	"github.com/rohankatakam/repograde/internal/validation"
)

// ReadmePath is the only README location considered
const ReadmePath = "README.md"

// Source is the repository host as seen by the analyzer. *github.Client
// satisfies it.
type Source interface {
	FetchDefaultBranch(ctx context.Context, id models.RepositoryID) (string, error)
	FetchTree(ctx context.Context, id models.RepositoryID, branch string) ([]models.TreeEntry, error)
	FetchFileContent(ctx context.Context, id models.RepositoryID, path string) (models.FileContent, error)
	FetchRecentCommits(ctx context.Context, id models.RepositoryID, limit int) ([]models.CommitRecord, error)
	FetchDetails(ctx context.Context, id models.RepositoryID) (models.RepositoryDetails, error)
}

// Stage names used in the analysis trace
const (
	StageBranch  = "branch"
	StageTree    = "tree"
	StageReadme  = "readme"
	StageCommits = "commits"
	StageReduce  = "reduce"
	StagePrompt  = "prompt"
	StageInvoke  = "invoke"
	StageParse   = "parse"
)

// Analyzer runs the fetch, reduce, prompt, generate and parse pipeline for
// one repository per call. It holds no per-request state, so one Analyzer
// serves concurrent requests.
type Analyzer struct {
	source Source
	model  llm.Model
	limits config.LimitsConfig
	logger logrus.FieldLogger
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithLimits overrides the default limits. Zero fields keep their defaults.
func WithLimits(limits config.LimitsConfig) Option {
	return func(a *Analyzer) {
		if limits.CommitLimit > 0 {
			a.limits.CommitLimit = limits.CommitLimit
		}
		if limits.SampleSize > 0 {
			a.limits.SampleSize = limits.SampleSize
		}
		if limits.CallTimeout > 0 {
			a.limits.CallTimeout = limits.CallTimeout
		}
		if limits.RequestTimeout > 0 {
			a.limits.RequestTimeout = limits.RequestTimeout
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger logrus.FieldLogger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates an Analyzer over source and model
func New(source Source, model llm.Model, opts ...Option) *Analyzer {
	logger := logrus.New()
	a := &Analyzer{
		source: source,
		model:  model,
		limits: config.Default().Limits,
		logger: logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.WithField("component", "analyzer")
	return a
}

// Analyze grades owner/repo. The three fetches run concurrently; the first
// failure cancels the others and is returned as is, never a partial report.
// Everything after the fetches runs in order, with a single model call.
func (a *Analyzer) Analyze(ctx context.Context, owner, repo string) (models.Report, error) {
	id := models.RepositoryID{Owner: owner, Name: repo}
	if err := id.Validate(); err != nil {
		return models.Report{}, err
	}

	start := time.Now()
	log := a.logger.WithField("repo", id.String())
	log.Info("Starting repository analysis")

	ctx, cancel := context.WithTimeout(ctx, a.limits.RequestTimeout)
	defer cancel()

	var (
		tree    []models.TreeEntry
		readme  = models.Absent()
		commits []models.CommitRecord
	)

	g, gctx := errgroup.WithContext(ctx)

	// The tree needs the branch, so those two share a goroutine
	g.Go(func() error {
		var branch string
		err := a.stage(gctx, log, StageBranch, func(ctx context.Context) (err error) {
			branch, err = a.source.FetchDefaultBranch(ctx, id)
			return err
		})
		if err != nil {
			return err
		}
		return a.stage(gctx, log.WithField("branch", branch), StageTree, func(ctx context.Context) (err error) {
			tree, err = a.source.FetchTree(ctx, id, branch)
			return err
		})
	})

	g.Go(func() error {
		return a.stage(gctx, log, StageReadme, func(ctx context.Context) (err error) {
			readme, err = a.source.FetchFileContent(ctx, id, ReadmePath)
			return err
		})
	})

	g.Go(func() error {
		return a.stage(gctx, log, StageCommits, func(ctx context.Context) (err error) {
			commits, err = a.source.FetchRecentCommits(ctx, id, a.limits.CommitLimit)
			return err
		})
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Warn("Repository fetch failed")
		return models.Report{}, err
	}

	payload := analysis.Reduce(tree, readme, commits, a.limits.SampleSize)
	log.WithFields(logrus.Fields{
		"stage":        StageReduce,
		"file_count":   payload.FileCount,
		"has_readme":   payload.HasReadme,
		"commit_count": payload.CommitCount,
	}).Debug("Payload reduced")

	text := prompt.Build(payload)
	log.WithFields(logrus.Fields{"stage": StagePrompt, "prompt_length": len(text)}).Debug("Prompt built")

	invokeStart := time.Now()
	raw, err := a.model.Generate(ctx, text)
	if err != nil {
		log.WithError(err).WithField("stage", StageInvoke).Warn("Model call failed")
		return models.Report{}, err
	}
	log.WithFields(logrus.Fields{
		"stage":           StageInvoke,
		"model":           a.model.Name(),
		"response_length": len(raw),
		"duration":        time.Since(invokeStart),
	}).Debug("Model responded")

	report, err := validation.ParseReport(raw)
	if err != nil {
		log.WithError(err).WithField("stage", StageParse).Warn("Model output rejected")
		return models.Report{}, err
	}

	log.WithFields(logrus.Fields{
		"score":    report.Score,
		"rating":   report.Rating,
		"duration": time.Since(start),
	}).Info("Repository analysis completed")

	return report, nil
}

// Resolve turns a repository URL into its display metadata
func (a *Analyzer) Resolve(ctx context.Context, remoteURL string) (models.RepositoryDetails, error) {
	id, err := github.ParseRepoURL(remoteURL)
	if err != nil {
		return models.RepositoryDetails{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, a.limits.CallTimeout)
	defer cancel()

	details, err := a.source.FetchDetails(ctx, id)
	if err != nil {
		a.logger.WithError(err).WithField("repo", id.String()).Warn("Repository lookup failed")
		return models.RepositoryDetails{}, err
	}
	return details, nil
}

// stage runs fn under the per-call timeout and logs its duration
func (a *Analyzer) stage(ctx context.Context, log logrus.FieldLogger, name string, fn func(context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, a.limits.CallTimeout)
	defer cancel()

	start := time.Now()
	err := fn(callCtx)

	fields := logrus.Fields{"stage": name, "duration": time.Since(start)}
	if err != nil {
		log.WithFields(fields).WithError(err).Debug("Stage failed")
		return err
	}
	log.WithFields(fields).Debug("Stage completed")
	return nil
}
