package github

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v57/github"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/rohankatakam/repograde/internal/config"
	"github.com/rohankatakam/repograde/internal/errors"
	"github.com/rohankatakam/repograde/internal/models"
)

// MaxCommitPage is the largest page the commits endpoint returns
const MaxCommitPage = 100

// Client wraps the GitHub API client with rate limiting. It keeps no state
// between calls besides the limiter.
type Client struct {
	client      *github.Client
	rateLimiter *rate.Limiter
	logger      logrus.FieldLogger
}

// NewClient creates a GitHub client from config. BaseURL points the client at
// a GitHub Enterprise API root (or a test server).
func NewClient(cfg config.GitHubConfig, logger logrus.FieldLogger) (*Client, error) {
	client := github.NewClient(nil)
	if cfg.Token != "" {
		client = client.WithAuthToken(cfg.Token)
	}

	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, errors.ConfigErrorf("invalid github base url %q: %v", cfg.BaseURL, err)
		}
		client.BaseURL = u
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	return &Client{
		client:      client,
		rateLimiter: rate.NewLimiter(limit, 1),
		logger:      logger.WithField("component", "github"),
	}, nil
}

// FetchDefaultBranch resolves the repository's default branch
func (c *Client) FetchDefaultBranch(ctx context.Context, id models.RepositoryID) (string, error) {
	repo, err := c.getRepository(ctx, id)
	if err != nil {
		return "", err
	}

	branch := repo.GetDefaultBranch()
	if branch == "" {
		return "", errors.RemoteAPIError(0, fmt.Sprintf("repository %s has no default branch", id), nil)
	}
	return branch, nil
}

// FetchDetails gets the basic repository metadata
func (c *Client) FetchDetails(ctx context.Context, id models.RepositoryID) (models.RepositoryDetails, error) {
	repo, err := c.getRepository(ctx, id)
	if err != nil {
		return models.RepositoryDetails{}, err
	}

	return models.RepositoryDetails{
		Name:        repo.GetName(),
		FullName:    repo.GetFullName(),
		Description: repo.GetDescription(),
		Stars:       repo.GetStargazersCount(),
		Forks:       repo.GetForksCount(),
		URL:         repo.GetHTMLURL(),
	}, nil
}

func (c *Client) getRepository(ctx context.Context, id models.RepositoryID) (*github.Repository, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, classify(err, "repository "+id.String())
	}

	repo, _, err := c.client.Repositories.Get(ctx, id.Owner, id.Name)
	if err != nil {
		return nil, classify(err, "repository "+id.String())
	}
	return repo, nil
}

// FetchTree lists every entry under branch recursively. Entries that are
// neither blobs nor trees (submodule commits) are skipped.
func (c *Client) FetchTree(ctx context.Context, id models.RepositoryID, branch string) ([]models.TreeEntry, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, classify(err, "tree "+branch)
	}

	tree, _, err := c.client.Git.GetTree(ctx, id.Owner, id.Name, branch, true)
	if err != nil {
		return nil, classify(err, fmt.Sprintf("tree %s of %s", branch, id))
	}

	if tree.GetTruncated() {
		c.logger.WithFields(logrus.Fields{
			"repo":    id.String(),
			"entries": len(tree.Entries),
		}).Warn("Tree listing truncated by GitHub")
	}

	entries := make([]models.TreeEntry, 0, len(tree.Entries))
	for _, entry := range tree.Entries {
		switch entry.GetType() {
		case "blob":
			entries = append(entries, models.TreeEntry{Path: entry.GetPath(), Kind: models.EntryFile})
		case "tree":
			entries = append(entries, models.TreeEntry{Path: entry.GetPath(), Kind: models.EntryDirectory})
		}
	}

	c.logger.WithFields(logrus.Fields{
		"repo":    id.String(),
		"branch":  branch,
		"entries": len(entries),
	}).Debug("Tree fetched")

	return entries, nil
}

// FetchFileContent returns the decoded file at path. A missing file, or a
// directory at path, is Absent rather than an error.
func (c *Client) FetchFileContent(ctx context.Context, id models.RepositoryID, path string) (models.FileContent, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return models.Absent(), classify(err, path)
	}

	file, _, _, err := c.client.Repositories.GetContents(ctx, id.Owner, id.Name, path, nil)
	if err != nil {
		if errors.IsKind(classify(err, path), errors.KindRemoteNotFound) {
			return models.Absent(), nil
		}
		return models.Absent(), classify(err, fmt.Sprintf("%s in %s", path, id))
	}
	if file == nil {
		return models.Absent(), nil
	}

	text, err := file.GetContent()
	if err != nil {
		return models.Absent(), errors.RemoteAPIError(0, fmt.Sprintf("decode %s", path), err)
	}
	return models.Present(text), nil
}

// FetchRecentCommits returns at most limit commits from the default branch,
// newest first. limit is clamped to [1, MaxCommitPage]; only one page is read.
func (c *Client) FetchRecentCommits(ctx context.Context, id models.RepositoryID, limit int) ([]models.CommitRecord, error) {
	limit = max(1, min(limit, MaxCommitPage))

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, classify(err, "commits")
	}

	opts := &github.CommitsListOptions{
		ListOptions: github.ListOptions{PerPage: limit, Page: 1},
	}
	commits, _, err := c.client.Repositories.ListCommits(ctx, id.Owner, id.Name, opts)
	if err != nil {
		// GitHub answers 409 for a repository without commits
		var er *github.ErrorResponse
		if stderrors.As(err, &er) && er.Response != nil && er.Response.StatusCode == http.StatusConflict {
			return []models.CommitRecord{}, nil
		}
		return nil, classify(err, "commits of "+id.String())
	}

	records := make([]models.CommitRecord, 0, min(len(commits), limit))
	for _, commit := range commits {
		if len(records) == limit {
			break
		}
		records = append(records, models.CommitRecord{Message: commit.GetCommit().GetMessage()})
	}
	return records, nil
}

// classify maps go-github failures onto the remote error kinds
func classify(err error, resource string) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.RemoteAPIError(http.StatusGatewayTimeout, "repository host request timed out", err)
	}
	if stderrors.Is(err, context.Canceled) {
		return errors.RemoteAPIError(0, "repository host request canceled", err)
	}

	var rateErr *github.RateLimitError
	if stderrors.As(err, &rateErr) {
		return errors.RemoteAPIError(statusOf(rateErr.Response, http.StatusForbidden), "GitHub rate limit exceeded", err)
	}
	var abuseErr *github.AbuseRateLimitError
	if stderrors.As(err, &abuseErr) {
		return errors.RemoteAPIError(statusOf(abuseErr.Response, http.StatusForbidden), "GitHub secondary rate limit exceeded", err)
	}

	var er *github.ErrorResponse
	if stderrors.As(err, &er) {
		status := statusOf(er.Response, 0)
		switch status {
		case http.StatusNotFound:
			return errors.RemoteNotFound(resource, err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return errors.RemoteUnauthorized(err)
		default:
			msg := er.Message
			if msg == "" {
				msg = http.StatusText(status)
			}
			return errors.RemoteAPIError(status, msg, err)
		}
	}

	return errors.RemoteAPIError(0, "repository host request failed", err)
}

func statusOf(resp *http.Response, fallback int) int {
	if resp == nil {
		return fallback
	}
	return resp.StatusCode
}
