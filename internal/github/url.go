package github

import (
	"strings"

	"github.com/rohankatakam/repograde/internal/errors"
	"github.com/rohankatakam/repograde/internal/models"
)

// ParseRepoURL extracts owner/repo from a repository URL of the shape
// host/owner/repo[.git]. Accepted forms:
//
//	https://github.com/owner/repo
//	github.com/owner/repo.git
//	git@github.com:owner/repo.git
//	ssh://git@github.com/owner/repo
//
// Anything after the repo segment (/tree/main, ?tab=readme, #readme) is ignored.
func ParseRepoURL(remoteURL string) (models.RepositoryID, error) {
	s := strings.TrimSpace(remoteURL)
	if s == "" {
		return models.RepositoryID{}, errors.ValidationErrorf("repository url is required")
	}

	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}

	// SSH shorthand: git@host:owner/repo
	if at := strings.Index(s, "@"); at >= 0 && !strings.Contains(s, "://") {
		if colon := strings.Index(s[at:], ":"); colon >= 0 {
			s = s[:at+colon] + "/" + s[at+colon+1:]
		}
	}

	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}

	parts := strings.Split(strings.Trim(s, "/"), "/")
	if len(parts) < 3 {
		return models.RepositoryID{}, errors.ValidationErrorf("unrecognized repository url %q: want host/owner/repo", remoteURL)
	}

	host := parts[0]
	if at := strings.LastIndex(host, "@"); at >= 0 {
		host = host[at+1:]
	}
	owner := parts[1]
	name := strings.TrimSuffix(parts[2], ".git")
	if host == "" || owner == "" || name == "" {
		return models.RepositoryID{}, errors.ValidationErrorf("unrecognized repository url %q: want host/owner/repo", remoteURL)
	}

	return models.RepositoryID{Owner: owner, Name: name}, nil
}
