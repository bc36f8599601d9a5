package models

import (
	"fmt"
	"strings"

	"github.com/rohankatakam/repograde/internal/errors"
)

// RepositoryID addresses a repository on the host
type RepositoryID struct {
	Owner string `json:"owner"`
	Name  string `json:"repo"`
}

// Validate checks that both owner and name are set
func (id RepositoryID) Validate() error {
	if strings.TrimSpace(id.Owner) == "" || strings.TrimSpace(id.Name) == "" {
		return errors.ValidationErrorf("owner and repository name are required")
	}
	return nil
}

// String returns owner/name
func (id RepositoryID) String() string {
	return fmt.Sprintf("%s/%s", id.Owner, id.Name)
}

// EntryKind distinguishes files from directories in a tree listing
type EntryKind int

const (
	EntryFile EntryKind = iota
	EntryDirectory
)

func (k EntryKind) String() string {
	if k == EntryDirectory {
		return "directory"
	}
	return "file"
}

// TreeEntry is one path of a recursive tree listing
type TreeEntry struct {
	Path string    `json:"path"`
	Kind EntryKind `json:"kind"`
}

// CommitRecord keeps only the commit message; author, date and sha are dropped
type CommitRecord struct {
	Message string `json:"message"`
}

// FileContent is the result of a raw file fetch. The zero value is absent.
type FileContent struct {
	text    string
	present bool
}

// Present wraps fetched file text
func Present(text string) FileContent {
	return FileContent{text: text, present: true}
}

// Absent represents a file that does not exist at the requested path
func Absent() FileContent {
	return FileContent{}
}

// Text returns the content and whether the file exists
func (c FileContent) Text() (string, bool) {
	return c.text, c.present
}

// IsPresent reports whether the file exists
func (c FileContent) IsPresent() bool {
	return c.present
}

// Payload is the bounded analysis input handed to the prompt builder.
//
// CommitCount is the number of commits retrieved, capped by the fetch window,
// not the repository's total commit count.
type Payload struct {
	FileCount           int      `json:"fileCount"`
	HasReadme           bool     `json:"hasReadme"`
	ReadmeLength        int      `json:"readmeLength"`
	CommitCount         int      `json:"commitCount"`
	CommitMessageSample []string `json:"commitMessageSample"`
}

// RoadmapItem is one suggested next step
type RoadmapItem struct {
	Title       string `json:"title"`
	Explanation string `json:"explanation"`
}

// Report is the validated model evaluation
type Report struct {
	Score   int           `json:"score"`
	Rating  string        `json:"rating"`
	Summary string        `json:"summary"`
	Roadmap []RoadmapItem `json:"roadmap"`
}

// RepositoryDetails is the basic metadata shown before analysis
type RepositoryDetails struct {
	Name        string `json:"name"`
	FullName    string `json:"fullName"`
	Description string `json:"description"`
	Stars       int    `json:"stars"`
	Forks       int    `json:"forks"`
	URL         string `json:"url"`
}
