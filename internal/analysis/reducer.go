package analysis

import (
	"unicode/utf8"

	"github.com/rohankatakam/repograde/internal/models"
)

// DefaultSampleSize is the number of commit messages handed to the prompt
const DefaultSampleSize = 20

// Reduce folds the raw remote responses into a bounded payload.
// It performs no I/O and never fails. A non-positive sampleSize falls back
// to DefaultSampleSize.
func Reduce(tree []models.TreeEntry, readme models.FileContent, commits []models.CommitRecord, sampleSize int) models.Payload {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}

	fileCount := 0
	for _, entry := range tree {
		if entry.Kind == models.EntryFile {
			fileCount++
		}
	}

	text, hasReadme := readme.Text()
	readmeLength := 0
	if hasReadme {
		readmeLength = utf8.RuneCountInString(text)
	}

	n := min(sampleSize, len(commits))
	sample := make([]string, 0, n)
	for _, c := range commits[:n] {
		sample = append(sample, c.Message)
	}

	return models.Payload{
		FileCount:           fileCount,
		HasReadme:           hasReadme,
		ReadmeLength:        readmeLength,
		CommitCount:         len(commits),
		CommitMessageSample: sample,
	}
}
