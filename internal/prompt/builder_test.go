package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rohankatakam/repograde/internal/models"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		name         string
		payload      models.Payload
		wantContains []string
	}{
		{
			name:    "small repository without readme",
			payload: models.Payload{FileCount: 5, HasReadme: false, CommitCount: 3, CommitMessageSample: []string{"init", "add cli", "fix typo"}},
			wantContains: []string{
				"Total Files: 5",
				"README exists: false",
				"README length: 0 characters",
				"Recent Commits (last 100): 3",
				"1. init",
				"2. add cli",
				"3. fix typo",
			},
		},
		{
			name:    "no commits",
			payload: models.Payload{FileCount: 0, HasReadme: true, ReadmeLength: 1200},
			wantContains: []string{
				"README exists: true",
				"README length: 1200 characters",
				"Recent Commits (last 100): 0",
				"(no commits)",
			},
		},
		{
			name:         "multiline commit message is collapsed",
			payload:      models.Payload{CommitCount: 1, CommitMessageSample: []string{"feat: parser\n\nlong body\nmore"}},
			wantContains: []string{"1. feat: parser long body more"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt := Build(tt.payload)

			for _, want := range tt.wantContains {
				if !strings.Contains(prompt, want) {
					t.Errorf("Build() missing expected substring %q", want)
				}
			}
		})
	}
}

func TestBuild_OutputContract(t *testing.T) {
	prompt := Build(models.Payload{})

	assert.Contains(t, prompt, "an integer from 0 to 100")
	assert.Contains(t, prompt, "below 500 characters")
	assert.Contains(t, prompt, "commit count is below 10")
	assert.Contains(t, prompt, "one short descriptive label")
	assert.Contains(t, prompt, "3 to 4 sentences")
	assert.Contains(t, prompt, "exactly one strength and exactly one area for improvement")
	assert.Contains(t, prompt, "exactly 3 objects")
	assert.Contains(t, prompt, `exactly the keys "score", "rating", "summary" and "roadmap"`)
	assert.Contains(t, prompt, "Do not wrap the JSON in markdown code fences")
}

func TestBuild_Deterministic(t *testing.T) {
	p := models.Payload{FileCount: 42, HasReadme: true, ReadmeLength: 900, CommitCount: 20, CommitMessageSample: []string{"a", "b"}}
	assert.Equal(t, Build(p), Build(p))
}
