package prompt

import (
	"strings"
	"text/template"

	"github.com/rohankatakam/repograde/internal/models"
)

// CommitWindow is the commit fetch window named in the prompt. The commit
// count the model sees is capped by it.
const CommitWindow = 100

// MinReadmeLength and MinCommitCount are the thresholds below which the
// model is told to lower the score.
const (
	MinReadmeLength = 500
	MinCommitCount  = 10
)

const analysisTemplate = `You are an experienced open-source maintainer reviewing a GitHub repository.
Evaluate the repository from the statistics below.

REPOSITORY STATISTICS:
- Total Files: {{.FileCount}}
- README exists: {{.HasReadme}}
- README length: {{.ReadmeLength}} characters
- Recent Commits (last {{.Window}}): {{.CommitCount}}

RECENT COMMIT MESSAGES (newest first):
{{- if .Messages}}
{{- range $i, $m := .Messages}}
{{inc $i}}. {{$m}}
{{- end}}
{{- else}}
(no commits)
{{- end}}

OUTPUT REQUIREMENTS:
1. "score": an integer from 0 to 100. Give a lower score when the README length is below {{.MinReadme}} characters or the commit count is below {{.MinCommits}}.
2. "rating": one short descriptive label for the repository (for example "Promising", "Needs Work", "Excellent").
3. "summary": 3 to 4 sentences that name exactly one strength and exactly one area for improvement.
4. "roadmap": an array of exactly 3 objects, each with a "title" and an "explanation" of one sentence.

Respond with a single valid JSON object with exactly the keys "score", "rating", "summary" and "roadmap" and nothing else.
Do not wrap the JSON in markdown code fences and do not add any text before or after it.

Example shape:
{"score": 72, "rating": "Promising", "summary": "...", "roadmap": [{"title": "...", "explanation": "..."}, {"title": "...", "explanation": "..."}, {"title": "...", "explanation": "..."}]}
`

var analysisPrompt = template.Must(template.New("analysis").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(analysisTemplate))

type templateData struct {
	FileCount    int
	HasReadme    bool
	ReadmeLength int
	CommitCount  int
	Window       int
	MinReadme    int
	MinCommits   int
	Messages     []string
}

// Build renders the analysis instruction for a payload. Output depends only
// on the payload.
func Build(payload models.Payload) string {
	data := templateData{
		FileCount:    payload.FileCount,
		HasReadme:    payload.HasReadme,
		ReadmeLength: payload.ReadmeLength,
		CommitCount:  payload.CommitCount,
		Window:       CommitWindow,
		MinReadme:    MinReadmeLength,
		MinCommits:   MinCommitCount,
		Messages:     make([]string, 0, len(payload.CommitMessageSample)),
	}
	for _, msg := range payload.CommitMessageSample {
		data.Messages = append(data.Messages, singleLine(msg))
	}

	var sb strings.Builder
	// The template is parsed at init and only reads plain fields.
	if err := analysisPrompt.Execute(&sb, data); err != nil {
		panic("prompt: render analysis template: " + err.Error())
	}
	return sb.String()
}

// singleLine keeps each commit on its own numbered line
func singleLine(msg string) string {
	return strings.Join(strings.Fields(msg), " ")
}
