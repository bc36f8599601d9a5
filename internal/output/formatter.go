package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rohankatakam/repograde/internal/models"
)

// Formatter renders a report for the terminal
type Formatter interface {
	Format(report models.Report, w io.Writer) error
}

// Format names accepted by --format
const (
	FormatQuiet    = "quiet"    // one line: score and rating
	FormatStandard = "standard" // summary and roadmap
	FormatJSON     = "json"     // the report as returned by the API
)

// NewFormatter returns the formatter for name. An empty name means standard.
func NewFormatter(name string) (Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case FormatQuiet:
		return &QuietFormatter{}, nil
	case FormatStandard, "":
		return &StandardFormatter{}, nil
	case FormatJSON:
		return &JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want quiet, standard or json)", name)
	}
}

// QuietFormatter prints "72/100 Solid"
type QuietFormatter struct{}

func (f *QuietFormatter) Format(report models.Report, w io.Writer) error {
	_, err := fmt.Fprintf(w, "%d/100 %s\n", report.Score, report.Rating)
	return err
}

// StandardFormatter prints the score, the summary and the numbered roadmap
type StandardFormatter struct{}

func (f *StandardFormatter) Format(report models.Report, w io.Writer) error {
	fmt.Fprintf(w, "Score: %d/100 (%s)\n\n", report.Score, report.Rating)
	fmt.Fprintf(w, "%s\n", report.Summary)

	if len(report.Roadmap) > 0 {
		fmt.Fprintf(w, "\nRoadmap:\n")
		for i, item := range report.Roadmap {
			fmt.Fprintf(w, "%d. %s\n", i+1, item.Title)
			fmt.Fprintf(w, "   %s\n", item.Explanation)
		}
	}
	return nil
}

// JSONFormatter prints indented JSON
type JSONFormatter struct{}

func (f *JSONFormatter) Format(report models.Report, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
