package validation

import (
	"fmt"
	"math"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/rohankatakam/repograde/internal/errors"
	"github.com/rohankatakam/repograde/internal/models"
)

// RoadmapLength is the exact number of roadmap items a report must carry
const RoadmapLength = 3

const fence = "```"

// StripFences removes surrounding whitespace and an optional markdown code
// fence (with or without a language tag) around a completion.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, fence) {
		s = strings.TrimLeftFunc(s[len(fence):], isTagRune)
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, fence)
	return strings.TrimSpace(s)
}

// isTagRune matches language tags such as json, JSON or json5. A JSON
// document can never start with one of these.
func isTagRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_' || r == '+'
}

// ParseReport validates a raw model completion against the report schema.
// Every violation is returned as a KindMalformedOutput error.
func ParseReport(raw string) (models.Report, error) {
	text := StripFences(raw)
	if text == "" {
		return models.Report{}, errors.MalformedOutputf("empty completion")
	}
	if !gjson.Valid(text) {
		return models.Report{}, errors.MalformedOutputf("completion is not valid JSON")
	}

	root := gjson.Parse(text)
	if !root.IsObject() {
		return models.Report{}, errors.MalformedOutputf("expected a JSON object, got %s", root.Type)
	}

	score, err := parseScore(root.Get("score"))
	if err != nil {
		return models.Report{}, err
	}
	rating, err := requireString(root, "rating")
	if err != nil {
		return models.Report{}, err
	}
	summary, err := requireString(root, "summary")
	if err != nil {
		return models.Report{}, err
	}
	roadmap, err := parseRoadmap(root.Get("roadmap"))
	if err != nil {
		return models.Report{}, err
	}

	return models.Report{
		Score:   score,
		Rating:  rating,
		Summary: summary,
		Roadmap: roadmap,
	}, nil
}

func parseScore(v gjson.Result) (int, error) {
	if !v.Exists() {
		return 0, errors.MalformedOutputf("missing key %q", "score")
	}
	if v.Type != gjson.Number {
		return 0, errors.MalformedOutputf("score must be a number, got %s", v.Type)
	}
	if v.Num != math.Trunc(v.Num) {
		return 0, errors.MalformedOutputf("score must be an integer, got %s", v.Raw)
	}
	if v.Num < 0 || v.Num > 100 {
		return 0, errors.MalformedOutputf("score %s outside [0,100]", v.Raw)
	}
	return int(v.Num), nil
}

func parseRoadmap(v gjson.Result) ([]models.RoadmapItem, error) {
	if !v.Exists() {
		return nil, errors.MalformedOutputf("missing key %q", "roadmap")
	}
	if !v.IsArray() {
		return nil, errors.MalformedOutputf("roadmap must be an array, got %s", v.Type)
	}

	entries := v.Array()
	if len(entries) != RoadmapLength {
		return nil, errors.MalformedOutputf("roadmap must have exactly %d items, got %d", RoadmapLength, len(entries))
	}

	items := make([]models.RoadmapItem, 0, RoadmapLength)
	for i, entry := range entries {
		if !entry.IsObject() {
			return nil, errors.MalformedOutputf("roadmap[%d] must be an object", i)
		}
		title, reason := stringField(entry, "title")
		if reason != "" {
			return nil, errors.MalformedOutputf("roadmap[%d]: %s", i, reason)
		}
		explanation, reason := stringField(entry, "explanation")
		if reason != "" {
			return nil, errors.MalformedOutputf("roadmap[%d]: %s", i, reason)
		}
		items = append(items, models.RoadmapItem{Title: title, Explanation: explanation})
	}
	return items, nil
}

func requireString(obj gjson.Result, key string) (string, error) {
	s, reason := stringField(obj, key)
	if reason != "" {
		return "", errors.MalformedOutputf("%s", reason)
	}
	return s, nil
}

// stringField returns the string at key, or a non-empty reason when the key
// is missing or holds another type.
func stringField(obj gjson.Result, key string) (string, string) {
	v := obj.Get(key)
	if !v.Exists() {
		return "", fmt.Sprintf("missing key %q", key)
	}
	if v.Type != gjson.String {
		return "", fmt.Sprintf("%s must be a string, got %s", key, v.Type)
	}
	return v.Str, ""
}
