// Package parse converts semi-structured provider replies into normalized
// result fields. The parser is a best-effort heuristic: malformed lines are
// skipped, and missing well-known fields fall back to an explicit defaults
// table rather than failing.
package parse

import (
	"strings"

	"github.com/specimenworks/fieldlens/internal/model"
)

// Well-known field names produced by the prompt templates.
const (
	FieldCategory    = "Main Category"
	FieldConfidence  = "Confidence"
	FieldDescription = "Description"
)

// Defaults is the policy table applied when a well-known field is absent
// from the provider's reply.
var Defaults = map[string]string{
	FieldCategory:    "Unclassified",
	FieldConfidence:  string(model.ConfidenceLow),
	FieldDescription: "No description provided",
}

// Fields holds the normalized output of one parsed reply.
type Fields struct {
	Details     map[string]string
	Raw         string
	Category    string
	Confidence  model.Confidence
	Description string
}

// Reply parses a line-oriented "- Key: Value" text block. Every parseable
// line lands in Details; the well-known fields are extracted with defaults
// applied. The untouched raw reply is retained for auditability.
func Reply(content string) Fields {
	details := make(map[string]string)

	for _, line := range strings.Split(strings.TrimSpace(content), "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimPrefix(strings.TrimSpace(key), "- ")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" {
			continue
		}
		details[key] = value
	}

	return Fields{
		Details:     details,
		Raw:         content,
		Category:    lookup(details, FieldCategory),
		Confidence:  normalizeConfidence(lookup(details, FieldConfidence)),
		Description: lookup(details, FieldDescription),
	}
}

func lookup(details map[string]string, field string) string {
	if v, ok := details[field]; ok && v != "" {
		return v
	}
	return Defaults[field]
}

// normalizeConfidence maps free-text confidence onto the coarse enum,
// defaulting to Low for anything unrecognized.
func normalizeConfidence(v string) model.Confidence {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "high":
		return model.ConfidenceHigh
	case "medium":
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}
