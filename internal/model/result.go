// Package model defines the core domain models used throughout the application.
package model

import "time"

// Kind distinguishes the two workflows the service runs.
type Kind string

// Workflow kinds.
const (
	KindClassify Kind = "classify"
	KindRestore  Kind = "restore"
)

// Confidence is the coarse certainty level reported by the vision model.
type Confidence string

// Confidence levels.
const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// ResultStatus marks the lifecycle state of a stored result. Results are
// append-only; no code path transitions a result out of StatusGenerated.
type ResultStatus string

// Result statuses.
const (
	StatusGenerated ResultStatus = "generated"
)

// Result is one normalized classification or restoration outcome.
type Result struct {
	CreatedAt         time.Time
	Details           map[string]string
	ID                string
	Kind              Kind
	Category          string
	Confidence        Confidence
	Description       string
	RawResponse       string
	OriginalImagePath string
	RestoredImagePath string
	Status            ResultStatus
	Feedback          string
}

// ErrorRecord is the uniform failure payload returned to callers. It carries
// the same ID a successful result would have used so failed attempts remain
// traceable.
type ErrorRecord struct {
	ID      string `json:"id"`
	Message string `json:"error"`
	Hint    string `json:"hint,omitempty"`
}
