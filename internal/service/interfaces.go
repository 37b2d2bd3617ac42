// Package service defines the interfaces shared between the pipeline and its
// collaborators.
package service

import (
	"context"
	"time"

	"github.com/specimenworks/fieldlens/internal/model"
)

// ResultFilter defines filtering options for result queries.
type ResultFilter struct {
	Kind   model.Kind
	Limit  int
	Offset int
}

// Storage defines the contract for the persistence layer. A result is written
// at most once; there is no update or delete path.
type Storage interface {
	SaveResult(ctx context.Context, result *model.Result) error
	GetResult(ctx context.Context, id string) (*model.Result, error)
	ListResults(ctx context.Context, filter ResultFilter) ([]model.Result, error)
	Migrate(ctx context.Context) error
	Close() error
}

// ArtifactStore persists companion file artifacts (raw images, result JSON)
// keyed by result ID.
type ArtifactStore interface {
	Put(id, name string, data []byte) (string, error)
	Get(id, name string) ([]byte, error)
}

// RetryOptions configures retry behavior for external operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
