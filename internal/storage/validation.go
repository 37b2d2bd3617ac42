package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/specimenworks/fieldlens/internal/model"
)

// Validation errors.
var (
	ErrNilContext    = errors.New("context cannot be nil")
	ErrEmptyString   = errors.New("string parameter cannot be empty")
	ErrNilParameter  = errors.New("parameter cannot be nil")
	ErrInvalidResult = errors.New("invalid result")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateResult validates a result before it is written.
func validateResult(result *model.Result) error {
	if result == nil {
		return fmt.Errorf("%w: result", ErrNilParameter)
	}
	if result.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidResult)
	}
	if result.Kind == "" {
		return fmt.Errorf("%w: missing kind", ErrInvalidResult)
	}
	if result.Category == "" {
		return fmt.Errorf("%w: missing category", ErrInvalidResult)
	}
	return nil
}
