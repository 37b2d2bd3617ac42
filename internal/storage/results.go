package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/specimenworks/fieldlens/internal/common"
	"github.com/specimenworks/fieldlens/internal/model"
	"github.com/specimenworks/fieldlens/internal/service"
)

// SaveResult writes one result row. Results are append-only; a second write
// with the same ID is rejected.
func (s *SQLiteStorage) SaveResult(ctx context.Context, result *model.Result) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateResult(result); err != nil {
		return err
	}

	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now().UTC()
	}
	if result.Status == "" {
		result.Status = model.StatusGenerated
	}

	details, err := json.Marshal(result.Details)
	if err != nil {
		return fmt.Errorf("failed to encode details: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO results (
			id, kind, category, confidence, description,
			additional_details, raw_response, original_path, restored_path,
			status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		result.ID,
		string(result.Kind),
		result.Category,
		string(result.Confidence),
		result.Description,
		string(details),
		result.RawResponse,
		result.OriginalImagePath,
		result.RestoredImagePath,
		string(result.Status),
		result.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: result %s", common.ErrDuplicateEntry, result.ID)
		}
		return fmt.Errorf("failed to save result: %w", err)
	}

	return nil
}

// GetResult loads one result by ID.
func (s *SQLiteStorage) GetResult(ctx context.Context, id string) (*model.Result, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, kind, category, confidence, description,
			additional_details, raw_response, original_path, restored_path,
			status, feedback, created_at
		FROM results WHERE id = ?
	`, id)

	result, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: result %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load result: %w", err)
	}

	return result, nil
}

// ListResults returns results newest-first, optionally filtered by kind.
func (s *SQLiteStorage) ListResults(ctx context.Context, filter service.ResultFilter) ([]model.Result, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, kind, category, confidence, description,
			additional_details, raw_response, original_path, restored_path,
			status, feedback, created_at
		FROM results`
	args := []any{}

	if filter.Kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, string(filter.Kind))
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []model.Result
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, *result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate results: %w", err)
	}

	return results, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResult(row rowScanner) (*model.Result, error) {
	var result model.Result
	var kind, confidence, status string
	var details, feedback sql.NullString

	err := row.Scan(
		&result.ID,
		&kind,
		&result.Category,
		&confidence,
		&result.Description,
		&details,
		&result.RawResponse,
		&result.OriginalImagePath,
		&result.RestoredImagePath,
		&status,
		&feedback,
		&result.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	result.Kind = model.Kind(kind)
	result.Confidence = model.Confidence(confidence)
	result.Status = model.ResultStatus(status)
	result.Feedback = feedback.String

	if details.Valid && details.String != "" {
		if err := json.Unmarshal([]byte(details.String), &result.Details); err != nil {
			return nil, fmt.Errorf("corrupt details for result %s: %w", result.ID, err)
		}
	}

	return &result, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "PRIMARY KEY constraint failed"))
}
