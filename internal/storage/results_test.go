package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specimenworks/fieldlens/internal/common"
	"github.com/specimenworks/fieldlens/internal/model"
	"github.com/specimenworks/fieldlens/internal/service"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

func testResult(id string) *model.Result {
	return &model.Result{
		ID:          id,
		Kind:        model.KindClassify,
		Category:    "Honeybee",
		Confidence:  model.ConfidenceHigh,
		Description: "A honeybee collecting pollen",
		Details: map[string]string{
			"Taxonomy": "Hymenoptera, Apidae, Apis mellifera",
		},
		RawResponse:       "- Main Category: Honeybee\n- Confidence: High",
		OriginalImagePath: "/data/" + id + "/original.jpg",
		Status:            model.StatusGenerated,
		CreatedAt:         time.Now().UTC().Truncate(time.Second),
	}
}

func TestSaveAndGetResult(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	want := testResult("res-001")
	require.NoError(t, store.SaveResult(ctx, want))

	got, err := store.GetResult(ctx, "res-001")
	require.NoError(t, err)

	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Kind, got.Kind)
	assert.Equal(t, want.Category, got.Category)
	assert.Equal(t, want.Confidence, got.Confidence)
	assert.Equal(t, want.Description, got.Description)
	assert.Equal(t, want.Details, got.Details)
	assert.Equal(t, want.RawResponse, got.RawResponse)
	assert.Equal(t, want.OriginalImagePath, got.OriginalImagePath)
	assert.Equal(t, want.Status, got.Status)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
}

func TestSaveResult_Validation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	tests := []struct {
		name    string
		result  *model.Result
		wantErr error
	}{
		{
			name:    "nil result",
			result:  nil,
			wantErr: ErrNilParameter,
		},
		{
			name:    "missing ID",
			result:  &model.Result{Kind: model.KindClassify},
			wantErr: ErrInvalidResult,
		},
		{
			name:    "missing kind",
			result:  &model.Result{ID: "res-x"},
			wantErr: ErrInvalidResult,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.SaveResult(ctx, tt.result)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSaveResult_Duplicate(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.SaveResult(ctx, testResult("res-dup")))

	err := store.SaveResult(ctx, testResult("res-dup"))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)
}

func TestSaveResult_DefaultsStatusAndTimestamp(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	result := testResult("res-defaults")
	result.Status = ""
	result.CreatedAt = time.Time{}

	require.NoError(t, store.SaveResult(ctx, result))

	got, err := store.GetResult(ctx, "res-defaults")
	require.NoError(t, err)
	assert.Equal(t, model.StatusGenerated, got.Status)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestGetResult_NotFound(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	_, err := store.GetResult(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListResults(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	for i := 0; i < 3; i++ {
		r := testResult(fmt.Sprintf("classify-%d", i))
		r.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.SaveResult(ctx, r))
	}
	for i := 0; i < 2; i++ {
		r := testResult(fmt.Sprintf("restore-%d", i))
		r.Kind = model.KindRestore
		r.Category = "Victorian terrace"
		r.RestoredImagePath = "/data/" + r.ID + "/restored.png"
		r.CreatedAt = base.Add(time.Duration(10+i) * time.Minute)
		require.NoError(t, store.SaveResult(ctx, r))
	}

	t.Run("all results newest first", func(t *testing.T) {
		results, err := store.ListResults(ctx, service.ResultFilter{})
		require.NoError(t, err)
		require.Len(t, results, 5)
		assert.Equal(t, "restore-1", results[0].ID)
		assert.Equal(t, "classify-0", results[4].ID)
	})

	t.Run("filter by kind", func(t *testing.T) {
		results, err := store.ListResults(ctx, service.ResultFilter{Kind: model.KindRestore})
		require.NoError(t, err)
		require.Len(t, results, 2)
		for _, r := range results {
			assert.Equal(t, model.KindRestore, r.Kind)
			assert.NotEmpty(t, r.RestoredImagePath)
		}
	})

	t.Run("limit and offset", func(t *testing.T) {
		results, err := store.ListResults(ctx, service.ResultFilter{Limit: 2, Offset: 1})
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "restore-0", results[0].ID)
		assert.Equal(t, "classify-2", results[1].ID)
	})

	t.Run("empty filter match", func(t *testing.T) {
		results, err := store.ListResults(ctx, service.ResultFilter{Kind: "unknown"})
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestMigrate_Idempotent(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	// createTestStorage already migrated once.
	require.NoError(t, store.Migrate(ctx))

	var version int
	err := store.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)
}
