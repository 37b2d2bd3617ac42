package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specimenworks/fieldlens/internal/common"
	"github.com/specimenworks/fieldlens/internal/model"
	"github.com/specimenworks/fieldlens/internal/pipeline"
	"github.com/specimenworks/fieldlens/internal/service"
)

type stubPipeline struct {
	result  *model.Result
	err     error
	calls   int
	gotOpts map[string]bool
}

func (s *stubPipeline) Classify(_ context.Context, _ string, options map[string]bool) (*model.Result, error) {
	s.calls++
	s.gotOpts = options
	return s.result, s.err
}

func (s *stubPipeline) Restore(_ context.Context, _ string, options map[string]bool) (*model.Result, error) {
	s.calls++
	s.gotOpts = options
	return s.result, s.err
}

type stubStore struct {
	results []model.Result
	getErr  error
	listErr error
}

func (s *stubStore) SaveResult(_ context.Context, _ *model.Result) error { return nil }

func (s *stubStore) GetResult(_ context.Context, id string) (*model.Result, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	for i := range s.results {
		if s.results[i].ID == id {
			return &s.results[i], nil
		}
	}
	return nil, fmt.Errorf("%w: result %s", common.ErrNotFound, id)
}

func (s *stubStore) ListResults(_ context.Context, filter service.ResultFilter) ([]model.Result, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	if filter.Kind == "" {
		return s.results, nil
	}
	var filtered []model.Result
	for _, r := range s.results {
		if r.Kind == filter.Kind {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

func (s *stubStore) Migrate(_ context.Context) error { return nil }
func (s *stubStore) Close() error                    { return nil }

func sampleResult() *model.Result {
	return &model.Result{
		ID:          "abc123",
		Kind:        model.KindClassify,
		Category:    "Honeybee",
		Confidence:  model.ConfidenceHigh,
		Description: "A honeybee on a flower",
		Details:     map[string]string{"Taxonomy": "Apis mellifera"},
		RawResponse: "- Main Category: Honeybee",
		Status:      model.StatusGenerated,
		CreatedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv := New(nil, nil, &stubStore{}, nil)
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClassifyEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		classifier *stubPipeline
		body       string
		wantStatus int
		wantCalls  int
		check      func(t *testing.T, body []byte)
	}{
		{
			name:       "success returns full result",
			classifier: &stubPipeline{result: sampleResult()},
			body:       `{"image_data": "aGVsbG8=", "options": {"taxonomy": true}}`,
			wantStatus: http.StatusOK,
			wantCalls:  1,
			check: func(t *testing.T, body []byte) {
				var resp resultResponse
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.Equal(t, "abc123", resp.ID)
				assert.Equal(t, "classify", resp.Kind)
				assert.Equal(t, "Honeybee", resp.Category)
				assert.Equal(t, "High", resp.Confidence)
				assert.Equal(t, "generated", resp.Status)
				assert.Equal(t, "2025-06-01 12:00:00", resp.CreatedAt)
			},
		},
		{
			name:       "empty image is rejected without a pipeline call",
			classifier: &stubPipeline{result: sampleResult()},
			body:       `{"image_data": "", "options": {}}`,
			wantStatus: http.StatusBadRequest,
			wantCalls:  0,
		},
		{
			name:       "malformed body",
			classifier: &stubPipeline{result: sampleResult()},
			body:       `{not json`,
			wantStatus: http.StatusBadRequest,
			wantCalls:  0,
		},
		{
			name: "provider failure maps to bad gateway with error record",
			classifier: &stubPipeline{err: &pipeline.Error{
				ID:  "err456",
				Err: fmt.Errorf("%w: upstream timed out", common.ErrProviderCall),
			}},
			body:       `{"image_data": "aGVsbG8="}`,
			wantStatus: http.StatusBadGateway,
			wantCalls:  1,
			check: func(t *testing.T, body []byte) {
				var record model.ErrorRecord
				require.NoError(t, json.Unmarshal(body, &record))
				assert.Equal(t, "err456", record.ID)
				assert.Contains(t, record.Message, "upstream timed out")
			},
		},
		{
			name: "invalid image maps to bad request",
			classifier: &stubPipeline{err: &pipeline.Error{
				ID:   "err789",
				Err:  fmt.Errorf("%w: not valid base64", common.ErrInvalidImage),
				Hint: "upload a base64-encoded JPEG or PNG image",
			}},
			body:       `{"image_data": "!!"}`,
			wantStatus: http.StatusBadRequest,
			wantCalls:  1,
			check: func(t *testing.T, body []byte) {
				var record model.ErrorRecord
				require.NoError(t, json.Unmarshal(body, &record))
				assert.Equal(t, "err789", record.ID)
				assert.NotEmpty(t, record.Hint)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := New(tt.classifier, nil, &stubStore{}, nil)
			rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/classify", tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCalls, tt.classifier.calls)
			if tt.check != nil {
				tt.check(t, rec.Body.Bytes())
			}
		})
	}
}

func TestClassifyEndpoint_OptionsForwarded(t *testing.T) {
	classifier := &stubPipeline{result: sampleResult()}
	srv := New(classifier, nil, &stubStore{}, nil)

	body := `{"image_data": "aGVsbG8=", "options": {"taxonomy": true, "plant_classification": false}}`
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/classify", body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]bool{"taxonomy": true, "plant_classification": false}, classifier.gotOpts)
}

func TestRestoreEndpoint(t *testing.T) {
	restored := sampleResult()
	restored.Kind = model.KindRestore
	restored.Category = "Victorian terrace"
	restored.RestoredImagePath = "/data/abc123/restored.png"

	restorer := &stubPipeline{result: restored}
	srv := New(nil, restorer, &stubStore{}, nil)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/restore", `{"image_data": "aGVsbG8="}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp resultResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "restore", resp.Kind)
	assert.Equal(t, "Victorian terrace", resp.Category)
	assert.Equal(t, "/data/abc123/restored.png", resp.RestoredImage)
}

func TestUnconfiguredWorkflows(t *testing.T) {
	srv := New(nil, nil, &stubStore{}, nil)

	for _, path := range []string{"/api/classify", "/api/restore"} {
		rec := doJSON(t, srv.Handler(), http.MethodPost, path, `{"image_data": "aGVsbG8="}`)
		assert.Equal(t, http.StatusNotImplemented, rec.Code, path)
	}
}

func TestGetResultEndpoint(t *testing.T) {
	store := &stubStore{results: []model.Result{*sampleResult()}}
	srv := New(nil, nil, store, nil)

	t.Run("found", func(t *testing.T) {
		rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/results/abc123", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp resultResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "abc123", resp.ID)
	})

	t.Run("not found", func(t *testing.T) {
		rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/results/missing", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestListResultsEndpoint(t *testing.T) {
	classify := *sampleResult()
	restore := *sampleResult()
	restore.ID = "def456"
	restore.Kind = model.KindRestore

	store := &stubStore{results: []model.Result{classify, restore}}
	srv := New(nil, nil, store, nil)

	t.Run("all", func(t *testing.T) {
		rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/results", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp []resultResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp, 2)
	})

	t.Run("filtered by kind", func(t *testing.T) {
		rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/results?kind=restore", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp []resultResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp, 1)
		assert.Equal(t, "def456", resp[0].ID)
	})

	t.Run("store failure", func(t *testing.T) {
		broken := &stubStore{listErr: fmt.Errorf("database locked")}
		srv := New(nil, nil, broken, nil)
		rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/results", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
