// Copyright 2025 Parcival Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/parcival-labs/ragstore/ai/mock"
	"github.com/parcival-labs/ragstore/core"
	"github.com/parcival-labs/ragstore/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJobService struct {
	jobs    map[string]*core.BatchJob
	created []core.Document
}

func newFakeJobService() *fakeJobService {
	return &fakeJobService{jobs: make(map[string]*core.BatchJob)}
}

func (f *fakeJobService) CreateJob(ctx context.Context, docs []core.Document) (string, error) {
	f.created = docs
	id := fmt.Sprintf("job-%d", len(f.jobs)+1)
	f.jobs[id] = &core.BatchJob{ID: id, Status: core.JobPending, Total: len(docs), CreatedAt: time.Now()}
	return id, nil
}

func (f *fakeJobService) GetStatus(ctx context.Context, jobID string) (*core.BatchJob, error) {
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: job %s", core.ErrNotFound, jobID)
	}
	return job, nil
}

func (f *fakeJobService) CancelJob(ctx context.Context, jobID string) bool {
	_, ok := f.jobs[jobID]
	return ok
}

func (f *fakeJobService) ListJobs(ctx context.Context, limit int) ([]*core.BatchJob, error) {
	out := make([]*core.BatchJob, 0, len(f.jobs))
	for _, j := range f.jobs {
		out = append(out, j)
	}
	return out, nil
}

type fakeVectorStore struct {
	stored        []core.EmbeddingRecord
	results       []core.SearchResult
	tables        []core.TableInfo
	current       string
	lastThreshold float64
}

func newFakeVectorStore() *fakeVectorStore {
	return &fakeVectorStore{current: store.DefaultTableName}
}

func (f *fakeVectorStore) CreateTable(ctx context.Context, name, description string) (*store.SchemaDescription, error) {
	if err := core.ValidateTableName(name); err != nil {
		return nil, err
	}
	for _, t := range f.tables {
		if t.TableName == name {
			return nil, fmt.Errorf("%w: %s", core.ErrTableExists, name)
		}
	}
	f.tables = append(f.tables, core.TableInfo{TableID: "id-" + name, TableName: name, Description: description})
	return &store.SchemaDescription{TableID: "id-" + name, TableName: name}, nil
}

func (f *fakeVectorStore) ListTables(ctx context.Context) ([]core.TableInfo, error) {
	return f.tables, nil
}

func (f *fakeVectorStore) DeleteTable(ctx context.Context, name string) error {
	for i, t := range f.tables {
		if t.TableName == name {
			f.tables = append(f.tables[:i], f.tables[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", core.ErrTableNotFound, name)
}

func (f *fakeVectorStore) SwitchTable(ctx context.Context, name string) (string, string, error) {
	for _, t := range f.tables {
		if t.TableName == name {
			prev := f.current
			f.current = name
			return prev, name, nil
		}
	}
	return "", "", fmt.Errorf("%w: %s", core.ErrTableNotFound, name)
}

func (f *fakeVectorStore) Store(ctx context.Context, rec core.EmbeddingRecord) error {
	if len(rec.Embedding) != 4 {
		return fmt.Errorf("%w: got %d, table expects 4", core.ErrDimensionMismatch, len(rec.Embedding))
	}
	f.stored = append(f.stored, rec)
	return nil
}

func (f *fakeVectorStore) Search(ctx context.Context, query []float32, topK int, threshold float64, filters map[string]string) ([]core.SearchResult, error) {
	if len(query) != 4 {
		return nil, fmt.Errorf("%w: got %d, table expects 4", core.ErrDimensionMismatch, len(query))
	}
	f.lastThreshold = threshold
	return f.results, nil
}

func (f *fakeVectorStore) Statistics(ctx context.Context) (*store.Statistics, error) {
	return &store.Statistics{TableName: f.current, TotalDocuments: int64(len(f.stored))}, nil
}

func (f *fakeVectorStore) Cleanup(ctx context.Context, daysOld int) (int64, error) {
	if daysOld < 1 {
		return 0, fmt.Errorf("%w: got %d days", store.ErrInvalidRetention, daysOld)
	}
	return 0, nil
}

func (f *fakeVectorStore) HealthCheck(ctx context.Context) *store.HealthReport {
	return &store.HealthReport{Status: "healthy", Connection: "ok"}
}

func newTestServer(t *testing.T) (*Server, *fakeJobService, *fakeVectorStore) {
	t.Helper()

	jobs := newFakeJobService()
	vectors := newFakeVectorStore()
	embedder := mock.NewEmbedder()
	embedder.Dimension = 4

	s, err := NewServer(Config{ListenAddr: ":0"}, jobs, vectors, nil, embedder)
	require.NoError(t, err)
	return s, jobs, vectors
}

func jsonRequest(t *testing.T, method, target string, payload any) *http.Request {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req, err := http.NewRequest(method, target, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestCreateJob(t *testing.T) {
	s, jobs, _ := newTestServer(t)

	req := jsonRequest(t, http.MethodPost, "/batch/jobs", createJobRequest{
		Documents: []documentPayload{
			{Content: "first"},
			{ID: "doc-2", Content: "second", Metadata: map[string]any{"k": "v"}},
		},
	})
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	out := decode[createJobResponse](t, resp)
	assert.Equal(t, "job-1", out.JobID)
	require.Len(t, jobs.created, 2)
	assert.Equal(t, "doc-2", jobs.created[1].ID)
}

func TestCreateJob_EmptyBody(t *testing.T) {
	s, _, _ := newTestServer(t)

	resp, err := s.app.Test(jsonRequest(t, http.MethodPost, "/batch/jobs", createJobRequest{}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGetJob(t *testing.T) {
	s, jobs, _ := newTestServer(t)
	id, err := jobs.CreateJob(context.Background(), []core.Document{{Content: "x"}})
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodGet, "/batch/jobs/"+id, nil)
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	job := decode[core.BatchJob](t, resp)
	assert.Equal(t, id, job.ID)
	assert.Equal(t, core.JobPending, job.Status)
}

func TestGetJob_NotFound(t *testing.T) {
	s, _, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, "/batch/jobs/missing", nil)
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestCancelJob(t *testing.T) {
	s, jobs, _ := newTestServer(t)
	id, err := jobs.CreateJob(context.Background(), []core.Document{{Content: "x"}})
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodDelete, "/batch/jobs/"+id, nil)
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, decode[map[string]bool](t, resp)["cancelled"])

	req, _ = http.NewRequest(http.MethodDelete, "/batch/jobs/missing", nil)
	resp, err = s.app.Test(req)
	require.NoError(t, err)
	assert.False(t, decode[map[string]bool](t, resp)["cancelled"])
}

func TestListJobs_BadLimit(t *testing.T) {
	s, _, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, "/batch/jobs?limit=abc", nil)
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestTableLifecycle(t *testing.T) {
	s, _, vectors := newTestServer(t)

	resp, err := s.app.Test(jsonRequest(t, http.MethodPost, "/tables", createTableRequest{TableName: "docs", Description: "test"}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// Duplicate name conflicts.
	resp, err = s.app.Test(jsonRequest(t, http.MethodPost, "/tables", createTableRequest{TableName: "docs"}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	// Invalid identifier rejected.
	resp, err = s.app.Test(jsonRequest(t, http.MethodPost, "/tables", createTableRequest{TableName: "drop table"}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodGet, "/tables", nil)
	resp, err = s.app.Test(req)
	require.NoError(t, err)
	tables := decode[[]core.TableInfo](t, resp)
	require.Len(t, tables, 1)
	assert.Equal(t, "docs", tables[0].TableName)

	req, _ = http.NewRequest(http.MethodPost, "/tables/docs/switch", nil)
	resp, err = s.app.Test(req)
	require.NoError(t, err)
	out := decode[switchTableResponse](t, resp)
	assert.Equal(t, store.DefaultTableName, out.Previous)
	assert.Equal(t, "docs", out.Current)
	assert.Equal(t, "docs", vectors.current)

	req, _ = http.NewRequest(http.MethodDelete, "/tables/docs", nil)
	resp, err = s.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req, _ = http.NewRequest(http.MethodDelete, "/tables/docs", nil)
	resp, err = s.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestStoreEmbedding(t *testing.T) {
	s, _, vectors := newTestServer(t)

	resp, err := s.app.Test(jsonRequest(t, http.MethodPost, "/embeddings", storeEmbeddingRequest{
		DocumentID: "doc-1",
		Content:    "hello",
		Embedding:  []float32{1, 2, 3, 4},
	}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Len(t, vectors.stored, 1)

	// Wrong dimension is a client error.
	resp, err = s.app.Test(jsonRequest(t, http.MethodPost, "/embeddings", storeEmbeddingRequest{
		DocumentID: "doc-2",
		Embedding:  []float32{1},
	}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = s.app.Test(jsonRequest(t, http.MethodPost, "/embeddings", storeEmbeddingRequest{
		Embedding: []float32{1, 2, 3, 4},
	}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSearch_WithEmbedding(t *testing.T) {
	s, _, vectors := newTestServer(t)
	vectors.results = []core.SearchResult{{DocumentID: "doc-1", Content: "hit", Similarity: 0.95}}

	resp, err := s.app.Test(jsonRequest(t, http.MethodPost, "/search", searchRequest{
		QueryEmbedding: []float32{1, 0, 0, 0},
		TopK:           3,
	}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	results := decode[[]core.SearchResult](t, resp)
	require.Len(t, results, 1)
	assert.Equal(t, "doc-1", results[0].DocumentID)
}

func TestSearch_DefaultThreshold(t *testing.T) {
	s, _, vectors := newTestServer(t)

	// Omitted threshold falls back to the default.
	resp, err := s.app.Test(jsonRequest(t, http.MethodPost, "/search", searchRequest{
		QueryEmbedding: []float32{1, 0, 0, 0},
	}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.InDelta(t, 0.7, vectors.lastThreshold, 0.001)

	// An explicit zero is honored, not replaced.
	zero := 0.0
	resp, err = s.app.Test(jsonRequest(t, http.MethodPost, "/search", searchRequest{
		QueryEmbedding:      []float32{1, 0, 0, 0},
		SimilarityThreshold: &zero,
	}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Zero(t, vectors.lastThreshold)
}

func TestSearch_WithTextQuery(t *testing.T) {
	s, _, _ := newTestServer(t)

	resp, err := s.app.Test(jsonRequest(t, http.MethodPost, "/search", searchRequest{Query: "what is rag"}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestSearch_MissingQuery(t *testing.T) {
	s, _, _ := newTestServer(t)

	resp, err := s.app.Test(jsonRequest(t, http.MethodPost, "/search", searchRequest{}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSearch_TextWithoutEmbedder(t *testing.T) {
	jobs := newFakeJobService()
	vectors := newFakeVectorStore()
	s, err := NewServer(Config{ListenAddr: ":0"}, jobs, vectors, nil, nil)
	require.NoError(t, err)

	resp, err := s.app.Test(jsonRequest(t, http.MethodPost, "/search", searchRequest{Query: "text"}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestHealthAndStatistics(t *testing.T) {
	s, _, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	report := decode[store.HealthReport](t, resp)
	assert.Equal(t, "healthy", report.Status)

	req, _ = http.NewRequest(http.MethodGet, "/statistics", nil)
	resp, err = s.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestCleanup(t *testing.T) {
	s, _, _ := newTestServer(t)

	resp, err := s.app.Test(jsonRequest(t, http.MethodPost, "/cleanup", cleanupRequest{DaysOld: 30}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = s.app.Test(jsonRequest(t, http.MethodPost, "/cleanup", cleanupRequest{DaysOld: 0}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestIngest_NotConfigured(t *testing.T) {
	s, _, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodPost, "/batch/ingest", nil)
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}
