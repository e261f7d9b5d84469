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

// Package api exposes the ingestion and retrieval pipeline over HTTP. The
// handlers are thin JSON mappings; all semantics live in the store, batch and
// ingest packages behind the injected interfaces.
package api

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/parcival-labs/ragstore/ai"
	"github.com/parcival-labs/ragstore/core"
	"github.com/parcival-labs/ragstore/store"
)

// JobService is the batch-orchestrator surface the API exposes.
type JobService interface {
	CreateJob(ctx context.Context, docs []core.Document) (string, error)
	GetStatus(ctx context.Context, jobID string) (*core.BatchJob, error)
	CancelJob(ctx context.Context, jobID string) bool
	ListJobs(ctx context.Context, limit int) ([]*core.BatchJob, error)
}

// VectorStore is the vector-store surface the API exposes.
type VectorStore interface {
	CreateTable(ctx context.Context, name, description string) (*store.SchemaDescription, error)
	ListTables(ctx context.Context) ([]core.TableInfo, error)
	DeleteTable(ctx context.Context, name string) error
	SwitchTable(ctx context.Context, name string) (previous, current string, err error)
	Store(ctx context.Context, rec core.EmbeddingRecord) error
	Search(ctx context.Context, query []float32, topK int, threshold float64, filters map[string]string) ([]core.SearchResult, error)
	Statistics(ctx context.Context) (*store.Statistics, error)
	Cleanup(ctx context.Context, daysOld int) (int64, error)
	HealthCheck(ctx context.Context) *store.HealthReport
}

// Ingestor turns uploaded files into batch jobs.
type Ingestor interface {
	IngestFile(ctx context.Context, name string, data []byte) (jobID string, chunks int, err error)
}

// Config holds server settings.
type Config struct {
	ListenAddr string
}

// Server serves the HTTP API.
type Server struct {
	config   Config
	jobs     JobService
	vectors  VectorStore
	ingestor Ingestor
	embedder ai.Embedder
	logger   *slog.Logger
	app      *fiber.App
}

// NewServer creates the API server. The embedder is optional; without it,
// search requests must carry a pre-computed query embedding.
func NewServer(config Config, jobs JobService, vectors VectorStore, ingestor Ingestor, embedder ai.Embedder) (*Server, error) {
	if jobs == nil || vectors == nil {
		return nil, errors.New("api: job service and vector store are required")
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             64 * 1024 * 1024,
	})

	s := &Server{
		config:   config,
		jobs:     jobs,
		vectors:  vectors,
		ingestor: ingestor,
		embedder: embedder,
		logger:   slog.Default().With("component", "api"),
		app:      app,
	}

	app.Post("/batch/jobs", s.handleCreateJob)
	app.Get("/batch/jobs", s.handleListJobs)
	app.Get("/batch/jobs/:id", s.handleGetJob)
	app.Delete("/batch/jobs/:id", s.handleCancelJob)
	app.Post("/batch/ingest", s.handleIngest)

	app.Post("/tables", s.handleCreateTable)
	app.Get("/tables", s.handleListTables)
	app.Delete("/tables/:name", s.handleDeleteTable)
	app.Post("/tables/:name/switch", s.handleSwitchTable)

	app.Post("/embeddings", s.handleStoreEmbedding)
	app.Post("/search", s.handleSearch)

	app.Get("/health", s.handleHealth)
	app.Get("/statistics", s.handleStatistics)
	app.Post("/cleanup", s.handleCleanup)

	return s, nil
}

// Run starts the server on the configured address and blocks.
func (s *Server) Run() error {
	s.logger.Info("starting API server", "listen", s.config.ListenAddr)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

type errorResponse struct {
	Error string `json:"error"`
}

// fail maps domain errors onto HTTP status codes.
func fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrNotFound), errors.Is(err, core.ErrTableNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, core.ErrTableExists):
		status = fiber.StatusConflict
	case errors.Is(err, core.ErrInvalidTableName),
		errors.Is(err, core.ErrDimensionMismatch),
		errors.Is(err, core.ErrInvalidConfig),
		errors.Is(err, store.ErrProtectedTable),
		errors.Is(err, store.ErrInvalidRetention):
		status = fiber.StatusBadRequest
	}
	return c.Status(status).JSON(errorResponse{Error: err.Error()})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: msg})
}
