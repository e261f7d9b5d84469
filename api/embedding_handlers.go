package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/parcival-labs/ragstore/core"
)

type storeEmbeddingRequest struct {
	DocumentID string         `json:"document_id"`
	Content    string         `json:"content"`
	Embedding  []float32      `json:"embedding"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// handleStoreEmbedding handles POST /embeddings: a direct upsert that skips
// the batch pipeline.
func (s *Server) handleStoreEmbedding(c *fiber.Ctx) error {
	var req storeEmbeddingRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}
	if req.DocumentID == "" {
		return badRequest(c, "document_id is required")
	}
	if len(req.Embedding) == 0 {
		return badRequest(c, "embedding is required")
	}

	err := s.vectors.Store(c.Context(), core.EmbeddingRecord{
		DocumentID: req.DocumentID,
		Content:    req.Content,
		Embedding:  req.Embedding,
		Metadata:   req.Metadata,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(map[string]string{"document_id": req.DocumentID})
}

// defaultSimilarityThreshold applies when a search request omits the
// threshold, so callers only see results with meaningful similarity.
const defaultSimilarityThreshold = 0.7

type searchRequest struct {
	Query          string    `json:"query,omitempty"`
	QueryEmbedding []float32 `json:"query_embedding,omitempty"`
	TopK           int       `json:"top_k,omitempty"`
	// A pointer distinguishes an omitted threshold from an explicit 0.
	SimilarityThreshold *float64          `json:"similarity_threshold,omitempty"`
	Filters             map[string]string `json:"filters,omitempty"`
}

// handleSearch handles POST /search. Callers either supply a pre-computed
// query_embedding or a query text, which is embedded server-side when an
// embedder is configured.
func (s *Server) handleSearch(c *fiber.Ctx) error {
	var req searchRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}

	embedding := req.QueryEmbedding
	if len(embedding) == 0 {
		if req.Query == "" {
			return badRequest(c, "query or query_embedding is required")
		}
		if s.embedder == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(errorResponse{
				Error: "text search is not configured: no embedder available",
			})
		}
		var err error
		embedding, err = s.embedder.EmbedText(c.Context(), req.Query)
		if err != nil {
			return fail(c, err)
		}
	}

	threshold := defaultSimilarityThreshold
	if req.SimilarityThreshold != nil {
		threshold = *req.SimilarityThreshold
	}

	results, err := s.vectors.Search(c.Context(), embedding, req.TopK, threshold, req.Filters)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(results)
}

// handleHealth handles GET /health. Always 200; degraded state is in the
// payload.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(s.vectors.HealthCheck(c.Context()))
}

// handleStatistics handles GET /statistics.
func (s *Server) handleStatistics(c *fiber.Ctx) error {
	stats, err := s.vectors.Statistics(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(stats)
}

type cleanupRequest struct {
	DaysOld int `json:"days_old"`
}

type cleanupResponse struct {
	Deleted int64 `json:"deleted"`
	DaysOld int   `json:"days_old"`
}

// handleCleanup handles POST /cleanup.
func (s *Server) handleCleanup(c *fiber.Ctx) error {
	var req cleanupRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}

	deleted, err := s.vectors.Cleanup(c.Context(), req.DaysOld)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(cleanupResponse{Deleted: deleted, DaysOld: req.DaysOld})
}
