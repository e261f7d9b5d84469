package api

import (
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/parcival-labs/ragstore/core"
)

type createJobRequest struct {
	Documents []documentPayload `json:"documents"`
}

type documentPayload struct {
	ID       string         `json:"id,omitempty"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Source   string         `json:"source,omitempty"`
	MimeType string         `json:"mime_type,omitempty"`
}

type createJobResponse struct {
	JobID string `json:"job_id"`
}

// handleCreateJob handles POST /batch/jobs.
func (s *Server) handleCreateJob(c *fiber.Ctx) error {
	var req createJobRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}
	if len(req.Documents) == 0 {
		return badRequest(c, "documents is required")
	}

	docs := make([]core.Document, len(req.Documents))
	for i, d := range req.Documents {
		docs[i] = core.Document{
			ID:       d.ID,
			Content:  d.Content,
			Metadata: d.Metadata,
			Source:   d.Source,
			MimeType: d.MimeType,
		}
	}

	jobID, err := s.jobs.CreateJob(c.Context(), docs)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(createJobResponse{JobID: jobID})
}

// handleListJobs handles GET /batch/jobs. Query parameter limit caps the
// result, defaulting server-side when absent or non-positive.
func (s *Server) handleListJobs(c *fiber.Ctx) error {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return badRequest(c, "limit must be an integer")
		}
		limit = parsed
	}

	jobs, err := s.jobs.ListJobs(c.Context(), limit)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(jobs)
}

// handleGetJob handles GET /batch/jobs/:id.
func (s *Server) handleGetJob(c *fiber.Ctx) error {
	job, err := s.jobs.GetStatus(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(job)
}

// handleCancelJob handles DELETE /batch/jobs/:id.
func (s *Server) handleCancelJob(c *fiber.Ctx) error {
	cancelled := s.jobs.CancelJob(c.Context(), c.Params("id"))
	return c.JSON(map[string]bool{"cancelled": cancelled})
}

type ingestResponse struct {
	JobID  string `json:"job_id"`
	Chunks int    `json:"chunks"`
}

// handleIngest handles POST /batch/ingest: a multipart file upload that runs
// the full parse-chunk-embed pipeline asynchronously.
func (s *Server) handleIngest(c *fiber.Ctx) error {
	if s.ingestor == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(errorResponse{
			Error: "ingest is not configured",
		})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "file is required")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return fail(c, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return fail(c, err)
	}

	jobID, chunks, err := s.ingestor.IngestFile(c.Context(), fileHeader.Filename, data)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(ingestResponse{JobID: jobID, Chunks: chunks})
}
