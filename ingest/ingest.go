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

// Package ingest wires the parse, chunk and batch stages into one upload
// pipeline: raw file bytes go in, a tracked batch job id comes out.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/parcival-labs/ragstore/chunk"
	"github.com/parcival-labs/ragstore/core"
	"github.com/parcival-labs/ragstore/parser"
)

// JobCreator is the orchestrator operation the pipeline needs.
type JobCreator interface {
	CreateJob(ctx context.Context, docs []core.Document) (string, error)
}

// Pipeline parses files, chunks their content and submits the chunks as one
// batch job.
type Pipeline struct {
	chunker *chunk.Chunker
	jobs    JobCreator
	logger  *slog.Logger
}

// NewPipeline creates an ingest pipeline.
func NewPipeline(chunker *chunk.Chunker, jobs JobCreator) (*Pipeline, error) {
	if chunker == nil {
		return nil, fmt.Errorf("%w: nil chunker", core.ErrInvalidConfig)
	}
	if jobs == nil {
		return nil, fmt.Errorf("%w: nil job creator", core.ErrInvalidConfig)
	}
	return &Pipeline{
		chunker: chunker,
		jobs:    jobs,
		logger:  slog.Default().With("component", "ingest"),
	}, nil
}

// IngestFile parses one file, chunks every resulting document and submits the
// chunks as a batch job. Returns the job id and the number of chunks
// submitted.
func (p *Pipeline) IngestFile(ctx context.Context, name string, data []byte) (string, int, error) {
	docs, err := parser.Parse(name, data)
	if err != nil {
		return "", 0, fmt.Errorf("parse %s: %w", name, err)
	}
	return p.IngestDocuments(ctx, docs)
}

// IngestDocuments chunks already-parsed documents and submits the chunks as
// one batch job. Each chunk becomes its own document with a generated id so
// re-ingesting the same file produces fresh rows rather than overwrites.
func (p *Pipeline) IngestDocuments(ctx context.Context, docs []core.Document) (string, int, error) {
	chunks := p.chunker.ChunkDocuments(docs)

	chunkDocs := make([]core.Document, len(chunks))
	for i, c := range chunks {
		chunkDocs[i] = core.Document{
			ID:       uuid.NewString(),
			Content:  c.Content,
			Metadata: c.Metadata,
			Source:   c.Source,
			MimeType: c.MimeType,
		}
	}

	jobID, err := p.jobs.CreateJob(ctx, chunkDocs)
	if err != nil {
		return "", 0, err
	}

	p.logger.Info("submitted ingest job", "job", jobID, "documents", len(docs), "chunks", len(chunkDocs))
	return jobID, len(chunkDocs), nil
}
