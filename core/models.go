package core

import "time"

// DefaultEmbeddingDim is the vector dimension used when no explicit dimension
// is configured. It matches OpenAI's text-embedding-3-small output.
const DefaultEmbeddingDim = 1536

// Document is the parser's output and the batch orchestrator's input unit.
// A Document is immutable once produced.
type Document struct {
	// ID is the caller-supplied document identifier. When empty, the
	// orchestrator generates a UUID before storing.
	ID string

	// Content is the full text of the document.
	Content string

	// Metadata holds free-form key/value pairs attached by the parser or
	// the caller. Insertion order is irrelevant.
	Metadata map[string]any

	// Source names the origin of the document, typically a filename.
	Source string

	// MimeType is the detected MIME type, empty when unknown.
	MimeType string
}

// Chunk is a contiguous slice of a Document's content sized for retrieval.
// Chunks from one document are ordered 0..NumChunks-1; the chunker guarantees
// the ordering and count metadata are consistent.
type Chunk struct {
	Content  string
	Metadata map[string]any
	Source   string
	MimeType string
}

// Metadata keys the chunker adds to every chunk it emits.
const (
	MetaChunkIndex = "chunk_index"
	MetaNumChunks  = "num_chunks"
)

// EmbeddingRecord is the persisted entity of the vector store. Upserts are
// keyed on DocumentID: at most one live row per document id per table.
type EmbeddingRecord struct {
	DocumentID string
	Content    string
	Embedding  []float32
	Metadata   map[string]any
}

// SearchResult is a single row returned by a similarity search, ordered by
// descending similarity score.
type SearchResult struct {
	DocumentID string         `json:"document_id"`
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata"`
	Similarity float64        `json:"similarity_score"`
}

// TableInfo describes a registered embedding table, enriched with live
// counters computed at read time.
type TableInfo struct {
	TableID       string    `json:"table_id"`
	TableName     string    `json:"table_name"`
	Description   string    `json:"description"`
	DocumentCount int64     `json:"document_count"`
	CreatedAt     time.Time `json:"created_at"`
	LastUpdated   time.Time `json:"last_updated"`
}

// JobStatus is the lifecycle state of a batch job. Terminal states are
// absorbing: once a job is completed, failed or cancelled it never moves
// again.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
	JobCancelled  JobStatus = "cancelled"
)

// Terminal reports whether the status is absorbing.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobCompleted, JobFailed, JobCancelled:
		return true
	}
	return false
}

// BatchJob tracks one asynchronous embedding job over a set of documents.
type BatchJob struct {
	ID        string    `json:"id"`
	Status    JobStatus `json:"status"`
	Total     int       `json:"total"`
	Processed int       `json:"processed"`
	Failed    int       `json:"failed"`
	Progress  float64   `json:"progress"`
	Errors    []string  `json:"errors"`
	TaskID    string    `json:"task_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
