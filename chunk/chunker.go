package chunk

import (
	"fmt"
	"maps"
	"strings"

	"github.com/parcival-labs/ragstore/core"
)

const (
	// DefaultMaxChars is the default chunk size budget.
	DefaultMaxChars = 1500
	// DefaultOverlapChars is the default tail overlap between chunks.
	DefaultOverlapChars = 200
)

// Chunker splits text into chunks of at most maxChars characters, carrying
// overlapChars of trailing context from each chunk into the next.
type Chunker struct {
	maxChars     int
	overlapChars int
}

// NewChunker creates a Chunker. maxChars must be positive and overlapChars
// must satisfy 0 <= overlapChars < maxChars.
func NewChunker(maxChars, overlapChars int) (*Chunker, error) {
	if maxChars <= 0 {
		return nil, fmt.Errorf("%w: maxChars must be positive, got %d", core.ErrInvalidConfig, maxChars)
	}
	if overlapChars < 0 {
		return nil, fmt.Errorf("%w: overlapChars must be non-negative, got %d", core.ErrInvalidConfig, overlapChars)
	}
	if overlapChars >= maxChars {
		return nil, fmt.Errorf("%w: overlapChars (%d) must be smaller than maxChars (%d)",
			core.ErrInvalidConfig, overlapChars, maxChars)
	}
	return &Chunker{maxChars: maxChars, overlapChars: overlapChars}, nil
}

// ChunkText splits a string into chunks.
//
// Paragraph boundaries (one or more blank lines) are respected when possible;
// a paragraph longer than maxChars is hard-split into fixed-size slices.
// Empty input yields exactly one empty chunk so that downstream counting
// stays consistent.
func (c *Chunker) ChunkText(text string) []string {
	if text == "" {
		return []string{""}
	}

	paragraphs := splitParagraphs(text)

	var chunks []string
	var current []string
	currentLen := 0

	closeChunk := func() {
		chunks = append(chunks, strings.Join(current, "\n"))
		tail := c.tailOverlap(chunks[len(chunks)-1])
		current = []string{tail}
		currentLen = len(tail)
	}

	for _, paragraph := range paragraphs {
		if len(paragraph) > c.maxChars {
			for _, part := range hardSplit(paragraph, c.maxChars) {
				if currentLen+len(part)+1 > c.maxChars && len(current) > 0 {
					closeChunk()
				}
				current = append(current, part)
				currentLen += len(part) + 1
			}
			continue
		}

		if currentLen+len(paragraph)+1 > c.maxChars && len(current) > 0 {
			closeChunk()
		}
		current = append(current, paragraph)
		currentLen += len(paragraph) + 1
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, "\n"))
	}

	for i := range chunks {
		chunks[i] = strings.TrimSpace(chunks[i])
	}
	return chunks
}

// ChunkDocuments maps each document through ChunkText, emitting one Chunk per
// piece. Chunk metadata is a copy of the parent metadata plus chunk_index and
// num_chunks; source and MIME type are preserved. The count is annotated in a
// second pass, after all pieces of a document exist.
func (c *Chunker) ChunkDocuments(docs []core.Document) []core.Chunk {
	var out []core.Chunk
	for _, doc := range docs {
		pieces := c.ChunkText(doc.Content)
		total := len(pieces)
		for i, piece := range pieces {
			meta := make(map[string]any, len(doc.Metadata)+2)
			maps.Copy(meta, doc.Metadata)
			meta[core.MetaChunkIndex] = i
			meta[core.MetaNumChunks] = total

			out = append(out, core.Chunk{
				Content:  piece,
				Metadata: meta,
				Source:   doc.Source,
				MimeType: doc.MimeType,
			})
		}
	}
	return out
}

// tailOverlap returns the last overlapChars characters of the previous chunk,
// clamped to the chunk length.
func (c *Chunker) tailOverlap(previous string) string {
	if c.overlapChars == 0 || previous == "" {
		return ""
	}
	if len(previous) <= c.overlapChars {
		return previous
	}
	return previous[len(previous)-c.overlapChars:]
}

// splitParagraphs normalizes line endings and splits on blank-line
// boundaries. Each paragraph is the trimmed join of its non-empty lines;
// whitespace-only input produces no paragraphs.
func splitParagraphs(text string) []string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	var paragraphs []string
	var buffer []string

	flush := func() {
		if len(buffer) == 0 {
			return
		}
		p := strings.TrimSpace(strings.Join(buffer, "\n"))
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
		buffer = buffer[:0]
	}

	for _, line := range strings.Split(normalized, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		buffer = append(buffer, line)
	}
	flush()

	return paragraphs
}

// hardSplit cuts a paragraph into fixed-size slices of at most size
// characters, with no word-boundary awareness.
func hardSplit(paragraph string, size int) []string {
	var parts []string
	for start := 0; start < len(paragraph); start += size {
		end := min(start+size, len(paragraph))
		parts = append(parts, paragraph[start:end])
	}
	return parts
}
