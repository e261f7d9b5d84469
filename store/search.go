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

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/parcival-labs/ragstore/core"
	"github.com/uptrace/bun"
)

type searchRow struct {
	DocumentID string  `bun:"document_id"`
	Content    string  `bun:"content"`
	Metadata   []byte  `bun:"metadata"`
	Similarity float64 `bun:"similarity_score"`
}

// Search returns the topK rows of the active table most similar to the query
// embedding. Similarity is cosine-based in [-1,1] (1 - cosine distance);
// only rows strictly above threshold are returned. Filters are a conjunction
// of string-equality predicates over top-level metadata keys; an empty
// filter set matches everything. Ties on similarity break by document id so
// repeated calls against unchanged data return the same order.
func (s *Store) Search(ctx context.Context, query []float32, topK int, threshold float64, filters map[string]string) ([]core.SearchResult, error) {
	if len(query) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d, table expects %d", core.ErrDimensionMismatch, len(query), s.dimension)
	}
	if topK < 1 {
		topK = 10
	}

	vec := vectorLiteral(query)

	var sb strings.Builder
	sb.WriteString(`
		SELECT document_id, content, metadata,
		       1 - (embedding <=> ?::vector) AS similarity_score
		FROM ?
		WHERE 1 - (embedding <=> ?::vector) > ?`)
	args := []any{vec, bun.Ident(s.CurrentTable()), vec, threshold}

	// Deterministic predicate order.
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(" AND metadata->>? = ?")
		args = append(args, k, filters[k])
	}

	sb.WriteString(" ORDER BY similarity_score DESC, document_id ASC LIMIT ?")
	args = append(args, topK)

	var rows []searchRow
	if err := s.db.NewRaw(sb.String(), args...).Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("%w: similarity search: %w", core.ErrStorage, err)
	}

	results := make([]core.SearchResult, 0, len(rows))
	for _, row := range rows {
		var metadata map[string]any
		if len(row.Metadata) > 0 {
			if err := json.Unmarshal(row.Metadata, &metadata); err != nil {
				s.logger.Warn("unreadable metadata", "document", row.DocumentID, "err", err)
				metadata = nil
			}
		}
		results = append(results, core.SearchResult{
			DocumentID: row.DocumentID,
			Content:    row.Content,
			Metadata:   metadata,
			Similarity: row.Similarity,
		})
	}

	s.logger.Debug("similarity search", "table", s.CurrentTable(), "results", len(results), "top_k", topK)
	return results, nil
}
