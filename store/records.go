package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/parcival-labs/ragstore/core"
	"github.com/uptrace/bun"
)

// Store upserts one embedding record into the active table, keyed on
// document id. Re-storing an existing id replaces content, embedding and
// metadata and refreshes updated_at, keeping at most one live row per id.
func (s *Store) Store(ctx context.Context, rec core.EmbeddingRecord) error {
	return s.upsert(ctx, s.db, s.CurrentTable(), rec)
}

// BatchStore upserts all records inside a single transaction. All-or-nothing:
// one failing record rolls back the entire batch. Callers needing partial
// success call Store per record instead.
func (s *Store) BatchStore(ctx context.Context, recs []core.EmbeddingRecord) error {
	table := s.CurrentTable()

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, rec := range recs {
			if err := s.upsert(ctx, tx, table, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) upsert(ctx context.Context, idb bun.IDB, table string, rec core.EmbeddingRecord) error {
	if len(rec.Embedding) != s.dimension {
		return fmt.Errorf("%w: got %d, table expects %d", core.ErrDimensionMismatch, len(rec.Embedding), s.dimension)
	}

	var metadataJSON any
	if rec.Metadata != nil {
		data, err := json.Marshal(rec.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata for %s: %w", rec.DocumentID, err)
		}
		metadataJSON = string(data)
	}

	_, err := idb.NewRaw(`
		INSERT INTO ? (document_id, content, embedding, metadata)
		VALUES (?, ?, ?::vector, ?::jsonb)
		ON CONFLICT (document_id)
		DO UPDATE SET
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding,
			metadata = EXCLUDED.metadata,
			updated_at = NOW()`,
		bun.Ident(table), rec.DocumentID, rec.Content, vectorLiteral(rec.Embedding), metadataJSON,
	).Exec(ctx)
	if err != nil {
		return fmt.Errorf("%w: upsert %s into %s: %w", core.ErrStorage, rec.DocumentID, table, err)
	}

	s.logger.Debug("stored embedding", "document", rec.DocumentID, "table", table)
	return nil
}

// vectorLiteral renders a float32 slice as a pgvector text literal,
// e.g. [0.1,0.2,0.3].
func vectorLiteral(v []float32) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}
