package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/parcival-labs/ragstore/core"
	"github.com/uptrace/bun"
)

// TableRecord is the registry row describing one embedding table.
type TableRecord struct {
	bun.BaseModel `bun:"table:table_metadata,alias:tm"`

	ID          int64     `bun:"id,pk,autoincrement"`
	TableID     string    `bun:"table_id,notnull,unique"`
	TableName   string    `bun:"table_name,notnull,unique"`
	Description string    `bun:"description"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:now()"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:now()"`
}

// Initialize idempotently bootstraps the schema: the pgvector extension, the
// default embedding table with its indexes, and the table registry. Safe to
// call concurrently at process start; every statement uses IF NOT EXISTS
// semantics and never errors on existing objects.
func (s *Store) Initialize(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("%w: create vector extension: %w", core.ErrStorage, err)
	}

	if err := s.createEmbeddingSchema(ctx, s.db, DefaultTableName, true); err != nil {
		return err
	}

	if _, err := s.db.NewCreateTable().Model((*TableRecord)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("%w: create registry table: %w", core.ErrStorage, err)
	}

	defaultRow := &TableRecord{
		TableID:     uuid.NewString(),
		TableName:   DefaultTableName,
		Description: "Default embeddings table",
	}
	_, err := s.db.NewInsert().
		Model(defaultRow).
		On("CONFLICT (table_name) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("%w: register default table: %w", core.ErrStorage, err)
	}

	s.logger.Info("schema initialized", "default_table", DefaultTableName, "dimension", s.dimension)
	return nil
}

// embeddingIndexes returns the index DDL for one embedding table. The name
// must already be validated; it is interpolated into DDL, which the
// validation invariant makes safe.
func (s *Store) embeddingIndexes(name string, ifNotExists bool) []string {
	ine := ""
	if ifNotExists {
		ine = "IF NOT EXISTS "
	}
	return []string{
		fmt.Sprintf(`CREATE INDEX %s%s_embedding_hnsw_idx ON %s USING hnsw (embedding vector_cosine_ops) WITH (m = 16, ef_construction = 64)`, ine, name, name),
		fmt.Sprintf(`CREATE INDEX %s%s_embedding_ivfflat_idx ON %s USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`, ine, name, name),
		fmt.Sprintf(`CREATE INDEX %s%s_document_id_idx ON %s (document_id)`, ine, name, name),
		fmt.Sprintf(`CREATE INDEX %s%s_metadata_gin_idx ON %s USING GIN (metadata)`, ine, name, name),
		fmt.Sprintf(`CREATE INDEX %s%s_created_at_idx ON %s (created_at)`, ine, name, name),
	}
}

// createEmbeddingSchema creates one embedding table and its indexes.
func (s *Store) createEmbeddingSchema(ctx context.Context, idb bun.IDB, name string, ifNotExists bool) error {
	ine := ""
	if ifNotExists {
		ine = "IF NOT EXISTS "
	}

	ddl := fmt.Sprintf(`
		CREATE TABLE %s%s (
			id SERIAL PRIMARY KEY,
			document_id VARCHAR(255) UNIQUE NOT NULL,
			content TEXT NOT NULL,
			embedding vector(%d),
			metadata JSONB,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`, ine, name, s.dimension)

	if _, err := idb.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("%w: create table %s: %w", core.ErrStorage, name, err)
	}

	for _, idx := range s.embeddingIndexes(name, ifNotExists) {
		if _, err := idb.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("%w: create index on %s: %w", core.ErrStorage, name, err)
		}
	}
	return nil
}

// tableExists checks the information schema for a physical table.
func (s *Store) tableExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := s.db.NewRaw(
		"SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_name = ?)", name,
	).Scan(ctx, &exists)
	if err != nil {
		return false, fmt.Errorf("%w: table existence check: %w", core.ErrStorage, err)
	}
	return exists, nil
}
