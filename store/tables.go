package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/parcival-labs/ragstore/core"
	"github.com/uptrace/bun"
)

// SchemaDescription reports what CreateTable built.
type SchemaDescription struct {
	TableID   string   `json:"table_id"`
	TableName string   `json:"table_name"`
	Columns   []string `json:"columns"`
	Indexes   []string `json:"indexes"`
}

// CreateTable creates a new embedding table with the standard schema and
// indexes and registers it. The name is validated against the identifier
// pattern and reserved-word blocklist before it ever reaches DDL.
func (s *Store) CreateTable(ctx context.Context, name, description string) (*SchemaDescription, error) {
	if err := core.ValidateTableName(name); err != nil {
		return nil, err
	}
	if name == registryTableName {
		return nil, fmt.Errorf("%w: %q is reserved", core.ErrInvalidTableName, name)
	}

	exists, err := s.tableExists(ctx, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", core.ErrTableExists, name)
	}

	tableID := uuid.NewString()
	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.createEmbeddingSchema(ctx, tx, name, false); err != nil {
			return err
		}
		row := &TableRecord{
			TableID:     tableID,
			TableName:   name,
			Description: description,
		}
		if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
			return fmt.Errorf("%w: register table %s: %w", core.ErrStorage, name, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("created embedding table", "table", name, "table_id", tableID)

	return &SchemaDescription{
		TableID:   tableID,
		TableName: name,
		Columns: []string{
			"id SERIAL PRIMARY KEY",
			"document_id VARCHAR(255) UNIQUE NOT NULL",
			"content TEXT NOT NULL",
			fmt.Sprintf("embedding vector(%d)", s.dimension),
			"metadata JSONB",
			"created_at TIMESTAMP WITH TIME ZONE",
			"updated_at TIMESTAMP WITH TIME ZONE",
		},
		Indexes: []string{
			name + "_embedding_hnsw_idx (HNSW)",
			name + "_embedding_ivfflat_idx (IVFFlat)",
			name + "_document_id_idx (B-tree)",
			name + "_metadata_gin_idx (GIN)",
			name + "_created_at_idx (B-tree)",
		},
	}, nil
}

// ListTables returns every registered table enriched with a live document
// count and last-update time, computed at read time to avoid staleness.
func (s *Store) ListTables(ctx context.Context) ([]core.TableInfo, error) {
	var rows []TableRecord
	err := s.db.NewSelect().
		Model(&rows).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list tables: %w", core.ErrStorage, err)
	}

	tables := make([]core.TableInfo, 0, len(rows))
	for _, row := range rows {
		info := core.TableInfo{
			TableID:     row.TableID,
			TableName:   row.TableName,
			Description: row.Description,
			CreatedAt:   row.CreatedAt,
			LastUpdated: row.CreatedAt,
		}

		var count int64
		if err := s.db.NewRaw("SELECT COUNT(*) FROM ?", bun.Ident(row.TableName)).Scan(ctx, &count); err != nil {
			return nil, fmt.Errorf("%w: count rows of %s: %w", core.ErrStorage, row.TableName, err)
		}
		info.DocumentCount = count

		var lastUpdated *time.Time
		if err := s.db.NewRaw("SELECT MAX(updated_at) FROM ?", bun.Ident(row.TableName)).Scan(ctx, &lastUpdated); err != nil {
			return nil, fmt.Errorf("%w: last update of %s: %w", core.ErrStorage, row.TableName, err)
		}
		if lastUpdated != nil {
			info.LastUpdated = *lastUpdated
		}

		tables = append(tables, info)
	}
	return tables, nil
}

// DeleteTable drops an embedding table and removes its registry row. The
// default table is protected. Not reversible. If the deleted table was
// active, the store falls back to the default table.
func (s *Store) DeleteTable(ctx context.Context, name string) error {
	if err := core.ValidateTableName(name); err != nil {
		return err
	}
	if name == DefaultTableName {
		return fmt.Errorf("%w: %s", ErrProtectedTable, name)
	}

	exists, err := s.tableExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", core.ErrTableNotFound, name)
	}

	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", name)); err != nil {
			return fmt.Errorf("%w: drop table %s: %w", core.ErrStorage, name, err)
		}
		_, err := tx.NewDelete().
			Model((*TableRecord)(nil)).
			Where("table_name = ?", name).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("%w: deregister table %s: %w", core.ErrStorage, name, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.currentTable == name {
		s.currentTable = DefaultTableName
	}
	s.mu.Unlock()

	s.logger.Info("deleted embedding table", "table", name)
	return nil
}

// SwitchTable changes the active table and returns the previous and current
// names. Concurrent switches race with last-writer-wins semantics; every
// operation after the switch uses the new active table.
func (s *Store) SwitchTable(ctx context.Context, name string) (previous, current string, err error) {
	if err := core.ValidateTableName(name); err != nil {
		return "", "", err
	}

	exists, err := s.tableExists(ctx, name)
	if err != nil {
		return "", "", err
	}
	if !exists {
		return "", "", fmt.Errorf("%w: %s", core.ErrTableNotFound, name)
	}

	s.mu.Lock()
	previous = s.currentTable
	s.currentTable = name
	s.mu.Unlock()

	s.logger.Info("switched active table", "previous", previous, "current", name)
	return previous, name, nil
}
