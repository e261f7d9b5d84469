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
	"fmt"
	"log/slog"
	"sync"

	"github.com/parcival-labs/ragstore/core"
	"github.com/uptrace/bun"
)

// DefaultTableName is the well-known embedding table that always exists and
// cannot be deleted.
const DefaultTableName = "embeddings"

// registryTableName holds metadata about every embedding table.
const registryTableName = "table_metadata"

// Store is a pgvector-backed embedding store. All methods are safe for
// concurrent use; the active table is the only piece of mutable instance
// state and is guarded by its own lock with last-writer-wins semantics.
type Store struct {
	db        *bun.DB
	logger    *slog.Logger
	dimension int

	mu           sync.RWMutex
	currentTable string
}

// Option configures a Store.
type Option func(*Store)

// WithDimension sets the fixed vector dimension of the embedding tables.
func WithDimension(dim int) Option {
	return func(s *Store) { s.dimension = dim }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Store on an open database handle. The default table is
// active until SwitchTable is called.
func New(db *bun.DB, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: nil database handle", core.ErrInvalidConfig)
	}

	s := &Store{
		db:           db,
		logger:       slog.Default().With("component", "vectorstore"),
		dimension:    core.DefaultEmbeddingDim,
		currentTable: DefaultTableName,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.dimension < 1 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", core.ErrInvalidConfig, s.dimension)
	}
	return s, nil
}

// Dimension returns the fixed vector dimension of this store.
func (s *Store) Dimension() int {
	return s.dimension
}

// CurrentTable returns the active embedding table name.
func (s *Store) CurrentTable() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentTable
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
