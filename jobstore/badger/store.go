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

// Package badger implements jobstore.Store on BadgerDB.
package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/parcival-labs/ragstore/core"
	"github.com/parcival-labs/ragstore/jobstore"
)

// Store persists job records in a BadgerDB database.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

var _ jobstore.Store = (*Store)(nil)

// badgerLoggerAdapter adapts slog.Logger to the badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// Open opens a BadgerDB-backed job store at the given path, creating the
// directory if needed. With inMemory set, the path is ignored and nothing is
// persisted; that mode exists for tests.
func Open(filePath string, inMemory bool) (*Store, error) {
	var opts badger.Options

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		info, err := os.Stat(filePath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
			if err := os.MkdirAll(filePath, 0755); err != nil {
				return nil, err
			}
			info, err = os.Stat(filePath)
			if err != nil {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		opts = badger.DefaultOptions(filePath)
	}

	logger := slog.Default().With("component", "jobstore")
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrStorage, err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying BadgerDB database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SetFields writes the given fields of a job record in one transaction,
// creating the record marker if this is the first write for the id.
func (s *Store) SetFields(ctx context.Context, jobID string, fields map[string]string) error {
	if jobID == "" {
		return fmt.Errorf("%w: empty job id", core.ErrStorage)
	}

	err := s.db.Update(func(tx *badger.Txn) error {
		if err := tx.Set(makeJobMarkerKey(jobID), nil); err != nil {
			return err
		}
		for field, value := range fields {
			if err := tx.Set(makeJobFieldKey(jobID, field), []byte(value)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrStorage, err)
	}
	return nil
}

// GetFields returns all persisted fields of a job record.
func (s *Store) GetFields(ctx context.Context, jobID string) (map[string]string, error) {
	fields := make(map[string]string)

	err := s.db.View(func(tx *badger.Txn) error {
		if _, err := tx.Get(makeJobMarkerKey(jobID)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: job %s", core.ErrNotFound, jobID)
			}
			return err
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeJobFieldScanPrefix(jobID)
		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			field := fieldFromKey(item.Key(), jobID)
			if err := item.Value(func(val []byte) error {
				fields[field] = string(val)
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fields, nil
}

// JobIDs enumerates all known job record ids via a marker prefix scan.
func (s *Store) JobIDs(ctx context.Context) ([]string, error) {
	var ids []string

	err := s.db.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(jobMarkerPrefix)
		opts.PrefetchValues = false
		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			ids = append(ids, jobIDFromMarker(it.Item().Key()))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrStorage, err)
	}
	return ids, nil
}
