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

package core

import "errors"

// Error taxonomy shared across packages. Callers classify failures with
// errors.Is against these sentinels; packages wrap them with context via
// fmt.Errorf("%w: ...").
var (
	// ErrInvalidConfig indicates invalid constructor parameters.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidTableName indicates a table name that fails the identifier
	// pattern or hits the reserved-word blocklist.
	ErrInvalidTableName = errors.New("invalid table name")

	// ErrTableExists indicates an attempt to create a table that is
	// already registered.
	ErrTableExists = errors.New("table already exists")

	// ErrTableNotFound indicates an operation against an unknown table.
	ErrTableNotFound = errors.New("table not found")

	// ErrDimensionMismatch indicates an embedding whose length differs
	// from the table's fixed vector dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmbeddingFailed indicates the embedding provider call failed.
	// Retryable by the caller; the store never retries it.
	ErrEmbeddingFailed = errors.New("embedding generation failed")

	// ErrNotFound indicates an unknown job, table or document.
	ErrNotFound = errors.New("not found")

	// ErrStorage indicates a connection or transaction failure in a
	// persistence backend. May be transient.
	ErrStorage = errors.New("storage failure")
)
