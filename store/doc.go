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

// Package store persists embeddings in PostgreSQL with the pgvector
// extension. It owns the full table lifecycle: schema bootstrap, dynamic
// per-collection embedding tables, upserts keyed on document id, cosine
// similarity search and maintenance operations.
//
// One table is active per Store instance at a time; SwitchTable changes the
// active table with last-writer-wins semantics.
package store
