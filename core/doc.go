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

// Package core defines the domain model shared by all ragstore components.
//
// It contains the entity types (Document, Chunk, EmbeddingRecord, TableInfo,
// BatchJob), the error taxonomy used across package boundaries, and the
// table-name validation rules that guard every dynamically built SQL
// identifier.
//
// The package has no dependencies beyond the standard library and must stay
// that way: every other package imports core, never the other way around.
package core
