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

// Package jobstore persists batch-job records in a fast key-value store.
//
// Records are stored as flat string field maps under a namespaced key per job
// id (hash-set semantics), so a worker can checkpoint individual fields such
// as the processed count, progress and status without rewriting the whole
// record.
// Job records are durable and are not time-limited: a restarted worker or a
// late status poll must still find them.
//
// The badger subpackage provides the production implementation on BadgerDB;
// its in-memory mode backs the test suites of every package that needs a job
// store.
package jobstore
