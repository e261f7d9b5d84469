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

// Package batch orchestrates asynchronous embedding jobs over document sets.
//
// A job is created as a pending record in the job store, handed to a task
// queue, and processed by a worker that chunks nothing and parallelizes
// nothing: documents are embedded and stored strictly in submission order,
// one at a time, because embedding-provider rate limits make a single stream
// the safe default. Per-document failures are recorded and skipped, never
// fatal to the job. Progress is checkpointed to the job store after every
// document; checkpoints are also the points where a running worker observes
// cancellation.
//
// Job status reads merge two sources of truth: the persisted record and the
// live task-queue state. Terminal queue states win, so a worker that died
// without reaching a terminal write is still eventually observable as failed.
package batch
