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

// Package ai defines the embedding-provider abstraction used by the
// ingestion pipeline and the batch orchestrator.
//
// The Embedder interface is the only contract the rest of the system depends
// on. Two implementations ship with the repository:
//
//   - ai/openai: production implementation backed by any OpenAI-compatible
//     embeddings API (OpenAI, Ollama, vLLM, LocalAI)
//   - ai/mock: deterministic test double with injectable behavior
//
// Public constructors return the Embedder interface to keep callers decoupled
// from the concrete client; the mock constructor returns the concrete type so
// tests can inject behavior and assert call counts.
package ai
