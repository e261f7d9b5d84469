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

// Package chunk splits documents into retrieval-sized units.
//
// The chunker is a pure function of its input: no I/O, no suspension points,
// deterministic output. The strategy is character-length chunking with
// paragraph-aware boundaries and a configurable tail overlap between
// consecutive chunks, so a sentence cut at a chunk boundary still appears in
// full in the next chunk.
package chunk
