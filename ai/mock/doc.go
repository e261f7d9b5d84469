// Package mock provides test doubles for the ai package.
//
// The mock embedder produces deterministic vectors derived from an FNV hash
// of the input text, so tests get stable, repeatable embeddings without a
// network dependency. Failure behavior is injected through function fields.
package mock
