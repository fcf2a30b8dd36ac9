// Package mock provides deterministic test doubles for the ai interfaces.
//
// The mock embedder produces word-hash vectors: texts sharing vocabulary
// score higher under cosine similarity than unrelated texts, so relevance
// ordering can be asserted without a real model.
package mock
