// Package ai defines the embedding capability interface and its
// configuration. Concrete backends live in subpackages: ai/openai talks to
// any OpenAI-compatible endpoint; ai/mock provides deterministic test
// doubles. The pipeline and searcher depend only on the Embedder
// interface, so backends substitute without touching pipeline logic.
package ai
