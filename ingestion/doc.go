// Package ingestion turns raw email payloads into persisted embedding
// records.
//
// A batch moves through four stages per item: normalization into the
// canonical email form, fingerprint-based deduplication against the
// stored records, embedding generation for the subject, body, and
// combined texts, and persistence into the vector store. Items run
// concurrently on an ants worker pool; the batch result accounts for
// every submitted item as embedded, skipped, or failed.
//
// Item-level problems never abort a batch. Only an unusable payload or
// an unavailable embedding or storage backend does, and then no partial
// result is returned.
package ingestion
