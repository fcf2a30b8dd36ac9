// Package reembed regenerates stored embedding vectors in bulk.
//
// Records persist the exact text they were embedded from as their content
// preview, so a collection can be migrated to a new embedding model
// without replaying the original email payloads. The reembedder pages
// through the collection with a cursor, embeds each batch with retry and
// exponential backoff, writes the refreshed vectors back, and finally
// updates the collection manifest to the active model.
package reembed
