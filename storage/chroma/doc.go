// Package chroma provides a storage.VectorStore backed by a remote Chroma
// vector database. It targets the v2 HTTP API and stores precomputed
// vectors, so the server needs no embedding function of its own.
//
// Record identity follows the same (EmailID, Type) key as the embedded
// backend; the pair is encoded into the Chroma document ID so repeated
// upserts replace in place. The collection manifest rides along in the
// Chroma collection metadata.
//
// The store does not implement storage.RecordLister: the v2 API offers no
// stable cursor over a collection, so re-embedding workflows should run
// against the embedded backend.
package chroma
