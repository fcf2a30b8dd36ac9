// Copyright 2025 Poiesic Systems
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


// Package storage provides the vector persistence abstraction for mailvec.
//
// The VectorStore interface decouples the ingestion pipeline and search
// layer from the persistence implementation. Two backends ship with the
// module:
//
//   - storage/badger: an embedded BadgerDB store with a brute-force
//     similarity scan, suitable for single-node deployments and tests
//   - storage/chroma: a remote Chroma vector database client
//
// Public constructors return the VectorStore interface to enforce
// abstraction:
//
//	store, err := badger.Open(path)
//	defer store.Close()
//
// All implementations must be thread-safe; methods accept context.Context
// for cancellation. Reads during concurrent ingestion may observe a
// partially updated collection, which is acceptable by contract.
package storage
