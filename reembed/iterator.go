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

package reembed

import (
	"context"

	"github.com/poiesic/mailvec/core"
	"github.com/poiesic/mailvec/storage"
)

const (
	// DefaultBatchSize is the default number of records to fetch in each batch
	DefaultBatchSize = 100
)

// RecordIterator pages over a collection's embedding records.
type RecordIterator struct {
	lister    storage.RecordLister
	batchSize int
}

// NewRecordIterator creates a new record iterator.
// batchSize: number of records to fetch in each batch (must be > 0)
func NewRecordIterator(lister storage.RecordLister, batchSize int) *RecordIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &RecordIterator{
		lister:    lister,
		batchSize: batchSize,
	}
}

// ForEach iterates over all records in a collection, calling fn for each
// batch. Iteration stops on the first error from fn or when the cursor is
// exhausted. Context cancellation is checked between batches.
func (it *RecordIterator) ForEach(ctx context.Context, collection string, fn func([]*core.EmbeddingRecord) error) error {
	cursor := ""
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		records, next, err := it.lister.List(ctx, collection, cursor, it.batchSize)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}

		if err := fn(records); err != nil {
			return err
		}

		if next == "" {
			return nil
		}
		cursor = next
	}
}
