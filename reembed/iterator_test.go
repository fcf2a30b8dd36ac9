package reembed

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/mailvec/core"
	badgerstore "github.com/poiesic/mailvec/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCollection = "inbox"

func newTestStore(t *testing.T) *badgerstore.Store {
	t.Helper()
	backend, err := badgerstore.OpenBackend("", true)
	require.NoError(t, err)
	store := badgerstore.NewStore(backend)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedRecords(t *testing.T, store *badgerstore.Store, n int) {
	t.Helper()
	records := make([]*core.EmbeddingRecord, n)
	for i := range records {
		records[i] = &core.EmbeddingRecord{
			EmailID:        fmt.Sprintf("e%03d", i),
			Type:           core.EmbeddingTypeCombined,
			Vector:         []float32{1, 0},
			ContentPreview: fmt.Sprintf("preview %d", i),
			CreatedAt:      time.Now().UTC(),
		}
	}
	result, err := store.Upsert(context.Background(), testCollection, records)
	require.NoError(t, err)
	require.Empty(t, result.Failed)
}

func TestIteratorVisitsAllRecordsOnce(t *testing.T) {
	store := newTestStore(t)
	seedRecords(t, store, 7)

	iterator := NewRecordIterator(store, 3)
	seen := map[string]int{}
	var batchSizes []int
	err := iterator.ForEach(context.Background(), testCollection, func(records []*core.EmbeddingRecord) error {
		batchSizes = append(batchSizes, len(records))
		for _, record := range records {
			seen[record.EmailID]++
		}
		return nil
	})
	require.NoError(t, err)

	assert.Len(t, seen, 7)
	for id, count := range seen {
		assert.Equal(t, 1, count, "record %s visited %d times", id, count)
	}
	for _, size := range batchSizes {
		assert.LessOrEqual(t, size, 3)
	}
}

func TestIteratorEmptyCollection(t *testing.T) {
	store := newTestStore(t)

	iterator := NewRecordIterator(store, 10)
	calls := 0
	err := iterator.ForEach(context.Background(), testCollection, func([]*core.EmbeddingRecord) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, calls)
}

func TestIteratorStopsOnCallbackError(t *testing.T) {
	store := newTestStore(t)
	seedRecords(t, store, 10)

	boom := errors.New("stop here")
	iterator := NewRecordIterator(store, 2)
	calls := 0
	err := iterator.ForEach(context.Background(), testCollection, func([]*core.EmbeddingRecord) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestIteratorDefaultBatchSize(t *testing.T) {
	store := newTestStore(t)
	iterator := NewRecordIterator(store, 0)
	assert.Equal(t, DefaultBatchSize, iterator.batchSize)
}
