package badger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/mailvec/core"
	"github.com/poiesic/mailvec/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	store := NewStore(backend)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testRecord(emailID string, typ core.EmbeddingType, vector []float32) *core.EmbeddingRecord {
	return &core.EmbeddingRecord{
		EmailID:        emailID,
		Type:           typ,
		Vector:         vector,
		ContentPreview: "preview for " + emailID,
		Fingerprint:    core.FingerprintContent(emailID),
		CreatedAt:      time.Now().UTC(),
	}
}

func TestStoreUpsertAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	record := testRecord("e1", core.EmbeddingTypeSubject, []float32{1, 0, 0})
	result, err := store.Upsert(ctx, "inbox", []*core.EmbeddingRecord{record})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Upserted)
	assert.Empty(t, result.Failed)

	got, err := store.Get(ctx, "inbox", "e1", core.EmbeddingTypeSubject)
	require.NoError(t, err)
	assert.Equal(t, record.EmailID, got.EmailID)
	assert.Equal(t, record.Vector, got.Vector)
	assert.Equal(t, record.Fingerprint, got.Fingerprint)
}

func TestStoreGetNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "inbox", "missing", core.EmbeddingTypeBody)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStoreUpsertReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := testRecord("e1", core.EmbeddingTypeBody, []float32{1, 0})
	second := testRecord("e1", core.EmbeddingTypeBody, []float32{0, 1})
	second.ContentPreview = "updated"

	_, err := store.Upsert(ctx, "inbox", []*core.EmbeddingRecord{first})
	require.NoError(t, err)
	_, err = store.Upsert(ctx, "inbox", []*core.EmbeddingRecord{second})
	require.NoError(t, err)

	got, err := store.Get(ctx, "inbox", "e1", core.EmbeddingTypeBody)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1}, got.Vector)
	assert.Equal(t, "updated", got.ContentPreview)

	count, err := store.Count(ctx, "inbox")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStoreUpsertCollectsFailures(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	records := []*core.EmbeddingRecord{
		testRecord("good", core.EmbeddingTypeSubject, []float32{1}),
		{EmailID: "", Type: core.EmbeddingTypeSubject, Vector: []float32{1}},
		{EmailID: "novec", Type: core.EmbeddingTypeBody},
	}

	result, err := store.Upsert(ctx, "inbox", records)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Upserted)
	require.Len(t, result.Failed, 2)
	assert.Equal(t, "novec", result.Failed[1].EmailID)
}

func TestStoreQueryOrdersByScore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	records := []*core.EmbeddingRecord{
		testRecord("far", core.EmbeddingTypeBody, []float32{0, 1, 0}),
		testRecord("near", core.EmbeddingTypeBody, []float32{1, 0, 0}),
		testRecord("mid", core.EmbeddingTypeBody, []float32{0.7, 0.7, 0}),
	}
	_, err := store.Upsert(ctx, "inbox", records)
	require.NoError(t, err)

	matches, err := store.Query(ctx, "inbox", []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "near", matches[0].Record.EmailID)
	assert.Equal(t, "mid", matches[1].Record.EmailID)
	assert.Greater(t, matches[0].Score, matches[1].Score)
}

func TestStoreQueryClampsTopK(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Upsert(ctx, "inbox", []*core.EmbeddingRecord{
		testRecord("only", core.EmbeddingTypeSubject, []float32{1, 0}),
	})
	require.NoError(t, err)

	matches, err := store.Query(ctx, "inbox", []float32{1, 0}, 50)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestStoreQueryInvalid(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Query(ctx, "inbox", []float32{1}, 0)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)

	_, err = store.Query(ctx, "inbox", nil, 5)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestStoreQueryEmptyCollection(t *testing.T) {
	store := newTestStore(t)

	matches, err := store.Query(context.Background(), "nothing", []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestStoreCollectionsAreIsolated(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Upsert(ctx, "alpha", []*core.EmbeddingRecord{
		testRecord("a1", core.EmbeddingTypeSubject, []float32{1}),
	})
	require.NoError(t, err)
	_, err = store.Upsert(ctx, "beta", []*core.EmbeddingRecord{
		testRecord("b1", core.EmbeddingTypeSubject, []float32{1}),
		testRecord("b2", core.EmbeddingTypeSubject, []float32{1}),
	})
	require.NoError(t, err)

	countAlpha, err := store.Count(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, 1, countAlpha)

	countBeta, err := store.Count(ctx, "beta")
	require.NoError(t, err)
	assert.Equal(t, 2, countBeta)

	_, err = store.Get(ctx, "alpha", "b1", core.EmbeddingTypeSubject)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStoreExists(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	exists, err := store.Exists(ctx, "inbox")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.Upsert(ctx, "inbox", []*core.EmbeddingRecord{
		testRecord("e1", core.EmbeddingTypeSubject, []float32{1}),
	})
	require.NoError(t, err)

	exists, err = store.Exists(ctx, "inbox")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestStoreInfoRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Info(ctx, "inbox")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	info := &core.CollectionInfo{
		Model:     "embeddinggemma",
		Dimension: 768,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.SetInfo(ctx, "inbox", info))

	got, err := store.Info(ctx, "inbox")
	require.NoError(t, err)
	assert.Equal(t, info.Model, got.Model)
	assert.Equal(t, info.Dimension, got.Dimension)

	// Manifest alone marks the collection as existing.
	exists, err := store.Exists(ctx, "inbox")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestStoreListPagination(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var records []*core.EmbeddingRecord
	for i := 0; i < 7; i++ {
		records = append(records, testRecord(fmt.Sprintf("e%02d", i), core.EmbeddingTypeBody, []float32{1}))
	}
	_, err := store.Upsert(ctx, "inbox", records)
	require.NoError(t, err)

	seen := map[string]bool{}
	cursor := ""
	pages := 0
	for {
		page, next, err := store.List(ctx, "inbox", cursor, 3)
		require.NoError(t, err)
		for _, record := range page {
			assert.False(t, seen[record.EmailID], "record %s returned twice", record.EmailID)
			seen[record.EmailID] = true
		}
		pages++
		if next == "" {
			break
		}
		cursor = next
	}

	assert.Len(t, seen, 7)
	assert.LessOrEqual(t, pages, 4)
}

func TestStoreListInvalidLimit(t *testing.T) {
	store := newTestStore(t)

	_, _, err := store.List(context.Background(), "inbox", "", 0)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestStoreClosedReturnsUnavailable(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	store := NewStore(backend)
	require.NoError(t, store.Close())

	_, err = store.Upsert(context.Background(), "inbox", []*core.EmbeddingRecord{
		testRecord("e1", core.EmbeddingTypeSubject, []float32{1}),
	})
	assert.ErrorIs(t, err, storage.ErrUnavailable)
}

// lateCancelContext reports no error on its first Err check and
// context.Canceled on every later one.
type lateCancelContext struct {
	context.Context
	checks int
}

func (c *lateCancelContext) Err() error {
	c.checks++
	if c.checks > 1 {
		return context.Canceled
	}
	return nil
}

func TestStoreUpsertWritesFullSetDespiteCancellation(t *testing.T) {
	store := newTestStore(t)
	ctx := &lateCancelContext{Context: context.Background()}

	records := []*core.EmbeddingRecord{
		testRecord("e1", core.EmbeddingTypeSubject, []float32{1, 0}),
		testRecord("e1", core.EmbeddingTypeBody, []float32{0, 1}),
		testRecord("e1", core.EmbeddingTypeCombined, []float32{1, 1}),
	}

	result, err := store.Upsert(ctx, "inbox", records)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Upserted)

	// A context cancelled mid-call must not leave the email with a
	// partial record set.
	for _, typ := range []core.EmbeddingType{
		core.EmbeddingTypeSubject, core.EmbeddingTypeBody, core.EmbeddingTypeCombined,
	} {
		_, err := store.Get(context.Background(), "inbox", "e1", typ)
		require.NoError(t, err, "type %s missing", typ.String())
	}
}

func TestStoreUpsertRejectsCancelledContext(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Upsert(ctx, "inbox", []*core.EmbeddingRecord{
		testRecord("e1", core.EmbeddingTypeSubject, []float32{1}),
	})
	assert.ErrorIs(t, err, context.Canceled)

	count, err := store.Count(context.Background(), "inbox")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestStoreRejectsAmbiguousCollectionNames(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// "a" scans prefix "embrec:a:", which would also match "a:b" keys.
	for _, name := range []string{"a:b", ":", ""} {
		_, err := store.Upsert(ctx, name, []*core.EmbeddingRecord{
			testRecord("e1", core.EmbeddingTypeSubject, []float32{1}),
		})
		assert.ErrorIs(t, err, storage.ErrInvalidCollection, "upsert into %q", name)

		_, err = store.Query(ctx, name, []float32{1}, 5)
		assert.ErrorIs(t, err, storage.ErrInvalidCollection, "query of %q", name)

		_, err = store.Count(ctx, name)
		assert.ErrorIs(t, err, storage.ErrInvalidCollection, "count of %q", name)

		err = store.SetInfo(ctx, name, &core.CollectionInfo{Model: "m", Dimension: 2})
		assert.ErrorIs(t, err, storage.ErrInvalidCollection, "setinfo of %q", name)
	}
}

func TestDotProduct(t *testing.T) {
	assert.InDelta(t, 1.0, dotProduct([]float32{1, 0}, []float32{1, 0}), 1e-6)
	assert.InDelta(t, 0.0, dotProduct([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.InDelta(t, 0.5, dotProduct([]float32{0.5, 0.5}, []float32{1, 0}), 1e-6)
	// Mismatched dimensions ignore the tail.
	assert.InDelta(t, 2.0, dotProduct([]float32{1, 1, 1}, []float32{1, 1}), 1e-6)
}
