package core

// Hand-written MUS serializers for the persisted types. The record set is
// small enough that generated code is not worth a go:generate step.

import (
	"time"

	mus "github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

var (
	// FingerprintMUS serializes Fingerprint values.
	FingerprintMUS mus.Serializer[Fingerprint] = fingerprintMUS{}

	// EmbeddingRecordMUS serializes EmbeddingRecord values.
	EmbeddingRecordMUS mus.Serializer[EmbeddingRecord] = embeddingRecordMUS{}

	// CollectionInfoMUS serializes CollectionInfo values.
	CollectionInfoMUS mus.Serializer[CollectionInfo] = collectionInfoMUS{}
)

var vectorMUS = ord.NewSliceSer[float32](varint.Float32)

type fingerprintMUS struct{}

func (fingerprintMUS) Marshal(v Fingerprint, bs []byte) int {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (fingerprintMUS) Unmarshal(bs []byte) (Fingerprint, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return Fingerprint(v), n, err
}

func (fingerprintMUS) Size(v Fingerprint) int {
	return varint.Uint64.Size(uint64(v))
}

func (fingerprintMUS) Skip(bs []byte) (int, error) {
	return varint.Uint64.Skip(bs)
}

type embeddingRecordMUS struct{}

func (embeddingRecordMUS) Marshal(v EmbeddingRecord, bs []byte) (n int) {
	n = ord.String.Marshal(v.EmailID, bs)
	n += varint.Int.Marshal(int(v.Type), bs[n:])
	n += vectorMUS.Marshal(v.Vector, bs[n:])
	n += ord.String.Marshal(v.ContentPreview, bs[n:])
	n += FingerprintMUS.Marshal(v.Fingerprint, bs[n:])
	n += raw.TimeUnixMicro.Marshal(v.CreatedAt, bs[n:])
	return n
}

func (embeddingRecordMUS) Unmarshal(bs []byte) (v EmbeddingRecord, n int, err error) {
	var n1 int
	v.EmailID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var typ int
	typ, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Type = EmbeddingType(typ)
	v.Vector, n1, err = vectorMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.ContentPreview, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Fingerprint, n1, err = FingerprintMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var ts time.Time
	ts, n1, err = raw.TimeUnixMicro.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.CreatedAt = ts
	return
}

func (embeddingRecordMUS) Size(v EmbeddingRecord) (size int) {
	size = ord.String.Size(v.EmailID)
	size += varint.Int.Size(int(v.Type))
	size += vectorMUS.Size(v.Vector)
	size += ord.String.Size(v.ContentPreview)
	size += FingerprintMUS.Size(v.Fingerprint)
	size += raw.TimeUnixMicro.Size(v.CreatedAt)
	return size
}

func (s embeddingRecordMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

type collectionInfoMUS struct{}

func (collectionInfoMUS) Marshal(v CollectionInfo, bs []byte) (n int) {
	n = ord.String.Marshal(v.Model, bs)
	n += varint.Int.Marshal(v.Dimension, bs[n:])
	n += raw.TimeUnixMicro.Marshal(v.CreatedAt, bs[n:])
	return n
}

func (collectionInfoMUS) Unmarshal(bs []byte) (v CollectionInfo, n int, err error) {
	var n1 int
	v.Model, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Dimension, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var ts time.Time
	ts, n1, err = raw.TimeUnixMicro.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.CreatedAt = ts
	return
}

func (collectionInfoMUS) Size(v CollectionInfo) (size int) {
	size = ord.String.Size(v.Model)
	size += varint.Int.Size(v.Dimension)
	size += raw.TimeUnixMicro.Size(v.CreatedAt)
	return size
}

func (s collectionInfoMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}
