package core

import (
	"encoding/binary"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// Fingerprint is a stable 64-bit hash over an email's mutable content.
// It is used to detect content changes between ingestions of the same ID.
type Fingerprint uint64

// FingerprintContent generates a deterministic fingerprint from text parts
// using BLAKE2b hashing. Parts are separated by a NUL byte so that
// ("ab","c") and ("a","bc") hash differently.
func FingerprintContent(parts ...string) Fingerprint {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	for i, part := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(part))
	}
	sum := h.Sum(nil)
	return Fingerprint(binary.LittleEndian.Uint64(sum))
}

// FingerprintEmail computes the content fingerprint of an email.
// Only the fields that trigger re-embedding participate: subject, body
// content, and the sender address.
func FingerprintEmail(e *Email) Fingerprint {
	return FingerprintContent(e.Subject, e.Body.Content, e.Sender.Address)
}

// BodyType tags the representation of an email body.
type BodyType int

const (
	// BodyTypeText is a plain text body.
	BodyTypeText BodyType = iota + 1
	// BodyTypeHTML is a markup body.
	BodyTypeHTML
)

func (b BodyType) String() string {
	if b == BodyTypeHTML {
		return "html"
	}
	return "text"
}

// MarshalJSON encodes the body type as its lowercase tag.
func (b BodyType) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

// UnmarshalJSON accepts the tags used by both the provider export format
// and the canonical format. Unknown tags default to plain text.
func (b *BodyType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if strings.EqualFold(s, "html") {
		*b = BodyTypeHTML
	} else {
		*b = BodyTypeText
	}
	return nil
}

// Importance is the sender-declared priority of an email.
type Importance int

const (
	ImportanceLow Importance = iota + 1
	ImportanceNormal
	ImportanceHigh
)

func (i Importance) String() string {
	switch i {
	case ImportanceLow:
		return "low"
	case ImportanceHigh:
		return "high"
	default:
		return "normal"
	}
}

// MarshalJSON encodes the importance as its lowercase tag.
func (i Importance) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.String())
}

// UnmarshalJSON accepts "low", "normal" and "high" case-insensitively.
// Anything else, including the empty string, defaults to normal.
func (i *Importance) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch strings.ToLower(s) {
	case "low":
		*i = ImportanceLow
	case "high":
		*i = ImportanceHigh
	default:
		*i = ImportanceNormal
	}
	return nil
}

// EmailAddress is a name and address pair.
type EmailAddress struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address"`
}

// EmailBody holds the body content together with its representation tag.
type EmailBody struct {
	ContentType BodyType `json:"contentType"`
	Content     string   `json:"content"`
}

// Email is the canonical email record produced by normalization.
// The ID is immutable once assigned and globally unique per source.
type Email struct {
	ID             string         `json:"id"`
	Subject        string         `json:"subject"`
	Body           EmailBody      `json:"body"`
	Sender         EmailAddress   `json:"sender"`
	To             []EmailAddress `json:"to"`
	CC             []EmailAddress `json:"cc"`
	BCC            []EmailAddress `json:"bcc"`
	CreatedAt      time.Time      `json:"createdAt"`
	Importance     Importance     `json:"importance"`
	HasAttachments bool           `json:"hasAttachments"`
	IsRead         bool           `json:"isRead"`
	ConversationID string         `json:"conversationId,omitempty"`
	SourceLink     string         `json:"sourceLink,omitempty"`
}

// EmbeddingType identifies which slice of an email a vector represents.
type EmbeddingType int

const (
	EmbeddingTypeSubject EmbeddingType = iota + 1
	EmbeddingTypeBody
	EmbeddingTypeCombined
)

// EmbeddingsPerEmail is the number of embedding records a fully indexed
// email contributes to a collection.
const EmbeddingsPerEmail = 3

// EmbeddingTypes lists all embedding types in persistence order.
var EmbeddingTypes = []EmbeddingType{
	EmbeddingTypeSubject,
	EmbeddingTypeBody,
	EmbeddingTypeCombined,
}

func (t EmbeddingType) String() string {
	switch t {
	case EmbeddingTypeSubject:
		return "subject"
	case EmbeddingTypeBody:
		return "body"
	case EmbeddingTypeCombined:
		return "combined"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the embedding type as its lowercase tag.
func (t EmbeddingType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts "subject", "body" and "combined".
func (t *EmbeddingType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch strings.ToLower(s) {
	case "subject":
		*t = EmbeddingTypeSubject
	case "body":
		*t = EmbeddingTypeBody
	case "combined":
		*t = EmbeddingTypeCombined
	default:
		return ErrInvalidEmbeddingType
	}
	return nil
}

// EmbeddingRecord is a persisted vector with its provenance.
// At most one record exists per (EmailID, Type); re-ingestion upserts.
type EmbeddingRecord struct {
	EmailID        string
	Type           EmbeddingType
	Vector         []float32
	ContentPreview string
	Fingerprint    Fingerprint
	CreatedAt      time.Time
}

// CollectionInfo is the per-collection manifest persisted alongside the
// embedding records. It pins the model and vector dimension the
// collection was built with.
type CollectionInfo struct {
	Model     string
	Dimension int
	CreatedAt time.Time
}

// Stage identifies the pipeline stage at which an item failed.
type Stage string

const (
	StageNormalize Stage = "normalize"
	StageDedupe    Stage = "dedupe"
	StageEmbed     Stage = "embed"
	StagePersist   Stage = "persist"
)

// ItemFailure records a single email's failure inside a batch.
type ItemFailure struct {
	EmailID string `json:"email_id"`
	Stage   Stage  `json:"stage"`
	Reason  string `json:"reason"`
}

// BatchState is the terminal state of a batch ingestion.
type BatchState string

const (
	BatchCompleted       BatchState = "completed"
	BatchPartiallyFailed BatchState = "partially_failed"
)

// IngestionResult is the per-batch aggregate returned by the pipeline.
// It is constructed fresh per invocation and immutable once returned.
// Every submitted item lands in exactly one of embedded, skipped, or
// failed; ProcessedCount counts the items that completed without failure,
// so ProcessedCount + len(FailedItems) equals the batch size.
type IngestionResult struct {
	BatchID        string        `json:"batch_id"`
	Collection     string        `json:"collection"`
	State          BatchState    `json:"state"`
	ProcessedCount int           `json:"processed_count"`
	EmbeddedCount  int           `json:"embedded_count"`
	SkippedCount   int           `json:"skipped_count"`
	FailedItems    []ItemFailure `json:"failed_items"`
	ProcessingTime time.Duration `json:"processing_time"`
}

// CollectionStats is the on-demand health view of a collection.
type CollectionStats struct {
	Collection          string `json:"collection"`
	CollectionExists    bool   `json:"collection_exists"`
	TotalEmbeddings     int    `json:"total_embeddings"`
	EstimatedEmailCount int    `json:"estimated_email_count"`
	EmbeddingModel      string `json:"embedding_model"`
	VectorDimension     int    `json:"vector_dimension"`
}

// EmailMatch is a single search hit with its provenance.
type EmailMatch struct {
	EmailID        string        `json:"email_id"`
	Type           EmbeddingType `json:"embedding_type"`
	Score          float32       `json:"score"`
	ContentPreview string        `json:"content_preview"`
}
