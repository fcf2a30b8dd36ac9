package normalize

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/poiesic/mailvec/core"
)

// Source identifies the payload shape a batch arrived in.
type Source int

const (
	// SourceBulk is a provider export container with a "value" list.
	SourceBulk Source = iota + 1
	// SourceWebhook is a single message object.
	SourceWebhook
)

func (s Source) String() string {
	switch s {
	case SourceBulk:
		return "bulk"
	case SourceWebhook:
		return "webhook"
	default:
		return "unknown"
	}
}

// providerAddress is the emailAddress wrapper used by the export format.
type providerAddress struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type providerRecipient struct {
	EmailAddress providerAddress `json:"emailAddress"`
}

type providerBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// providerMessage is the provider export dialect of a message object.
// Unknown fields are ignored by encoding/json, which keeps this forward
// compatible with provider schema additions.
type providerMessage struct {
	ID               string              `json:"id"`
	Subject          string              `json:"subject"`
	Body             *providerBody       `json:"body"`
	From             *providerRecipient  `json:"from"`
	ToRecipients     []providerRecipient `json:"toRecipients"`
	CcRecipients     []providerRecipient `json:"ccRecipients"`
	BccRecipients    []providerRecipient `json:"bccRecipients"`
	ReceivedDateTime string              `json:"receivedDateTime"`
	Importance       string              `json:"importance"`
	HasAttachments   bool                `json:"hasAttachments"`
	IsRead           bool                `json:"isRead"`
	ConversationID   string              `json:"conversationId"`
	WebLink          string              `json:"webLink"`
}

// Normalize converts a raw JSON payload into canonical emails.
// A top-level "value" member selects the bulk container shape; any other
// JSON object is treated as a single webhook message.
func Normalize(raw []byte) ([]*core.Email, Source, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrInvalidPayload, ErrNotJSON)
	}

	value, ok := top["value"]
	if !ok {
		email, err := NormalizeMessage(raw)
		if err != nil {
			return nil, 0, err
		}
		return []*core.Email{email}, SourceWebhook, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(value, &items); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrInvalidPayload, ErrInvalidValueList)
	}

	emails := make([]*core.Email, 0, len(items))
	for i, item := range items {
		email, err := NormalizeMessage(item)
		if err != nil {
			return nil, 0, fmt.Errorf("item %d: %w", i, err)
		}
		emails = append(emails, email)
	}
	return emails, SourceBulk, nil
}

// Split breaks a raw payload into its individual message objects without
// normalizing them. Callers that want per-item error reporting normalize
// each element with NormalizeMessage themselves.
func Split(raw []byte) ([]json.RawMessage, Source, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrInvalidPayload, ErrNotJSON)
	}

	value, ok := top["value"]
	if !ok {
		return []json.RawMessage{raw}, SourceWebhook, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(value, &items); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrInvalidPayload, ErrInvalidValueList)
	}
	return items, SourceBulk, nil
}

// NormalizeMessage converts a single message object into a canonical email.
// The provider dialect and the canonical dialect are both accepted, so
// normalizing an already-canonical email is idempotent.
func NormalizeMessage(raw []byte) (*core.Email, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, ErrNotJSON)
	}

	var email *core.Email
	var err error
	if isCanonical(fields) {
		email, err = normalizeCanonical(raw)
	} else {
		email, err = normalizeProvider(raw)
	}
	if err != nil {
		return nil, err
	}

	if email.ID == "" {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, ErrMissingID)
	}
	if email.Importance == 0 {
		email.Importance = core.ImportanceNormal
	}
	if email.Body.ContentType == 0 {
		email.Body.ContentType = core.BodyTypeText
	}
	return email, nil
}

// isCanonical reports whether a message object uses the canonical dialect.
// The flat "sender" block is the discriminator; the provider dialect nests
// the sender under "from".
func isCanonical(fields map[string]json.RawMessage) bool {
	if _, ok := fields["sender"]; ok {
		return true
	}
	if _, ok := fields["createdAt"]; ok {
		return true
	}
	return false
}

func normalizeCanonical(raw []byte) (*core.Email, error) {
	var email core.Email
	if err := json.Unmarshal(raw, &email); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return &email, nil
}

func normalizeProvider(raw []byte) (*core.Email, error) {
	var msg providerMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	email := &core.Email{
		ID:             msg.ID,
		Subject:        msg.Subject,
		To:             flattenRecipients(msg.ToRecipients),
		CC:             flattenRecipients(msg.CcRecipients),
		BCC:            flattenRecipients(msg.BccRecipients),
		HasAttachments: msg.HasAttachments,
		IsRead:         msg.IsRead,
		ConversationID: msg.ConversationID,
		SourceLink:     msg.WebLink,
	}

	// Missing body.content is an empty body, not an error.
	if msg.Body != nil {
		email.Body.Content = msg.Body.Content
		email.Body.ContentType = parseBodyType(msg.Body.ContentType)
	}

	if msg.From != nil {
		email.Sender = core.EmailAddress{
			Name:    msg.From.EmailAddress.Name,
			Address: msg.From.EmailAddress.Address,
		}
	}

	email.Importance = parseImportance(msg.Importance)

	if msg.ReceivedDateTime != "" {
		// Invalid timestamps are dropped rather than rejected; the
		// record is still indexable without one.
		if ts, err := time.Parse(time.RFC3339, msg.ReceivedDateTime); err == nil {
			email.CreatedAt = ts.UTC()
		}
	}

	return email, nil
}

// flattenRecipients unwraps the emailAddress nesting into flat pairs.
// An explicitly empty recipient list stays an empty list.
func flattenRecipients(recipients []providerRecipient) []core.EmailAddress {
	if recipients == nil {
		return nil
	}
	out := make([]core.EmailAddress, 0, len(recipients))
	for _, r := range recipients {
		out = append(out, core.EmailAddress{
			Name:    r.EmailAddress.Name,
			Address: r.EmailAddress.Address,
		})
	}
	return out
}

func parseBodyType(s string) core.BodyType {
	if s == "html" || s == "HTML" {
		return core.BodyTypeHTML
	}
	return core.BodyTypeText
}

func parseImportance(s string) core.Importance {
	switch s {
	case "low", "Low":
		return core.ImportanceLow
	case "high", "High":
		return core.ImportanceHigh
	default:
		return core.ImportanceNormal
	}
}
