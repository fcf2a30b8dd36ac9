package normalize

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/mailvec/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const providerMessageJSON = `{
	"id": "AAMkAGI2",
	"subject": "Maritime Safety Briefing",
	"body": {"contentType": "html", "content": "<p>All hands.</p>"},
	"from": {"emailAddress": {"name": "Ops Desk", "address": "ops@example.com"}},
	"toRecipients": [
		{"emailAddress": {"name": "Crew", "address": "crew@example.com"}},
		{"emailAddress": {"address": "captain@example.com"}}
	],
	"ccRecipients": [],
	"bccRecipients": [],
	"receivedDateTime": "2026-03-01T08:30:00Z",
	"importance": "high",
	"hasAttachments": true,
	"isRead": false,
	"conversationId": "conv-7",
	"webLink": "https://outlook.example.com/AAMkAGI2",
	"internetMessageId": "<ignored@example.com>"
}`

func TestNormalize_BulkContainer(t *testing.T) {
	payload := `{"@odata.context": "ignored", "value": [` + providerMessageJSON + `]}`

	emails, source, err := Normalize([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, SourceBulk, source)
	require.Len(t, emails, 1)

	email := emails[0]
	assert.Equal(t, "AAMkAGI2", email.ID)
	assert.Equal(t, "Maritime Safety Briefing", email.Subject)
	assert.Equal(t, core.BodyTypeHTML, email.Body.ContentType)
	assert.Equal(t, "<p>All hands.</p>", email.Body.Content)
	assert.Equal(t, "Ops Desk", email.Sender.Name)
	assert.Equal(t, "ops@example.com", email.Sender.Address)
	require.Len(t, email.To, 2)
	assert.Equal(t, "crew@example.com", email.To[0].Address)
	assert.Empty(t, email.CC)
	assert.Empty(t, email.BCC)
	assert.Equal(t, core.ImportanceHigh, email.Importance)
	assert.True(t, email.HasAttachments)
	assert.False(t, email.IsRead)
	assert.Equal(t, "conv-7", email.ConversationID)
	assert.Equal(t, "https://outlook.example.com/AAMkAGI2", email.SourceLink)
	assert.Equal(t, time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC), email.CreatedAt)
}

func TestNormalize_WebhookSingleEvent(t *testing.T) {
	payload := `{
		"id": "evt-1",
		"subject": "Ping",
		"body": {"contentType": "text", "content": "pong"},
		"hasAttachments": false,
		"ccRecipients": [],
		"bccRecipients": []
	}`

	emails, source, err := Normalize([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, SourceWebhook, source)
	require.Len(t, emails, 1)

	email := emails[0]
	assert.Equal(t, "evt-1", email.ID)
	assert.NotNil(t, email.CC)
	assert.Empty(t, email.CC)
	assert.NotNil(t, email.BCC)
	assert.Empty(t, email.BCC)
	assert.False(t, email.HasAttachments)
	assert.Equal(t, core.ImportanceNormal, email.Importance)
}

func TestNormalize_MissingBodyContent(t *testing.T) {
	emails, _, err := Normalize([]byte(`{"id": "e2", "subject": "No body"}`))
	require.NoError(t, err)
	assert.Equal(t, "", emails[0].Body.Content)
	assert.Equal(t, core.BodyTypeText, emails[0].Body.ContentType)
}

func TestNormalize_Errors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr error
	}{
		{
			name:    "missing id",
			payload: `{"subject": "no id"}`,
			wantErr: ErrMissingID,
		},
		{
			name:    "value not a list",
			payload: `{"value": {"id": "e1"}}`,
			wantErr: ErrInvalidValueList,
		},
		{
			name:    "not json",
			payload: `[1,2,3]`,
			wantErr: ErrNotJSON,
		},
		{
			name:    "missing id inside bulk",
			payload: `{"value": [{"subject": "no id"}]}`,
			wantErr: ErrMissingID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Normalize([]byte(tt.payload))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrInvalidPayload)
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	emails, _, err := Normalize([]byte(providerMessageJSON))
	require.NoError(t, err)
	first := emails[0]

	// Re-normalizing the canonical JSON form must reproduce the same email.
	canonical, err := json.Marshal(first)
	require.NoError(t, err)

	again, source, err := Normalize(canonical)
	require.NoError(t, err)
	assert.Equal(t, SourceWebhook, source)
	assert.Equal(t, first, again[0])
}

func TestNormalize_InvalidTimestampDropped(t *testing.T) {
	emails, _, err := Normalize([]byte(`{"id": "e3", "receivedDateTime": "yesterday-ish"}`))
	require.NoError(t, err)
	assert.True(t, emails[0].CreatedAt.IsZero())
}

func TestNormalizeMessage_UnknownFieldsIgnored(t *testing.T) {
	email, err := NormalizeMessage([]byte(`{"id": "e4", "flagStatus": "flagged", "categories": ["x"]}`))
	require.NoError(t, err)
	assert.Equal(t, "e4", email.ID)
}

func TestNormalize_ErrorsAreNormalizationErrors(t *testing.T) {
	_, _, err := Normalize([]byte(`not json at all`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidPayload))
}
