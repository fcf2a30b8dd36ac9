package core

import (
	"errors"
	"testing"
	"time"
)

func TestValidateEmail(t *testing.T) {
	validTime := time.Now().Add(-time.Hour)

	tests := []struct {
		name    string
		email   *Email
		wantErr error
	}{
		{
			name: "valid email",
			email: &Email{
				ID:        "msg-1",
				Subject:   "Status",
				Sender:    EmailAddress{Name: "Alice", Address: "alice@example.com"},
				To:        []EmailAddress{{Address: "bob@example.com"}},
				CreatedAt: validTime,
			},
			wantErr: nil,
		},
		{
			name: "valid email with empty recipient lists",
			email: &Email{
				ID:        "msg-2",
				Sender:    EmailAddress{Address: "alice@example.com"},
				To:        []EmailAddress{},
				CC:        []EmailAddress{},
				BCC:       []EmailAddress{},
				CreatedAt: validTime,
			},
			wantErr: nil,
		},
		{
			name: "valid email with zero timestamp",
			email: &Email{
				ID:     "msg-3",
				Sender: EmailAddress{Address: "alice@example.com"},
			},
			wantErr: nil,
		},
		{
			name: "valid email with absent sender",
			email: &Email{
				ID:        "msg-4",
				CreatedAt: validTime,
			},
			wantErr: nil,
		},
		{
			name:    "nil email",
			email:   nil,
			wantErr: ErrInvalidEmail,
		},
		{
			name: "missing id",
			email: &Email{
				Sender:    EmailAddress{Address: "alice@example.com"},
				CreatedAt: validTime,
			},
			wantErr: ErrMissingEmailID,
		},
		{
			name: "sender with name but no address",
			email: &Email{
				ID:        "msg-5",
				Sender:    EmailAddress{Name: "Alice"},
				CreatedAt: validTime,
			},
			wantErr: ErrEmptyAddress,
		},
		{
			name: "recipient with empty address",
			email: &Email{
				ID:        "msg-6",
				Sender:    EmailAddress{Address: "alice@example.com"},
				CC:        []EmailAddress{{Name: "Bob"}},
				CreatedAt: validTime,
			},
			wantErr: ErrEmptyAddress,
		},
		{
			name: "future timestamp",
			email: &Email{
				ID:        "msg-7",
				Sender:    EmailAddress{Address: "alice@example.com"},
				CreatedAt: time.Now().Add(24 * time.Hour),
			},
			wantErr: ErrInvalidTimestamp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateEmail() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateEmail() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateEmbeddingRecord(t *testing.T) {
	tests := []struct {
		name    string
		record  *EmbeddingRecord
		wantErr error
	}{
		{
			name: "valid record",
			record: &EmbeddingRecord{
				EmailID: "msg-1",
				Type:    EmbeddingTypeSubject,
				Vector:  []float32{0.1, 0.2},
			},
			wantErr: nil,
		},
		{
			name:    "nil record",
			record:  nil,
			wantErr: ErrInvalidEmbeddingRecord,
		},
		{
			name: "missing email id",
			record: &EmbeddingRecord{
				Type:   EmbeddingTypeBody,
				Vector: []float32{0.1},
			},
			wantErr: ErrMissingEmailID,
		},
		{
			name: "unknown type",
			record: &EmbeddingRecord{
				EmailID: "msg-1",
				Type:    EmbeddingType(9),
				Vector:  []float32{0.1},
			},
			wantErr: ErrInvalidEmbeddingType,
		},
		{
			name: "empty vector",
			record: &EmbeddingRecord{
				EmailID: "msg-1",
				Type:    EmbeddingTypeCombined,
			},
			wantErr: ErrEmptyVector,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmbeddingRecord(tt.record)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateEmbeddingRecord() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateEmbeddingRecord() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
