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


package core

import (
	"fmt"
	"time"
)

// ValidateEmail validates an Email according to domain rules.
//
// Validation rules:
//   - ID must not be empty
//   - sender and recipient addresses must not be empty when present
//   - CreatedAt must not be in the future
//
// NOT validated:
//   - Subject and body (an email with both empty is legal, just not indexable)
//   - ConversationID and SourceLink (optional)
func ValidateEmail(email *Email) error {
	if email == nil {
		return fmt.Errorf("%w: email is nil", ErrInvalidEmail)
	}

	if email.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEmail, ErrMissingEmailID)
	}

	if isPresent(email.Sender) && email.Sender.Address == "" {
		return fmt.Errorf("%w: sender: %w", ErrInvalidEmail, ErrEmptyAddress)
	}

	for _, list := range [][]EmailAddress{email.To, email.CC, email.BCC} {
		for _, addr := range list {
			if addr.Address == "" {
				return fmt.Errorf("%w: recipient: %w", ErrInvalidEmail, ErrEmptyAddress)
			}
		}
	}

	if !IsValidTimestamp(email.CreatedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidEmail, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateEmbeddingRecord validates an EmbeddingRecord before persistence.
//
// Validation rules:
//   - EmailID must not be empty
//   - Type must be a known embedding type
//   - Vector must not be empty
func ValidateEmbeddingRecord(record *EmbeddingRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidEmbeddingRecord)
	}

	if record.EmailID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEmbeddingRecord, ErrMissingEmailID)
	}

	switch record.Type {
	case EmbeddingTypeSubject, EmbeddingTypeBody, EmbeddingTypeCombined:
	default:
		return fmt.Errorf("%w: %w", ErrInvalidEmbeddingRecord, ErrInvalidEmbeddingType)
	}

	if len(record.Vector) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidEmbeddingRecord, ErrEmptyVector)
	}

	return nil
}

// IsValidTimestamp reports whether a timestamp is usable: the zero value
// or any instant up to a small clock-skew allowance into the future.
func IsValidTimestamp(t time.Time) bool {
	if t.IsZero() {
		return true
	}
	return !t.After(time.Now().Add(5 * time.Minute))
}

// isPresent reports whether an address block carries any data at all.
// A fully zero sender is legal for draft-like records.
func isPresent(addr EmailAddress) bool {
	return addr.Name != "" || addr.Address != ""
}
