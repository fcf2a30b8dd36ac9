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

import "errors"

// Domain validation errors
var (
	// ErrInvalidEmail indicates an Email failed validation.
	ErrInvalidEmail = errors.New("invalid email")

	// ErrInvalidEmbeddingRecord indicates an EmbeddingRecord failed validation.
	ErrInvalidEmbeddingRecord = errors.New("invalid embedding record")

	// ErrMissingEmailID indicates the email ID field is empty.
	ErrMissingEmailID = errors.New("email id cannot be empty")

	// ErrEmptyAddress indicates an address field is empty where one is present.
	ErrEmptyAddress = errors.New("address cannot be empty")

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")

	// ErrInvalidEmbeddingType indicates an invalid EmbeddingType value.
	ErrInvalidEmbeddingType = errors.New("invalid embedding type")

	// ErrEmptyVector indicates an embedding record carries no vector.
	ErrEmptyVector = errors.New("vector cannot be empty")
)
