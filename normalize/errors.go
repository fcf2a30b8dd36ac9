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


package normalize

import "errors"

var (
	// ErrInvalidPayload indicates a malformed payload shape. All other
	// normalization errors wrap it.
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrMissingID is returned when a message object carries no id.
	ErrMissingID = errors.New("message id is required")

	// ErrInvalidValueList is returned when a bulk container's "value"
	// member is not a list.
	ErrInvalidValueList = errors.New("bulk container value must be a list")

	// ErrNotJSON is returned when the payload is not a JSON object.
	ErrNotJSON = errors.New("payload must be a JSON object")
)
