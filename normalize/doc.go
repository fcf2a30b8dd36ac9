// Package normalize converts heterogeneous inbound message payloads into
// canonical core.Email records.
//
// Two payload shapes are supported and auto-detected:
//   - a bulk export container with a top-level "value" list of messages
//   - a single webhook message object
//
// Individual message objects come in two dialects, also auto-detected:
// the provider export dialect (sender and recipients nested under an
// emailAddress wrapper) and the canonical dialect (the JSON form of
// core.Email itself). Normalization of a canonical payload is idempotent.
//
// Unknown fields are ignored for forward compatibility; structural
// problems are reported as errors wrapping ErrInvalidPayload.
package normalize
