package ingestion

import (
	"fmt"

	"github.com/poiesic/mailvec/ai"
	"github.com/poiesic/mailvec/core"
)

// embeddingTexts builds the three texts indexed per email, in the same
// order as core.EmbeddingTypes. Each text is truncated to the embedding
// input limit; the truncated form is also what gets persisted as the
// content preview, so re-embedding from a preview reproduces the vector.
func embeddingTexts(cfg *ai.Config, email *core.Email) []string {
	subject := cfg.Truncate(email.Subject)
	body := cfg.Truncate(email.Body.Content)
	combined := cfg.Truncate(fmt.Sprintf("Subject: %s\n\nBody: %s", email.Subject, email.Body.Content))
	return []string{subject, body, combined}
}
