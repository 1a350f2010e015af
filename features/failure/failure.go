package failure

import (
	"time"
)

// Record is one document that did not make it through an ingestion run,
// kept so operators can see what needs fixing at the source.
type Record struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id,omitempty"` // empty when identity extraction failed
	Source     string    `json:"source"`                // original filename
	Stage      string    `json:"stage"`                 // read, metadata, parse, lookup, store
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
}
