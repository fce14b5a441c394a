package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/specboard/specboard/document"
)

// decodeSnapshot parses a wire frame into a shape-valid document. Anything
// that fails here is a malformed sync message and must be dropped, never
// applied.
func decodeSnapshot(data []byte) (document.Document, error) {
	var doc document.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return document.Document{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if err := doc.CheckShape(); err != nil {
		return document.Document{}, fmt.Errorf("snapshot shape: %w", err)
	}
	return doc, nil
}
