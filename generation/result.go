package generation

import (
	"encoding/json"
	"fmt"

	"github.com/specboard/specboard/document"
)

// Result is the loosely typed output of a generation call: either raw text
// (possibly wrapped in markdown fences) or already-structured data. It is
// resolved to a document through an explicit parse step rather than ad hoc
// type inspection at the call sites.
type Result struct {
	// RawText holds the response when it arrived as a plain string.
	RawText string
	// Structured holds the response when it arrived as a JSON object.
	Structured json.RawMessage
}

// IsStructured reports whether the result arrived as structured data.
func (r Result) IsStructured() bool {
	return len(r.Structured) > 0
}

// DecodeResult classifies a JSON payload as raw text or structured data.
// A JSON string becomes RawText; anything else is kept as structured bytes.
func DecodeResult(payload []byte) Result {
	var text string
	if err := json.Unmarshal(payload, &text); err == nil {
		return Result{RawText: text}
	}
	return Result{Structured: json.RawMessage(payload)}
}

// TextResult wraps a plain completion string as a Result.
func TextResult(content string) Result {
	return Result{RawText: content}
}

// Document resolves the result into a partial document. Raw text is fence-
// stripped and repaired before the structured parse; a structured result is
// decoded directly. The returned document has NOT been normalized — callers
// must run document.Normalize before accepting it.
func (r Result) Document() (document.Document, error) {
	raw := r.Structured
	if !r.IsStructured() {
		extracted := ExtractJSON(r.RawText)
		if extracted == "" {
			return document.Document{}, NewParseError(fmt.Errorf("no JSON object in response"))
		}
		raw = json.RawMessage(extracted)
	}

	var partial document.Document
	if err := json.Unmarshal(raw, &partial); err != nil {
		return document.Document{}, NewParseError(fmt.Errorf("decode document: %w", err))
	}
	return partial, nil
}
