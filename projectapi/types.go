package projectapi

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Proposal is the project proposal document. The generation flow requires all
// of its narrative fields to be filled in before an API specification can be
// generated. Fields are kept as raw JSON because the authoring surface stores
// some of them as rich structured values rather than plain strings.
type Proposal struct {
	Title       json.RawMessage `json:"title"`
	Description json.RawMessage `json:"description"`
	Background  json.RawMessage `json:"background"`
	Feature     json.RawMessage `json:"feature"`
	Effect      json.RawMessage `json:"effect"`
}

// requiredProposalFields names the fields checked by Complete, in the order
// they are reported.
var requiredProposalFields = []string{"title", "description", "background", "feature", "effect"}

// Complete verifies every required narrative field is non-empty. Empty means
// absent, null, a blank string, or an empty object/array.
func (p *Proposal) Complete() error {
	fields := map[string]json.RawMessage{
		"title":       p.Title,
		"description": p.Description,
		"background":  p.Background,
		"feature":     p.Feature,
		"effect":      p.Effect,
	}
	for _, name := range requiredProposalFields {
		if rawValueEmpty(fields[name]) {
			return NewValidationError("complete the project proposal first: missing " + name)
		}
	}
	return nil
}

// FeatureSpec is the feature-specification document: parallel columns of
// feature categories, names, and descriptions.
type FeatureSpec struct {
	Category     []string `json:"category"`
	FunctionName []string `json:"functionName"`
	Description  []string `json:"description"`
}

// Ready verifies each required column has at least one non-blank entry.
func (f *FeatureSpec) Ready() error {
	columns := []struct {
		name   string
		values []string
	}{
		{"category", f.Category},
		{"functionName", f.FunctionName},
		{"description", f.Description},
	}
	for _, col := range columns {
		if !anyNonBlank(col.values) {
			return NewValidationError("complete the feature specification first: missing " + col.name)
		}
	}
	return nil
}

func anyNonBlank(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

// rawValueEmpty reports whether a raw JSON value counts as empty for the
// prerequisite gate: absent, null, a blank string, an empty object, or an
// empty array.
func rawValueEmpty(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return true
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return strings.TrimSpace(s) == ""
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err == nil {
		return len(obj) == 0
	}

	var arr []json.RawMessage
	if err := json.Unmarshal(trimmed, &arr); err == nil {
		return len(arr) == 0
	}

	// Numbers, booleans: present, so not empty.
	return false
}
