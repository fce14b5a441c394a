package generation

import (
	"encoding/json"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantKey string // if non-empty, check this key exists in parsed JSON
		wantErr bool
	}{
		{
			name:    "plain JSON",
			input:   `{"category": ["auth"]}`,
			wantKey: "category",
		},
		{
			name:    "markdown code block",
			input:   "```json\n{\"category\": [\"auth\"]}\n```",
			wantKey: "category",
		},
		{
			name:    "fence without language tag",
			input:   "```\n{\"category\": [\"auth\"]}\n```",
			wantKey: "category",
		},
		{
			name:    "markdown block with trailing prose",
			input:   "```json\n{\"category\": [\"auth\"]}\n```\n\nLet me know if you need changes.",
			wantKey: "category",
		},
		{
			name:    "comments and trailing commas",
			input:   "```json\n{\n  \"uri\": [\n    \"/api/v1/login\",  // login endpoint\n    \"/api/v1/logout\",\n  ]\n}\n```",
			wantKey: "uri",
		},
		{
			name:    "URL in string not stripped",
			input:   `{"uri": ["http://example.com/path"]}`,
			wantKey: "uri",
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: true,
		},
		{
			name:    "no JSON at all",
			input:   "Sorry, I cannot help with that.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ExtractJSON(tt.input)

			if tt.wantErr {
				if result != "" {
					t.Errorf("expected empty result, got: %s", result)
				}
				return
			}

			if result == "" {
				t.Fatal("expected JSON result, got empty string")
			}

			var parsed map[string]any
			if err := json.Unmarshal([]byte(result), &parsed); err != nil {
				t.Fatalf("result is not valid JSON: %v\nresult: %s", err, result)
			}

			if tt.wantKey != "" {
				if _, ok := parsed[tt.wantKey]; !ok {
					t.Errorf("expected key %q in parsed JSON", tt.wantKey)
				}
			}
		})
	}
}

// Fenced and bare renditions of the same object must parse identically.
func TestExtractJSONFenceRoundTrip(t *testing.T) {
	fenced := "```json\n{\"category\":[\"a\"]}\n```"
	bare := `{"category":["a"]}`

	var fromFenced, fromBare map[string]any
	if err := json.Unmarshal([]byte(ExtractJSON(fenced)), &fromFenced); err != nil {
		t.Fatalf("fenced: %v", err)
	}
	if err := json.Unmarshal([]byte(ExtractJSON(bare)), &fromBare); err != nil {
		t.Fatalf("bare: %v", err)
	}

	if len(fromFenced) != len(fromBare) {
		t.Fatalf("results differ: %v vs %v", fromFenced, fromBare)
	}
	for k := range fromBare {
		if _, ok := fromFenced[k]; !ok {
			t.Errorf("missing key %q in fenced result", k)
		}
	}
}

func TestStripLineComment(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"plain line"`, `"plain line"`},
		{`"value",  // comment`, `"value",`},
		{`"url": "http://example.com" // trailing`, `"url": "http://example.com"`},
		{`"url": "http://example.com"`, `"url": "http://example.com"`},
		{`"esc \" // not a comment"`, `"esc \" // not a comment"`},
	}
	for _, tt := range tests {
		if got := stripLineComment(tt.input); got != tt.want {
			t.Errorf("stripLineComment(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
