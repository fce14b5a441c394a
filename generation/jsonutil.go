package generation

import (
	"regexp"
	"strings"
)

// Patterns for pulling a JSON object out of generator responses. Generators
// routinely wrap their output in markdown code fences and pad it with prose.
var (
	// fencedObjectPattern matches a JSON object inside ```json ... ``` fences.
	fencedObjectPattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\{.*\\})\\s*```")
	// bareObjectPattern matches any JSON object (greedy fallback).
	bareObjectPattern = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
	// trailingCommaPattern matches trailing commas before ] or }.
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// ExtractJSON extracts a JSON object from a generator response string. It
// strips surrounding markdown fences and repairs line comments and trailing
// commas, which generators commonly emit. Returns "" when no object is found.
func ExtractJSON(content string) string {
	var raw string
	if matches := fencedObjectPattern.FindStringSubmatch(content); len(matches) > 1 {
		raw = matches[1]
	} else {
		raw = bareObjectPattern.FindString(content)
	}
	if raw == "" {
		return ""
	}
	return repairJSON(raw)
}

// repairJSON removes // comments outside string values and trailing commas.
func repairJSON(raw string) string {
	lines := strings.Split(raw, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		cleaned = append(cleaned, stripLineComment(line))
	}
	result := strings.Join(cleaned, "\n")
	return trailingCommaPattern.ReplaceAllString(result, "$1")
}

// stripLineComment removes a // comment from a line, respecting string values
// so URLs like "http://example.com" survive.
func stripLineComment(line string) string {
	if !strings.Contains(line, "//") {
		return line
	}

	inString := false
	escaped := false
	for i := 0; i < len(line); i++ {
		ch := line[i]
		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' && inString {
			escaped = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if !inString && ch == '/' && i+1 < len(line) && line[i+1] == '/' {
			return strings.TrimRight(line[:i], " \t")
		}
	}
	return line
}
