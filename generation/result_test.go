package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeResult(t *testing.T) {
	r := DecodeResult([]byte(`"plain text response"`))
	assert.False(t, r.IsStructured())
	assert.Equal(t, "plain text response", r.RawText)

	r = DecodeResult([]byte(`{"category":["auth"]}`))
	assert.True(t, r.IsStructured())
}

func TestResultDocumentFromFencedText(t *testing.T) {
	r := TextResult("```json\n{\"category\":[\"auth\"],\"uri\":[\"/api/v1/login\"]}\n```")

	doc, err := r.Document()
	require.NoError(t, err)
	assert.Equal(t, []string{"auth"}, doc.Category)
	assert.Equal(t, []string{"/api/v1/login"}, doc.URI)
}

func TestResultDocumentFromStructured(t *testing.T) {
	r := DecodeResult([]byte(`{"category":["auth","user"]}`))

	doc, err := r.Document()
	require.NoError(t, err)
	assert.Equal(t, []string{"auth", "user"}, doc.Category)
}

func TestResultDocumentParseErrors(t *testing.T) {
	_, err := TextResult("no structured data here").Document()
	assert.True(t, IsParseError(err))

	_, err = TextResult("```json\n{broken\n```").Document()
	assert.True(t, IsParseError(err))

	// Structured but wrong types.
	_, err = DecodeResult([]byte(`{"category":"not an array"}`)).Document()
	assert.True(t, IsParseError(err))
}
