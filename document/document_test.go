package document

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsEmptyAndShapeValid(t *testing.T) {
	d := New()
	assert.Equal(t, 0, d.Rows())
	assert.NoError(t, d.CheckShape())
}

func TestColumnLookup(t *testing.T) {
	d := New()
	for _, name := range Columns {
		assert.NotNil(t, d.Column(name), "column %s", name)
	}
	assert.Nil(t, d.Column("rowCount"))
	assert.Nil(t, d.Column(""))
}

func TestCheckShapeDetectsRaggedColumns(t *testing.T) {
	d := AddRow(New())
	d.URI = append(d.URI, "extra")
	err := d.CheckShape()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "uri")
}

func TestCloneIsDeep(t *testing.T) {
	d := AddRow(New())
	c := d.Clone()
	c.Category[0] = "changed"
	assert.Equal(t, "", d.Category[0])
	assert.Equal(t, "changed", c.Category[0])
}

func TestEqual(t *testing.T) {
	a := AddRow(New())
	b := a.Clone()
	assert.True(t, a.Equal(&b))

	b.Method[0] = "POST"
	assert.False(t, a.Equal(&b))

	c := New()
	assert.False(t, a.Equal(&c))
}

func TestJSONFieldNames(t *testing.T) {
	d := AddRow(New())
	raw, err := json.Marshal(&d)
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &fields))

	for _, name := range Columns {
		_, ok := fields[name]
		assert.True(t, ok, "missing wire field %s", name)
	}
	assert.Len(t, fields, len(Columns))
}

func TestStateLabel(t *testing.T) {
	tests := []struct {
		state string
		want  string
	}{
		{StateNotStarted, "Not Started"},
		{StateInProgress, "In Progress"},
		{StateDone, "Done"},
		{"7", "Not Started"},
		{"", "Not Started"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StateLabel(tt.state))
	}
}

func TestValidMethod(t *testing.T) {
	for _, m := range Methods {
		assert.True(t, ValidMethod(m))
	}
	assert.False(t, ValidMethod("get"))
	assert.False(t, ValidMethod("OPTIONS"))
	assert.False(t, ValidMethod(""))
}
