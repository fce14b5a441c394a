package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjects(t *testing.T) {
	assert.Equal(t, "api.v1.projects.p42.api-docs.updates", UpdatesSubject("p42"))
	assert.Equal(t, "api.v1.projects.p42.api-docs.edit", EditSubject("p42"))
	assert.Equal(t, "api.v1.projects.*.api-docs.edit", EditWildcard())
}

func TestProjectIDFromEditSubject(t *testing.T) {
	id, err := ProjectIDFromEditSubject(EditSubject("p42"))
	require.NoError(t, err)
	assert.Equal(t, "p42", id)

	for _, subject := range []string{
		"",
		"api.v1.projects.p42.api-docs.updates",
		"api.v1.projects.p42.api-docs",
		"other.v1.projects.p42.api-docs.edit",
		"api.v1.projects..api-docs.edit",
	} {
		_, err := ProjectIDFromEditSubject(subject)
		assert.Error(t, err, "subject %q", subject)
	}
}

func TestCheckProjectID(t *testing.T) {
	for _, id := range []string{"p42", "secret-project", "proj_7", "UUID-abc123"} {
		assert.NoError(t, CheckProjectID(id), "id %q", id)
	}

	for _, id := range []string{
		"",
		"*",
		">",
		"a.b",
		"a b",
		"a\tb",
		"api.v1.projects",
	} {
		assert.Error(t, CheckProjectID(id), "id %q", id)
	}
}

func TestSubjectMatches(t *testing.T) {
	tests := []struct {
		pattern string
		subject string
		want    bool
	}{
		{"a.b.c", "a.b.c", true},
		{"a.*.c", "a.b.c", true},
		{"a.*.c", "a.b.d", false},
		{"a.b", "a.b.c", false},
		{EditWildcard(), EditSubject("p1"), true},
		{EditWildcard(), UpdatesSubject("p1"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, subjectMatches(tt.pattern, tt.subject),
			"pattern %q subject %q", tt.pattern, tt.subject)
	}
}
