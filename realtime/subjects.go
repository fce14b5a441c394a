package realtime

import (
	"fmt"
	"strings"
)

// Subject layout for the api-docs document. Clients subscribe to the updates
// subject and send edits to the edit subject; the relay bridges the two.
// Project IDs must be broker-token safe (no dots, spaces, or wildcards).
const (
	subjectPrefix = "api.v1.projects"
	docSegment    = "api-docs"
)

// CheckProjectID rejects project IDs that would break subject token
// boundaries or act as wildcards when interpolated into a subject.
func CheckProjectID(projectID string) error {
	if projectID == "" {
		return fmt.Errorf("empty project id")
	}
	if strings.ContainsAny(projectID, ". \t*>") {
		return fmt.Errorf("project id %q contains subject-unsafe characters", projectID)
	}
	return nil
}

// UpdatesSubject is the fan-out topic carrying accepted snapshots for a
// project.
func UpdatesSubject(projectID string) string {
	return fmt.Sprintf("%s.%s.%s.updates", subjectPrefix, projectID, docSegment)
}

// EditSubject is the destination clients publish snapshots to.
func EditSubject(projectID string) string {
	return fmt.Sprintf("%s.%s.%s.edit", subjectPrefix, projectID, docSegment)
}

// EditWildcard matches the edit subject of every project; the relay
// subscribes here.
func EditWildcard() string {
	return fmt.Sprintf("%s.*.%s.edit", subjectPrefix, docSegment)
}

// ProjectIDFromEditSubject extracts the project ID from an edit subject.
func ProjectIDFromEditSubject(subject string) (string, error) {
	tokens := strings.Split(subject, ".")
	if len(tokens) != 6 || tokens[0] != "api" || tokens[1] != "v1" ||
		tokens[2] != "projects" || tokens[4] != docSegment || tokens[5] != "edit" {
		return "", fmt.Errorf("not an edit subject: %s", subject)
	}
	if tokens[3] == "" {
		return "", fmt.Errorf("empty project id in subject: %s", subject)
	}
	return tokens[3], nil
}
