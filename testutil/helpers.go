package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteTempFile writes content to a file inside a test temp dir and
// returns its path
func WriteTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write temp file %s: %v", name, err)
	}
	return path
}

// SampleScenarioYAML is a minimal group scenario used by command tests
const SampleScenarioYAML = `name: coffee run
kind: group
conversation: friends
user_name: Dana
strategy: list
seed: 7
roster:
  - id: p1
    name: Alice
    talkativeness: 80
  - id: p2
    name: Bob
    talkativeness: 40
turns:
  - user: anyone up for coffee?
    replies:
      - "Alice: always"
`

// WriteSampleScenario writes the sample scenario to a temp file
func WriteSampleScenario(t *testing.T) string {
	t.Helper()
	return WriteTempFile(t, "scenario.yaml", SampleScenarioYAML)
}
