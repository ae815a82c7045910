// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/spf13/cobra"
)

// SampleTriples is a small N-Triples document with one recognizable literal.
const SampleTriples = `<http://example.org/alice> <http://xmlns.com/foaf/0.1/name> "Alice" .
<http://example.org/alice> <http://xmlns.com/foaf/0.1/knows> <http://example.org/bob> .
<http://example.org/bob> <http://xmlns.com/foaf/0.1/name> "Bob"@en .
`

// SetupTestProject creates a temporary project with a sqlite target, a
// store directory and one source file configured as dataset "people".
// It returns the project directory.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()

	if err := os.MkdirAll(filepath.Join(tmpDir, "data"), 0o755); err != nil {
		t.Fatalf("failed to create data directory: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "data", "people.nt"), []byte(SampleTriples), 0o644); err != nil {
		t.Fatalf("failed to create people.nt: %v", err)
	}

	cfg := `target:
  type: sqlite
  path: stores
datasets:
  people: ` + filepath.Join(tmpDir, "data", "people.nt") + `
`
	if err := os.WriteFile(filepath.Join(tmpDir, "leaprdf.yaml"), []byte(cfg), 0o644); err != nil {
		t.Fatalf("failed to create leaprdf.yaml: %v", err)
	}

	return tmpDir
}

// Execute runs cmd with args and returns captured stdout and stderr.
func Execute(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}
