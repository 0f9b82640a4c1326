// Package testsupport holds shared test helpers: fixture loading and a
// recording fake backend.
package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// LoadFixture reads test data from a fixture file, relative to the test
// package directory.
func LoadFixture(t *testing.T, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture from %s: %v", path, err)
	}
	return data
}

// LoadFixtureJSON reads a JSON fixture and unmarshals it into dest.
func LoadFixtureJSON(t *testing.T, path string, dest any) {
	t.Helper()

	if err := json.Unmarshal(LoadFixture(t, path), dest); err != nil {
		t.Fatalf("failed to unmarshal JSON fixture from %s: %v", path, err)
	}
}

// FixturePath constructs a path to a fixture file under testdata.
func FixturePath(filename string) string {
	return filepath.Join("testdata", filename)
}
