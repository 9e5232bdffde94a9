// Package testutil compares rendered note output against golden files.
package testutil

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
)

var update = flag.Bool("update", false, "update golden files")

// CompareGolden fails the test when actual differs from the golden
// file. Run the tests with -update to rewrite the golden files after an
// intentional template change.
func CompareGolden(t *testing.T, goldenPath string, actual string) {
	t.Helper()

	if *update {
		updateGoldenFile(t, goldenPath, actual)
		return
	}

	content, err := os.ReadFile(goldenPath)
	if err != nil {
		t.Fatalf("Failed to read golden file %s: %v", goldenPath, err)
	}
	if expected := string(content); actual != expected {
		t.Errorf("Golden file mismatch for %s\nExpected:\n%s\nActual:\n%s", goldenPath, expected, actual)
	}
}

func updateGoldenFile(t *testing.T, goldenPath string, actual string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(goldenPath), 0o755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", goldenPath, err)
	}
	if err := os.WriteFile(goldenPath, []byte(actual), 0o644); err != nil {
		t.Fatalf("Failed to update golden file %s: %v", goldenPath, err)
	}
	t.Logf("Updated golden file: %s", goldenPath)
}
