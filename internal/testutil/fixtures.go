package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// LoadFixture reads testdata/fixtures/<name>, relative to the calling test
// file's directory, returning its raw bytes. Used for bar-stream JSON
// fixtures shared across feed, broker and engine tests.
func LoadFixture(t *testing.T, name string) []byte {
	t.Helper()
	_, file, _, _ := runtime.Caller(1)
	path := filepath.Join(filepath.Dir(file), "testdata", "fixtures", name)
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("testutil: load fixture %s: %v", path, err)
	}
	return b
}
