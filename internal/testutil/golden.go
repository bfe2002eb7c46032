package testutil

import (
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"
)

var updateGolden = flag.Bool("update", false, "update golden files instead of comparing against them")

// Golden marshals got to indented JSON and compares it against
// testdata/golden/<name>.json, relative to the calling test file's
// directory. Run with -update to regenerate the golden file instead of
// comparing.
func Golden(t *testing.T, name string, got any) {
	t.Helper()
	b, err := json.MarshalIndent(got, "", "  ")
	if err != nil {
		t.Fatalf("testutil: marshal golden value: %v", err)
	}
	compareGolden(t, goldenPath(name), name, b)
}

// GoldenBytes is Golden for a caller that has already serialized its value.
func GoldenBytes(t *testing.T, name string, got []byte) {
	t.Helper()
	compareGolden(t, goldenPath(name), name, got)
}

func compareGolden(t *testing.T, path, name string, got []byte) {
	t.Helper()
	if *updateGolden {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("testutil: create golden dir: %v", err)
		}
		if err := os.WriteFile(path, got, 0o644); err != nil {
			t.Fatalf("testutil: write golden file: %v", err)
		}
		return
	}

	want, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("testutil: read golden file %s (run with -update to create it): %v", path, err)
	}
	if string(want) != string(got) {
		t.Fatalf("testutil: %s does not match golden file\n--- got ---\n%s\n--- want ---\n%s", name, got, want)
	}
}

func goldenPath(name string) string {
	_, file, _, _ := runtime.Caller(2)
	return filepath.Join(filepath.Dir(file), "testdata", "golden", name+".json")
}

// AssertDeterministic runs fn twice and fails the test if the two results
// differ, the replay-determinism law spec.md §8 requires of a bar stream
// run through the engine twice.
func AssertDeterministic(t *testing.T, fn func() any) {
	t.Helper()
	first := fn()
	second := fn()
	AssertDeepEqual(t, first, second)
}

// AssertDeepEqual fails the test with a JSON diff if got and want are not
// deeply equal. Values are compared structurally with reflect.DeepEqual;
// the JSON rendering is only for the failure message.
func AssertDeepEqual(t *testing.T, got, want any) {
	t.Helper()
	if reflect.DeepEqual(got, want) {
		return
	}
	t.Fatalf("testutil: values differ\n--- got ---\n%s\n--- want ---\n%s", MustMarshal(t, got), MustMarshal(t, want))
}

// MustMarshal marshals v to indented JSON or fails the test.
func MustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		t.Fatalf("testutil: marshal: %v", err)
	}
	return b
}
