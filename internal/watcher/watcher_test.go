// # internal/watcher/watcher_test.go
package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher(t *testing.T) {
	tmpDir := t.TempDir()

	changedFiles := make(chan []string, 1)
	w, err := NewWatcher(100*time.Millisecond, []string{"exclude_dir"}, []string{"ignored_*.py"}, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	err = w.Watch([]string{tmpDir})
	if err != nil {
		t.Fatal(err)
	}

	// Create a python file
	testFile := filepath.Join(tmpDir, "mod.py")
	os.WriteFile(testFile, []byte("x = 1\n"), 0644)

	select {
	case paths := <-changedFiles:
		found := false
		for _, p := range paths {
			if p == testFile {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected to find %s in changed files %v", testFile, paths)
		}
	case <-time.After(2 * time.Second):
		t.Error("Timed out waiting for file change event")
	}

	// Pattern-excluded and non-python files stay silent.
	os.WriteFile(filepath.Join(tmpDir, "ignored_gen.py"), []byte("x = 2\n"), 0644)
	os.WriteFile(filepath.Join(tmpDir, "notes.txt"), []byte("not code"), 0644)

	select {
	case paths := <-changedFiles:
		for _, p := range paths {
			base := filepath.Base(p)
			if base == "ignored_gen.py" || base == "notes.txt" {
				t.Errorf("excluded file %s triggered event", base)
			}
		}
	case <-time.After(500 * time.Millisecond):
		// Expected
	}

	// New directory should be recursively watched after create.
	subdir := filepath.Join(tmpDir, "pkg")
	if err := os.MkdirAll(subdir, 0755); err != nil {
		t.Fatal(err)
	}
	subFile := filepath.Join(subdir, "nested.py")
	if err := os.WriteFile(subFile, []byte("y = 2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	foundNested := false
	timeout := time.After(2 * time.Second)
	for !foundNested {
		select {
		case paths := <-changedFiles:
			for _, p := range paths {
				if p == subFile {
					foundNested = true
					break
				}
			}
		case <-timeout:
			t.Fatal("timed out waiting for nested file event in newly created directory")
		}
	}
}

func TestWantsFile(t *testing.T) {
	w, err := NewWatcher(time.Millisecond, nil, []string{"conftest.py"}, func([]string) {})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	cases := []struct {
		path string
		want bool
	}{
		{"pkg/mod.py", true},
		{"pkg/__init__.py", true},
		{"pkg/conftest.py", false},
		{"pkg/mod.pyc", false},
		{"pkg/README.md", false},
	}
	for _, tc := range cases {
		if got := w.wantsFile(tc.path); got != tc.want {
			t.Errorf("wantsFile(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}
