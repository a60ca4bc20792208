package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSortedStringKeys(t *testing.T) {
	m := map[string]int{"b": 2, "a": 1, "c": 3}
	keys := SortedStringKeys(m)
	if len(keys) != 3 || keys[0] != "a" || keys[1] != "b" || keys[2] != "c" {
		t.Errorf("unexpected keys: %v", keys)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 10); got != "hello" {
		t.Errorf("expected unchanged string, got %q", got)
	}
	if got := Truncate("hello world", 5); got != "hello" {
		t.Errorf("expected capped string, got %q", got)
	}
}

func TestSafeFileName(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"os.path", "os.path"},
		{"my_pkg.sub-mod", "my_pkg.sub-mod"},
		{"weird/name:here", "weird_name_here"},
	}
	for _, tc := range cases {
		if got := SafeFileName(tc.in); got != tc.want {
			t.Errorf("SafeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestWriteFileWithDirs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a", "b", "file.txt")
	if err := WriteFileWithDirs(path, []byte("content"), 0o644); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "content" {
		t.Errorf("unexpected content %q", data)
	}
}
