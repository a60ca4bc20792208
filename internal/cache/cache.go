// # internal/cache/cache.go
//
// On-disk objdoc cache. One gzipped JSON file per module, validated
// against the source file's mtime and size plus the document schema
// version. Any mismatch or corruption is a miss, never an error: the
// cache only ever saves work.
package cache

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"supdoc/internal/objdoc"
	"supdoc/internal/shared/observability"
	"supdoc/internal/shared/util"
)

type check struct {
	Version int     `json:"version"`
	Path    string  `json:"path"`
	Mtime   float64 `json:"mtime"`
	Size    int64   `json:"size"`
}

type entry struct {
	Check  check        `json:"check"`
	Objdoc *objdoc.Node `json:"objdoc"`
}

type Store struct {
	dir     string
	version int
}

func NewStore(dir string, version int) *Store {
	return &Store{dir: dir, version: version}
}

func (s *Store) fileFor(module string) string {
	return filepath.Join(s.dir, util.SafeFileName(module)+".json.gz")
}

// Load returns the cached objdoc for a module if it is still valid for
// srcPath, the source file the module would import from.
func (s *Store) Load(module, srcPath string) (*objdoc.Node, bool) {
	want, ok := checkFor(s.version, srcPath)
	if !ok {
		observability.DiskCacheMisses.Inc()
		return nil, false
	}

	data, err := os.ReadFile(s.fileFor(module))
	if err != nil {
		observability.DiskCacheMisses.Inc()
		return nil, false
	}

	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		slog.Debug("cache entry unreadable", "module", module, "error", err)
		observability.DiskCacheMisses.Inc()
		return nil, false
	}
	defer gz.Close()

	var e entry
	if err := json.NewDecoder(gz).Decode(&e); err != nil {
		slog.Debug("cache entry corrupt", "module", module, "error", err)
		observability.DiskCacheMisses.Inc()
		return nil, false
	}
	if e.Check != want || e.Objdoc == nil {
		observability.DiskCacheMisses.Inc()
		return nil, false
	}

	observability.DiskCacheHits.Inc()
	return e.Objdoc, true
}

// Save writes the objdoc for a module keyed by the current state of its
// source file. Failures are logged and swallowed; a cold cache is not an
// error condition.
func (s *Store) Save(module, srcPath string, doc *objdoc.Node) {
	chk, ok := checkFor(s.version, srcPath)
	if !ok {
		return
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	enc := json.NewEncoder(gz)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(entry{Check: chk, Objdoc: doc}); err != nil {
		slog.Warn("cache encode failed", "module", module, "error", err)
		return
	}
	if err := gz.Close(); err != nil {
		slog.Warn("cache compress failed", "module", module, "error", err)
		return
	}
	if err := util.WriteFileWithDirs(s.fileFor(module), buf.Bytes(), 0o644); err != nil {
		slog.Warn("cache write failed", "module", module, "error", err)
	}
}

// Invalidate drops the cached entry for a module. Missing entries are
// fine; watch mode calls this on every change event.
func (s *Store) Invalidate(module string) {
	if err := os.Remove(s.fileFor(module)); err != nil && !os.IsNotExist(err) {
		slog.Warn("cache invalidate failed", "module", module, "error", err)
	}
}

func checkFor(version int, srcPath string) (check, bool) {
	info, err := os.Stat(srcPath)
	if err != nil {
		return check{}, false
	}
	return check{
		Version: version,
		Path:    srcPath,
		Mtime:   float64(info.ModTime().UnixNano()) / 1e9,
		Size:    info.Size(),
	}, true
}
