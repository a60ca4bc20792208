// # internal/importer/importer.go
//
// The import machinery for the object-graph surrogate: locates modules on
// a search path, parses them with tree-sitter, and registers the resulting
// module objects. At most one load happens per module name; cyclic imports
// observe the partially-built module, as in the real import system.
package importer

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"supdoc/internal/core/errors"
	"supdoc/internal/pyobj"
	"supdoc/internal/pypath"
	"supdoc/internal/shared/util"
)

type moduleFile struct {
	Path      string
	IsPackage bool
}

type Importer struct {
	searchPath []string
	arena      *pyobj.Arena
	modules    map[string]*pyobj.Object
	loading    map[string]bool
	lang       *sitter.Language
	findFile   *util.Memo1[string, moduleFile]
}

func New(searchPath []string) *Importer {
	imp := &Importer{
		searchPath: searchPath,
		arena:      pyobj.NewArena(),
		modules:    make(map[string]*pyobj.Object),
		loading:    make(map[string]bool),
		lang:       sitter.NewLanguage(tree_sitter_python.Language()),
	}
	imp.findFile = util.NewMemo1(imp.locateFile)
	imp.modules["builtins"] = pyobj.NewBuiltins(imp.arena)
	return imp
}

// Import returns the module object for name, loading it on first use.
// While a module is mid-load, importing it again returns the partial
// module object rather than recursing.
func (imp *Importer) Import(name string) (*pyobj.Object, error) {
	if name == "" {
		return nil, errors.New(errors.CodeValidationError, "empty module name")
	}
	if mod, ok := imp.modules[name]; ok {
		return mod, nil
	}

	// Importing a.b imports a first and binds b as its attribute.
	if i := strings.LastIndex(name, "."); i >= 0 {
		parent, err := imp.Import(name[:i])
		if err != nil {
			return nil, err
		}
		mod, err := imp.load(name)
		if err != nil {
			return nil, err
		}
		parent.Dict.Set(name[i+1:], mod)
		return mod, nil
	}
	return imp.load(name)
}

func (imp *Importer) load(name string) (*pyobj.Object, error) {
	mf, err := imp.findFile.Call(name)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(mf.Path)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeImportError, "cannot read module file"), errors.CtxModule, name)
	}

	mod := imp.arena.New(pyobj.KindModule)
	mod.Name = name
	mod.TypeName = "module"
	mod.File = mf.Path
	mod.Repr = fmt.Sprintf("<module '%s' from '%s'>", name, mf.Path)

	// Register before extracting so cyclic imports resolve to the
	// partial module.
	imp.modules[name] = mod
	imp.loading[name] = true
	defer delete(imp.loading, name)

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(imp.lang)

	tree := parser.Parse(content, nil)
	if tree == nil {
		delete(imp.modules, name)
		return nil, errors.Newf(errors.CodeImportError, "parse failed for module %q (%s)", name, mf.Path)
	}
	defer tree.Close()

	ex := &extractor{imp: imp, mod: mod, src: content, isPackage: mf.IsPackage}
	ex.module(tree.RootNode())
	return mod, nil
}

func (imp *Importer) locateFile(name string) (moduleFile, error) {
	rel := filepath.Join(strings.Split(name, ".")...)
	for _, dir := range imp.searchPath {
		pkg := filepath.Join(dir, rel, "__init__.py")
		if info, err := os.Stat(pkg); err == nil && !info.IsDir() {
			return moduleFile{Path: pkg, IsPackage: true}, nil
		}
		file := filepath.Join(dir, rel+".py")
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			return moduleFile{Path: file}, nil
		}
	}
	return moduleFile{}, errors.Newf(errors.CodeImportError, "module %q not importable on search path", name)
}

// ModuleFile reports the source file a module name would load from,
// without loading it. Used for cache validity checks.
func (imp *Importer) ModuleFile(name string) (string, error) {
	mf, err := imp.findFile.Call(name)
	if err != nil {
		return "", err
	}
	return mf.Path, nil
}

// ModuleNameForFile derives the dotted module name of a .py file from the
// search path, honoring package __init__.py markers.
func (imp *Importer) ModuleNameForFile(path string) (string, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	for _, dir := range imp.searchPath {
		root, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		parts := strings.Split(rel, string(os.PathSeparator))
		last := strings.TrimSuffix(parts[len(parts)-1], ".py")
		if last == parts[len(parts)-1] {
			continue // not a python file
		}
		if last == "__init__" {
			parts = parts[:len(parts)-1]
		} else {
			parts[len(parts)-1] = last
		}
		if len(parts) == 0 {
			continue
		}
		// Every intermediate directory must be a package.
		ok := true
		for i := 1; i < len(parts); i++ {
			init := filepath.Join(root, filepath.Join(parts[:i]...), "__init__.py")
			if _, err := os.Stat(init); err != nil {
				ok = false
				break
			}
		}
		if ok {
			return strings.Join(parts, "."), true
		}
	}
	return "", false
}

// Resolve imports the module of a path and walks its qualname segments.
// Import failures and attribute misses surface as distinct error codes.
// A private segment missing under a class is retried in mangled form.
func (imp *Importer) Resolve(p pypath.Path) (*pyobj.Object, error) {
	cur, err := imp.Import(p.Module)
	if err != nil {
		return nil, err
	}
	walked := p.Module
	for _, seg := range p.Segments() {
		next, ok := cur.Lookup(seg)
		if !ok && cur.Kind == pyobj.KindClass && pypath.IsPrivate(seg) {
			next, ok = cur.Lookup(pypath.MangleName(cur.Name, seg))
		}
		if !ok {
			return nil, errors.Newf(errors.CodeNotFound, "attribute %q not found on %s", seg, walked)
		}
		cur = next
		walked += "." + seg
	}
	return cur, nil
}

// Locate resolves a dotted name by progressively shortening the import
// prefix: the longest importable prefix wins, and the remainder must
// resolve as a qualname under it.
func (imp *Importer) Locate(name string) (pypath.Path, *pyobj.Object, error) {
	module, qualname, explicit := pypath.Split(name)
	if explicit {
		p, err := pypath.New(module, qualname)
		if err != nil {
			return pypath.Path{}, nil, err
		}
		obj, err := imp.Resolve(p)
		if err != nil {
			return pypath.Path{}, nil, err
		}
		return p, obj, nil
	}

	parts := strings.Split(name, ".")
	for i := len(parts); i >= 1; i-- {
		modName := strings.Join(parts[:i], ".")
		if _, err := imp.Import(modName); err != nil {
			continue
		}
		p, err := pypath.New(modName, strings.Join(parts[i:], "."))
		if err != nil {
			continue
		}
		obj, err := imp.Resolve(p)
		if err != nil {
			slog.Debug("prefix imported but suffix did not resolve", "module", modName, "error", err)
			continue
		}
		return p, obj, nil
	}
	return pypath.Path{}, nil, errors.Newf(errors.CodeFullNameNotFound, "full name not found: %s", name)
}

// Builtins returns the synthesized builtins module.
func (imp *Importer) Builtins() *pyobj.Object {
	return imp.modules["builtins"]
}

// Modules returns a snapshot of the registry keyed by module name.
func (imp *Importer) Modules() map[string]*pyobj.Object {
	out := make(map[string]*pyobj.Object, len(imp.modules))
	for k, v := range imp.modules {
		out[k] = v
	}
	return out
}
