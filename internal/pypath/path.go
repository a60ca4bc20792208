// # internal/pypath/path.go
package pypath

import (
	"strings"

	"supdoc/internal/core/errors"
	"supdoc/internal/pyobj"
)

// Path locates an object by module name plus an optional dotted qualname.
// An empty Qualname means the module itself.
type Path struct {
	Module   string
	Qualname string
}

func New(module, qualname string) (Path, error) {
	if module == "" {
		return Path{}, errors.New(errors.CodeValidationError, "path module name must not be empty")
	}
	for _, seg := range strings.Split(qualname, ".") {
		if qualname != "" && seg == "" {
			return Path{}, errors.Newf(errors.CodeValidationError, "empty segment in qualname %q", qualname)
		}
	}
	return Path{Module: module, Qualname: qualname}, nil
}

func (p Path) String() string {
	if p.Qualname == "" {
		return p.Module
	}
	return p.Module + "." + p.Qualname
}

func (p Path) IsZero() bool {
	return p.Module == ""
}

// Segments returns the qualname split on dots, or nil for a module path.
func (p Path) Segments() []string {
	if p.Qualname == "" {
		return nil
	}
	return strings.Split(p.Qualname, ".")
}

func (p Path) Child(name string) Path {
	if p.Qualname == "" {
		return Path{Module: p.Module, Qualname: name}
	}
	return Path{Module: p.Module, Qualname: p.Qualname + "." + name}
}

// Parent returns the path one qualname segment up. The second return is
// false when the path has no parent, i.e. it names a module.
func (p Path) Parent() (Path, bool) {
	if p.Qualname == "" {
		return Path{}, false
	}
	i := strings.LastIndex(p.Qualname, ".")
	if i < 0 {
		return Path{Module: p.Module}, true
	}
	return Path{Module: p.Module, Qualname: p.Qualname[:i]}, true
}

// Leaf returns the last qualname segment, or the module name.
func (p Path) Leaf() string {
	if p.Qualname == "" {
		return p.Module
	}
	segs := p.Segments()
	return segs[len(segs)-1]
}

// IsPrivate reports whether name is private-shaped: double-underscore
// prefixed but not a dunder.
func IsPrivate(name string) bool {
	return strings.HasPrefix(name, "__") && !strings.HasSuffix(name, "__")
}

// MangleName rewrites a private name to its class-mangled form, the way
// the Python compiler does inside a class body.
func MangleName(class, name string) string {
	return "_" + strings.TrimLeft(class, "_") + name
}

// Mangle rewrites a path whose last segment is a private name to the
// attribute-mangled form under its enclosing class, e.g. C.__x -> C._C__x.
func (p Path) Mangle() (Path, error) {
	parent, ok := p.Parent()
	if !ok || parent.Qualname == "" {
		return Path{}, errors.Newf(errors.CodeValidationError, "cannot mangle %q: no enclosing class", p)
	}
	leaf := p.Leaf()
	if !IsPrivate(leaf) {
		return Path{}, errors.Newf(errors.CodeValidationError, "cannot mangle %q: %q is not a private name", p, leaf)
	}
	return parent.Child(MangleName(parent.Leaf(), leaf)), nil
}

// Of derives the path an object reports about itself. The second return
// is false when the object exposes no identity of its own.
func Of(o *pyobj.Object) (Path, bool) {
	if o == nil {
		return Path{}, false
	}
	switch o.Kind {
	case pyobj.KindModule:
		if o.Name == "" {
			return Path{}, false
		}
		return Path{Module: o.Name}, true
	case pyobj.KindClass, pyobj.KindFunction:
		if o.Module == "" || o.Qualname == "" {
			return Path{}, false
		}
		return Path{Module: o.Module, Qualname: o.Qualname}, true
	}
	return Path{}, false
}

/// Split parses a CLI name of the form "module:qualname" or a plain dotted
// name. The explicit colon disambiguates when a prefix could be imported
// more than one way.
func Split(name string) (module, qualname string, explicit bool) {
	if i := strings.Index(name, ":"); i >= 0 {
		return name[:i], name[i+1:], true
	}
	return name, "", false
}
