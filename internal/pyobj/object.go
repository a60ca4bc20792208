// # internal/pyobj/object.go
//
// In-memory surrogate for a live Python object graph. The importer builds
// these from parsed source; bindings share Object instances, so aliasing
// and reference cycles behave like runtime identity.
package pyobj

import "fmt"

type Kind int

const (
	KindModule Kind = iota
	KindClass
	KindFunction
	KindProperty
	KindWrapper
	KindValue
)

func (k Kind) String() string {
	switch k {
	case KindModule:
		return "module"
	case KindClass:
		return "class"
	case KindFunction:
		return "function"
	case KindProperty:
		return "property"
	case KindWrapper:
		return "wrapper"
	case KindValue:
		return "value"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParamKind is the closed set of Python parameter kinds.
type ParamKind string

const (
	PositionalOnly      ParamKind = "POSITIONAL_ONLY"
	PositionalOrKeyword ParamKind = "POSITIONAL_OR_KEYWORD"
	VarPositional       ParamKind = "VAR_POSITIONAL"
	KeywordOnly         ParamKind = "KEYWORD_ONLY"
	VarKeyword          ParamKind = "VAR_KEYWORD"
)

type Param struct {
	Name       string
	Kind       ParamKind
	Annotation *Object
	Default    *Object
}

type Source struct {
	File      string
	StartLine int // 1-based, inclusive
	EndLine   int // 1-based, inclusive
	Text      string
}

// Object is one node of the object graph. Fields apply per Kind; unused
// fields stay zero.
type Object struct {
	ID       int // arena id, unique per importer
	Kind     Kind
	Name     string
	Qualname string
	Module   string // defining module; empty for modules themselves
	Doc      string
	TypeName string // values: inferred literal type; others fixed per kind
	Repr     string
	File     string   // modules only
	AllNames []string // modules: __all__, nil when absent
	Dict     *Dict
	Bases    []*Object // classes
	MRO      []*Object // classes
	Params   []Param   // functions
	Return   *Object   // function return annotation
	Func     *Object   // wrappers: inner callable
	Get      *Object   // properties
	Set      *Object
	Del      *Object
	Source   *Source

	// WrapperKind is "classmethod" or "staticmethod" for KindWrapper.
	WrapperKind string
}

func (o *Object) Callable() bool {
	switch o.Kind {
	case KindClass, KindFunction, KindWrapper:
		return true
	}
	return false
}

// Lookup finds a member, falling back to the class-mangled form of a
// private name when the plain one is absent.
func (o *Object) Lookup(name string) (*Object, bool) {
	if o.Dict == nil {
		return nil, false
	}
	if m, ok := o.Dict.Get(name); ok {
		return m, true
	}
	return nil, false
}

// Arena hands out stable integer ids for freshly created objects. The ids
// key the inspector's traversal cache, so identity works uniformly without
// relying on hashability of the underlying value.
type Arena struct {
	next int
}

func NewArena() *Arena {
	return &Arena{next: 1}
}

func (a *Arena) New(kind Kind) *Object {
	id := a.next
	a.next++
	return &Object{ID: id, Kind: kind, Dict: NewDict()}
}

// Dict is an insertion-ordered member mapping.
type Dict struct {
	keys    []string
	entries map[string]*Object
}

func NewDict() *Dict {
	return &Dict{entries: make(map[string]*Object)}
}

func (d *Dict) Get(key string) (*Object, bool) {
	o, ok := d.entries[key]
	return o, ok
}

func (d *Dict) Set(key string, o *Object) {
	if _, ok := d.entries[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.entries[key] = o
}

func (d *Dict) Delete(key string) {
	if _, ok := d.entries[key]; !ok {
		return
	}
	delete(d.entries, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
}

func (d *Dict) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

func (d *Dict) Len() int {
	return len(d.entries)
}
