// # internal/pyobj/builtins.go
package pyobj

// builtinClasses is the subset of the builtins module the inspector needs
// for type refs, base classes, and inherited-doc suppression.
var builtinClasses = []struct {
	name string
	doc  string
}{
	{"object", "The base class of the class hierarchy."},
	{"type", "type(object) -> the object's type"},
	{"function", "Create a function object."},
	{"module", "Create a module object."},
	{"property", "Property attribute."},
	{"classmethod", "Convert a function to be a class method."},
	{"staticmethod", "Convert a function to be a static method."},
	{"int", "int([x]) -> integer"},
	{"float", "Convert a string or number to a floating point number."},
	{"complex", "Create a complex number."},
	{"bool", "bool(x) -> bool"},
	{"str", "str(object='') -> str"},
	{"bytes", "bytes(iterable_of_ints) -> bytes"},
	{"list", "Built-in mutable sequence."},
	{"tuple", "Built-in immutable sequence."},
	{"dict", "dict() -> new empty dictionary"},
	{"set", "set() -> new empty set object"},
	{"frozenset", "frozenset() -> empty frozenset object"},
	{"NoneType", ""},
	{"Exception", "Common base class for all non-exit exceptions."},
	{"ValueError", "Inappropriate argument value (of correct type)."},
	{"TypeError", "Inappropriate argument type."},
	{"KeyError", "Mapping key not found."},
	{"AttributeError", "Attribute not found."},
	{"ImportError", "Import can't find module, or can't find name in module."},
}

// NewBuiltins synthesizes the builtins module. Every class in it derives
// from object (object itself has an empty MRO tail), enough for MRO and
// base refs of user classes.
func NewBuiltins(arena *Arena) *Object {
	mod := arena.New(KindModule)
	mod.Name = "builtins"
	mod.TypeName = "module"
	mod.Doc = "Built-in functions, types, exceptions, and other objects."

	var object *Object
	for _, bc := range builtinClasses {
		c := arena.New(KindClass)
		c.Name = bc.name
		c.Qualname = bc.name
		c.Module = "builtins"
		c.TypeName = "type"
		c.Doc = bc.doc
		if bc.name == "object" {
			object = c
			c.MRO = []*Object{c}
		} else {
			c.Bases = []*Object{object}
			c.MRO = []*Object{c, object}
		}
		mod.Dict.Set(bc.name, c)
	}

	none := arena.New(KindValue)
	none.Name = "None"
	none.TypeName = "NoneType"
	none.Repr = "None"
	mod.Dict.Set("None", none)

	return mod
}

// BuiltinTypeName maps an object to the builtins class naming its type.
func BuiltinTypeName(o *Object) string {
	switch o.Kind {
	case KindModule:
		return "module"
	case KindClass:
		return "type"
	case KindFunction:
		return "function"
	case KindProperty:
		return "property"
	case KindWrapper:
		if o.WrapperKind != "" {
			return o.WrapperKind
		}
		return "classmethod"
	case KindValue:
		if o.TypeName != "" {
			return o.TypeName
		}
		return "object"
	}
	return "object"
}
