// # internal/importer/extract.go
package importer

import (
	"fmt"
	"log/slog"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"supdoc/internal/objdoc"
	"supdoc/internal/pyobj"
	"supdoc/internal/pypath"
	"supdoc/internal/shared/util"
)

// extractor lifts one parsed module into pyobj objects. Only module and
// class bodies are walked; function bodies carry no inspectable members.
type extractor struct {
	imp       *Importer
	mod       *pyobj.Object
	src       []byte
	isPackage bool
}

func (e *extractor) module(root *sitter.Node) {
	e.mod.Source = &pyobj.Source{
		File:      e.mod.File,
		StartLine: 1,
		EndLine:   int(root.EndPosition().Row) + 1,
		Text:      string(e.src),
	}
	e.mod.Doc = e.docstring(root)
	e.body(root, nil)
}

// body walks the statements of a module or class body. class is nil at
// module level; inside a class it is the owning class object.
func (e *extractor) body(node *sitter.Node, class *pyobj.Object) {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		stmt := node.NamedChild(i)

		switch stmt.Kind() {
		case "import_statement":
			e.extractImport(stmt)
		case "import_from_statement":
			e.extractFromImport(stmt, class)
		case "function_definition":
			e.extractFunction(stmt, class, nil, stmt)
		case "class_definition":
			e.extractClass(stmt, class, stmt)
		case "decorated_definition":
			e.extractDecorated(stmt, class)
		case "expression_statement":
			child := stmt.NamedChild(0)
			if child == nil {
				continue
			}
			if child.Kind() == "assignment" {
				e.extractAssignment(child, class)
			}
		}
	}
}

func (e *extractor) extractDecorated(node *sitter.Node, class *pyobj.Object) {
	var decorators []string
	var def *sitter.Node

	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Kind() {
		case "decorator":
			decorators = append(decorators, e.decoratorName(child))
		case "function_definition":
			def = child
		case "class_definition":
			def = child
		}
	}
	if def == nil {
		return
	}
	if def.Kind() == "class_definition" {
		e.extractClass(def, class, node)
		return
	}
	e.extractFunction(def, class, decorators, node)
}

func (e *extractor) decoratorName(node *sitter.Node) string {
	expr := node.NamedChild(0)
	if expr == nil {
		return ""
	}
	if expr.Kind() == "call" {
		if fn := expr.ChildByFieldName("function"); fn != nil {
			return e.text(fn)
		}
	}
	return e.text(expr)
}

func (e *extractor) extractFunction(node *sitter.Node, class *pyobj.Object, decorators []string, span *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := e.text(nameNode)

	fn := e.imp.arena.New(pyobj.KindFunction)
	fn.Name = name
	fn.Module = e.mod.Name
	fn.Qualname = e.qualname(class, name)
	fn.TypeName = "function"
	fn.Repr = fmt.Sprintf("<function %s.%s>", fn.Module, fn.Qualname)
	fn.Source = e.source(span)
	if body := node.ChildByFieldName("body"); body != nil {
		fn.Doc = e.docstring(body)
	}
	if params := node.ChildByFieldName("parameters"); params != nil {
		fn.Params = e.extractParams(params)
	}
	if rt := node.ChildByFieldName("return_type"); rt != nil {
		fn.Return = e.exprObject(rt)
	}

	e.bindDecorated(class, name, fn, decorators)
}

// bindDecorated applies property/classmethod/staticmethod decorators and
// binds the result at the owner scope.
func (e *extractor) bindDecorated(class *pyobj.Object, name string, fn *pyobj.Object, decorators []string) {
	for _, deco := range decorators {
		switch {
		case deco == "property" || deco == "cached_property" || deco == "functools.cached_property":
			prop := e.imp.arena.New(pyobj.KindProperty)
			prop.Module = e.mod.Name
			prop.TypeName = "property"
			prop.Doc = fn.Doc
			prop.Get = fn
			e.bind(class, name, prop)
			return
		case deco == "classmethod" || deco == "staticmethod":
			w := e.imp.arena.New(pyobj.KindWrapper)
			w.Module = e.mod.Name
			w.TypeName = deco
			w.WrapperKind = deco
			w.Func = fn
			e.bind(class, name, w)
			return
		case strings.HasSuffix(deco, ".setter") || strings.HasSuffix(deco, ".deleter"):
			base := deco[:strings.LastIndex(deco, ".")]
			if existing := e.lookupOwner(class, base); existing != nil && existing.Kind == pyobj.KindProperty {
				if strings.HasSuffix(deco, ".setter") {
					existing.Set = fn
				} else {
					existing.Del = fn
				}
				return
			}
		}
	}
	e.bind(class, name, fn)
}

func (e *extractor) extractClass(node *sitter.Node, owner *pyobj.Object, span *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := e.text(nameNode)

	c := e.imp.arena.New(pyobj.KindClass)
	c.Name = name
	c.Module = e.mod.Name
	c.Qualname = e.qualname(owner, name)
	c.TypeName = "type"
	c.Repr = fmt.Sprintf("<class '%s.%s'>", c.Module, c.Qualname)
	c.Source = e.source(span)

	if supers := node.ChildByFieldName("superclasses"); supers != nil {
		for i := uint(0); i < supers.NamedChildCount(); i++ {
			arg := supers.NamedChild(i)
			if arg.Kind() == "keyword_argument" {
				continue // metaclass=... and friends
			}
			base := e.resolveExpr(e.text(arg))
			if base == nil || base.Kind != pyobj.KindClass {
				slog.Debug("unresolved base class", "class", c.Qualname, "base", e.text(arg))
				continue
			}
			c.Bases = append(c.Bases, base)
		}
	}
	if len(c.Bases) == 0 {
		if object := e.builtin("object"); object != nil {
			c.Bases = []*pyobj.Object{object}
		}
	}

	if body := node.ChildByFieldName("body"); body != nil {
		c.Doc = e.docstring(body)
		e.body(body, c)
	}

	mro, err := pyobj.LinearizeMRO(c)
	if err != nil {
		slog.Warn("mro linearization failed", "class", c.Qualname, "error", err)
		mro = append([]*pyobj.Object{c}, c.Bases...)
	}
	c.MRO = mro

	e.bind(owner, name, c)
}

func (e *extractor) extractAssignment(node *sitter.Node, class *pyobj.Object) {
	left := node.ChildByFieldName("left")
	right := node.ChildByFieldName("right")
	if left == nil || right == nil {
		return
	}

	switch left.Kind() {
	case "identifier":
		name := e.text(left)
		if name == "__all__" && class == nil {
			e.mod.AllNames = e.stringList(right)
			return
		}
		e.bind(class, name, e.exprObject(right))
	case "attribute":
		// a.b = value mutates an existing object's member dict; this is
		// how module-level code stitches reference cycles together.
		objExpr := left.ChildByFieldName("object")
		attr := left.ChildByFieldName("attribute")
		if objExpr == nil || attr == nil {
			return
		}
		target := e.resolveExpr(e.text(objExpr))
		if target == nil || target.Dict == nil {
			return
		}
		target.Dict.Set(e.text(attr), e.exprObject(right))
	}
}

func (e *extractor) extractImport(node *sitter.Node) {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)

		switch child.Kind() {
		case "dotted_name":
			full := e.text(child)
			if _, err := e.imp.Import(full); err != nil {
				slog.Warn("import failed", "module", full, "in", e.mod.Name, "error", err)
				continue
			}
			top := strings.SplitN(full, ".", 2)[0]
			if mod, ok := e.imp.modules[top]; ok {
				e.mod.Dict.Set(top, mod)
			}
		case "aliased_import":
			nameNode := child.ChildByFieldName("name")
			aliasNode := child.ChildByFieldName("alias")
			if nameNode == nil || aliasNode == nil {
				continue
			}
			full := e.text(nameNode)
			mod, err := e.imp.Import(full)
			if err != nil {
				slog.Warn("import failed", "module", full, "in", e.mod.Name, "error", err)
				continue
			}
			e.mod.Dict.Set(e.text(aliasNode), mod)
		}
	}
}

func (e *extractor) extractFromImport(node *sitter.Node, class *pyobj.Object) {
	modNode := node.ChildByFieldName("module_name")
	if modNode == nil {
		return
	}

	target := ""
	switch modNode.Kind() {
	case "relative_import":
		target = e.resolveRelative(e.text(modNode))
	default:
		target = e.text(modNode)
	}
	if target == "" {
		return
	}

	mod, err := e.imp.Import(target)
	if err != nil {
		slog.Warn("import failed", "module", target, "in", e.mod.Name, "error", err)
		return
	}

	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child.StartByte() == modNode.StartByte() {
			continue
		}
		switch child.Kind() {
		case "wildcard_import":
			e.bindWildcard(class, mod)
		case "dotted_name", "identifier":
			name := e.text(child)
			e.bindImported(class, mod, target, name, name)
		case "aliased_import":
			nameNode := child.ChildByFieldName("name")
			aliasNode := child.ChildByFieldName("alias")
			if nameNode == nil || aliasNode == nil {
				continue
			}
			e.bindImported(class, mod, target, e.text(nameNode), e.text(aliasNode))
		}
	}
}

func (e *extractor) bindImported(class *pyobj.Object, mod *pyobj.Object, modName, name, bindAs string) {
	obj, ok := mod.Dict.Get(name)
	if !ok {
		// from pkg import sub, where sub is a submodule not yet loaded.
		sub, err := e.imp.Import(modName + "." + name)
		if err != nil {
			slog.Warn("name not found in module", "module", modName, "name", name, "in", e.mod.Name)
			return
		}
		obj = sub
	}
	e.bind(class, bindAs, obj)
}

func (e *extractor) bindWildcard(class *pyobj.Object, mod *pyobj.Object) {
	names := mod.AllNames
	if names == nil {
		for _, k := range mod.Dict.Keys() {
			if !strings.HasPrefix(k, "_") {
				names = append(names, k)
			}
		}
	}
	for _, name := range names {
		if obj, ok := mod.Dict.Get(name); ok {
			e.bind(class, name, obj)
		}
	}
}

// resolveRelative turns ".sub" / ".." style prefixes into an absolute
// module name relative to the current module's package.
func (e *extractor) resolveRelative(text string) string {
	level := 0
	for level < len(text) && text[level] == '.' {
		level++
	}
	rest := text[level:]

	parts := strings.Split(e.mod.Name, ".")
	if !e.isPackage {
		parts = parts[:len(parts)-1]
	}
	drop := level - 1
	if drop >= len(parts) {
		return rest
	}
	parts = parts[:len(parts)-drop]

	base := strings.Join(parts, ".")
	if rest == "" {
		return base
	}
	if base == "" {
		return rest
	}
	return base + "." + rest
}

// exprObject turns an expression into an object. Names resolving in scope
// yield the referenced object itself, so aliases share identity; anything
// else becomes an anonymous value carrying the source text as its repr.
func (e *extractor) exprObject(node *sitter.Node) *pyobj.Object {
	switch node.Kind() {
	case "identifier", "attribute", "dotted_name":
		if obj := e.resolveExpr(e.text(node)); obj != nil {
			return obj
		}
	}

	v := e.imp.arena.New(pyobj.KindValue)
	v.Repr = util.Truncate(e.text(node), objdoc.MaxReprLen)
	v.TypeName = literalTypeName(node.Kind())
	return v
}

// resolveExpr resolves a dotted name against the current module scope and
// builtins, walking member dicts for the remaining segments.
func (e *extractor) resolveExpr(dotted string) *pyobj.Object {
	segs := strings.Split(dotted, ".")
	cur, ok := e.mod.Dict.Get(segs[0])
	if !ok {
		cur = e.builtin(segs[0])
		if cur == nil {
			return nil
		}
	}
	for _, seg := range segs[1:] {
		next, ok := cur.Lookup(seg)
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

func (e *extractor) builtin(name string) *pyobj.Object {
	b := e.imp.Builtins()
	if b == nil {
		return nil
	}
	obj, _ := b.Dict.Get(name)
	return obj
}

// bind stores a member at module scope or inside a class body. Private
// names inside a class body are stored under their mangled key, matching
// the compiler's rewrite.
func (e *extractor) bind(class *pyobj.Object, name string, obj *pyobj.Object) {
	if obj == nil {
		return
	}
	if class != nil {
		key := name
		if pypath.IsPrivate(name) {
			key = pypath.MangleName(class.Name, name)
		}
		class.Dict.Set(key, obj)
		return
	}
	e.mod.Dict.Set(name, obj)
}

func (e *extractor) lookupOwner(class *pyobj.Object, name string) *pyobj.Object {
	if class != nil {
		key := name
		if pypath.IsPrivate(name) {
			key = pypath.MangleName(class.Name, name)
		}
		obj, _ := class.Dict.Get(key)
		return obj
	}
	obj, _ := e.mod.Dict.Get(name)
	return obj
}

func (e *extractor) qualname(class *pyobj.Object, name string) string {
	if class != nil {
		return class.Qualname + "." + name
	}
	return name
}

func (e *extractor) extractParams(params *sitter.Node) []pyobj.Param {
	var out []pyobj.Param
	kind := pyobj.PositionalOrKeyword

	for i := uint(0); i < params.NamedChildCount(); i++ {
		child := params.NamedChild(i)

		switch child.Kind() {
		case "positional_separator":
			for j := range out {
				if out[j].Kind == pyobj.PositionalOrKeyword {
					out[j].Kind = pyobj.PositionalOnly
				}
			}
		case "keyword_separator":
			kind = pyobj.KeywordOnly
		case "identifier":
			out = append(out, pyobj.Param{Name: e.text(child), Kind: kind})
		case "typed_parameter":
			p := pyobj.Param{Kind: kind}
			if id := child.NamedChild(0); id != nil {
				p.Name = e.text(id)
			}
			if tn := child.ChildByFieldName("type"); tn != nil {
				p.Annotation = e.exprObject(tn)
			}
			out = append(out, p)
		case "default_parameter":
			p := pyobj.Param{Kind: kind}
			if n := child.ChildByFieldName("name"); n != nil {
				p.Name = e.text(n)
			}
			if v := child.ChildByFieldName("value"); v != nil {
				p.Default = e.exprObject(v)
			}
			out = append(out, p)
		case "typed_default_parameter":
			p := pyobj.Param{Kind: kind}
			if n := child.ChildByFieldName("name"); n != nil {
				p.Name = e.text(n)
			}
			if tn := child.ChildByFieldName("type"); tn != nil {
				p.Annotation = e.exprObject(tn)
			}
			if v := child.ChildByFieldName("value"); v != nil {
				p.Default = e.exprObject(v)
			}
			out = append(out, p)
		case "list_splat_pattern":
			p := pyobj.Param{Kind: pyobj.VarPositional}
			if id := child.NamedChild(0); id != nil {
				p.Name = e.text(id)
			}
			out = append(out, p)
			kind = pyobj.KeywordOnly
		case "dictionary_splat_pattern":
			p := pyobj.Param{Kind: pyobj.VarKeyword}
			if id := child.NamedChild(0); id != nil {
				p.Name = e.text(id)
			}
			out = append(out, p)
		}
	}
	return out
}

// docstring returns the content of a leading string expression statement.
func (e *extractor) docstring(body *sitter.Node) string {
	first := body.NamedChild(0)
	if first == nil || first.Kind() != "expression_statement" {
		return ""
	}
	str := first.NamedChild(0)
	if str == nil || str.Kind() != "string" {
		return ""
	}

	var b strings.Builder
	for i := uint(0); i < str.NamedChildCount(); i++ {
		part := str.NamedChild(i)
		if part.Kind() == "string_content" {
			b.WriteString(e.text(part))
		}
	}
	return b.String()
}

func (e *extractor) stringList(node *sitter.Node) []string {
	if node.Kind() != "list" && node.Kind() != "tuple" {
		return nil
	}
	names := make([]string, 0, node.NamedChildCount())
	for i := uint(0); i < node.NamedChildCount(); i++ {
		item := node.NamedChild(i)
		if item.Kind() != "string" {
			continue
		}
		for j := uint(0); j < item.NamedChildCount(); j++ {
			part := item.NamedChild(j)
			if part.Kind() == "string_content" {
				names = append(names, e.text(part))
			}
		}
	}
	return names
}

func (e *extractor) source(node *sitter.Node) *pyobj.Source {
	return &pyobj.Source{
		File:      e.mod.File,
		StartLine: int(node.StartPosition().Row) + 1,
		EndLine:   int(node.EndPosition().Row) + 1,
		Text:      string(e.src[node.StartByte():node.EndByte()]),
	}
}

func (e *extractor) text(node *sitter.Node) string {
	return string(e.src[node.StartByte():node.EndByte()])
}

func literalTypeName(kind string) string {
	switch kind {
	case "integer":
		return "int"
	case "float":
		return "float"
	case "string", "concatenated_string":
		return "str"
	case "true", "false":
		return "bool"
	case "none":
		return "NoneType"
	case "list", "list_comprehension":
		return "list"
	case "dictionary", "dictionary_comprehension":
		return "dict"
	case "tuple":
		return "tuple"
	case "set", "set_comprehension":
		return "set"
	case "lambda":
		return "function"
	}
	return ""
}
