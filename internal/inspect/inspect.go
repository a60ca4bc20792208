// # internal/inspect/inspect.go
//
// The inspector walks the object graph rooted at one module or object and
// produces the objdoc tree. A traversal cache keyed by arena id guarantees
// termination on cycles and at most one full expansion per object identity
// per top-level call.
package inspect

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"supdoc/internal/core/errors"
	"supdoc/internal/docs"
	"supdoc/internal/importer"
	"supdoc/internal/objdoc"
	"supdoc/internal/pyobj"
	"supdoc/internal/pypath"
	"supdoc/internal/shared/observability"
	"supdoc/internal/shared/util"
)

// SchemaVersion marks the objdoc shape; disk cache entries written under a
// different version are treated as misses.
const SchemaVersion = 1

// excludedAttrs are implementation-internal member names never emitted
// into a dict.
var excludedAttrs = map[string]bool{
	"__class__":         true,
	"__dict__":          true,
	"__module__":        true,
	"__name__":          true,
	"__qualname__":      true,
	"__doc__":           true,
	"__weakref__":       true,
	"__builtins__":      true,
	"__file__":          true,
	"__spec__":          true,
	"__loader__":        true,
	"__package__":       true,
	"__path__":          true,
	"__slots__":         true,
	"__annotations__":   true,
	"__all__":           true,
	"__init_subclass__": true,
	"__subclasshook__":  true,
}

type cacheEntry struct {
	inProgress bool
	path       pypath.Path
	doc        *objdoc.Node
}

// Inspector runs one top-level inspection at a time. The traversal cache
// belongs to the running call; concurrent inspections each need their own
// Inspector.
type Inspector struct {
	imp    *importer.Importer
	cache  map[int]*cacheEntry
	tracer trace.Tracer

	// Expansions counts full objdoc expansions and Refs the refs emitted
	// since the last top-level call started. Exposed for run statistics
	// and for tests that verify cache behavior.
	Expansions int
	Refs       int
}

func New(imp *importer.Importer) *Inspector {
	return &Inspector{
		imp:    imp,
		cache:  make(map[int]*cacheEntry),
		tracer: otel.Tracer("supdoc/inspect"),
	}
}

func (ins *Inspector) reset() {
	ins.cache = make(map[int]*cacheEntry)
	ins.Expansions = 0
	ins.Refs = 0
}

// InspectModule imports and fully inspects a module. A module that cannot
// be imported yields an empty objdoc, logged as informational, not an
// error: the caller's run continues with the modules that do import.
func (ins *Inspector) InspectModule(ctx context.Context, name string) *objdoc.Node {
	_, span := ins.tracer.Start(ctx, "InspectModule",
		trace.WithAttributes(attribute.String("module", name)))
	defer span.End()

	timer := prometheus.NewTimer(observability.InspectDuration.WithLabelValues("module"))
	defer timer.ObserveDuration()

	mod, err := ins.imp.Import(name)
	if err != nil {
		observability.ImportFailures.Inc()
		slog.Info("module not importable", "module", name, "error", err)
		return &objdoc.Node{}
	}

	ins.reset()
	return ins.inspect(mod, pypath.Path{Module: name})
}

// Inspect inspects an already-live object with no assumed path.
func (ins *Inspector) Inspect(obj *pyobj.Object) *objdoc.Node {
	ins.reset()
	via, _ := pypath.Of(obj)
	return ins.inspect(obj, via)
}

// InspectPath inspects the module of a path and walks the qualname
// segments through the produced document. A missing segment is a
// qualname-not-found error, distinct from an import failure.
func (ins *Inspector) InspectPath(ctx context.Context, p pypath.Path) (*objdoc.Node, error) {
	if _, err := ins.imp.Import(p.Module); err != nil {
		return nil, err
	}

	node := ins.InspectModule(ctx, p.Module)
	walked := p.Module
	for _, seg := range p.Segments() {
		if node.IsRef() {
			resolved, err := ins.ResolveNode(ctx, node, false)
			if err != nil {
				return nil, err
			}
			node = resolved
		}
		child, ok := node.Member(seg)
		if !ok && pypath.IsPrivate(seg) && node.Name != "" {
			child, ok = node.Member(pypath.MangleName(node.Name, seg))
		}
		if !ok {
			return nil, errors.Newf(errors.CodeQualnameNotFound, "name %q not found in %s", seg, walked)
		}
		node = child
		walked += "." + seg
	}
	return node, nil
}

// inspect produces the objdoc-or-ref for one object reached via one path.
// via may be zero for anonymous values such as defaults and annotations.
func (ins *Inspector) inspect(obj *pyobj.Object, via pypath.Path) *objdoc.Node {
	if entry, ok := ins.cache[obj.ID]; ok {
		if entry.inProgress {
			// The object is part of a cycle reached through a second
			// path: emit a ref to where expansion started and drop the
			// stale marker; the outer frame will store the final doc.
			delete(ins.cache, obj.ID)
			observability.RefsEmitted.Inc()
			return ins.refTo(entry.path, obj)
		}
		observability.TraversalCacheHits.Inc()
		if entry.path == via {
			return entry.doc
		}
		observability.RefsEmitted.Inc()
		return ins.refTo(entry.path, obj)
	}

	self, hasSelf := pypath.Of(obj)
	if hasSelf && !ins.verifies(self, obj) {
		// Imposter: the self-reported path does not resolve back to
		// the object. Treat as having no identity of its own.
		hasSelf = false
	}
	if hasSelf && self != via {
		// Defined elsewhere (or reached anonymously): point at the
		// canonical location instead of re-expanding.
		observability.RefsEmitted.Inc()
		return ins.refTo(self, obj)
	}

	ins.cache[obj.ID] = &cacheEntry{inProgress: true, path: via}
	doc := ins.expand(obj, via)
	ins.cache[obj.ID] = &cacheEntry{path: via, doc: doc}
	return doc
}

func (ins *Inspector) verifies(self pypath.Path, obj *pyobj.Object) bool {
	resolved, err := ins.imp.Resolve(self)
	if err != nil {
		return false
	}
	return resolved.ID == obj.ID
}

func (ins *Inspector) refTo(p pypath.Path, obj *pyobj.Object) *objdoc.Node {
	ins.Refs++
	n := objdoc.MakeRef(p)
	n.Type = ins.typeRef(obj)
	return n
}

func (ins *Inspector) typeRef(obj *pyobj.Object) *objdoc.Node {
	return objdoc.MakeRef(pypath.Path{
		Module:   "builtins",
		Qualname: pyobj.BuiltinTypeName(obj),
	})
}

// expand builds the full objdoc for an object. Every field probe is
// independently optional; a field the object does not support is omitted.
func (ins *Inspector) expand(obj *pyobj.Object, via pypath.Path) *objdoc.Node {
	ins.Expansions++
	observability.ObjectsInspected.Inc()

	n := &objdoc.Node{
		Type:     ins.typeRef(obj),
		TypeName: pyobj.BuiltinTypeName(obj),
		Repr:     util.Truncate(obj.Repr, objdoc.MaxReprLen),
		Name:     obj.Name,
		Qualname: obj.Qualname,
	}

	// A module attribute is meaningful only on code-like objects; on
	// plain values it would be inherited from the type.
	switch obj.Kind {
	case pyobj.KindClass, pyobj.KindFunction:
		if obj.Module != "" {
			n.Module = objdoc.MakeRef(pypath.Path{Module: obj.Module})
		}
	}

	if obj.Kind == pyobj.KindModule && obj.AllNames != nil {
		all := make([]string, len(obj.AllNames))
		copy(all, obj.AllNames)
		n.AllNames = &all
	}

	if obj.Kind == pyobj.KindModule || obj.Kind == pyobj.KindClass {
		n.Dict = ins.members(obj, via)
	}

	switch obj.Kind {
	case pyobj.KindModule, pyobj.KindClass, pyobj.KindFunction:
		if obj.Source != nil {
			n.Source = &objdoc.Source{
				File:      obj.Source.File,
				StartLine: obj.Source.StartLine,
				EndLine:   obj.Source.EndLine,
				Text:      obj.Source.Text,
			}
		}
	}

	if obj.Kind == pyobj.KindClass {
		for _, b := range obj.Bases {
			n.Bases = append(n.Bases, ins.classRef(b))
		}
		for _, m := range obj.MRO {
			n.MRO = append(n.MRO, ins.classRef(m))
		}
	}

	if obj.Callable() {
		yes := true
		n.Callable = &yes
		switch obj.Kind {
		case pyobj.KindFunction:
			n.Sig = ins.signature(obj)
		case pyobj.KindClass:
			// A class reports its constructor's signature, not its own.
			if init := findInMRO(obj, "__init__"); init != nil && init.Kind == pyobj.KindFunction {
				n.Sig = dropSelf(ins.signature(init))
			}
		}
	}

	if obj.Kind == pyobj.KindWrapper && obj.Func != nil {
		n.Func = ins.inspect(obj.Func, pypath.Path{})
	}
	if obj.Kind == pyobj.KindProperty {
		if obj.Get != nil {
			n.Get = ins.inspect(obj.Get, pypath.Path{})
		}
		if obj.Set != nil {
			n.Set = ins.inspect(obj.Set, pypath.Path{})
		}
		if obj.Del != nil {
			n.Del = ins.inspect(obj.Del, pypath.Path{})
		}
	}

	// Attach the docstring only when it differs from the type's; every
	// instance of a builtin type reports the type's generic doc.
	if obj.Doc != "" && obj.Doc != ins.typeDoc(obj) {
		n.Docs = &objdoc.Docs{Doc: obj.Doc}
		docs.Enrich(n)
	}

	return n
}

func (ins *Inspector) members(obj *pyobj.Object, via pypath.Path) map[string]*objdoc.Node {
	dict := make(map[string]*objdoc.Node)
	for _, name := range obj.Dict.Keys() {
		if excludedAttrs[name] {
			continue
		}
		member, _ := obj.Dict.Get(name)

		// Submodules stay refs so a traversal is bounded to the module
		// actually requested.
		if obj.Kind == pyobj.KindModule && member.Kind == pyobj.KindModule {
			if p, ok := pypath.Of(member); ok {
				observability.RefsEmitted.Inc()
				dict[name] = ins.refTo(p, member)
			}
			continue
		}
		dict[name] = ins.inspect(member, via.Child(name))
	}
	return dict
}

func (ins *Inspector) classRef(c *pyobj.Object) *objdoc.Node {
	if p, ok := pypath.Of(c); ok {
		return ins.refTo(p, c)
	}
	return ins.typeRef(c)
}

func (ins *Inspector) signature(fn *pyobj.Object) *objdoc.Signature {
	sig := &objdoc.Signature{Params: make([]*objdoc.Param, 0, len(fn.Params))}
	for _, p := range fn.Params {
		dp := &objdoc.Param{Name: p.Name, Kind: string(p.Kind)}
		if p.Annotation != nil {
			dp.Annotation = ins.inspect(p.Annotation, pypath.Path{})
		}
		if p.Default != nil {
			dp.Default = ins.inspect(p.Default, pypath.Path{})
		}
		sig.Params = append(sig.Params, dp)
	}
	if fn.Return != nil {
		sig.Return = &objdoc.Return{Annotation: ins.inspect(fn.Return, pypath.Path{})}
	}
	return sig
}

func dropSelf(sig *objdoc.Signature) *objdoc.Signature {
	if sig == nil || len(sig.Params) == 0 {
		return sig
	}
	first := sig.Params[0]
	if first.Kind == string(pyobj.PositionalOrKeyword) || first.Kind == string(pyobj.PositionalOnly) {
		sig.Params = sig.Params[1:]
	}
	return sig
}

func findInMRO(c *pyobj.Object, name string) *pyobj.Object {
	for _, m := range c.MRO {
		if m.Dict == nil {
			continue
		}
		if member, ok := m.Dict.Get(name); ok {
			return member
		}
	}
	return nil
}

func (ins *Inspector) typeDoc(obj *pyobj.Object) string {
	b := ins.imp.Builtins()
	if b == nil {
		return ""
	}
	t, ok := b.Dict.Get(pyobj.BuiltinTypeName(obj))
	if !ok {
		return ""
	}
	return t.Doc
}
