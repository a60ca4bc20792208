// # internal/inspect/inspect_test.go
package inspect

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supdoc/internal/core/errors"
	"supdoc/internal/importer"
	"supdoc/internal/pyobj"
	"supdoc/internal/pypath"
)

func newInspector(t *testing.T, files map[string]string) (*importer.Importer, *Inspector) {
	t.Helper()
	dir := t.TempDir()
	for path, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(path))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	imp := importer.New([]string{dir})
	return imp, New(imp)
}

func TestInspectFunction(t *testing.T) {
	_, ins := newInspector(t, map[string]string{
		"m.py": `def f(x, y=10):
    """@param x first @param y second"""
    return x + y
`,
	})

	doc := ins.InspectModule(context.Background(), "m")
	f, ok := doc.Member("f")
	require.True(t, ok)
	assert.False(t, f.IsRef())
	assert.Equal(t, "function", f.TypeName)
	require.NotNil(t, f.Callable)
	assert.True(t, *f.Callable)

	require.NotNil(t, f.Sig)
	require.Len(t, f.Sig.Params, 2)
	assert.Equal(t, "x", f.Sig.Params[0].Name)
	assert.Equal(t, "first", f.Sig.Params[0].Doc)
	assert.Equal(t, "y", f.Sig.Params[1].Name)
	assert.Equal(t, "second", f.Sig.Params[1].Doc)
	require.NotNil(t, f.Sig.Params[1].Default)
	assert.Equal(t, "10", f.Sig.Params[1].Default.Repr)
}

func TestInspectClass(t *testing.T) {
	_, ins := newInspector(t, map[string]string{
		"m.py": "class C:\n    pass\n",
	})

	doc := ins.InspectModule(context.Background(), "m")
	c, ok := doc.Member("C")
	require.True(t, ok)
	assert.Equal(t, "type", c.TypeName)
	assert.Equal(t, "C", c.Qualname)
	require.NotNil(t, c.Callable)
	assert.True(t, *c.Callable)

	require.Len(t, c.Bases, 1)
	assert.Equal(t, "#/modules/builtins/dict/object", c.Bases[0].Ref)
	require.Len(t, c.MRO, 2)
	assert.Equal(t, "#/modules/m/dict/C", c.MRO[0].Ref)

	// A class with no members still carries its (empty) dict.
	assert.NotNil(t, c.Dict)
	assert.Empty(t, c.Dict)
}

func TestAliasYieldsRef(t *testing.T) {
	_, ins := newInspector(t, map[string]string{
		"m.py": "class C:\n    pass\n\n\nalias = C\n",
	})

	doc := ins.InspectModule(context.Background(), "m")
	c, _ := doc.Member("C")
	assert.False(t, c.IsRef())

	alias, ok := doc.Member("alias")
	require.True(t, ok)
	require.True(t, alias.IsRef())
	assert.Equal(t, "#/modules/m/dict/C", alias.Ref)
	// The ref still announces the target's type.
	require.NotNil(t, alias.Type)
	assert.Equal(t, "#/modules/builtins/dict/type", alias.Type.Ref)
}

func TestExpansionHappensOncePerObject(t *testing.T) {
	_, ins := newInspector(t, map[string]string{
		"m.py": "class C:\n    pass\n\n\nalias = C\nanother = C\n",
	})

	ins.InspectModule(context.Background(), "m")
	// One expansion for the module, one for C; both aliases became refs.
	assert.Equal(t, 2, ins.Expansions)
	assert.GreaterOrEqual(t, ins.Refs, 2)
}

func TestMutualClassAttributesBecomeRefs(t *testing.T) {
	_, ins := newInspector(t, map[string]string{
		"m.py": `class A:
    pass


class B:
    pass


A.partner = B
B.partner = A
`,
	})

	doc := ins.InspectModule(context.Background(), "m")
	a, _ := doc.Member("A")
	b, _ := doc.Member("B")
	require.False(t, a.IsRef())
	require.False(t, b.IsRef())

	ap, ok := a.Member("partner")
	require.True(t, ok)
	assert.Equal(t, "#/modules/m/dict/B", ap.Ref)
	bp, ok := b.Member("partner")
	require.True(t, ok)
	assert.Equal(t, "#/modules/m/dict/A", bp.Ref)
}

func TestSelfReferenceCycleTerminates(t *testing.T) {
	// An object containing itself, with a self-reported path that does not
	// resolve anywhere, exercises the in-progress cache branch.
	imp := importer.New(nil)
	arena := pyobj.NewArena()
	c := arena.New(pyobj.KindClass)
	c.Name = "A"
	c.Qualname = "A"
	c.Module = "ghost"
	c.TypeName = "type"
	c.Dict.Set("self_ref", c)

	ins := New(imp)
	doc := ins.Inspect(c)
	require.False(t, doc.IsRef())

	inner, ok := doc.Member("self_ref")
	require.True(t, ok)
	assert.Equal(t, "#/modules/ghost/dict/A", inner.Ref)
	assert.Equal(t, 1, ins.Expansions)
}

func TestSubmoduleMembersStayRefs(t *testing.T) {
	_, ins := newInspector(t, map[string]string{
		"pkg/__init__.py": "from . import sub\n",
		"pkg/sub.py":      "def helper():\n    return 1\n",
	})

	doc := ins.InspectModule(context.Background(), "pkg")
	sub, ok := doc.Member("sub")
	require.True(t, ok)
	require.True(t, sub.IsRef())
	assert.Equal(t, "#/modules/pkg.sub", sub.Ref)
}

func TestDefaultValueClassBecomesRef(t *testing.T) {
	_, ins := newInspector(t, map[string]string{
		"m.py": `class C:
    pass


def f(x=C):
    pass
`,
	})

	doc := ins.InspectModule(context.Background(), "m")
	f, _ := doc.Member("f")
	require.NotNil(t, f.Sig)
	require.Len(t, f.Sig.Params, 1)
	d := f.Sig.Params[0].Default
	require.NotNil(t, d)
	assert.Equal(t, "#/modules/m/dict/C", d.Ref)
}

func TestClassSignatureFromInit(t *testing.T) {
	_, ins := newInspector(t, map[string]string{
		"m.py": `class C:
    def __init__(self, x, y=1):
        self.x = x
`,
	})

	doc := ins.InspectModule(context.Background(), "m")
	c, _ := doc.Member("C")
	require.NotNil(t, c.Sig)
	// self is dropped from the constructor signature.
	require.Len(t, c.Sig.Params, 2)
	assert.Equal(t, "x", c.Sig.Params[0].Name)
	assert.Equal(t, "y", c.Sig.Params[1].Name)
}

func TestPropertyAccessorsExpandInline(t *testing.T) {
	_, ins := newInspector(t, map[string]string{
		"m.py": `class C:
    @property
    def size(self):
        """Current size."""
        return 1

    @size.setter
    def size(self, value):
        pass
`,
	})

	doc := ins.InspectModule(context.Background(), "m")
	c, _ := doc.Member("C")
	p, ok := c.Member("size")
	require.True(t, ok)
	assert.Equal(t, "property", p.TypeName)
	require.NotNil(t, p.Docs)
	assert.Equal(t, "Current size.", p.Docs.Summary)

	// Accessor functions expand in place; their paths point at the
	// property, not at themselves, so they have no canonical location.
	require.NotNil(t, p.Get)
	assert.False(t, p.Get.IsRef())
	require.NotNil(t, p.Get.Sig)
	require.NotNil(t, p.Set)
	assert.False(t, p.Set.IsRef())
	assert.Nil(t, p.Del)
}

func TestInspectPath(t *testing.T) {
	_, ins := newInspector(t, map[string]string{
		"m.py": `class C:
    def m(self):
        return 1

    def __hidden(self):
        return 2
`,
	})
	ctx := context.Background()

	node, err := ins.InspectPath(ctx, pypath.Path{Module: "m", Qualname: "C.m"})
	require.NoError(t, err)
	assert.Equal(t, "C.m", node.Qualname)

	// Private names walk through their mangled dict key.
	node, err = ins.InspectPath(ctx, pypath.Path{Module: "m", Qualname: "C.__hidden"})
	require.NoError(t, err)
	assert.Equal(t, "C.__hidden", node.Qualname)

	_, err = ins.InspectPath(ctx, pypath.Path{Module: "m", Qualname: "C.nope"})
	assert.True(t, errors.IsCode(err, errors.CodeQualnameNotFound))

	_, err = ins.InspectPath(ctx, pypath.Path{Module: "missing", Qualname: "C"})
	assert.True(t, errors.IsCode(err, errors.CodeImportError))
}

func TestInspectModuleMissing(t *testing.T) {
	_, ins := newInspector(t, nil)
	doc := ins.InspectModule(context.Background(), "missing")
	require.NotNil(t, doc)
	assert.Equal(t, "", doc.Name)
	assert.False(t, doc.IsRef())
}

func TestResolveNode(t *testing.T) {
	_, ins := newInspector(t, map[string]string{
		"m.py": "class C:\n    pass\n\n\nalias = C\n",
	})
	ctx := context.Background()

	doc := ins.InspectModule(ctx, "m")
	alias, _ := doc.Member("alias")
	require.True(t, alias.IsRef())

	resolved, err := ins.ResolveNode(ctx, alias, true)
	require.NoError(t, err)
	assert.False(t, resolved.IsRef())
	assert.Equal(t, "C", resolved.Qualname)

	// Non-refs pass through untouched.
	same, err := ins.ResolveNode(ctx, resolved, true)
	require.NoError(t, err)
	assert.Same(t, resolved, same)
}

func TestModuleDocEnriched(t *testing.T) {
	_, ins := newInspector(t, map[string]string{
		"m.py": "\"\"\"Top summary.\n\nMore detail here.\n\"\"\"\nx = 1\n",
	})

	doc := ins.InspectModule(context.Background(), "m")
	require.NotNil(t, doc.Docs)
	assert.Equal(t, "Top summary.", doc.Docs.Summary)
	assert.Contains(t, doc.Docs.Body, "More detail here.")
	require.NotNil(t, doc.Source)
	assert.Equal(t, 1, doc.Source.StartLine)
}

func TestDictExcludesInternals(t *testing.T) {
	_, ins := newInspector(t, map[string]string{
		"m.py": "__all__ = [\"x\"]\nx = 1\n",
	})

	doc := ins.InspectModule(context.Background(), "m")
	_, ok := doc.Member("__all__")
	assert.False(t, ok)
	require.NotNil(t, doc.AllNames)
	assert.Equal(t, []string{"x"}, *doc.AllNames)

	x, ok := doc.Member("x")
	require.True(t, ok)
	assert.Equal(t, "int", x.TypeName)
	assert.Equal(t, "1", x.Repr)
}
