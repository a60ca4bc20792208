// # internal/objdoc/ref_test.go
package objdoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supdoc/internal/core/errors"
	"supdoc/internal/pypath"
)

func TestRefRoundTrip(t *testing.T) {
	cases := []pypath.Path{
		{Module: "os"},
		{Module: "pkg.mod", Qualname: "C"},
		{Module: "pkg.mod", Qualname: "C.method"},
		{Module: "m", Qualname: "C._C__hidden"},
	}
	for _, p := range cases {
		n := MakeRef(p)
		require.True(t, n.IsRef())
		got, err := ParseRef(n)
		require.NoError(t, err, "ref %q", n.Ref)
		assert.Equal(t, p, got)
	}
}

func TestMakeRefShape(t *testing.T) {
	n := MakeRef(pypath.Path{Module: "pkg.mod", Qualname: "C.f"})
	assert.Equal(t, "#/modules/pkg.mod/dict/C/dict/f", n.Ref)
}

func TestParseRefMalformed(t *testing.T) {
	cases := []string{
		"",
		"#/mod/x",
		"#/modules",
		"#/modules/",
		"#/modules/m/dict",
		"#/modules/m/attr/C",
		"#/modules/m/dict/",
	}
	for _, ref := range cases {
		_, err := ParseRef(&Node{Ref: ref})
		if ref == "" {
			// An empty ref is not a ref node at all.
			require.Error(t, err)
			continue
		}
		require.Error(t, err, "ref %q", ref)
		assert.True(t, errors.IsCode(err, errors.CodeMalformedRef), "ref %q: %v", ref, err)
	}
}

func TestIsRef(t *testing.T) {
	assert.False(t, (&Node{}).IsRef())
	assert.False(t, (*Node)(nil).IsRef())
	assert.True(t, (&Node{Ref: "#/modules/m"}).IsRef())
}

func TestEncodeDecode(t *testing.T) {
	yes := true
	n := &Node{
		TypeName: "type",
		Name:     "C",
		Qualname: "C",
		Callable: &yes,
		Dict: map[string]*Node{
			"f": {TypeName: "function", Name: "f"},
		},
		Docs: &Docs{Doc: "a <class>"},
	}
	data, err := Encode(n)
	require.NoError(t, err)
	// HTML escaping stays off so markup survives the round trip.
	assert.Contains(t, string(data), "a <class>")

	back, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, n.Name, back.Name)
	require.NotNil(t, back.Callable)
	assert.True(t, *back.Callable)
	require.Contains(t, back.Dict, "f")
	assert.Equal(t, "f", back.Dict["f"].Name)
}
