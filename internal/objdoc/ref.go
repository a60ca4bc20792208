// # internal/objdoc/ref.go
package objdoc

import (
	"strings"

	"supdoc/internal/core/errors"
	"supdoc/internal/pypath"
)

const refPrefix = "#/modules/"

// MakeRef builds the pointer-shaped node for a path:
// #/modules/<module>/dict/<seg>/dict/<seg>/...
func MakeRef(p pypath.Path) *Node {
	var b strings.Builder
	b.WriteString(refPrefix)
	b.WriteString(p.Module)
	for _, seg := range p.Segments() {
		b.WriteString("/dict/")
		b.WriteString(seg)
	}
	return &Node{Ref: b.String()}
}

// ParseRef inverts MakeRef. Refs are only ever produced by MakeRef, so a
// malformed one is a programmer error, reported as CodeMalformedRef.
func ParseRef(n *Node) (pypath.Path, error) {
	if !n.IsRef() {
		return pypath.Path{}, errors.New(errors.CodeMalformedRef, "node is not a ref")
	}
	parts := strings.Split(n.Ref, "/")
	if len(parts) < 3 || parts[0] != "#" || parts[1] != "modules" {
		return pypath.Path{}, errors.Newf(errors.CodeMalformedRef, "bad ref prefix in %q", n.Ref)
	}
	module := parts[2]
	if module == "" {
		return pypath.Path{}, errors.Newf(errors.CodeMalformedRef, "empty module in ref %q", n.Ref)
	}

	rest := parts[3:]
	if len(rest)%2 != 0 {
		return pypath.Path{}, errors.Newf(errors.CodeMalformedRef, "unbalanced ref %q", n.Ref)
	}
	segs := make([]string, 0, len(rest)/2)
	for i := 0; i < len(rest); i += 2 {
		if rest[i] != "dict" {
			return pypath.Path{}, errors.Newf(errors.CodeMalformedRef, "expected dict token in ref %q", n.Ref)
		}
		if rest[i+1] == "" {
			return pypath.Path{}, errors.Newf(errors.CodeMalformedRef, "empty segment in ref %q", n.Ref)
		}
		segs = append(segs, rest[i+1])
	}
	return pypath.New(module, strings.Join(segs, "."))
}
