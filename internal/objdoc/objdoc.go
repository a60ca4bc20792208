// # internal/objdoc/objdoc.go
//
// The objdoc tree: a JSON-serializable document describing one inspected
// object per node. A node is either a full objdoc or a ref, never both.
package objdoc

import (
	"bytes"
	"encoding/json"
)

// MaxReprLen caps captured repr text so a single huge value cannot blow up
// the document or the on-disk cache.
const MaxReprLen = 64 * 1024

// Node is one objdoc-or-ref. All fields are optional; absent fields mean
// the underlying object does not support them. Go's map marshalling keys
// Dict members in sorted order, which is the wire ordering contract.
type Node struct {
	Ref string `json:"$ref,omitempty"`

	Type     *Node            `json:"type,omitempty"`
	TypeName string           `json:"type_name,omitempty"`
	Repr     string           `json:"repr,omitempty"`
	Name     string           `json:"name,omitempty"`
	Qualname string           `json:"qualname,omitempty"`
	Module   *Node            `json:"module,omitempty"`
	AllNames *[]string        `json:"all_names,omitempty"`
	Dict     map[string]*Node `json:"dict,omitempty"`
	Source   *Source          `json:"source,omitempty"`
	Bases    []*Node          `json:"bases,omitempty"`
	MRO      []*Node          `json:"mro,omitempty"`
	Callable *bool            `json:"callable,omitempty"`
	Sig      *Signature       `json:"signature,omitempty"`
	Func     *Node            `json:"func,omitempty"`
	Get      *Node            `json:"get,omitempty"`
	Set      *Node            `json:"set,omitempty"`
	Del      *Node            `json:"del,omitempty"`
	Docs     *Docs            `json:"docs,omitempty"`
}

// IsRef reports whether the node is a pointer-shaped stand-in rather than
// a full objdoc.
func (n *Node) IsRef() bool {
	return n != nil && n.Ref != ""
}

// Member looks up a dict entry by name.
func (n *Node) Member(name string) (*Node, bool) {
	if n == nil || n.Dict == nil {
		return nil, false
	}
	m, ok := n.Dict[name]
	return m, ok
}

type Source struct {
	File      string `json:"file,omitempty"`
	StartLine int    `json:"start_line,omitempty"`
	EndLine   int    `json:"end_line,omitempty"`
	Text      string `json:"text,omitempty"`
}

type Signature struct {
	Params []*Param `json:"params"`
	Return *Return  `json:"return,omitempty"`
	// Exceptions is populated by docstring enrichment from @raise tags.
	Exceptions []*Exception `json:"exceptions,omitempty"`
}

type Param struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Annotation *Node  `json:"annotation,omitempty"`
	Default    *Node  `json:"default,omitempty"`
	Doc        string `json:"doc,omitempty"`
	DocType    string `json:"doc_type,omitempty"`
}

type Return struct {
	Annotation *Node  `json:"annotation,omitempty"`
	Doc        string `json:"doc,omitempty"`
	DocType    string `json:"doc_type,omitempty"`
}

type Exception struct {
	ExcType string `json:"exc_type"`
	Doc     string `json:"doc,omitempty"`
}

type Docs struct {
	Doc     string        `json:"doc,omitempty"`
	Summary string        `json:"summary,omitempty"`
	Body    string        `json:"body,omitempty"`
	Javadoc []*JavadocTag `json:"javadoc,omitempty"`
}

type JavadocTag struct {
	Tag  string `json:"tag"`
	Arg  string `json:"arg,omitempty"`
	Text string `json:"text,omitempty"`
}

// Encode writes the node as JSON. The tree never holds non-JSON-native
// values; reprs and refs are pre-converted strings, so round-tripping is
// lossless.
func Encode(n *Node) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(n); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func Decode(data []byte) (*Node, error) {
	var n Node
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, err
	}
	return &n, nil
}
