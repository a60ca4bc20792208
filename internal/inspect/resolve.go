// # internal/inspect/resolve.go
package inspect

import (
	"context"

	"supdoc/internal/objdoc"
)

// ResolveNode replaces a ref node with the document it points at. With
// fully set, chains of refs are followed until a full objdoc is reached;
// otherwise only one hop is taken. Non-ref nodes pass through unchanged.
func (ins *Inspector) ResolveNode(ctx context.Context, n *objdoc.Node, fully bool) (*objdoc.Node, error) {
	for n.IsRef() {
		p, err := objdoc.ParseRef(n)
		if err != nil {
			return nil, err
		}
		doc, err := ins.InspectPath(ctx, p)
		if err != nil {
			return nil, err
		}
		n = doc
		if !fully {
			break
		}
	}
	return n, nil
}
